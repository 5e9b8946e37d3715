package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/headscore/headscore/internal/command"
	"github.com/headscore/headscore/internal/command/root"
	"github.com/headscore/headscore/internal/config"
	"github.com/headscore/headscore/internal/store"
)

func dataDir() (string, error) {
	if override := os.Getenv("HEADSCORE_DATA_DIR"); override != "" {
		if err := os.MkdirAll(override, 0o700); err != nil {
			return "", err
		}
		return override, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, ".config", "headscore")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func main() {
	os.Exit(run())
}

func run() int {
	dir, err := dataDir()
	if err != nil {
		printError(err)
		return command.ExitNetwork
	}

	ds, err := store.New(dir)
	if err != nil {
		printError(err)
		return command.ExitNetwork
	}

	cfg, cfgErr := config.New(dir)
	if cfgErr != nil {
		printError(cfgErr)
		return command.ExitInvalid
	}

	commandCtx := command.NewCommandContext(cfg, ds)

	rootCmd, rootErr := command.RootCommandToCobra(root.NewRootCommand(commandCtx))
	if rootErr != nil {
		printError(rootErr)
		return command.ExitNetwork
	}

	// Signal-aware execution
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(sigCtx); err != nil {
		printError(err)
		return command.ExitCode(err)
	}
	return command.ExitOK
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "headscore: %v\n", err)
}
