package command

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/headscore/headscore/internal/pkg/scanerrors"
)

// Command is an interface that all CLI commands must implement.
// This allows new Commands to not have to worry about cobra specifics.
// Everything that implements Command MUST embed BaseCommand.
type Command interface {
	// AddSubCommands adds one or more subcommands to the command.
	// Should not be implemented.
	AddSubCommands(cmds ...Command) error
	// Use returns the name of the command as it will be used in the CLI.
	// Must be implemented.
	Use() string
	// Short returns the short description of the command.
	// Must be implemented.
	Short() string
	// Long returns the long description of the command.
	// Not required to implement.
	Long() string
	// Args returns the positional argument function for the command.
	// Must be implemented.
	Args() PositionalArgs
	// Run executes the main command logic.
	// Must be implemented.
	Run(cmd *cobra.Command, args []string) scanerrors.ScanError
	// Init will run before the underlying cobra command is initialized.
	// This can be useful for binding persistent flags, etc.
	// Not required to implement.
	Init() error
	// Flags returns the underlying flag set for the command.
	// Should not be implemented.
	Flags() *pflag.FlagSet
	// PersistentFlags returns the underlying persistent flag set.
	// Should not be implemented.
	PersistentFlags() *pflag.FlagSet
	// init is used to internally initialize the command. Serves as a
	// guard against implementing Command without embedding BaseCommand.
	init(Command)
	// command returns the underlying cobra command.
	command() *cobra.Command
}

// toCobra converts a domain Command to a Cobra command.
func toCobra(cmd Command) (*cobra.Command, error) {
	cobraCmd := cmd.command()
	cobraCmd.SilenceUsage = true
	cobraCmd.SilenceErrors = true

	if err := cmd.Init(); err != nil {
		return nil, fmt.Errorf("failed during Init(): %w", err)
	}
	cmd.init(cmd)

	cobraCmd.Use = cmd.Use()
	if cobraCmd.Use == "" {
		return nil, fmt.Errorf("Use() is empty")
	}
	cobraCmd.Short = cmd.Short()
	if cobraCmd.Short == "" {
		return nil, fmt.Errorf("Short() is empty")
	}
	cobraCmd.Long = cmd.Long()

	if args := cmd.Args(); args == nil {
		return nil, fmt.Errorf("Args() is nil")
	}
	cobraCmd.Args = func(runtimeCmd *cobra.Command, args []string) error {
		return cmd.Args()(runtimeCmd, args)
	}

	cobraCmd.RunE = func(c *cobra.Command, args []string) error {
		if err := cmd.Run(c, args); err != nil {
			return err
		}
		return nil
	}
	return cobraCmd, nil
}

// RootCommandToCobra is essentially toCobra(), with different naming to
// prevent non-root commands from using it.
func RootCommandToCobra(root Command) (*cobra.Command, scanerrors.ScanError) {
	cobraCmd, err := toCobra(root)
	if err != nil {
		return nil, scanerrors.New(err)
	}
	return cobraCmd, nil
}
