package serve

import (
	"github.com/spf13/cobra"

	"github.com/headscore/headscore/internal/api"
	"github.com/headscore/headscore/internal/command"
	"github.com/headscore/headscore/internal/pkg/scanerrors"
)

type Command struct {
	*command.BaseCommand
}

var _ command.Command = (*Command)(nil)

func NewServeCommand(cmdContext *command.Context) *Command {
	return &Command{BaseCommand: command.NewBaseCommand(cmdContext)}
}

func (c *Command) Use() string {
	return "serve"
}

func (c *Command) Short() string {
	return "Run the scan API server"
}

func (c *Command) Long() string {
	return "Serves the /api/v2 scan, analyze, batch, history and stats " +
		"endpoints, persisting scan summaries between requests."
}

func (c *Command) Args() command.PositionalArgs {
	return command.ExactArgs(0)
}

func (c *Command) Init() error {
	c.Flags().String("listen", "", "listen address (overrides config)")
	return nil
}

func (c *Command) Run(cmd *cobra.Command, args []string) scanerrors.ScanError {
	sc, err := c.Scanner()
	if err != nil {
		return err
	}

	cfg := c.Config()
	listen := cfg.Server.Listen
	if flagListen, _ := cmd.Flags().GetString("listen"); flagListen != "" {
		listen = flagListen
	}

	server := api.New(api.Config{
		Listen:          listen,
		BaseURL:         cfg.BaseURL,
		Cooldown:        cfg.Scanner.Cooldown,
		CacheTimeForGet: cfg.Scanner.CacheTimeForGet,
		ShutdownGrace:   cfg.Server.ShutdownGrace,
	}, sc, c.Store(), c.Logger("serve"))

	if serveErr := server.ListenAndServe(cmd.Context()); serveErr != nil {
		return scanerrors.New(serveErr)
	}
	return nil
}
