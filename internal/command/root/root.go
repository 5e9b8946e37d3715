package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/headscore/headscore/internal/command"
	scancmd "github.com/headscore/headscore/internal/command/scan"
	servecmd "github.com/headscore/headscore/internal/command/serve"
	versioncmd "github.com/headscore/headscore/internal/command/versioncmd"
	"github.com/headscore/headscore/internal/config"
	"github.com/headscore/headscore/internal/pkg/scanerrors"
)

type Command struct {
	*command.BaseCommand
}

var _ command.Command = (*Command)(nil)

func NewRootCommand(cmdContext *command.Context) *Command {
	return &Command{BaseCommand: command.NewBaseCommand(cmdContext)}
}

func (c *Command) Use() string {
	return "headscore"
}

func (c *Command) Short() string {
	return "HTTP response-header security scanner"
}

func (c *Command) Long() string {
	return "Evaluates a site's HTTP response-header security posture and " +
		"produces a deterministic scorecard: per-test outcomes, a numeric " +
		"score and a letter grade."
}

func (c *Command) Args() command.PositionalArgs {
	// a bare host argument is accepted as shorthand for "scan <host>"
	return command.MaximumNArgs(1)
}

func (c *Command) Init() error {
	if err := config.BindGlobalFlags(c.PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind global flags: %w", err)
	}

	return c.AddSubCommands(
		scancmd.NewScanCommand(c.Context),
		servecmd.NewServeCommand(c.Context),
		versioncmd.NewVersionCommand(c.Context),
	)
}

func (c *Command) Run(cmd *cobra.Command, args []string) scanerrors.ScanError {
	if len(args) == 1 {
		return scancmd.Run(c.Context, cmd, args[0], false)
	}
	// Root command shows help when run without a host or subcommand
	if err := cmd.Help(); err != nil {
		return scanerrors.New(err)
	}
	return nil
}
