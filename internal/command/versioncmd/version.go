package versioncmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/headscore/headscore/internal/command"
	"github.com/headscore/headscore/internal/pkg/scanerrors"
	"github.com/headscore/headscore/internal/version"
)

type Command struct {
	*command.BaseCommand
}

var _ command.Command = (*Command)(nil)

func NewVersionCommand(cmdContext *command.Context) *Command {
	return &Command{BaseCommand: command.NewBaseCommand(cmdContext)}
}

func (c *Command) Use() string {
	return "version"
}

func (c *Command) Short() string {
	return "Print build information"
}

func (c *Command) Args() command.PositionalArgs {
	return command.ExactArgs(0)
}

func (c *Command) Run(cmd *cobra.Command, args []string) scanerrors.ScanError {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(version.BuildInfo()); err != nil {
		return scanerrors.New(err)
	}
	return nil
}
