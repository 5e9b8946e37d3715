package scan

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/headscore/headscore/internal/command"
	"github.com/headscore/headscore/internal/pkg/scanerrors"
	"github.com/headscore/headscore/internal/scanner"
)

type Command struct {
	*command.BaseCommand
}

var _ command.Command = (*Command)(nil)

func NewScanCommand(cmdContext *command.Context) *Command {
	return &Command{BaseCommand: command.NewBaseCommand(cmdContext)}
}

func (c *Command) Use() string {
	return "scan <host>"
}

func (c *Command) Short() string {
	return "Scan a site's HTTP response headers and print the JSON report"
}

func (c *Command) Long() string {
	return "Probes the target over HTTPS and HTTP, evaluates the header " +
		"security test battery, and prints a single JSON scorecard to stdout."
}

func (c *Command) Args() command.PositionalArgs {
	return command.ExactArgs(1)
}

func (c *Command) Init() error {
	c.Flags().Bool("fresh", false, "ignore the cooldown cache and force a new retrieval")
	return nil
}

func (c *Command) Run(cmd *cobra.Command, args []string) scanerrors.ScanError {
	fresh, _ := cmd.Flags().GetBool("fresh")
	return Run(c.Context, cmd, args[0], fresh)
}

// Run performs the one-shot scan and prints the report envelope. The root
// command delegates here when invoked with a bare host argument.
func Run(cmdContext *command.Context, cmd *cobra.Command, host string, fresh bool) scanerrors.ScanError {
	sc, err := cmdContext.Scanner()
	if err != nil {
		return err
	}

	opts := scanner.Options{}
	if fresh {
		opts.MaxAge = 1 // any persisted row is considered stale
	}

	result, err := sc.Scan(cmd.Context(), host, opts)
	if err != nil {
		return err
	}

	if printErr := printReport(cmd, result.Report); printErr != nil {
		return scanerrors.New(printErr)
	}

	// a completed scan that could not retrieve still exits non-zero
	if result.Report.Error != "" {
		return scanerrors.NewConnectionError(result.Report.SiteKey,
			fmt.Errorf("scan failed: %s", result.Report.Error))
	}
	return nil
}

// printReport emits the report as the scan-wrapper envelope: summary under
// "scan", full results under "tests".
func printReport(cmd *cobra.Command, report *scanner.ScanReport) error {
	envelope := struct {
		Scan  *scanner.ScanReport `json:"scan"`
		Tests any                 `json:"tests"`
	}{
		Scan:  summaryOnly(report),
		Tests: report.Tests,
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(envelope)
}

// summaryOnly strips the tests map off a copy so it appears only at the
// envelope's top level.
func summaryOnly(report *scanner.ScanReport) *scanner.ScanReport {
	summary := *report
	summary.Tests = nil
	return &summary
}
