package command

import (
	"github.com/spf13/cobra"

	"github.com/headscore/headscore/internal/pkg/scanerrors"
)

// Essentially the same as cobra.PositionalArgs, but with its
// own error type.
type PositionalArgs func(cmd *cobra.Command, args []string) error

type ArgCountError interface {
	scanerrors.ScanError
}

type argCountError struct {
	err error
}

func (e *argCountError) Error() string { return e.err.Error() }

func (e *argCountError) Title() string { return "Incorrect Number of Arguments" }

func (e *argCountError) Kind() string { return "invalid-arguments" }

func (e *argCountError) Validation() bool { return true }

func NewArgCountError(err error) ArgCountError {
	return &argCountError{err: err}
}

func ExactArgs(n int) PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return NewArgCountError(err)
		}
		return nil
	}
}

func MaximumNArgs(n int) PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return NewArgCountError(err)
		}
		return nil
	}
}
