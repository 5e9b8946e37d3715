package command

import (
	"errors"

	"github.com/headscore/headscore/internal/pkg/scanerrors"
)

// Exit codes of the CLI: 0 for any completed scan (grade F included),
// 1 for rejected input, 2 for network failure.
const (
	ExitOK      = 0
	ExitInvalid = 1
	ExitNetwork = 2
)

// ExitCode maps an execution error to the CLI exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var se scanerrors.ScanError
	if errors.As(err, &se) && se.Validation() {
		return ExitInvalid
	}
	return ExitNetwork
}
