package config

import (
	"fmt"

	"github.com/headscore/headscore/internal/pkg/scanerrors"
)

type InvalidConfigError interface {
	scanerrors.ScanError
}

type invalidConfigError struct {
	key    string
	reason string
}

var _ InvalidConfigError = &invalidConfigError{}

func newInvalidConfigError(reason string) InvalidConfigError {
	return &invalidConfigError{reason: reason}
}

func (e *invalidConfigError) Error() string {
	if e.key != "" {
		return fmt.Sprintf("failed to load config for %s: %s", e.key, e.reason)
	}
	return fmt.Sprintf("failed to load config: %s", e.reason)
}

func (e *invalidConfigError) Title() string { return "Failed to load config" }

func (e *invalidConfigError) Kind() string { return "invalid-config" }

func (e *invalidConfigError) Validation() bool { return true }
