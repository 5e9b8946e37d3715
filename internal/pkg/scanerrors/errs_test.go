package scanerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, New(nil))
	})

	t.Run("wraps plain error as scan-failed", func(t *testing.T) {
		err := New(errors.New("boom"))
		require.NotNil(t, err)
		assert.Equal(t, "scan-failed", err.Kind())
		assert.Equal(t, "boom", err.Error())
		assert.False(t, err.Validation())
	})

	t.Run("does not double-wrap", func(t *testing.T) {
		inner := NewInvalidHostname("bad host", "contains whitespace")
		outer := New(fmt.Errorf("outer: %w", inner))
		assert.Equal(t, "invalid-hostname", outer.Kind())
	})
}

func TestKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        ScanError
		wantKind   string
		validation bool
	}{
		{"invalid hostname", NewInvalidHostname("x", "no dot"), "invalid-hostname", true},
		{"invalid lookup", NewInvalidHostnameLookup("x.test", nil), "invalid-hostname-lookup", true},
		{"invalid port", NewInvalidPort("99999"), "invalid-port", true},
		{"connection error", NewConnectionError("x.test", errors.New("refused")), "connection-error", false},
		{"tls error", NewTLSError("x.test", errors.New("handshake")), "tls-error", false},
		{"redirection loop", NewRedirectionLoop("x.test", 20), "redirection-loop", false},
		{"scan timeout", NewScanTimeout("x.test"), "scan-timeout", false},
		{"scan cancelled", NewScanCancelled("x.test"), "scan-cancelled", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.err.Kind())
			assert.Equal(t, tt.validation, tt.err.Validation())
			assert.NotEmpty(t, tt.err.Title())
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestParseContextError(t *testing.T) {
	assert.Equal(t, "scan-cancelled", ParseContextError("x.test", context.Canceled).Kind())
	assert.Equal(t, "scan-timeout", ParseContextError("x.test", context.DeadlineExceeded).Kind())
	assert.Equal(t, "scan-failed", ParseContextError("x.test", errors.New("other")).Kind())
}

func TestKindOf(t *testing.T) {
	assert.Empty(t, KindOf(nil))
	assert.Equal(t, "scan-failed", KindOf(errors.New("plain")))
	wrapped := fmt.Errorf("wrap: %w", NewConnectionError("x.test", errors.New("refused")))
	assert.Equal(t, "connection-error", KindOf(wrapped))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(NewInvalidPort("0")))
	assert.False(t, IsValidation(NewConnectionError("x.test", errors.New("refused"))))
	assert.False(t, IsValidation(errors.New("plain")))
}
