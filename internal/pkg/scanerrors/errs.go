package scanerrors

import (
	"context"
	"errors"
	"fmt"
)

// ScanError is the error surface shared by every failure the scanner can
// produce. Kind is the stable wire identifier persisted in scan rows and
// returned by the API; Title is the short human label.
type ScanError interface {
	// Title is the canonical human-readable identifier for the error.
	// Must be short and concise, and not depend on context.
	Title() string
	// Kind is the stable machine identifier (e.g. "invalid-hostname").
	Kind() string
	// Error is the underlying error detail.
	Error() string
	// Validation reports whether the error rejects the input rather than
	// the retrieval. Validation errors are never persisted.
	Validation() bool
}

var _ error = ScanError(nil)

type scanError struct {
	kind       string
	title      string
	validation bool
	err        error
}

func (e *scanError) Error() string    { return e.err.Error() }
func (e *scanError) Kind() string     { return e.kind }
func (e *scanError) Title() string    { return e.title }
func (e *scanError) Validation() bool { return e.validation }
func (e *scanError) Unwrap() error    { return e.err }

// New wraps err as a generic scan-failed error.
// If err is already a ScanError it is returned unchanged to avoid
// double-wrapping.
func New(err error) ScanError {
	if err == nil {
		return nil
	}
	var se ScanError
	if errors.As(err, &se) {
		return se
	}
	return &scanError{kind: "scan-failed", title: "Scan Failed", err: err}
}

// NewInvalidHostname rejects a host string that fails the hostname grammar.
func NewInvalidHostname(input string, reason string) ScanError {
	return &scanError{
		kind:       "invalid-hostname",
		title:      "Invalid Hostname",
		validation: true,
		err:        fmt.Errorf("%q is not a valid hostname: %s", input, reason),
	}
}

// NewInvalidHostnameLookup rejects a host whose DNS resolution produced no
// A/AAAA answer.
func NewInvalidHostnameLookup(host string, err error) ScanError {
	if err == nil {
		err = fmt.Errorf("no address records for %q", host)
	}
	return &scanError{
		kind:       "invalid-hostname-lookup",
		title:      "Hostname Does Not Resolve",
		validation: true,
		err:        fmt.Errorf("failed to resolve %q: %w", host, err),
	}
}

// NewInvalidPort rejects a port outside 1..65535.
func NewInvalidPort(input string) ScanError {
	return &scanError{
		kind:       "invalid-port",
		title:      "Invalid Port",
		validation: true,
		err:        fmt.Errorf("%q is not a valid port", input),
	}
}

// NewConnectionError reports that the HTTPS probe could not reach the site.
func NewConnectionError(host string, err error) ScanError {
	return &scanError{
		kind:  "connection-error",
		title: "Connection Error",
		err:   fmt.Errorf("failed to connect to %q: %w", host, err),
	}
}

// NewTLSError reports a failed TLS handshake on the HTTPS probe.
func NewTLSError(host string, err error) ScanError {
	return &scanError{
		kind:  "tls-error",
		title: "TLS Error",
		err:   fmt.Errorf("tls handshake with %q failed: %w", host, err),
	}
}

// NewRedirectionLoop reports that the redirect cap was hit.
func NewRedirectionLoop(host string, max int) ScanError {
	return &scanError{
		kind:  "redirection-loop",
		title: "Redirection Loop",
		err:   fmt.Errorf("%q exceeded %d redirects", host, max),
	}
}

// NewScanTimeout reports that the overall scan wall-clock cap elapsed.
func NewScanTimeout(host string) ScanError {
	return &scanError{
		kind:  "scan-timeout",
		title: "Scan Timeout",
		err:   fmt.Errorf("scan of %q timed out before it could be completed", host),
	}
}

// NewScanCancelled reports that the caller's context was cancelled.
func NewScanCancelled(host string) ScanError {
	return &scanError{
		kind:  "scan-cancelled",
		title: "Scan Cancelled",
		err:   fmt.Errorf("scan of %q was cancelled before it completed", host),
	}
}

// ParseContextError maps a context error to the matching ScanError.
// This should only be called on errors returned from ctx.Err().
func ParseContextError(host string, err error) ScanError {
	switch {
	case errors.Is(err, context.Canceled):
		return NewScanCancelled(host)
	case errors.Is(err, context.DeadlineExceeded):
		return NewScanTimeout(host)
	default:
		return New(err)
	}
}

// IsValidation checks whether err carries a validation ScanError.
func IsValidation(err error) bool {
	var se ScanError
	return errors.As(err, &se) && se.Validation()
}

// KindOf returns the kind of err, or "scan-failed" for unclassified errors.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var se ScanError
	if errors.As(err, &se) {
		return se.Kind()
	}
	return "scan-failed"
}
