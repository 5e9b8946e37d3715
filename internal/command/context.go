package command

import (
	"log/slog"

	"github.com/headscore/headscore/internal/config"
	"github.com/headscore/headscore/internal/pkg/scanerrors"
	"github.com/headscore/headscore/internal/scanner"
	"github.com/headscore/headscore/internal/scanner/preload"
	"github.com/headscore/headscore/internal/scanner/retriever"
	"github.com/headscore/headscore/internal/store"
)

// Context is the set of dependencies that are injected into each command.
type Context struct {
	config *config.Config
	store  store.Store
	logger *slog.Logger
	// scanner is memoized on first use
	scanner *scanner.Scanner
}

// ContextOpts are functional options for configuring Context
type ContextOpts func(*Context)

func NewCommandContext(cfg *config.Config, st store.Store, opts ...ContextOpts) *Context {
	c := &Context{config: cfg, store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Config() *config.Config { return c.config }
func (c *Context) Store() store.Store     { return c.store }

// SetLogger sets the logger used by commands created with this context.
func (c *Context) SetLogger(l *slog.Logger) { c.logger = l }

// Logger returns a logger pre-populated with the command name field.
func (c *Context) Logger(cmdName string) *slog.Logger {
	return c.logger.With("cmd", cmdName)
}

// Scanner provides the scan orchestrator, building it on first use from
// the loaded configuration.
func (c *Context) Scanner() (*scanner.Scanner, scanerrors.ScanError) {
	if c.scanner != nil {
		return c.scanner, nil
	}

	preloadList, err := preload.Embedded()
	if err != nil {
		return nil, scanerrors.New(err)
	}

	cfg := c.config.Scanner
	r := retriever.New(retriever.Config{
		MaxRedirects: cfg.MaxRedirects,
		BodyCap:      cfg.BodyCap,
		ProbeTimeout: cfg.ProbeTimeout,
	}, preloadList, c.logger)

	// Memoize the scanner since it is stateless across scans apart from
	// its caches, which must be shared
	c.scanner = scanner.New(scanner.Config{
		Cooldown:        cfg.Cooldown,
		ScanTimeout:     cfg.ScanTimeout,
		AllowPrivate:    cfg.AllowPrivate,
		CORPExpectation: cfg.CORPExpectation,
	}, r, c.store, c.logger)
	return c.scanner, nil
}

// WithScanner injects an instantiated Scanner into the Context.
// This should only be used in tests; in the application the scanner is
// instantiated on demand.
func WithScanner(sc *scanner.Scanner) ContextOpts {
	return func(c *Context) { c.scanner = sc }
}
