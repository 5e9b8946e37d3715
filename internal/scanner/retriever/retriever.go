// Package retriever turns a Site into the Requests snapshot the test
// battery consumes. It is the only layer of the scanner that performs I/O.
package retriever

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"

	probeclient "github.com/headscore/headscore/internal/pkg/clients/http"
	"github.com/headscore/headscore/internal/pkg/scanerrors"
	"github.com/headscore/headscore/internal/scanner/preload"
	"github.com/headscore/headscore/internal/scanner/site"
)

// Config bounds the retriever's probes.
type Config struct {
	// MaxRedirects caps the HTTPS probe's redirect chain.
	MaxRedirects int
	// BodyCap bounds how much of a response body is retained, in bytes.
	BodyCap int64
	// ProbeTimeout is the per-request timeout.
	ProbeTimeout time.Duration
	// UserAgent is sent on every probe.
	UserAgent string
	// Transport overrides the probe transport. Tests use it to point the
	// retriever at httptest servers with self-signed certificates.
	Transport http.RoundTripper
}

// DefaultConfig mirrors the published scanner's retrieval policy.
func DefaultConfig() Config {
	return Config{
		MaxRedirects: 20,
		BodyCap:      512 * 1024,
		ProbeTimeout: 15 * time.Second,
		UserAgent:    "headscore-scanner/1.0",
	}
}

// Retriever performs the fixed probe set for one scan at a time.
type Retriever struct {
	cfg       Config
	transport http.RoundTripper
	preload   *preload.List
	logger    *slog.Logger
}

// New builds a Retriever. The preload list is typically preload.Embedded().
func New(cfg Config, preloadList *preload.List, logger *slog.Logger) *Retriever {
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultConfig().MaxRedirects
	}
	if cfg.BodyCap <= 0 {
		cfg.BodyCap = DefaultConfig().BodyCap
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultConfig().ProbeTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	transport := probeclient.New(cfg.ProbeTimeout, cfg.UserAgent, logger).Transport
	if cfg.Transport != nil {
		transport = cfg.Transport
	}
	return &Retriever{
		cfg:       cfg,
		transport: transport,
		preload:   preloadList,
		logger:    logger,
	}
}

var errRedirectCap = errors.New("redirect cap reached")

// Retrieve runs the probe set and assembles the Requests snapshot.
// The HTTP probe runs concurrently with the HTTPS probe; robots.txt and
// the preload lookup need the final origin and run after it.
func (r *Retriever) Retrieve(ctx context.Context, s site.Site) (*Requests, scanerrors.ScanError) {
	req := &Requests{Site: s}

	var (
		mu      sync.Mutex
		cookies []SetCookie
	)
	recordCookies := func(resp *http.Response) {
		hopCookies := resp.Cookies()
		if len(hopCookies) == 0 {
			return
		}
		hop := resp.Request.URL
		mu.Lock()
		defer mu.Unlock()
		for _, c := range hopCookies {
			cookies = append(cookies, SetCookie{Cookie: c, Scheme: hop.Scheme, Host: hop.Hostname()})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		req.HTTPProbe = r.probeHTTP(gctx, s)
		return nil
	})

	httpsClient := http.Client{
		Transport: r.transport,
		Timeout:   r.cfg.ProbeTimeout,
		CheckRedirect: func(next *http.Request, via []*http.Request) error {
			if len(via) >= r.cfg.MaxRedirects {
				return errRedirectCap
			}
			recordCookies(next.Response)
			return nil
		},
	}

	httpsReq, err := http.NewRequestWithContext(gctx, http.MethodGet, s.BaseURL("https"), nil)
	if err != nil {
		return nil, scanerrors.New(err)
	}
	resp, err := httpsClient.Do(httpsReq)
	if err != nil {
		_ = g.Wait()
		return nil, r.classifyProbeError(ctx, s, err)
	}
	defer func() { _ = resp.Body.Close() }()
	recordCookies(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.cfg.BodyCap))
	if err != nil && len(body) == 0 {
		_ = g.Wait()
		return nil, scanerrors.NewConnectionError(s.Host(), err)
	}

	req.FinalURL = resp.Request.URL
	req.StatusCode = resp.StatusCode
	req.Headers = resp.Header
	req.Body = body
	req.Preload = r.lookupPreload(req.FinalURL.Hostname())

	g.Go(func() error {
		req.Robots = r.probeRobots(gctx, req.FinalURL)
		return nil
	})
	_ = g.Wait()

	req.Cookies = cookies
	return req, nil
}

// probeHTTP fetches the plain-text base URL without following redirects.
// Any transport failure is tolerated and reported as unreachable.
func (r *Retriever) probeHTTP(ctx context.Context, s site.Site) HTTPProbe {
	client := http.Client{
		Transport: r.transport,
		Timeout:   r.cfg.ProbeTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL("http"), nil)
	if err != nil {
		return HTTPProbe{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return HTTPProbe{}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return HTTPProbe{
		Reachable:  true,
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
	}
}

// probeRobots fetches robots.txt from the final origin, best-effort.
func (r *Retriever) probeRobots(ctx context.Context, finalURL *url.URL) mo.Option[string] {
	robotsURL := url.URL{Scheme: finalURL.Scheme, Host: finalURL.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return mo.None[string]()
	}
	client := http.Client{Transport: r.transport, Timeout: r.cfg.ProbeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return mo.None[string]()
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return mo.None[string]()
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, r.cfg.BodyCap))
	if err != nil {
		return mo.None[string]()
	}
	return mo.Some(string(body))
}

func (r *Retriever) lookupPreload(host string) preload.Result {
	if r.preload == nil {
		return preload.Result{}
	}
	return r.preload.Lookup(host)
}

// classifyProbeError maps an HTTPS probe failure to its scan error kind.
func (r *Retriever) classifyProbeError(ctx context.Context, s site.Site, err error) scanerrors.ScanError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return scanerrors.ParseContextError(s.Host(), ctxErr)
	}
	if errors.Is(err, errRedirectCap) {
		return scanerrors.NewRedirectionLoop(s.Host(), r.cfg.MaxRedirects)
	}
	if isTLSError(err) {
		return scanerrors.NewTLSError(s.Host(), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return scanerrors.NewScanTimeout(s.Host())
	}
	return scanerrors.NewConnectionError(s.Host(), err)
}

func isTLSError(err error) bool {
	var (
		recordErr  tls.RecordHeaderError
		verifyErr  *tls.CertificateVerificationError
		authErr    x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)
	if errors.As(err, &recordErr) || errors.As(err, &verifyErr) ||
		errors.As(err, &authErr) || errors.As(err, &hostErr) || errors.As(err, &invalidErr) {
		return true
	}
	return strings.Contains(err.Error(), "tls:")
}
