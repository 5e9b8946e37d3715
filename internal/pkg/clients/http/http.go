package http

import (
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Client is the probe HTTP client. Probes never send cookies or
// credentials, so no jar is configured; every probe shares the same
// transport and TLS settings.
type Client struct {
	http.Client
}

// New creates an HTTP client configured for scanning.
// If logger is non-nil, requests and responses will be logged at Debug level.
func New(requestTimeout time.Duration, userAgent string, logger *slog.Logger) *Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		Client: http.Client{
			Transport: &roundTripper{
				RoundTripper: base,
				userAgent:    userAgent,
				logger:       logger,
			},
			Timeout: requestTimeout,
		},
	}
}

type roundTripper struct {
	http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

func (r roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", r.userAgent)

	if r.logger != nil {
		r.logger.Debug("probe request", "method", req.Method, "url", req.URL.String())
	}

	start := time.Now()
	resp, err := r.RoundTripper.RoundTrip(req)
	duration := time.Since(start)

	if r.logger != nil {
		if err != nil {
			r.logger.Debug("probe error", "method", req.Method, "url", req.URL.String(), "error", err, "duration", duration)
		} else {
			r.logger.Debug("probe response", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode, "duration", duration)
		}
	}

	return resp, err
}
