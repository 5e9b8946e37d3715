package retriever

import (
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/mo"

	"github.com/headscore/headscore/internal/scanner/preload"
	"github.com/headscore/headscore/internal/scanner/site"
)

// SetCookie is one Set-Cookie observation. The same cookie name may be set
// multiple times along the redirect chain, so observations form a list,
// not a keyed map.
type SetCookie struct {
	Cookie *http.Cookie
	// Scheme is the scheme of the hop that emitted the cookie.
	Scheme string
	// Host is the host of the hop that emitted the cookie.
	Host string
}

// HTTPProbe is the outcome of the plain-text probe of the base URL,
// performed without redirect following.
type HTTPProbe struct {
	Reachable  bool
	StatusCode int
	Location   string
}

// Requests is the immutable snapshot of everything the retriever observed
// for one scan. The test battery reads it; nothing writes it afterwards.
type Requests struct {
	Site site.Site

	// FinalURL is the URL the HTTPS probe settled on after redirects.
	FinalURL   *url.URL
	StatusCode int
	// Headers holds the final response headers with multi-values preserved.
	Headers http.Header
	// Body is the decoded response body, capped at the configured size.
	Body []byte

	Cookies   []SetCookie
	HTTPProbe HTTPProbe
	Robots    mo.Option[string]
	Preload   preload.Result
}

// IsHTML reports whether the final response declared an HTML content type.
func (r *Requests) IsHTML() bool {
	ct := r.Headers.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// FinalHTTPS reports whether the probe settled on an HTTPS endpoint.
func (r *Requests) FinalHTTPS() bool {
	return r.FinalURL != nil && strings.EqualFold(r.FinalURL.Scheme, "https")
}

// HeaderMap flattens the response headers into a single-value map for
// report emission, joining multi-values the way the wire would.
func (r *Requests) HeaderMap() map[string]string {
	out := make(map[string]string, len(r.Headers))
	for name, values := range r.Headers {
		out[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return out
}
