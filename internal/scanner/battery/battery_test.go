package battery

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/headscore/headscore/internal/scanner/preload"
	"github.com/headscore/headscore/internal/scanner/retriever"
	"github.com/headscore/headscore/internal/scanner/site"
)

// fixture builds a Requests snapshot for evaluator tests.
type fixture struct {
	host      string
	scheme    string
	headers   http.Header
	body      string
	cookies   []retriever.SetCookie
	httpProbe retriever.HTTPProbe
	preloaded bool
}

func (f fixture) build(t *testing.T) *retriever.Requests {
	t.Helper()
	host := f.host
	if host == "" {
		host = "example.test"
	}
	scheme := f.scheme
	if scheme == "" {
		scheme = "https"
	}
	s, err := site.FromString(host)
	require.Nil(t, err)
	finalURL, perr := url.Parse(scheme + "://" + host + "/")
	require.NoError(t, perr)
	headers := f.headers
	if headers == nil {
		headers = http.Header{}
	}
	return &retriever.Requests{
		Site:       s,
		FinalURL:   finalURL,
		StatusCode: 200,
		Headers:    headers,
		Body:       []byte(f.body),
		Cookies:    f.cookies,
		HTTPProbe:  f.httpProbe,
		Preload:    preload.Result{Preloaded: f.preloaded, Entry: host},
	}
}

func headers(pairs ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Add(pairs[i], pairs[i+1])
	}
	return h
}

func setCookie(t *testing.T, scheme, line string) retriever.SetCookie {
	t.Helper()
	resp := http.Response{Header: http.Header{"Set-Cookie": []string{line}}}
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	return retriever.SetCookie{Cookie: cookies[0], Scheme: scheme, Host: "example.test"}
}

func TestEvaluateCSP(t *testing.T) {
	t.Run("header policy", func(t *testing.T) {
		req := fixture{headers: headers("Content-Security-Policy", "default-src 'none'; script-src 'self'")}.build(t)
		outcome, data := evaluateCSP(req)
		assert.Equal(t, CSPNoUnsafe, outcome)
		assert.Equal(t, 1, data.(cspData).NumHeaders)
	})

	t.Run("meta policy in html", func(t *testing.T) {
		req := fixture{
			headers: headers("Content-Type", "text/html; charset=utf-8"),
			body:    `<html><head><meta http-equiv="Content-Security-Policy" content="default-src 'self'"></head></html>`,
		}.build(t)
		outcome, data := evaluateCSP(req)
		assert.Equal(t, CSPNoUnsafe, outcome)
		assert.Equal(t, 1, data.(cspData).NumMeta)
	})

	t.Run("meta ignored for non-html", func(t *testing.T) {
		req := fixture{
			headers: headers("Content-Type", "application/json"),
			body:    `<meta http-equiv="Content-Security-Policy" content="default-src 'self'">`,
		}.build(t)
		outcome, _ := evaluateCSP(req)
		assert.Equal(t, CSPNotImplemented, outcome)
	})

	t.Run("unsafe inline", func(t *testing.T) {
		req := fixture{headers: headers("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'")}.build(t)
		outcome, _ := evaluateCSP(req)
		assert.Equal(t, CSPUnsafeInline, outcome)
	})
}

func TestEvaluateCookies(t *testing.T) {
	t.Run("no cookies", func(t *testing.T) {
		outcome, _ := evaluateCookies(fixture{}.build(t))
		assert.Equal(t, CookiesNotFound, outcome)
	})

	t.Run("secure httponly session with samesite", func(t *testing.T) {
		req := fixture{cookies: []retriever.SetCookie{
			setCookie(t, "https", "SESSIONID=abc; Secure; HttpOnly; SameSite=Strict"),
		}}.build(t)
		outcome, _ := evaluateCookies(req)
		assert.Equal(t, CookiesSecureWithHTTPOnlySessionsSameSite, outcome)
	})

	t.Run("secure httponly session without samesite", func(t *testing.T) {
		req := fixture{cookies: []retriever.SetCookie{
			setCookie(t, "https", "SESSIONID=abc; Secure; HttpOnly"),
		}}.build(t)
		outcome, _ := evaluateCookies(req)
		assert.Equal(t, CookiesWithoutSameSite, outcome)
	})

	t.Run("session cookie without secure flag", func(t *testing.T) {
		req := fixture{cookies: []retriever.SetCookie{
			setCookie(t, "https", "SESSIONID=abc; HttpOnly"),
		}}.build(t)
		outcome, _ := evaluateCookies(req)
		assert.Equal(t, CookiesWithoutSecure, outcome)
	})

	t.Run("session cookie without httponly", func(t *testing.T) {
		req := fixture{cookies: []retriever.SetCookie{
			setCookie(t, "https", "SESSIONID=abc; Secure; SameSite=Lax"),
		}}.build(t)
		outcome, _ := evaluateCookies(req)
		assert.Equal(t, CookiesSessionWithoutHTTPOnly, outcome)
	})

	t.Run("cookie on http hop without secure", func(t *testing.T) {
		req := fixture{cookies: []retriever.SetCookie{
			setCookie(t, "http", "prefs=dark"),
		}}.build(t)
		outcome, _ := evaluateCookies(req)
		assert.Equal(t, CookiesWithoutSecure, outcome)
	})

	t.Run("non-session cookie may skip httponly", func(t *testing.T) {
		req := fixture{cookies: []retriever.SetCookie{
			setCookie(t, "https", "prefs=dark; Secure; SameSite=Lax"),
		}}.build(t)
		outcome, _ := evaluateCookies(req)
		assert.Equal(t, CookiesSecureWithHTTPOnlySessionsSameSite, outcome)
	})

	t.Run("invalid samesite value", func(t *testing.T) {
		req := fixture{cookies: []retriever.SetCookie{
			setCookie(t, "https", "prefs=dark; Secure; SameSite=Whatever"),
		}}.build(t)
		outcome, _ := evaluateCookies(req)
		assert.Equal(t, CookiesSameSiteInvalid, outcome)
	})

	t.Run("same name set twice keeps both observations", func(t *testing.T) {
		req := fixture{cookies: []retriever.SetCookie{
			setCookie(t, "http", "SESSIONID=a"),
			setCookie(t, "https", "SESSIONID=b; Secure; HttpOnly; SameSite=Lax"),
		}}.build(t)
		outcome, data := evaluateCookies(req)
		assert.Equal(t, CookiesWithoutSecure, outcome)
		assert.Len(t, data.([]cookieObservation), 2)
	})
}

func TestEvaluateCORS(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		want    string
	}{
		{"absent", headers(), CORSNotImplemented},
		{"wildcard", headers("Access-Control-Allow-Origin", "*"), CORSPublicAccess},
		{"wildcard with credentials", headers(
			"Access-Control-Allow-Origin", "*",
			"Access-Control-Allow-Credentials", "true"), CORSUniversalAccess},
		{"specific origin", headers("Access-Control-Allow-Origin", "https://app.example.test"), CORSRestrictedAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, _ := evaluateCORS(fixture{headers: tt.headers}.build(t))
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestEvaluateReferrer(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		body    string
		want    string
	}{
		{"absent", headers(), "", ReferrerNotImplemented},
		{"no-referrer", headers("Referrer-Policy", "no-referrer"), "", ReferrerPrivate},
		{"strict-origin-when-cross-origin", headers("Referrer-Policy", "strict-origin-when-cross-origin"), "", ReferrerPrivate},
		{"downgrade", headers("Referrer-Policy", "no-referrer-when-downgrade"), "", ReferrerNoDowngrade},
		{"unsafe-url", headers("Referrer-Policy", "unsafe-url"), "", ReferrerUnsafe},
		{"invalid", headers("Referrer-Policy", "whenever"), "", ReferrerHeaderInvalid},
		{"fallback list takes last recognized", headers("Referrer-Policy", "bogus, no-referrer, unsafe-url"), "", ReferrerUnsafe},
		{
			"meta wins over header",
			headers("Referrer-Policy", "unsafe-url", "Content-Type", "text/html"),
			`<html><head><meta name="referrer" content="no-referrer"></head></html>`,
			ReferrerPrivate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, _ := evaluateReferrer(fixture{headers: tt.headers, body: tt.body}.build(t))
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestEvaluateHSTS(t *testing.T) {
	tests := []struct {
		name      string
		headers   http.Header
		scheme    string
		preloaded bool
		want      string
	}{
		{"six months", headers("Strict-Transport-Security", "max-age=15552000"), "", false, HSTSImplemented},
		{"two years with flags", headers("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload"), "", true, HSTSImplemented},
		{"short max-age", headers("Strict-Transport-Security", "max-age=86400"), "", false, HSTSShortMaxAge},
		{"short max-age but preloaded", headers("Strict-Transport-Security", "max-age=86400"), "", true, HSTSPreloaded},
		{"absent", headers(), "", false, HSTSNotImplemented},
		{"absent but preloaded", headers(), "", true, HSTSPreloaded},
		{"missing max-age", headers("Strict-Transport-Security", "includeSubDomains"), "", false, HSTSHeaderInvalid},
		{"garbage max-age", headers("Strict-Transport-Security", "max-age=soon"), "", false, HSTSHeaderInvalid},
		{"no https", headers(), "http", false, HSTSNotImplementedNoHTTPS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, _ := evaluateHSTS(fixture{headers: tt.headers, scheme: tt.scheme, preloaded: tt.preloaded}.build(t))
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestEvaluateSRI(t *testing.T) {
	htmlHeaders := headers("Content-Type", "text/html")
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not html", "", SRINotImplementedResponseNotHTML},
		{"no scripts", `<html><body><p>hi</p></body></html>`, SRINotImplementedNoScripts},
		{
			"same origin without sri",
			`<html><script src="/app.js"></script></html>`,
			SRINotImplementedSameOrigin,
		},
		{
			"external with sri over https",
			`<html><script src="https://cdn.test/lib.js" integrity="sha384-abc"></script></html>`,
			SRIImplementedAllSecure,
		},
		{
			"external with sri plus same-origin without",
			`<html><script src="https://cdn.test/lib.js" integrity="sha384-abc"></script><script src="/app.js"></script></html>`,
			SRIImplementedExternalSecure,
		},
		{
			"external without sri over https",
			`<html><script src="https://cdn.test/lib.js"></script></html>`,
			SRINotImplementedExternalSecure,
		},
		{
			"external without sri over http",
			`<html><script src="http://cdn.test/lib.js"></script></html>`,
			SRINotImplementedExternalInsecure,
		},
		{
			"sri but loaded over http",
			`<html><script src="http://cdn.test/lib.js" integrity="sha384-abc"></script></html>`,
			SRIImplementedExternalInsecure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body string
			h := headers()
			if tt.name != "not html" {
				h = htmlHeaders
				body = tt.body
			}
			outcome, _ := evaluateSRI(fixture{headers: h, body: body}.build(t))
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestEvaluateXCTO(t *testing.T) {
	outcome, _ := evaluateXCTO(fixture{headers: headers("X-Content-Type-Options", "nosniff")}.build(t))
	assert.Equal(t, XCTONosniff, outcome)

	outcome, _ = evaluateXCTO(fixture{headers: headers("X-Content-Type-Options", "NOSNIFF")}.build(t))
	assert.Equal(t, XCTONosniff, outcome)

	outcome, _ = evaluateXCTO(fixture{}.build(t))
	assert.Equal(t, XCTONotImplemented, outcome)

	outcome, _ = evaluateXCTO(fixture{headers: headers("X-Content-Type-Options", "sniff")}.build(t))
	assert.Equal(t, XCTOHeaderInvalid, outcome)
}

func TestEvaluateXFO(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		want    string
	}{
		{"deny", headers("X-Frame-Options", "DENY"), XFOSameOriginOrDeny},
		{"sameorigin lowercase", headers("X-Frame-Options", "sameorigin"), XFOSameOriginOrDeny},
		{"allow-from", headers("X-Frame-Options", "ALLOW-FROM https://parent.test"), XFOAllowFromOrigin},
		{"absent", headers(), XFONotImplemented},
		{"invalid", headers("X-Frame-Options", "ALLOWALL"), XFOHeaderInvalid},
		{
			"csp frame-ancestors wins",
			headers("X-Frame-Options", "DENY", "Content-Security-Policy", "frame-ancestors 'none'"),
			XFOImplementedViaCSP,
		},
		{
			"csp without frame-ancestors falls back to header",
			headers("X-Frame-Options", "DENY", "Content-Security-Policy", "default-src 'self'"),
			XFOSameOriginOrDeny,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, _ := evaluateXFO(fixture{headers: tt.headers}.build(t))
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestEvaluateRedirection(t *testing.T) {
	tests := []struct {
		name  string
		probe retriever.HTTPProbe
		want  string
	}{
		{"http unreachable", retriever.HTTPProbe{}, RedirectionNotNeededNoHTTP},
		{
			"redirects to https same host",
			retriever.HTTPProbe{Reachable: true, StatusCode: 301, Location: "https://example.test/"},
			RedirectionToHTTPS,
		},
		{
			"serves 200 over http",
			retriever.HTTPProbe{Reachable: true, StatusCode: 200},
			RedirectionNotToHTTPS,
		},
		{
			"redirect without location",
			retriever.HTTPProbe{Reachable: true, StatusCode: 301},
			RedirectionNotToHTTPS,
		},
		{
			"initial redirect stays on http",
			retriever.HTTPProbe{Reachable: true, StatusCode: 301, Location: "http://example.test/landing"},
			RedirectionNotInitial,
		},
		{
			"initial redirect leaves host on http",
			retriever.HTTPProbe{Reachable: true, StatusCode: 302, Location: "http://other.test/"},
			RedirectionOffHost,
		},
		{
			"https redirect to another host",
			retriever.HTTPProbe{Reachable: true, StatusCode: 301, Location: "https://www.other.test/"},
			RedirectionOffHost,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, _ := evaluateRedirection(fixture{httpProbe: tt.probe}.build(t))
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestEvaluateCORP(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"absent", "", CORPNotImplemented},
		{"same-origin", "same-origin", CORPSameOrigin},
		{"same-site", "Same-Site", CORPSameSite},
		{"cross-origin", "cross-origin", CORPCrossOrigin},
		{"invalid", "anything-goes", CORPHeaderInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := headers()
			if tt.value != "" {
				h = headers("Cross-Origin-Resource-Policy", tt.value)
			}
			outcome, _ := evaluateCORP(fixture{headers: h}.build(t))
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestRun(t *testing.T) {
	registry := Registry("")
	require.Len(t, registry, 10)

	req := fixture{headers: headers("X-Content-Type-Options", "nosniff")}.build(t)
	var xcto Spec
	for _, spec := range registry {
		if spec.Name == TestXContentTypeOptions {
			xcto = spec
		}
	}

	t.Run("default expectation", func(t *testing.T) {
		result := Run(xcto, req, "")
		assert.Equal(t, XCTONosniff, result.Outcome)
		assert.True(t, result.Pass)
		assert.Zero(t, result.ScoreModifier)
	})

	t.Run("passing outcome differing from expectation still passes", func(t *testing.T) {
		var cookies Spec
		for _, spec := range registry {
			if spec.Name == TestCookies {
				cookies = spec
			}
		}
		result := Run(cookies, req, "")
		assert.Equal(t, CookiesNotFound, result.Outcome)
		assert.NotEqual(t, result.Expectation, result.Outcome)
		assert.True(t, result.Pass)
	})

	t.Run("override flips pass to strict equality", func(t *testing.T) {
		result := Run(xcto, req, XCTONotImplemented)
		assert.Equal(t, XCTONotImplemented, result.Expectation)
		assert.False(t, result.Pass)
	})
}

func TestRunAllDeterministic(t *testing.T) {
	registry := Registry("")
	req := fixture{
		headers: headers(
			"Content-Security-Policy", "default-src 'none'; script-src 'self'",
			"Strict-Transport-Security", "max-age=63072000",
			"X-Content-Type-Options", "nosniff",
			"X-Frame-Options", "DENY",
			"Referrer-Policy", "no-referrer",
		),
		httpProbe: retriever.HTTPProbe{Reachable: true, StatusCode: 301, Location: "https://example.test/"},
	}.build(t)

	first := RunAll(registry, req, nil)
	second := RunAll(registry, req, nil)
	assert.Equal(t, first, second)
	assert.Len(t, first, 10)
}
