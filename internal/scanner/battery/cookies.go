package battery

import (
	"net/http"
	"strings"

	"github.com/headscore/headscore/internal/scanner/retriever"
)

// sessionNamePatterns flags cookies that look like they carry a session.
// Matching is by lowercase substring over the cookie name.
var sessionNamePatterns = []string{
	"session",
	"sess",
	"phpsessid",
	"jsessionid",
	"asp.net_sessionid",
	"connect.sid",
	"auth",
	"login",
	"token",
}

// cookieObservation is one recorded Set-Cookie for the report data.
type cookieObservation struct {
	Name     string `json:"name"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
	SameSite string `json:"sameSite,omitempty"`
	Path     string `json:"path,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Scheme   string `json:"setOnScheme"`
	Session  bool   `json:"session"`
}

func isSessionCookie(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range sessionNamePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func sameSiteString(mode http.SameSite) string {
	switch mode {
	case http.SameSiteLaxMode:
		return "Lax"
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return ""
	}
}

// rawSameSiteInvalid detects a SameSite attribute whose value the cookie
// parser could not map to a mode: present in the raw header, absent in the
// parsed cookie.
func rawSameSiteInvalid(c *http.Cookie) bool {
	if c.SameSite != http.SameSiteDefaultMode {
		return false
	}
	raw := strings.ToLower(c.Raw)
	if !strings.Contains(raw, "samesite") {
		return false
	}
	// a bare `SameSite` attribute without a value falls back to the
	// browser default; only a value that failed to parse is invalid
	return strings.Contains(raw, "samesite=")
}

func evaluateCookies(req *retriever.Requests) (string, any) {
	if len(req.Cookies) == 0 {
		return CookiesNotFound, nil
	}

	observations := make([]cookieObservation, 0, len(req.Cookies))
	var (
		sessionWithoutHTTPOnly bool
		withoutSecure          bool
		sameSiteInvalid        bool
		withoutSameSite        bool
		allSameSite            = true
	)

	for _, sc := range req.Cookies {
		c := sc.Cookie
		session := isSessionCookie(c.Name)
		observations = append(observations, cookieObservation{
			Name:     c.Name,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
			SameSite: sameSiteString(c.SameSite),
			Path:     c.Path,
			Domain:   c.Domain,
			Scheme:   sc.Scheme,
			Session:  session,
		})

		if !c.Secure {
			withoutSecure = true
		}
		if session && !c.HttpOnly {
			sessionWithoutHTTPOnly = true
		}
		switch {
		case rawSameSiteInvalid(c):
			sameSiteInvalid = true
			allSameSite = false
		case c.SameSite == http.SameSiteDefaultMode:
			withoutSameSite = true
			allSameSite = false
		}
	}

	switch {
	case withoutSecure:
		// the missing-Secure outcome precedes the session checks: a
		// session cookie lacking Secure reports the generic result
		return CookiesWithoutSecure, observations
	case sessionWithoutHTTPOnly:
		return CookiesSessionWithoutHTTPOnly, observations
	case sameSiteInvalid:
		return CookiesSameSiteInvalid, observations
	case withoutSameSite:
		return CookiesWithoutSameSite, observations
	case allSameSite:
		return CookiesSecureWithHTTPOnlySessionsSameSite, observations
	default:
		return CookiesSecureWithHTTPOnlySessions, observations
	}
}
