package battery

// Test names as they appear in reports and the persisted tests map.
const (
	TestCSP                 = "content-security-policy"
	TestCookies             = "cookies"
	TestCORS                = "cross-origin-resource-sharing"
	TestReferrerPolicy      = "referrer-policy"
	TestHSTS                = "strict-transport-security"
	TestSRI                 = "subresource-integrity"
	TestXContentTypeOptions = "x-content-type-options"
	TestXFrameOptions       = "x-frame-options"
	TestRedirection         = "redirection"
	TestCORP                = "cross-origin-resource-policy"
)

// Outcome identifiers, grouped per test.
const (
	CSPNoUnsafe              = "csp-implemented-with-no-unsafe"
	CSPUnsafeInlineStyleOnly = "csp-implemented-with-unsafe-inline-in-style-src-only"
	CSPInsecurePassiveOnly   = "csp-implemented-with-insecure-scheme-in-passive-content-only"
	CSPUnsafeEval            = "csp-implemented-with-unsafe-eval"
	CSPUnsafeInline          = "csp-implemented-with-unsafe-inline"
	CSPInsecureScheme        = "csp-implemented-with-insecure-scheme"
	CSPNoDefaultOrScriptSrc  = "csp-implemented-but-no-default-src-or-script-src"
	CSPNotImplemented        = "csp-not-implemented"
	CSPHeaderInvalid         = "csp-header-invalid"

	CookiesSecureWithHTTPOnlySessions         = "cookies-secure-with-httponly-sessions"
	CookiesSecureWithHTTPOnlySessionsSameSite = "cookies-secure-with-httponly-sessions-and-samesite"
	CookiesNotFound                           = "cookies-not-found"
	CookiesWithoutSameSite                    = "cookies-without-samesite-flag"
	CookiesSameSiteInvalid                    = "cookies-samesite-flag-invalid"
	CookiesWithoutSecure                      = "cookies-without-secure-flag"
	CookiesSessionWithoutHTTPOnly             = "cookies-session-without-httponly-flag"

	CORSNotImplemented   = "cross-origin-resource-sharing-not-implemented"
	CORSPublicAccess     = "cross-origin-resource-sharing-implemented-with-public-access"
	CORSRestrictedAccess = "cross-origin-resource-sharing-implemented-with-restricted-access"
	CORSUniversalAccess  = "cross-origin-resource-sharing-implemented-with-universal-access"

	ReferrerPrivate        = "referrer-policy-private"
	ReferrerNotImplemented = "referrer-policy-not-implemented"
	ReferrerNoDowngrade    = "referrer-policy-no-referrer-when-downgrade"
	ReferrerUnsafe         = "referrer-policy-unsafe"
	ReferrerHeaderInvalid  = "referrer-policy-header-invalid"

	HSTSImplemented           = "hsts-implemented-max-age-at-least-six-months"
	HSTSShortMaxAge           = "hsts-implemented-max-age-less-than-six-months"
	HSTSPreloaded             = "hsts-preloaded"
	HSTSNotImplemented        = "hsts-not-implemented"
	HSTSHeaderInvalid         = "hsts-header-invalid"
	HSTSNotImplementedNoHTTPS = "hsts-not-implemented-no-https"

	SRIImplementedAllSecure           = "sri-implemented-and-all-scripts-loaded-securely"
	SRIImplementedExternalSecure      = "sri-implemented-and-external-scripts-loaded-securely"
	SRINotImplementedResponseNotHTML  = "sri-not-implemented-response-not-html"
	SRINotImplementedNoScripts        = "sri-not-implemented-but-no-scripts-loaded"
	SRINotImplementedSameOrigin       = "sri-not-implemented-but-all-scripts-loaded-from-secure-origin"
	SRINotImplementedExternalSecure   = "sri-not-implemented-and-external-scripts-loaded-securely"
	SRIImplementedExternalInsecure    = "sri-implemented-but-external-scripts-not-loaded-securely"
	SRINotImplementedExternalInsecure = "sri-not-implemented-and-external-scripts-not-loaded-securely"

	XCTONosniff        = "x-content-type-options-nosniff"
	XCTONotImplemented = "x-content-type-options-not-implemented"
	XCTOHeaderInvalid  = "x-content-type-options-header-invalid"

	XFOImplementedViaCSP = "x-frame-options-implemented-via-csp"
	XFOSameOriginOrDeny  = "x-frame-options-sameorigin-or-deny"
	XFOAllowFromOrigin   = "x-frame-options-allow-from-origin"
	XFONotImplemented    = "x-frame-options-not-implemented"
	XFOHeaderInvalid     = "x-frame-options-header-invalid"

	RedirectionToHTTPS         = "redirection-to-https"
	RedirectionNotNeededNoHTTP = "redirection-not-needed-no-http"
	RedirectionOffHost         = "redirection-off-host-from-http"
	RedirectionNotInitial      = "redirection-not-to-https-on-initial-redirection"
	RedirectionNotToHTTPS      = "redirection-not-to-https"

	CORPNotImplemented = "cross-origin-resource-policy-not-implemented"
	CORPSameOrigin     = "cross-origin-resource-policy-implemented-with-same-origin"
	CORPSameSite       = "cross-origin-resource-policy-implemented-with-same-site"
	CORPCrossOrigin    = "cross-origin-resource-policy-implemented-with-cross-origin"
	CORPHeaderInvalid  = "cross-origin-resource-policy-header-invalid"
)

type scoreEntry struct {
	Modifier    int
	Pass        bool
	Description string
}

// scoreTable is the frozen per-outcome modifier table. Changing any entry
// is a grading-semantics change and must bump the algorithm version.
var scoreTable = map[string]scoreEntry{
	CSPNoUnsafe:              {5, true, "Content Security Policy (CSP) implemented without 'unsafe-inline' or 'unsafe-eval'"},
	CSPUnsafeInlineStyleOnly: {-5, false, "CSP implemented with 'unsafe-inline' inside style-src only"},
	CSPInsecurePassiveOnly:   {-10, false, "CSP implemented, but secure site allows images or media over HTTP"},
	CSPUnsafeEval:            {-10, false, "CSP implemented, but allows 'unsafe-eval'"},
	CSPUnsafeInline:          {-20, false, "CSP implemented, but allows 'unsafe-inline' inside script-src"},
	CSPInsecureScheme:        {-20, false, "CSP implemented, but allows scripts over HTTP"},
	CSPNoDefaultOrScriptSrc:  {-25, false, "CSP implemented, but policy contains neither default-src nor script-src"},
	CSPNotImplemented:        {-25, false, "CSP header not implemented"},
	CSPHeaderInvalid:         {-25, false, "CSP header cannot be parsed"},

	CookiesSecureWithHTTPOnlySessions:         {0, true, "All cookies use the Secure flag and all session cookies use the HttpOnly flag"},
	CookiesSecureWithHTTPOnlySessionsSameSite: {5, true, "All cookies use the Secure and SameSite flags and all session cookies use the HttpOnly flag"},
	CookiesNotFound:                           {0, true, "No cookies detected"},
	CookiesWithoutSameSite:                    {-5, false, "Cookies set without the SameSite attribute"},
	CookiesSameSiteInvalid:                    {-10, false, "Cookies set with an invalid SameSite value"},
	CookiesWithoutSecure:                      {-20, false, "Cookies set without the Secure flag"},
	CookiesSessionWithoutHTTPOnly:             {-30, false, "Session cookie set without the HttpOnly flag"},

	CORSNotImplemented:   {0, true, "Content is not visible via cross-origin resource sharing"},
	CORSPublicAccess:     {0, true, "Public content is visible via cross-origin resource sharing"},
	CORSRestrictedAccess: {0, true, "Content is visible via cross-origin resource sharing, restricted to specific origins"},
	CORSUniversalAccess:  {-50, false, "Content is visible via cross-origin resource sharing to any origin, with credentials"},

	ReferrerPrivate:        {0, true, "Referrer-Policy header set to a privacy-preserving value"},
	ReferrerNotImplemented: {0, true, "Referrer-Policy header not implemented"},
	ReferrerNoDowngrade:    {0, true, "Referrer-Policy header set to no-referrer-when-downgrade"},
	ReferrerUnsafe:         {-5, false, "Referrer-Policy header set to an unsafe value"},
	ReferrerHeaderInvalid:  {-5, false, "Referrer-Policy header cannot be recognized"},

	HSTSImplemented:           {0, true, "HTTP Strict Transport Security (HSTS) header set to at least six months"},
	HSTSShortMaxAge:           {-10, false, "HSTS header set to less than six months"},
	HSTSPreloaded:             {5, true, "Preloaded via the HTTP Strict Transport Security preload list"},
	HSTSNotImplemented:        {-20, false, "HSTS header not implemented"},
	HSTSHeaderInvalid:         {-20, false, "HSTS header cannot be parsed"},
	HSTSNotImplementedNoHTTPS: {-20, false, "HSTS header cannot be set, as the site is not available over HTTPS"},

	SRIImplementedAllSecure:           {5, true, "Subresource Integrity (SRI) implemented on all scripts, loaded securely"},
	SRIImplementedExternalSecure:      {5, true, "SRI implemented on all external scripts, loaded securely"},
	SRINotImplementedResponseNotHTML:  {0, true, "SRI not needed, since the response is not HTML"},
	SRINotImplementedNoScripts:        {0, true, "SRI not needed, since the page loads no scripts"},
	SRINotImplementedSameOrigin:       {0, true, "SRI not implemented, but all scripts load from a secure same origin"},
	SRINotImplementedExternalSecure:   {-5, false, "SRI not implemented, but external scripts load securely"},
	SRIImplementedExternalInsecure:    {-20, false, "SRI implemented, but external scripts load over HTTP"},
	SRINotImplementedExternalInsecure: {-50, false, "SRI not implemented, and external scripts load over HTTP"},

	XCTONosniff:        {0, true, "X-Content-Type-Options header set to nosniff"},
	XCTONotImplemented: {-5, false, "X-Content-Type-Options header not implemented"},
	XCTOHeaderInvalid:  {-5, false, "X-Content-Type-Options header cannot be recognized"},

	XFOImplementedViaCSP: {5, true, "Framing policy enforced via the CSP frame-ancestors directive"},
	XFOSameOriginOrDeny:  {0, true, "X-Frame-Options header set to SAMEORIGIN or DENY"},
	XFOAllowFromOrigin:   {0, true, "X-Frame-Options header set to ALLOW-FROM"},
	XFONotImplemented:    {-20, false, "X-Frame-Options header not implemented"},
	XFOHeaderInvalid:     {-20, false, "X-Frame-Options header cannot be recognized"},

	RedirectionToHTTPS:         {0, true, "Initial redirection from HTTP lands on HTTPS"},
	RedirectionNotNeededNoHTTP: {0, true, "No redirection needed, site is not reachable over HTTP"},
	RedirectionOffHost:         {-5, false, "Initial redirection from HTTP leaves the host before reaching HTTPS"},
	RedirectionNotInitial:      {-10, false, "Initial redirection from HTTP stays on HTTP"},
	RedirectionNotToHTTPS:      {-20, false, "Site served over HTTP without redirecting to HTTPS"},

	CORPNotImplemented: {0, true, "Cross-Origin-Resource-Policy header not implemented"},
	CORPSameOrigin:     {0, true, "Cross-Origin-Resource-Policy header set to same-origin"},
	CORPSameSite:       {0, true, "Cross-Origin-Resource-Policy header set to same-site"},
	CORPCrossOrigin:    {0, true, "Cross-Origin-Resource-Policy header set to cross-origin"},
	CORPHeaderInvalid:  {-5, false, "Cross-Origin-Resource-Policy header cannot be recognized"},
}

// Modifier exposes the frozen modifier for an outcome; unknown outcomes
// contribute nothing.
func Modifier(outcome string) int { return scoreTable[outcome].Modifier }

// Passes exposes the default pass verdict for an outcome.
func Passes(outcome string) bool { return scoreTable[outcome].Pass }

var (
	cspResults = []string{
		CSPNoUnsafe, CSPUnsafeInlineStyleOnly, CSPInsecurePassiveOnly,
		CSPUnsafeEval, CSPUnsafeInline, CSPInsecureScheme,
		CSPNoDefaultOrScriptSrc, CSPNotImplemented, CSPHeaderInvalid,
	}
	cookieResults = []string{
		CookiesSecureWithHTTPOnlySessions, CookiesSecureWithHTTPOnlySessionsSameSite,
		CookiesNotFound, CookiesWithoutSameSite, CookiesSameSiteInvalid,
		CookiesWithoutSecure, CookiesSessionWithoutHTTPOnly,
	}
	corsResults = []string{
		CORSNotImplemented, CORSPublicAccess, CORSRestrictedAccess, CORSUniversalAccess,
	}
	referrerResults = []string{
		ReferrerPrivate, ReferrerNotImplemented, ReferrerNoDowngrade,
		ReferrerUnsafe, ReferrerHeaderInvalid,
	}
	hstsResults = []string{
		HSTSImplemented, HSTSShortMaxAge, HSTSPreloaded,
		HSTSNotImplemented, HSTSHeaderInvalid, HSTSNotImplementedNoHTTPS,
	}
	sriResults = []string{
		SRIImplementedAllSecure, SRIImplementedExternalSecure,
		SRINotImplementedResponseNotHTML, SRINotImplementedNoScripts,
		SRINotImplementedSameOrigin, SRINotImplementedExternalSecure,
		SRIImplementedExternalInsecure, SRINotImplementedExternalInsecure,
	}
	xctoResults = []string{XCTONosniff, XCTONotImplemented, XCTOHeaderInvalid}
	xfoResults  = []string{
		XFOImplementedViaCSP, XFOSameOriginOrDeny, XFOAllowFromOrigin,
		XFONotImplemented, XFOHeaderInvalid,
	}
	redirectionResults = []string{
		RedirectionToHTTPS, RedirectionNotNeededNoHTTP, RedirectionOffHost,
		RedirectionNotInitial, RedirectionNotToHTTPS,
	}
	corpResults = []string{
		CORPNotImplemented, CORPSameOrigin, CORPSameSite, CORPCrossOrigin, CORPHeaderInvalid,
	}
)
