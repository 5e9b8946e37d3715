package battery

import (
	"strconv"
	"strings"

	"github.com/headscore/headscore/internal/scanner/retriever"
)

// sixMonths is the minimum max-age the expectation requires, in seconds.
const sixMonths = 60 * 60 * 24 * 30 * 6

type hstsData struct {
	Header            string `json:"header,omitempty"`
	MaxAge            int64  `json:"maxAge,omitempty"`
	IncludeSubdomains bool   `json:"includeSubDomains,omitempty"`
	Preload           bool   `json:"preload,omitempty"`
	Preloaded         bool   `json:"preloaded"`
	PreloadEntry      string `json:"preloadEntry,omitempty"`
}

func evaluateHSTS(req *retriever.Requests) (string, any) {
	data := hstsData{
		Preloaded:    req.Preload.Preloaded,
		PreloadEntry: req.Preload.Entry,
	}

	if !req.FinalHTTPS() {
		return HSTSNotImplementedNoHTTPS, data
	}

	header := strings.TrimSpace(req.Headers.Get("Strict-Transport-Security"))
	data.Header = header
	if header == "" {
		if req.Preload.Preloaded {
			return HSTSPreloaded, data
		}
		return HSTSNotImplemented, data
	}

	maxAge, ok := parseHSTS(header, &data)
	if !ok {
		if req.Preload.Preloaded {
			return HSTSPreloaded, data
		}
		return HSTSHeaderInvalid, data
	}
	data.MaxAge = maxAge

	switch {
	case maxAge >= sixMonths:
		return HSTSImplemented, data
	case req.Preload.Preloaded:
		return HSTSPreloaded, data
	default:
		return HSTSShortMaxAge, data
	}
}

// parseHSTS extracts max-age and the flag directives. A header without a
// parseable max-age is invalid.
func parseHSTS(header string, data *hstsData) (int64, bool) {
	maxAge := int64(-1)
	for _, directive := range strings.Split(header, ";") {
		directive = strings.TrimSpace(directive)
		lower := strings.ToLower(directive)
		switch {
		case strings.HasPrefix(lower, "max-age="):
			value := strings.Trim(directive[len("max-age="):], `"`)
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed < 0 {
				return 0, false
			}
			maxAge = parsed
		case lower == "includesubdomains":
			data.IncludeSubdomains = true
		case lower == "preload":
			data.Preload = true
		}
	}
	if maxAge < 0 {
		return 0, false
	}
	return maxAge, true
}
