package battery

import (
	"strings"

	"github.com/headscore/headscore/internal/scanner/policy"
	"github.com/headscore/headscore/internal/scanner/retriever"
)

type xfoData struct {
	Header         string   `json:"header,omitempty"`
	FrameAncestors []string `json:"frameAncestors,omitempty"`
}

func evaluateXFO(req *retriever.Requests) (string, any) {
	header := strings.TrimSpace(req.Headers.Get("X-Frame-Options"))
	data := xfoData{Header: header}

	// CSP frame-ancestors supersedes X-Frame-Options in every user agent
	// that understands it
	var metaValues []string
	if req.IsHTML() {
		metaValues = metaCSPValues(req.Body)
	}
	if parsed, valid := policy.Parse(req.Headers.Values("Content-Security-Policy"), metaValues); valid && parsed != nil {
		if d, ok := parsed.Directives["frame-ancestors"]; ok {
			data.FrameAncestors = d.Sources
			return XFOImplementedViaCSP, data
		}
	}

	if header == "" {
		return XFONotImplemented, data
	}
	upper := strings.ToUpper(header)
	switch {
	case upper == "DENY" || upper == "SAMEORIGIN":
		return XFOSameOriginOrDeny, data
	case strings.HasPrefix(upper, "ALLOW-FROM"):
		return XFOAllowFromOrigin, data
	default:
		return XFOHeaderInvalid, data
	}
}
