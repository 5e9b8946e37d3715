package battery

import (
	"strings"

	"github.com/headscore/headscore/internal/scanner/retriever"
)

var (
	privateReferrerValues = map[string]bool{
		"no-referrer":                     true,
		"same-origin":                     true,
		"strict-origin":                   true,
		"strict-origin-when-cross-origin": true,
	}
	unsafeReferrerValues = map[string]bool{
		"origin":                   true,
		"origin-when-cross-origin": true,
		"unsafe-url":               true,
	}
)

type referrerData struct {
	Header string `json:"header,omitempty"`
	Meta   string `json:"meta,omitempty"`
	// Effective is the policy token the verdict is based on.
	Effective string `json:"effective,omitempty"`
}

func evaluateReferrer(req *retriever.Requests) (string, any) {
	header := strings.TrimSpace(req.Headers.Get("Referrer-Policy"))

	meta := ""
	if req.IsHTML() {
		if v, ok := metaReferrerValue(req.Body); ok {
			meta = strings.TrimSpace(v)
		}
	}

	// the meta element wins over the header when both are present, since
	// it is processed after the header at document parse time
	serialized := header
	if meta != "" {
		serialized = meta
	}
	if serialized == "" {
		return ReferrerNotImplemented, nil
	}
	data := referrerData{Header: header, Meta: meta}

	// a comma-separated list falls back to the last recognized token
	effective := ""
	for _, token := range strings.Split(serialized, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		if privateReferrerValues[token] || unsafeReferrerValues[token] || token == "no-referrer-when-downgrade" {
			effective = token
		}
	}
	data.Effective = effective

	switch {
	case privateReferrerValues[effective]:
		return ReferrerPrivate, data
	case effective == "no-referrer-when-downgrade":
		return ReferrerNoDowngrade, data
	case unsafeReferrerValues[effective]:
		return ReferrerUnsafe, data
	default:
		return ReferrerHeaderInvalid, data
	}
}
