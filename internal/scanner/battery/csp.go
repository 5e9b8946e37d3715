package battery

import (
	"github.com/headscore/headscore/internal/scanner/policy"
	"github.com/headscore/headscore/internal/scanner/retriever"
)

// cspData is the audit trail recorded for the CSP verdict.
type cspData struct {
	Policy *policy.Policy `json:"policy,omitempty"`
	// NumHeaders and NumMeta count the delivered policies per channel.
	NumHeaders int `json:"numHeaders"`
	NumMeta    int `json:"numMeta"`
}

func evaluateCSP(req *retriever.Requests) (string, any) {
	headerValues := req.Headers.Values("Content-Security-Policy")

	var metaValues []string
	if req.IsHTML() {
		metaValues = metaCSPValues(req.Body)
	}

	parsed, valid := policy.Parse(headerValues, metaValues)
	outcome := policy.Classify(parsed, valid)

	return string(outcome), cspData{
		Policy:     parsed,
		NumHeaders: len(headerValues),
		NumMeta:    len(metaValues),
	}
}
