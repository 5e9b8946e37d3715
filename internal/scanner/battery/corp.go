package battery

import (
	"strings"

	"github.com/headscore/headscore/internal/scanner/retriever"
)

func evaluateCORP(req *retriever.Requests) (string, any) {
	value := strings.TrimSpace(req.Headers.Get("Cross-Origin-Resource-Policy"))
	if value == "" {
		return CORPNotImplemented, nil
	}
	switch strings.ToLower(value) {
	case "same-origin":
		return CORPSameOrigin, value
	case "same-site":
		return CORPSameSite, value
	case "cross-origin":
		return CORPCrossOrigin, value
	default:
		return CORPHeaderInvalid, value
	}
}
