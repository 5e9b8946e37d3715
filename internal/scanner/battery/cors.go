package battery

import (
	"strings"

	"github.com/headscore/headscore/internal/scanner/retriever"
)

type corsData struct {
	AllowOrigin      string `json:"allowOrigin,omitempty"`
	AllowCredentials bool   `json:"allowCredentials,omitempty"`
}

func evaluateCORS(req *retriever.Requests) (string, any) {
	allowOrigin := strings.TrimSpace(req.Headers.Get("Access-Control-Allow-Origin"))
	if allowOrigin == "" {
		return CORSNotImplemented, nil
	}

	credentials := strings.EqualFold(
		strings.TrimSpace(req.Headers.Get("Access-Control-Allow-Credentials")), "true")
	data := corsData{AllowOrigin: allowOrigin, AllowCredentials: credentials}

	if allowOrigin == "*" {
		// wildcard without credentials exposes only what was already
		// public; with credentials it hands out authenticated content
		if credentials {
			return CORSUniversalAccess, data
		}
		return CORSPublicAccess, data
	}
	return CORSRestrictedAccess, data
}
