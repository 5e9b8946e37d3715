package battery

import (
	"net/url"
	"strings"

	"github.com/headscore/headscore/internal/scanner/retriever"
)

type redirectionData struct {
	StatusCode int    `json:"statusCode,omitempty"`
	Location   string `json:"location,omitempty"`
}

func isRedirect(status int) bool {
	switch status {
	case 301, 302, 303, 307, 308:
		return true
	default:
		return false
	}
}

func evaluateRedirection(req *retriever.Requests) (string, any) {
	probe := req.HTTPProbe
	if !probe.Reachable {
		return RedirectionNotNeededNoHTTP, nil
	}

	data := redirectionData{StatusCode: probe.StatusCode, Location: probe.Location}
	if !isRedirect(probe.StatusCode) || probe.Location == "" {
		return RedirectionNotToHTTPS, data
	}

	target, err := url.Parse(probe.Location)
	if err != nil {
		return RedirectionNotToHTTPS, data
	}

	if !strings.EqualFold(target.Scheme, "https") {
		// the first hop must stay on the host so HSTS can be set before
		// the request leaves it
		if target.Host != "" && !strings.EqualFold(target.Hostname(), req.Site.Host()) {
			return RedirectionOffHost, data
		}
		return RedirectionNotInitial, data
	}
	if !strings.EqualFold(target.Hostname(), req.Site.Host()) {
		return RedirectionOffHost, data
	}
	return RedirectionToHTTPS, data
}
