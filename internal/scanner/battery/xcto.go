package battery

import (
	"strings"

	"github.com/headscore/headscore/internal/scanner/retriever"
)

func evaluateXCTO(req *retriever.Requests) (string, any) {
	values := req.Headers.Values("X-Content-Type-Options")
	if len(values) == 0 {
		return XCTONotImplemented, nil
	}
	// the first value governs; some CDNs duplicate the header
	value := strings.TrimSpace(values[0])
	if strings.EqualFold(value, "nosniff") {
		return XCTONosniff, value
	}
	return XCTOHeaderInvalid, value
}
