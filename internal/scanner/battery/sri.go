package battery

import (
	"net/url"
	"strings"

	"github.com/headscore/headscore/internal/scanner/retriever"
)

// sriScript is one audited script element.
type sriScript struct {
	Src          string `json:"src"`
	Integrity    bool   `json:"integrity"`
	SameOrigin   bool   `json:"sameOrigin"`
	SecureScheme bool   `json:"secureScheme"`
}

func evaluateSRI(req *retriever.Requests) (string, any) {
	if !req.IsHTML() {
		return SRINotImplementedResponseNotHTML, nil
	}

	tags := scriptTags(req.Body)
	if len(tags) == 0 {
		return SRINotImplementedNoScripts, nil
	}

	scripts := make([]sriScript, 0, len(tags))
	var (
		anyExternal              bool
		externalInsecure         bool
		externalMissingIntegrity bool
		withIntegrityInsecure    bool
		allIntegrity             = true
	)

	for _, tag := range tags {
		resolved := resolveScript(req.FinalURL, tag.Src)
		script := sriScript{
			Src:          tag.Src,
			Integrity:    tag.Integrity != "",
			SameOrigin:   resolved.sameOrigin,
			SecureScheme: resolved.secure,
		}
		scripts = append(scripts, script)

		if !script.Integrity {
			allIntegrity = false
		}
		if script.Integrity && !script.SecureScheme {
			withIntegrityInsecure = true
		}
		if !script.SameOrigin {
			anyExternal = true
			if !script.SecureScheme {
				externalInsecure = true
			}
			if !script.Integrity {
				externalMissingIntegrity = true
			}
		}
	}

	switch {
	case externalMissingIntegrity && externalInsecure:
		return SRINotImplementedExternalInsecure, scripts
	case withIntegrityInsecure:
		return SRIImplementedExternalInsecure, scripts
	case externalMissingIntegrity:
		return SRINotImplementedExternalSecure, scripts
	case anyExternal && allIntegrity:
		return SRIImplementedAllSecure, scripts
	case anyExternal:
		return SRIImplementedExternalSecure, scripts
	case allIntegrity:
		return SRIImplementedAllSecure, scripts
	default:
		return SRINotImplementedSameOrigin, scripts
	}
}

type resolvedScript struct {
	sameOrigin bool
	secure     bool
}

// resolveScript classifies a script URL relative to the document origin.
// Scheme-relative and path-relative sources inherit the document scheme.
func resolveScript(base *url.URL, src string) resolvedScript {
	if base == nil {
		return resolvedScript{}
	}
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return resolvedScript{}
	}
	abs := base.ResolveReference(ref)
	return resolvedScript{
		sameOrigin: strings.EqualFold(abs.Host, base.Host) && strings.EqualFold(abs.Scheme, base.Scheme),
		secure:     strings.EqualFold(abs.Scheme, "https"),
	}
}
