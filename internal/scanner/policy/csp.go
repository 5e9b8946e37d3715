// Package policy models Content-Security-Policy values: parsing,
// header/meta merging, default-src fallback and outcome classification.
package policy

import (
	"regexp"
	"strings"
)

// Origin tags where a directive was delivered from.
type Origin string

const (
	OriginHeader Origin = "header"
	OriginMeta   Origin = "meta"
	OriginBoth   Origin = "both"
)

// Directive is one CSP directive with its ordered source expressions and
// the delivery channel(s) that contributed it.
type Directive struct {
	Sources []string `json:"sources"`
	Origin  Origin   `json:"origin"`
}

// Policy is the effective policy for one response: directive name (lowercase)
// to sources. The same directive delivered twice within one serialized
// policy keeps its first occurrence, per the CSP processing model.
type Policy struct {
	Directives map[string]*Directive `json:"directives"`
}

// directiveNameRE matches the grammar for directive names. A directive whose
// name does not match is skipped; the policy is invalid only when none of
// its directives is well-formed.
var directiveNameRE = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// passiveDirectives only control fetches that cannot run script.
var passiveDirectives = []string{"img-src", "media-src"}

// Parse parses serialized policies into a single effective Policy.
// headerValues are the Content-Security-Policy header values; metaValues
// are the content attributes of `<meta http-equiv>` CSP tags.
// Returns ok=false when every delivered policy was unparseable.
func Parse(headerValues, metaValues []string) (*Policy, bool) {
	p := &Policy{Directives: map[string]*Directive{}}
	delivered := false
	valid := false

	for _, v := range headerValues {
		delivered = true
		if p.mergeSerialized(v, OriginHeader) {
			valid = true
		}
	}
	for _, v := range metaValues {
		delivered = true
		if p.mergeSerialized(v, OriginMeta) {
			valid = true
		}
	}
	if !delivered {
		return nil, true
	}
	return p, valid
}

// mergeSerialized parses one serialized policy and merges it in.
// Reports whether the value contained at least one well-formed directive.
func (p *Policy) mergeSerialized(serialized string, origin Origin) bool {
	seen := map[string]bool{}
	any := false
	for _, token := range strings.Split(serialized, ";") {
		fields := strings.Fields(token)
		if len(fields) == 0 {
			continue
		}
		name := strings.ToLower(fields[0])
		if !directiveNameRE.MatchString(name) {
			continue
		}
		if seen[name] {
			// duplicate within one policy: first occurrence wins
			continue
		}
		seen[name] = true
		any = true

		sources := make([]string, 0, len(fields)-1)
		for _, src := range fields[1:] {
			sources = append(sources, strings.ToLower(src))
		}

		if existing, ok := p.Directives[name]; ok {
			if existing.Origin != origin {
				existing.Origin = OriginBoth
			}
			existing.Sources = appendMissing(existing.Sources, sources)
		} else {
			p.Directives[name] = &Directive{Sources: sources, Origin: origin}
		}
	}
	return any
}

func appendMissing(dst, src []string) []string {
	have := make(map[string]bool, len(dst))
	for _, s := range dst {
		have[s] = true
	}
	for _, s := range src {
		if !have[s] {
			dst = append(dst, s)
			have[s] = true
		}
	}
	return dst
}

// EffectiveSources resolves the sources governing directive, falling back
// to default-src when the directive is absent. The second return reports
// whether any governing directive exists at all.
func (p *Policy) EffectiveSources(directive string) ([]string, bool) {
	if d, ok := p.Directives[directive]; ok {
		return d.Sources, true
	}
	if d, ok := p.Directives["default-src"]; ok {
		return d.Sources, true
	}
	return nil, false
}

// Outcome is a CSP classification result.
type Outcome string

const (
	OutcomeNotImplemented        Outcome = "csp-not-implemented"
	OutcomeHeaderInvalid         Outcome = "csp-header-invalid"
	OutcomeNoDefaultOrScriptSrc  Outcome = "csp-implemented-but-no-default-src-or-script-src"
	OutcomeUnsafeInline          Outcome = "csp-implemented-with-unsafe-inline"
	OutcomeInsecureScheme        Outcome = "csp-implemented-with-insecure-scheme"
	OutcomeUnsafeEval            Outcome = "csp-implemented-with-unsafe-eval"
	OutcomeInsecureSchemePassive Outcome = "csp-implemented-with-insecure-scheme-in-passive-content-only"
	OutcomeUnsafeInlineStyleOnly Outcome = "csp-implemented-with-unsafe-inline-in-style-src-only"
	OutcomeNoUnsafe              Outcome = "csp-implemented-with-no-unsafe"
)

// Classify runs the prioritized rule set over the policy; the most severe
// matching classification wins. A nil policy means no CSP was delivered;
// valid=false means every delivered policy was unparseable.
func Classify(p *Policy, valid bool) Outcome {
	if p == nil {
		return OutcomeNotImplemented
	}
	if !valid || len(p.Directives) == 0 {
		return OutcomeHeaderInvalid
	}

	scriptSources, scriptGoverned := p.EffectiveSources("script-src")

	switch {
	case !scriptGoverned:
		return OutcomeNoDefaultOrScriptSrc
	case allowsUnsafeInline(scriptSources):
		return OutcomeUnsafeInline
	case anyInsecureScheme(scriptSources) || anyInsecureScheme(p.objectSources()):
		return OutcomeInsecureScheme
	case contains(scriptSources, "'unsafe-eval'"):
		return OutcomeUnsafeEval
	case p.passiveInsecure():
		return OutcomeInsecureSchemePassive
	case p.styleUnsafeInlineOnly():
		return OutcomeUnsafeInlineStyleOnly
	default:
		return OutcomeNoUnsafe
	}
}

// allowsUnsafeInline reports whether 'unsafe-inline' is live in sources.
// Nonces, hashes and 'strict-dynamic' neutralize it in CSP2+ user agents.
func allowsUnsafeInline(sources []string) bool {
	if !contains(sources, "'unsafe-inline'") {
		return false
	}
	for _, s := range sources {
		if s == "'strict-dynamic'" ||
			strings.HasPrefix(s, "'nonce-") ||
			strings.HasPrefix(s, "'sha256-") ||
			strings.HasPrefix(s, "'sha384-") ||
			strings.HasPrefix(s, "'sha512-") {
			return false
		}
	}
	return true
}

func anyInsecureScheme(sources []string) bool {
	for _, s := range sources {
		if s == "http:" || s == "ftp:" ||
			strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "ftp://") {
			return true
		}
	}
	return false
}

func (p *Policy) objectSources() []string {
	sources, _ := p.EffectiveSources("object-src")
	return sources
}

// passiveInsecure reports insecure schemes confined to passive content
// directives (images and media).
func (p *Policy) passiveInsecure() bool {
	for _, d := range passiveDirectives {
		if sources, ok := p.EffectiveSources(d); ok && anyInsecureScheme(sources) {
			return true
		}
	}
	return false
}

// styleUnsafeInlineOnly reports 'unsafe-inline' allowed for styles while
// scripts stay clean. The script check has already run by the time this
// rule is evaluated.
func (p *Policy) styleUnsafeInlineOnly() bool {
	sources, ok := p.EffectiveSources("style-src")
	return ok && allowsUnsafeInline(sources)
}

func contains(sources []string, want string) bool {
	for _, s := range sources {
		if s == want {
			return true
		}
	}
	return false
}
