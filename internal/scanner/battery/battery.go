// Package battery holds the header-security test registry: ten independent
// evaluators, each a pure function from the retrieved observations to a
// typed result.
package battery

import (
	"github.com/headscore/headscore/internal/scanner/retriever"
)

// Result is one test's verdict for one scan.
type Result struct {
	Name        string `json:"name"`
	Expectation string `json:"expectation"`
	Outcome     string `json:"result"`
	Pass        bool   `json:"pass"`
	// ScoreModifier is the signed delta the grader applies for Outcome.
	ScoreModifier int `json:"scoreModifier"`
	// ScoreDescription is a human-readable sentence for the outcome.
	// It is stripped before API emission.
	ScoreDescription string `json:"scoreDescription,omitempty"`
	// Data is the test-specific evidence behind the verdict.
	Data any `json:"data,omitempty"`
}

// Spec is one registry entry: a test name, its default expectation, and
// its evaluator. Results lists the outcomes the evaluator may produce.
type Spec struct {
	Name        string
	Expectation string
	Results     []string
	Evaluate    func(req *retriever.Requests) (outcome string, data any)
}

// Registry returns the full battery in evaluation order. The order has no
// semantic weight: evaluators share no state and may run in any order or
// in parallel with identical results.
func Registry(corpExpectation string) []Spec {
	if corpExpectation == "" {
		corpExpectation = CORPNotImplemented
	}
	return []Spec{
		{
			Name:        TestCSP,
			Expectation: CSPNoUnsafe,
			Results:     cspResults,
			Evaluate:    evaluateCSP,
		},
		{
			Name:        TestCookies,
			Expectation: CookiesSecureWithHTTPOnlySessions,
			Results:     cookieResults,
			Evaluate:    evaluateCookies,
		},
		{
			Name:        TestCORS,
			Expectation: CORSNotImplemented,
			Results:     corsResults,
			Evaluate:    evaluateCORS,
		},
		{
			Name:        TestReferrerPolicy,
			Expectation: ReferrerPrivate,
			Results:     referrerResults,
			Evaluate:    evaluateReferrer,
		},
		{
			Name:        TestHSTS,
			Expectation: HSTSImplemented,
			Results:     hstsResults,
			Evaluate:    evaluateHSTS,
		},
		{
			Name:        TestSRI,
			Expectation: SRIImplementedExternalSecure,
			Results:     sriResults,
			Evaluate:    evaluateSRI,
		},
		{
			Name:        TestXContentTypeOptions,
			Expectation: XCTONosniff,
			Results:     xctoResults,
			Evaluate:    evaluateXCTO,
		},
		{
			Name:        TestXFrameOptions,
			Expectation: XFOSameOriginOrDeny,
			Results:     xfoResults,
			Evaluate:    evaluateXFO,
		},
		{
			Name:        TestRedirection,
			Expectation: RedirectionToHTTPS,
			Results:     redirectionResults,
			Evaluate:    evaluateRedirection,
		},
		{
			Name:        TestCORP,
			Expectation: corpExpectation,
			Results:     corpResults,
			Evaluate:    evaluateCORP,
		},
	}
}

// Run evaluates one spec against the observations. An expectation override
// replaces the default expectation and flips the pass computation to strict
// equality; with the default expectation, outcomes marked passing in the
// score table pass even when they differ from the expectation (e.g. a site
// with no cookies at all).
func Run(spec Spec, req *retriever.Requests, override string) Result {
	outcome, data := spec.Evaluate(req)
	entry := scoreTable[outcome]

	expectation := spec.Expectation
	pass := entry.Pass
	if override != "" && override != spec.Expectation {
		expectation = override
		pass = outcome == override
	}

	return Result{
		Name:             spec.Name,
		Expectation:      expectation,
		Outcome:          outcome,
		Pass:             pass,
		ScoreModifier:    entry.Modifier,
		ScoreDescription: entry.Description,
		Data:             data,
	}
}

// RunAll evaluates the whole battery. overrides maps test name to a
// per-site expectation override; missing entries use the default.
func RunAll(registry []Spec, req *retriever.Requests, overrides map[string]string) []Result {
	results := make([]Result, 0, len(registry))
	for _, spec := range registry {
		results = append(results, Run(spec, req, overrides[spec.Name]))
	}
	return results
}
