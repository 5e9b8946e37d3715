// Package grade reduces a set of test results to a score and letter grade.
package grade

import (
	"github.com/headscore/headscore/internal/scanner/battery"
)

// AlgorithmVersion is stamped on every report and bumped whenever grading
// semantics change, so callers can invalidate cached rows.
const AlgorithmVersion = 5

const (
	baseScore = 100
	minScore  = 0
	maxScore  = 135
)

// thresholds maps minimum scores to letter grades, highest first.
var thresholds = []struct {
	Min    int
	Letter string
}{
	{100, "A+"},
	{90, "A"},
	{85, "A-"},
	{80, "B+"},
	{70, "B"},
	{65, "B-"},
	{60, "C+"},
	{50, "C"},
	{45, "C-"},
	{40, "D+"},
	{30, "D"},
	{25, "D-"},
}

// Score reduces the results to a clamped score. The reduction is
// order-insensitive: modifiers are summed, never sequenced.
func Score(results []battery.Result) int {
	score := baseScore
	for _, r := range results {
		score += r.ScoreModifier
	}
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// Letter maps a score to its letter grade.
func Letter(score int) string {
	for _, t := range thresholds {
		if score >= t.Min {
			return t.Letter
		}
	}
	return "F"
}

// Counts tallies passed and failed results.
func Counts(results []battery.Result) (passed, failed int) {
	for _, r := range results {
		if r.Pass {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
