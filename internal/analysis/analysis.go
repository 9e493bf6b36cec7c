// Package analysis contains the rule-based text analyzers used to score
// customer-service emails: tone, clarity, spelling/grammar, structural
// elements and template compliance. All analyzers are pure functions of
// their input text.
package analysis

import (
	"regexp"
	"strings"
)

// HeuristicResult is the outcome of a single text heuristic.
type HeuristicResult struct {
	Score    int
	Feedback string
}

// GrammarResult extends HeuristicResult with per-rule suggestions.
type GrammarResult struct {
	Score       int
	Feedback    string
	Suggestions []string
}

// StructureResult reports which structural elements an email contains.
type StructureResult struct {
	HasGreeting  bool
	HasHeader    bool
	HasSignature bool
	HasFooter    bool
	Score        float64
	Feedback     string
}

// TemplateAnalysisResult is the outcome of template compliance analysis.
// DetectedTemplate is empty when no catalog entry matched.
type TemplateAnalysisResult struct {
	DetectedTemplate  string
	TemplateName      string
	Score             float64
	MissingComponents []string
	ProhibitedPhrases []string
	ComponentScores   map[string]bool
}

var (
	wordSplitRe     = regexp.MustCompile(`\s+`)
	sentenceEndRe   = regexp.MustCompile(`[.!?]+`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// words splits content into non-empty whitespace-delimited tokens.
func words(content string) []string {
	fields := wordSplitRe.Split(strings.TrimSpace(content), -1)
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// sentences splits content on terminal punctuation, dropping empty parts.
func sentences(content string) []string {
	parts := sentenceEndRe.Split(content, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

// nonEmptyLines returns the trimmed, non-empty lines of content in order.
func nonEmptyLines(content string) []string {
	raw := strings.Split(content, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		t := strings.TrimSpace(l)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalize lowercases content and collapses whitespace runs to single
// spaces, for substring matching that ignores formatting.
func normalize(content string) string {
	return whitespaceRunRe.ReplaceAllString(strings.ToLower(content), " ")
}
