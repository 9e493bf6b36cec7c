package analysis

import (
	"math"
	"regexp"
)

// grammarRule pairs a pattern with the suggestion recorded when it matches.
// Each matching rule deducts min(matchCount*0.5, 2) points.
type grammarRule struct {
	name       string
	pattern    *regexp.Regexp
	suggestion string
}

// grammarRules is scanned in order; keep new rules at the end so existing
// suggestion ordering stays stable.
var grammarRules = []grammarRule{
	{
		name:       "double_spaces",
		pattern:    regexp.MustCompile(` {2,}`),
		suggestion: "Remove double spaces between words.",
	},
	{
		name:       "repeated_punctuation",
		pattern:    regexp.MustCompile(`!{2,}|\?{2,}|\.{2,}`),
		suggestion: "Avoid repeated punctuation such as '!!' or '...'.",
	},
	{
		name:       "missing_capitalization",
		pattern:    regexp.MustCompile(`[.!?]\s+[a-z]`),
		suggestion: "Start sentences with a capital letter.",
	},
	{
		name:       "contractions",
		pattern:    regexp.MustCompile(`(?i)\b(?:don't|doesn't|didn't|can't|couldn't|won't|wouldn't|shouldn't|isn't|aren't|wasn't|weren't|haven't|hasn't|i'm|you're|we're|they're|it's|that's|there's|let's)\b`),
		suggestion: "Write out contractions in full in formal correspondence.",
	},
	{
		name:       "common_confusions",
		pattern:    regexp.MustCompile(`(?i)\b(?:your welcome|their is|their are|should of|could of|would of|alot)\b`),
		suggestion: "Check commonly confused words (e.g. \"you're welcome\", \"there is\").",
	},
	{
		name:       "informal_greeting",
		pattern:    regexp.MustCompile(`(?im)^\s*(?:hey|yo|hiya|howdy|sup|what's up)\b`),
		suggestion: "Open with a formal greeting instead of an informal one.",
	},
	{
		name:       "exclamation_marks",
		pattern:    regexp.MustCompile(`!`),
		suggestion: "Avoid exclamation marks in professional emails.",
	},
	{
		name:       "intensifiers",
		pattern:    regexp.MustCompile(`(?i)\b(?:very|really|extremely|totally|absolutely|incredibly)\b`),
		suggestion: "Drop intensifiers; state facts plainly.",
	},
	{
		name:       "filler_words",
		pattern:    regexp.MustCompile(`(?i)\b(?:just|actually|basically|literally|honestly|kind of|sort of)\b`),
		suggestion: "Remove filler words that add no meaning.",
	},
	{
		name:       "redundant_phrases",
		pattern:    regexp.MustCompile(`(?i)\b(?:absolutely essential|end result|final outcome|past history|revert back|repeat again|advance planning|close proximity)\b`),
		suggestion: "Tighten redundant phrases (e.g. \"revert back\" -> \"revert\").",
	},
	{
		name:       "colloquial_abbreviations",
		pattern:    regexp.MustCompile(`(?i)\b(?:asap|fyi|btw|lol|thx|pls|plz|gonna|wanna|gotta|u|ur)\b`),
		suggestion: "Spell out colloquial abbreviations such as ASAP or FYI.",
	},
}

var (
	passiveVoiceRe = regexp.MustCompile(`(?i)\b(?:is|are|was|were|be|been|being)\s+\w+(?:ed|en)\b`)
	paragraphSepRe = regexp.MustCompile(`\n\s*\n`)
)

const (
	longParagraphWords = 50
	longSentenceWords  = 25
)

// CheckGrammar scans content against the ordered rule table plus structural
// length checks and returns a rounded score with deduplicated suggestions.
func CheckGrammar(content string) GrammarResult {
	score := 10.0
	var suggestions []string
	seen := make(map[string]bool)

	record := func(s string) {
		if !seen[s] {
			seen[s] = true
			suggestions = append(suggestions, s)
		}
	}

	for _, rule := range grammarRules {
		matches := rule.pattern.FindAllStringIndex(content, -1)
		if len(matches) == 0 {
			continue
		}
		score -= math.Min(float64(len(matches))*0.5, 2)
		record(rule.suggestion)
	}

	longParagraphs := 0
	for _, p := range splitParagraphs(content) {
		if len(words(p)) > longParagraphWords {
			longParagraphs++
		}
	}
	if longParagraphs > 0 {
		score -= math.Min(float64(longParagraphs)*0.5, 2)
		record("Break long paragraphs into shorter ones.")
	}

	longSentences := 0
	for _, s := range sentences(content) {
		if len(words(s)) > longSentenceWords {
			longSentences++
		}
	}
	if longSentences > 0 {
		score -= math.Min(float64(longSentences)*0.5, 2)
		record("Split sentences longer than 25 words.")
	}

	if passive := len(passiveVoiceRe.FindAllString(content, -1)); passive > 3 {
		score -= math.Min(float64(passive-3)*0.5, 1.5)
		record("Prefer active voice over passive constructions.")
	}

	final := clampScore(int(math.Round(score)))

	feedback := "Spelling and grammar are acceptable with minor issues."
	switch {
	case final >= 9:
		feedback = "Spelling and grammar are excellent."
	case final < 5:
		feedback = "Spelling and grammar need significant attention."
	}

	return GrammarResult{Score: final, Feedback: feedback, Suggestions: suggestions}
}

func splitParagraphs(content string) []string {
	parts := paragraphSepRe.Split(content, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}
