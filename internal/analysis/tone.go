package analysis

import (
	"regexp"
	"strings"
)

// Keyword hits are whole-word matches so that e.g. "hi" never fires inside
// "this" or "third".
var (
	professionalKeywordRes = keywordPatterns(
		"sincerely",
		"regards",
		"thank you",
		"please",
		"appreciate",
	)
	politeKeywordRes = keywordPatterns(
		"hello",
		"hi",
		"dear",
		"good morning",
		"good afternoon",
		"good evening",
	)
)

func keywordPatterns(keywords ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
	}
	return patterns
}

// AnalyzeTone scores how professional and polite an email reads. The score
// starts neutral at 5, gains a point per professional or polite keyword
// present and loses two when the content shouts or pushes urgency.
func AnalyzeTone(content string) HeuristicResult {
	lower := strings.ToLower(content)
	score := 5

	for _, re := range professionalKeywordRes {
		if re.MatchString(lower) {
			score++
		}
	}
	for _, re := range politeKeywordRes {
		if re.MatchString(lower) {
			score++
		}
	}
	if strings.Contains(content, "!") || strings.Contains(lower, "urgent") {
		score -= 2
	}

	score = clampScore(score)

	feedback := "The tone is acceptable but could be warmer."
	switch {
	case score >= 7:
		feedback = "The tone is professional and polite."
	case score < 4:
		feedback = "The tone is too informal or conveys urgency; soften the language."
	}

	return HeuristicResult{Score: score, Feedback: feedback}
}
