package analysis

import "strings"

// AnalyzeClarity scores readability using word-length and sentence-density
// heuristics. Long-word-heavy prose loses points, short sentences and an
// explicit action section ("next steps", "to do") gain them.
func AnalyzeClarity(content string) HeuristicResult {
	lower := strings.ToLower(content)
	score := 5

	ws := words(content)
	if len(ws) > 0 {
		long := 0
		for _, w := range ws {
			if len(w) > 7 {
				long++
			}
		}
		if float64(long)/float64(len(ws)) > 0.2 {
			score -= 3
		}

		if float64(len(sentences(content)))/float64(len(ws)) > 1.0/15.0 {
			score += 2
		}
	}

	if strings.Contains(lower, "next steps") || strings.Contains(lower, "to do") {
		score += 3
	}

	score = clampScore(score)

	feedback := "The message is readable but could be more direct."
	switch {
	case score >= 7:
		feedback = "The message is clear and easy to follow."
	case score < 4:
		feedback = "The message is hard to follow; shorten sentences and simplify wording."
	}

	return HeuristicResult{Score: score, Feedback: feedback}
}
