package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

var greetingRe = regexp.MustCompile(`(?i)^\s*(?:hello|hi|hey|dear|good\s+(?:morning|afternoon|evening)|greetings)\b`)

// headerPhrases are organization-name markers expected somewhere in the
// body, matched after whitespace normalization.
var headerPhrases = []string{
	"my law matters",
	"mylawmatters",
}

var signatureRe = regexp.MustCompile(`(?i)\b(?:many thanks|yours sincerely|yours faithfully|best regards|best wishes|kind regards|thank you|regards|sincerely)\b`)

var footerRe = regexp.MustCompile(`(?i)(?:my law matters|mylawmatters|contact us|https?://|www\.|\.co\.uk|\.com\b)`)

const missingElementPenalty = 2.5

// AnalyzeStructure detects the four structural elements of a well-formed
// customer email. Greeting is only looked for in the first two lines,
// signature in the last three and footer in the last two, so boilerplate
// elsewhere in the body does not count.
func AnalyzeStructure(content string) StructureResult {
	lines := nonEmptyLines(content)
	normalized := normalize(content)

	var res StructureResult

	for i, line := range lines {
		if i >= 2 {
			break
		}
		if greetingRe.MatchString(line) {
			res.HasGreeting = true
			break
		}
	}

	for _, phrase := range headerPhrases {
		if strings.Contains(normalized, phrase) {
			res.HasHeader = true
			break
		}
	}

	for _, line := range lastLines(lines, 3) {
		if signatureRe.MatchString(line) {
			res.HasSignature = true
			break
		}
	}

	for _, line := range lastLines(lines, 2) {
		if footerRe.MatchString(line) {
			res.HasFooter = true
			break
		}
	}

	var missing []string
	if !res.HasGreeting {
		missing = append(missing, "greeting")
	}
	if !res.HasHeader {
		missing = append(missing, "header")
	}
	if !res.HasSignature {
		missing = append(missing, "signature")
	}
	if !res.HasFooter {
		missing = append(missing, "footer")
	}

	res.Score = 10 - missingElementPenalty*float64(len(missing))
	if len(missing) == 0 {
		res.Feedback = "All structural elements are present."
	} else {
		res.Feedback = fmt.Sprintf("Missing structural elements: %s.", strings.Join(missing, ", "))
	}

	return res
}

func lastLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
