package analysis

import (
	"regexp"
	"strings"
)

// templateComponent is a named part of a template. Only required components
// count towards the compliance score and the missing list.
type templateComponent struct {
	name     string
	required bool
	patterns []*regexp.Regexp
}

// emailTemplate couples identifier patterns with the components the template
// is expected to carry. Catalog order is the tie-break: the first template
// whose identifier matches wins.
type emailTemplate struct {
	id          string
	name        string
	identifiers []*regexp.Regexp
	components  []templateComponent
}

var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^\s*(?:hello|hi|dear|good\s+(?:morning|afternoon|evening))\b`),
}

var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:yours sincerely|yours faithfully|best regards|kind regards|many thanks|sincerely|regards)\b`),
}

var contactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:contact us|call us|reach us|0\d{3,4}\s?\d{3}\s?\d{3,4}|\w+@[\w.-]+\.\w+)`),
}

var caseReferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:case|matter|claim|reference)\s*(?:number|no\.?|ref\.?|#)?\s*[:#]?\s*[A-Z0-9][A-Z0-9/-]*`),
}

var templateCatalog = []emailTemplate{
	{
		id:   "client-welcome",
		name: "Client Welcome",
		identifiers: []*regexp.Regexp{
			regexp.MustCompile(`(?i)welcome to my law matters`),
			regexp.MustCompile(`(?i)thank you for choosing (?:us|my law matters)`),
		},
		components: []templateComponent{
			{name: "greeting", required: true, patterns: greetingPatterns},
			{name: "case_reference", required: true, patterns: caseReferencePatterns},
			{name: "next_steps", required: true, patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)next steps?`),
				regexp.MustCompile(`(?i)what happens (?:next|now)`),
			}},
			{name: "contact_details", required: true, patterns: contactPatterns},
			{name: "signature", required: true, patterns: signaturePatterns},
			{name: "marketing_preferences", required: false, patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:unsubscribe|marketing preferences|opt out)`),
			}},
		},
	},
	{
		id:   "case-update",
		name: "Case Progress Update",
		identifiers: []*regexp.Regexp{
			regexp.MustCompile(`(?i)update on your (?:case|matter|claim)`),
			regexp.MustCompile(`(?i)progress of your (?:case|matter|claim)`),
		},
		components: []templateComponent{
			{name: "greeting", required: true, patterns: greetingPatterns},
			{name: "case_reference", required: true, patterns: caseReferencePatterns},
			{name: "current_status", required: true, patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:current status|currently|at this stage|progress)`),
			}},
			{name: "next_steps", required: true, patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)next steps?`),
			}},
			{name: "expected_timeline", required: false, patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:within \d+|by the end of|expected by)`),
			}},
			{name: "signature", required: true, patterns: signaturePatterns},
		},
	},
	{
		id:   "document-request",
		name: "Document Request",
		identifiers: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:we require|please provide|we will need).{0,60}(?:documents?|information|evidence)`),
		},
		components: []templateComponent{
			{name: "greeting", required: true, patterns: greetingPatterns},
			{name: "document_list", required: true, patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:following documents?|listed below|the documents? we need)`),
			}},
			{name: "deadline", required: true, patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:no later than|within \d+ (?:days|weeks)|by \d{1,2}(?:st|nd|rd|th)?)`),
			}},
			{name: "return_instructions", required: false, patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:reply to this email|upload|post them|enclosed envelope)`),
			}},
			{name: "signature", required: true, patterns: signaturePatterns},
		},
	},
	{
		id:   "complaint-acknowledgement",
		name: "Complaint Acknowledgement",
		identifiers: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:your complaint|sorry to hear|we apologise|we apologize)`),
		},
		components: []templateComponent{
			{name: "greeting", required: true, patterns: greetingPatterns},
			{name: "apology", required: true, patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:apologise|apologize|sorry)`),
			}},
			{name: "resolution_steps", required: true, patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:investigate|look into|resolve|put (?:this|it) right)`),
			}},
			{name: "contact_details", required: false, patterns: contactPatterns},
			{name: "signature", required: true, patterns: signaturePatterns},
		},
	},
}

// prohibitedPhrases are flagged by case-insensitive substring match in any
// template-matched email.
var prohibitedPhrases = []string{
	"guaranteed win",
	"100% success",
	"we guarantee",
	"no chance of losing",
	"don't worry",
	"off the record",
	"between you and me",
	"trust me",
}

// IdentifyTemplate returns the id of the first catalog template whose
// identifier pattern matches, or "" when none does.
func IdentifyTemplate(content string) string {
	for _, tpl := range templateCatalog {
		for _, id := range tpl.identifiers {
			if id.MatchString(content) {
				return tpl.id
			}
		}
	}
	return ""
}

// AnalyzeTemplateConsistency checks an email against the template catalog.
// The compliance score is (found/required)*8 plus 2 when no prohibited
// phrase appears; only required components enter the ratio.
func AnalyzeTemplateConsistency(content string) TemplateAnalysisResult {
	id := IdentifyTemplate(content)
	if id == "" {
		return TemplateAnalysisResult{
			Score:             0,
			MissingComponents: []string{},
			ProhibitedPhrases: []string{},
			ComponentScores:   map[string]bool{},
		}
	}

	var tpl emailTemplate
	for _, t := range templateCatalog {
		if t.id == id {
			tpl = t
			break
		}
	}

	res := TemplateAnalysisResult{
		DetectedTemplate:  tpl.id,
		TemplateName:      tpl.name,
		MissingComponents: []string{},
		ProhibitedPhrases: []string{},
		ComponentScores:   make(map[string]bool),
	}

	required := 0
	found := 0
	for _, comp := range tpl.components {
		matched := false
		for _, p := range comp.patterns {
			if p.MatchString(content) {
				matched = true
				break
			}
		}
		// Optional components show up in the per-component breakdown but
		// stay out of the ratio and the missing list.
		res.ComponentScores[comp.name] = matched
		if !comp.required {
			continue
		}
		required++
		if matched {
			found++
		} else {
			res.MissingComponents = append(res.MissingComponents, strings.ReplaceAll(comp.name, "_", " "))
		}
	}

	lower := strings.ToLower(content)
	for _, phrase := range prohibitedPhrases {
		if strings.Contains(lower, phrase) {
			res.ProhibitedPhrases = append(res.ProhibitedPhrases, phrase)
		}
	}

	ratio := 1.0
	if required > 0 {
		ratio = float64(found) / float64(required)
	}
	res.Score = ratio * 8
	if len(res.ProhibitedPhrases) == 0 {
		res.Score += 2
	}

	return res
}
