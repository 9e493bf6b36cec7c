package models

// Agent is a customer-service agent whose emails get reviewed.
type Agent struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Avatar     string `json:"avatar"`
}

// ScoreResult is one criterion's outcome within a quality check. Text
// heuristics produce integer scores; the structure criterion moves in 2.5
// steps, so the field is a float.
type ScoreResult struct {
	CriteriaID string   `json:"criteriaId"`
	Score      float64  `json:"score"`
	Feedback   string   `json:"feedback"`
	Breakdown  []string `json:"breakdown,omitempty"`
}

// QualityCheck is a reviewer's saved assessment of a single email.
type QualityCheck struct {
	ID              string        `json:"id"`
	AgentID         string        `json:"agentId"`
	AgentName       string        `json:"agentName"`
	EmailID         string        `json:"emailId"`
	EmailSubject    string        `json:"emailSubject"`
	ReviewerID      string        `json:"reviewerId"`
	Date            string        `json:"date"`
	EmailContent    string        `json:"emailContent"`
	Scores          []ScoreResult `json:"scores"`
	OverallScore    int           `json:"overallScore"`
	Feedback        string        `json:"feedback"`
	Recommendations []string      `json:"recommendations"`
	Status          string        `json:"status"`
}

// QualityCriteria is one entry of the fixed scoring catalog.
type QualityCriteria struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// Email is an ephemeral message fetched from the ticketing system or
// constructed from pasted text. It is never persisted.
type Email struct {
	ID           string `json:"id"`
	TicketID     string `json:"ticketId"`
	TicketNumber string `json:"ticketNumber"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	From         string `json:"from"`
	To           string `json:"to"`
	AgentID      string `json:"agentId"`
	AgentName    string `json:"agentName"`
	CreatedAt    string `json:"createdAt"`
}

// Criterion ids used across the system. Every QualityCheck carries exactly
// one ScoreResult per id.
const (
	CriteriaTone      = "tone"
	CriteriaClarity   = "clarity"
	CriteriaGrammar   = "spelling-grammar"
	CriteriaStructure = "structure"
)

// DefaultCriteria returns the fixed four-element catalog. Weights are equal
// and immutable at runtime; the stored settings copy is display-only.
func DefaultCriteria() []QualityCriteria {
	return []QualityCriteria{
		{ID: CriteriaTone, Name: "Tone", Description: "Professional and polite tone", Weight: 0.25},
		{ID: CriteriaClarity, Name: "Clarity", Description: "Clear and easy to understand", Weight: 0.25},
		{ID: CriteriaGrammar, Name: "Spelling & Grammar", Description: "Correct spelling and grammar", Weight: 0.25},
		{ID: CriteriaStructure, Name: "Structure", Description: "Greeting, header, signature and footer present", Weight: 0.25},
	}
}

// CriteriaIDs returns the catalog ids in canonical order.
func CriteriaIDs() []string {
	return []string{CriteriaTone, CriteriaClarity, CriteriaGrammar, CriteriaStructure}
}
