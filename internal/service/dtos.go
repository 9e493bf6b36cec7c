package service

import "github.com/mailqc/qc-server/internal/repository/models"

// Evaluation is the orchestrated outcome of running every criterion
// analyzer against one email.
type Evaluation struct {
	Scores          []models.ScoreResult `json:"scores"`
	OverallScore    int                  `json:"overallScore"`
	GeneralFeedback string               `json:"generalFeedback"`
	Recommendations []string             `json:"recommendations"`
}

// TrendPoint is one dated average in a score series.
type TrendPoint struct {
	Date    string  `json:"date"`
	Average float64 `json:"average"`
}

// AgentPerformance aggregates all stored quality checks for one agent.
type AgentPerformance struct {
	Agent             models.Agent       `json:"agent"`
	Trend             []TrendPoint       `json:"trend"`
	AverageScore      float64            `json:"averageScore"`
	ChecksCount       int                `json:"checksCount"`
	CriteriaBreakdown map[string]float64 `json:"criteriaBreakdown"`
}

// PerformanceData is the dashboard aggregate, recomputed on every call.
type PerformanceData struct {
	Overall []TrendPoint       `json:"overall"`
	Agents  []AgentPerformance `json:"agents"`
}
