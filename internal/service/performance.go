package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mailqc/qc-server/internal/repository/models"
)

// PerformanceService computes dashboard aggregates from stored quality
// checks. Nothing is cached here; every call scans the full history.
type PerformanceService struct {
	store  QualityStore
	logger *zap.Logger
}

// NewPerformanceService creates a new PerformanceService instance.
func NewPerformanceService(store QualityStore, logger *zap.Logger) *PerformanceService {
	if store == nil {
		panic("store must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &PerformanceService{store: store, logger: logger}
}

// GetPerformanceData returns the overall score trend plus per-agent
// averages, trends and criteria breakdowns.
func (s *PerformanceService) GetPerformanceData(ctx context.Context) (PerformanceData, error) {
	checks, err := s.store.GetQualityChecks(ctx)
	if err != nil {
		return PerformanceData{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	agents, err := s.store.GetAgents(ctx)
	if err != nil {
		return PerformanceData{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	data := PerformanceData{
		Overall: trend(checks),
		Agents:  make([]AgentPerformance, 0, len(agents)),
	}

	byAgent := make(map[string][]models.QualityCheck)
	for _, qc := range checks {
		byAgent[qc.AgentID] = append(byAgent[qc.AgentID], qc)
	}

	for _, agent := range agents {
		own := byAgent[agent.ID]
		data.Agents = append(data.Agents, AgentPerformance{
			Agent:             agent,
			Trend:             trend(own),
			AverageScore:      meanOverall(own),
			ChecksCount:       len(own),
			CriteriaBreakdown: criteriaBreakdown(own),
		})
	}

	s.logger.Debug("performance data computed",
		zap.Int("checks", len(checks)),
		zap.Int("agents", len(agents)))

	return data, nil
}

// trend groups checks by calendar day and averages the overall score per
// day, oldest first.
func trend(checks []models.QualityCheck) []TrendPoint {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, qc := range checks {
		day := checkDay(qc)
		sums[day] += float64(qc.OverallScore)
		counts[day]++
	}

	points := make([]TrendPoint, 0, len(sums))
	for day, sum := range sums {
		points = append(points, TrendPoint{Date: day, Average: sum / float64(counts[day])})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// checkDay truncates the stored RFC3339 date to YYYY-MM-DD.
func checkDay(qc models.QualityCheck) string {
	if len(qc.Date) >= 10 {
		return qc.Date[:10]
	}
	return qc.Date
}

func meanOverall(checks []models.QualityCheck) float64 {
	if len(checks) == 0 {
		return 0
	}
	var sum float64
	for _, qc := range checks {
		sum += float64(qc.OverallScore)
	}
	return sum / float64(len(checks))
}

// criteriaBreakdown averages each criterion's score across the given
// checks; criteria with no samples report 0.
func criteriaBreakdown(checks []models.QualityCheck) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, qc := range checks {
		for _, sc := range qc.Scores {
			sums[sc.CriteriaID] += sc.Score
			counts[sc.CriteriaID]++
		}
	}

	breakdown := make(map[string]float64, len(models.CriteriaIDs()))
	for _, id := range models.CriteriaIDs() {
		if counts[id] > 0 {
			breakdown[id] = sums[id] / float64(counts[id])
		} else {
			breakdown[id] = 0
		}
	}
	return breakdown
}
