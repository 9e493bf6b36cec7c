package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mailqc/qc-server/internal/repository/models"
	"github.com/mailqc/qc-server/internal/service/mocks"
)

func TestNewPerformanceService(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		svc := NewPerformanceService(&mocks.MockQualityStore{}, zap.NewNop())
		assert.NotNil(t, svc)
	})

	t.Run("nil store panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewPerformanceService(nil, zap.NewNop())
		})
	})
}

func perfCheck(id, agentID, date string, overall int, scores [4]float64) models.QualityCheck {
	return models.QualityCheck{
		ID:           id,
		AgentID:      agentID,
		Date:         date,
		OverallScore: overall,
		Scores:       fourScores(scores),
	}
}

func TestGetPerformanceData(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("trend groups checks by day", func(t *testing.T) {
		mockStore := &mocks.MockQualityStore{
			GetQualityChecksFunc: func(ctx context.Context) ([]models.QualityCheck, error) {
				return []models.QualityCheck{
					perfCheck("qc-3", "a1", "2026-08-02T09:00:00Z", 6, [4]float64{6, 6, 6, 6}),
					perfCheck("qc-2", "a1", "2026-08-01T15:00:00Z", 10, [4]float64{10, 10, 10, 10}),
					perfCheck("qc-1", "a1", "2026-08-01T09:00:00Z", 8, [4]float64{8, 8, 8, 8}),
				}, nil
			},
			GetAgentsFunc: func(ctx context.Context) ([]models.Agent, error) {
				return []models.Agent{{ID: "a1", Name: "Jane Doe"}}, nil
			},
		}

		svc := NewPerformanceService(mockStore, logger)
		data, err := svc.GetPerformanceData(ctx)

		assert.NoError(t, err)
		assert.Equal(t, []TrendPoint{
			{Date: "2026-08-01", Average: 9},
			{Date: "2026-08-02", Average: 6},
		}, data.Overall)
	})

	t.Run("per agent aggregates", func(t *testing.T) {
		mockStore := &mocks.MockQualityStore{
			GetQualityChecksFunc: func(ctx context.Context) ([]models.QualityCheck, error) {
				return []models.QualityCheck{
					perfCheck("qc-1", "a1", "2026-08-01T09:00:00Z", 8, [4]float64{8, 6, 9, 7.5}),
					perfCheck("qc-2", "a1", "2026-08-02T09:00:00Z", 6, [4]float64{6, 6, 6, 5}),
					perfCheck("qc-3", "a2", "2026-08-02T10:00:00Z", 9, [4]float64{9, 9, 9, 10}),
				}, nil
			},
			GetAgentsFunc: func(ctx context.Context) ([]models.Agent, error) {
				return []models.Agent{
					{ID: "a1", Name: "Jane Doe"},
					{ID: "a2", Name: "Tom Brook"},
				}, nil
			},
		}

		svc := NewPerformanceService(mockStore, logger)
		data, err := svc.GetPerformanceData(ctx)

		assert.NoError(t, err)
		assert.Len(t, data.Agents, 2)

		jane := data.Agents[0]
		assert.Equal(t, "a1", jane.Agent.ID)
		assert.Equal(t, 2, jane.ChecksCount)
		assert.Equal(t, 7.0, jane.AverageScore)
		assert.Equal(t, 7.0, jane.CriteriaBreakdown[models.CriteriaTone])
		assert.Equal(t, 6.0, jane.CriteriaBreakdown[models.CriteriaClarity])
		assert.Equal(t, 7.5, jane.CriteriaBreakdown[models.CriteriaGrammar])
		assert.Equal(t, 6.25, jane.CriteriaBreakdown[models.CriteriaStructure])
		assert.Equal(t, []TrendPoint{
			{Date: "2026-08-01", Average: 8},
			{Date: "2026-08-02", Average: 6},
		}, jane.Trend)

		tom := data.Agents[1]
		assert.Equal(t, 1, tom.ChecksCount)
		assert.Equal(t, 9.0, tom.AverageScore)
	})

	t.Run("agent without checks reports zero defaults", func(t *testing.T) {
		mockStore := &mocks.MockQualityStore{
			GetQualityChecksFunc: func(ctx context.Context) ([]models.QualityCheck, error) {
				return nil, nil
			},
			GetAgentsFunc: func(ctx context.Context) ([]models.Agent, error) {
				return []models.Agent{{ID: "a1", Name: "Jane Doe"}}, nil
			},
		}

		svc := NewPerformanceService(mockStore, logger)
		data, err := svc.GetPerformanceData(ctx)

		assert.NoError(t, err)
		assert.Empty(t, data.Overall)
		assert.Len(t, data.Agents, 1)

		jane := data.Agents[0]
		assert.Zero(t, jane.AverageScore)
		assert.Zero(t, jane.ChecksCount)
		assert.Empty(t, jane.Trend)
		for _, id := range models.CriteriaIDs() {
			avg, ok := jane.CriteriaBreakdown[id]
			assert.True(t, ok)
			assert.Zero(t, avg)
		}
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		mockStore := &mocks.MockQualityStore{
			GetQualityChecksFunc: func(ctx context.Context) ([]models.QualityCheck, error) {
				return nil, errors.New("db locked")
			},
		}

		svc := NewPerformanceService(mockStore, logger)
		_, err := svc.GetPerformanceData(ctx)

		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}
