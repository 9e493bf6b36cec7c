package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mailqc/qc-server/internal/analysis"
	"github.com/mailqc/qc-server/internal/repository/models"
	"github.com/mailqc/qc-server/internal/service"
	"github.com/mailqc/qc-server/internal/zammad"
)

// MockReviewService is a mock implementation of the review service interface
// for testing the handler layer.
type MockReviewService struct {
	EvaluateFunc         func(email models.Email) service.Evaluation
	AnalyzeTemplateFunc  func(content string) analysis.TemplateAnalysisResult
	SaveQualityCheckFunc func(ctx context.Context, qc models.QualityCheck) (models.QualityCheck, error)
	GetQualityChecksFunc func(ctx context.Context) ([]models.QualityCheck, error)
	GetAgentsFunc        func(ctx context.Context) ([]models.Agent, error)
	AddAgentFunc         func(ctx context.Context, partial models.Agent) (models.Agent, error)
	RemoveAgentFunc      func(ctx context.Context, id string) (bool, error)
	GetSettingsFunc      func(ctx context.Context, namespace string) (json.RawMessage, error)
	SaveSettingsFunc     func(ctx context.Context, namespace string, value json.RawMessage) error
	DeleteSettingsFunc   func(ctx context.Context, namespace string) (bool, error)
	ListNamespacesFunc   func(ctx context.Context) ([]string, error)
}

func (m *MockReviewService) Evaluate(email models.Email) service.Evaluation {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(email)
	}
	return service.Evaluation{}
}

func (m *MockReviewService) AnalyzeTemplate(content string) analysis.TemplateAnalysisResult {
	if m.AnalyzeTemplateFunc != nil {
		return m.AnalyzeTemplateFunc(content)
	}
	return analysis.TemplateAnalysisResult{}
}

func (m *MockReviewService) SaveQualityCheck(ctx context.Context, qc models.QualityCheck) (models.QualityCheck, error) {
	if m.SaveQualityCheckFunc != nil {
		return m.SaveQualityCheckFunc(ctx, qc)
	}
	return models.QualityCheck{}, errors.New("SaveQualityCheckFunc not implemented")
}

func (m *MockReviewService) GetQualityChecks(ctx context.Context) ([]models.QualityCheck, error) {
	if m.GetQualityChecksFunc != nil {
		return m.GetQualityChecksFunc(ctx)
	}
	return nil, errors.New("GetQualityChecksFunc not implemented")
}

func (m *MockReviewService) GetAgents(ctx context.Context) ([]models.Agent, error) {
	if m.GetAgentsFunc != nil {
		return m.GetAgentsFunc(ctx)
	}
	return nil, errors.New("GetAgentsFunc not implemented")
}

func (m *MockReviewService) AddAgent(ctx context.Context, partial models.Agent) (models.Agent, error) {
	if m.AddAgentFunc != nil {
		return m.AddAgentFunc(ctx, partial)
	}
	return models.Agent{}, errors.New("AddAgentFunc not implemented")
}

func (m *MockReviewService) RemoveAgent(ctx context.Context, id string) (bool, error) {
	if m.RemoveAgentFunc != nil {
		return m.RemoveAgentFunc(ctx, id)
	}
	return false, errors.New("RemoveAgentFunc not implemented")
}

func (m *MockReviewService) GetSettings(ctx context.Context, namespace string) (json.RawMessage, error) {
	if m.GetSettingsFunc != nil {
		return m.GetSettingsFunc(ctx, namespace)
	}
	return nil, errors.New("GetSettingsFunc not implemented")
}

func (m *MockReviewService) SaveSettings(ctx context.Context, namespace string, value json.RawMessage) error {
	if m.SaveSettingsFunc != nil {
		return m.SaveSettingsFunc(ctx, namespace, value)
	}
	return errors.New("SaveSettingsFunc not implemented")
}

func (m *MockReviewService) DeleteSettings(ctx context.Context, namespace string) (bool, error) {
	if m.DeleteSettingsFunc != nil {
		return m.DeleteSettingsFunc(ctx, namespace)
	}
	return false, errors.New("DeleteSettingsFunc not implemented")
}

func (m *MockReviewService) ListSettingsNamespaces(ctx context.Context) ([]string, error) {
	if m.ListNamespacesFunc != nil {
		return m.ListNamespacesFunc(ctx)
	}
	return nil, errors.New("ListNamespacesFunc not implemented")
}

// MockPerformanceService is a mock implementation of the performance
// aggregation interface.
type MockPerformanceService struct {
	GetPerformanceDataFunc func(ctx context.Context) (service.PerformanceData, error)
}

func (m *MockPerformanceService) GetPerformanceData(ctx context.Context) (service.PerformanceData, error) {
	if m.GetPerformanceDataFunc != nil {
		return m.GetPerformanceDataFunc(ctx)
	}
	return service.PerformanceData{}, errors.New("GetPerformanceDataFunc not implemented")
}

// MockEmailFetcher is a mock implementation of the ticketing client.
type MockEmailFetcher struct {
	FetchEmailsFunc    func(ctx context.Context, settings zammad.Settings, from, to time.Time, agentID string) ([]models.Email, error)
	FetchAgentsFunc    func(ctx context.Context, settings zammad.Settings) ([]models.Agent, error)
	TestConnectionFunc func(ctx context.Context, settings zammad.Settings) error
}

func (m *MockEmailFetcher) FetchEmails(ctx context.Context, settings zammad.Settings, from, to time.Time, agentID string) ([]models.Email, error) {
	if m.FetchEmailsFunc != nil {
		return m.FetchEmailsFunc(ctx, settings, from, to, agentID)
	}
	return nil, errors.New("FetchEmailsFunc not implemented")
}

func (m *MockEmailFetcher) FetchAgents(ctx context.Context, settings zammad.Settings) ([]models.Agent, error) {
	if m.FetchAgentsFunc != nil {
		return m.FetchAgentsFunc(ctx, settings)
	}
	return nil, errors.New("FetchAgentsFunc not implemented")
}

func (m *MockEmailFetcher) TestConnection(ctx context.Context, settings zammad.Settings) error {
	if m.TestConnectionFunc != nil {
		return m.TestConnectionFunc(ctx, settings)
	}
	return nil
}
