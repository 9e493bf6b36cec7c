package httpapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mailqc/qc-server/internal/analysis"
	"github.com/mailqc/qc-server/internal/repository/models"
	"github.com/mailqc/qc-server/internal/service"
	"github.com/mailqc/qc-server/internal/zammad"
)

// Cacher defines the cache operations the handlers need.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ReviewService covers evaluation, persistence and settings operations.
type ReviewService interface {
	Evaluate(email models.Email) service.Evaluation
	AnalyzeTemplate(content string) analysis.TemplateAnalysisResult
	SaveQualityCheck(ctx context.Context, qc models.QualityCheck) (models.QualityCheck, error)
	GetQualityChecks(ctx context.Context) ([]models.QualityCheck, error)
	GetAgents(ctx context.Context) ([]models.Agent, error)
	AddAgent(ctx context.Context, partial models.Agent) (models.Agent, error)
	RemoveAgent(ctx context.Context, id string) (bool, error)
	GetSettings(ctx context.Context, namespace string) (json.RawMessage, error)
	SaveSettings(ctx context.Context, namespace string, value json.RawMessage) error
	DeleteSettings(ctx context.Context, namespace string) (bool, error)
	ListSettingsNamespaces(ctx context.Context) ([]string, error)
}

// PerformanceService computes dashboard aggregates.
type PerformanceService interface {
	GetPerformanceData(ctx context.Context) (service.PerformanceData, error)
}

// EmailFetcher pulls emails and agents from the external ticketing system.
type EmailFetcher interface {
	FetchEmails(ctx context.Context, settings zammad.Settings, from, to time.Time, agentID string) ([]models.Email, error)
	FetchAgents(ctx context.Context, settings zammad.Settings) ([]models.Agent, error)
	TestConnection(ctx context.Context, settings zammad.Settings) error
}
