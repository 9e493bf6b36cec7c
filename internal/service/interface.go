package service

import (
	"context"
	"encoding/json"

	"github.com/mailqc/qc-server/internal/repository/models"
)

// QualityStore defines the collection-level storage operations the services
// build on. Implementations persist whole collections at a time.
type QualityStore interface {
	GetAgents(ctx context.Context) ([]models.Agent, error)
	SaveAgents(ctx context.Context, agents []models.Agent) error
	GetQualityChecks(ctx context.Context) ([]models.QualityCheck, error)
	SaveQualityChecks(ctx context.Context, checks []models.QualityCheck) error
	GetSettings(ctx context.Context, namespace string) (json.RawMessage, error)
	SaveSettings(ctx context.Context, namespace string, value json.RawMessage) error
	DeleteSettings(ctx context.Context, namespace string) (bool, error)
	ListSettingsNamespaces(ctx context.Context) ([]string, error)
}
