package mocks

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mailqc/qc-server/internal/repository/models"
)

// MockQualityStore is a mock implementation of the QualityStore interface
// for testing the service layer.
type MockQualityStore struct {
	GetAgentsFunc         func(ctx context.Context) ([]models.Agent, error)
	SaveAgentsFunc        func(ctx context.Context, agents []models.Agent) error
	GetQualityChecksFunc  func(ctx context.Context) ([]models.QualityCheck, error)
	SaveQualityChecksFunc func(ctx context.Context, checks []models.QualityCheck) error
	GetSettingsFunc       func(ctx context.Context, namespace string) (json.RawMessage, error)
	SaveSettingsFunc      func(ctx context.Context, namespace string, value json.RawMessage) error
	DeleteSettingsFunc    func(ctx context.Context, namespace string) (bool, error)
	ListNamespacesFunc    func(ctx context.Context) ([]string, error)
}

func (m *MockQualityStore) GetAgents(ctx context.Context) ([]models.Agent, error) {
	if m.GetAgentsFunc != nil {
		return m.GetAgentsFunc(ctx)
	}
	return nil, errors.New("GetAgentsFunc not implemented")
}

func (m *MockQualityStore) SaveAgents(ctx context.Context, agents []models.Agent) error {
	if m.SaveAgentsFunc != nil {
		return m.SaveAgentsFunc(ctx, agents)
	}
	return errors.New("SaveAgentsFunc not implemented")
}

func (m *MockQualityStore) GetQualityChecks(ctx context.Context) ([]models.QualityCheck, error) {
	if m.GetQualityChecksFunc != nil {
		return m.GetQualityChecksFunc(ctx)
	}
	return nil, errors.New("GetQualityChecksFunc not implemented")
}

func (m *MockQualityStore) SaveQualityChecks(ctx context.Context, checks []models.QualityCheck) error {
	if m.SaveQualityChecksFunc != nil {
		return m.SaveQualityChecksFunc(ctx, checks)
	}
	return errors.New("SaveQualityChecksFunc not implemented")
}

func (m *MockQualityStore) GetSettings(ctx context.Context, namespace string) (json.RawMessage, error) {
	if m.GetSettingsFunc != nil {
		return m.GetSettingsFunc(ctx, namespace)
	}
	return nil, errors.New("GetSettingsFunc not implemented")
}

func (m *MockQualityStore) SaveSettings(ctx context.Context, namespace string, value json.RawMessage) error {
	if m.SaveSettingsFunc != nil {
		return m.SaveSettingsFunc(ctx, namespace, value)
	}
	return errors.New("SaveSettingsFunc not implemented")
}

func (m *MockQualityStore) DeleteSettings(ctx context.Context, namespace string) (bool, error) {
	if m.DeleteSettingsFunc != nil {
		return m.DeleteSettingsFunc(ctx, namespace)
	}
	return false, errors.New("DeleteSettingsFunc not implemented")
}

func (m *MockQualityStore) ListSettingsNamespaces(ctx context.Context) ([]string, error) {
	if m.ListNamespacesFunc != nil {
		return m.ListNamespacesFunc(ctx)
	}
	return nil, errors.New("ListNamespacesFunc not implemented")
}
