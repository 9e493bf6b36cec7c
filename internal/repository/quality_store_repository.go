package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mailqc/qc-server/internal/repository/models"
	"github.com/mailqc/qc-server/pkg/kvstore"
)

// Collection keys. These mirror the namespaced keys the original dashboard
// used for its persisted state.
const (
	agentsKey         = "quality_check_agents"
	checksKey         = "quality_check_results"
	settingsKeyPrefix = "app_settings_"
)

// QualityStoreRepository persists agents, quality checks and settings as
// whole-collection JSON documents in a key-value store. Reads degrade to
// the empty collection when a key is missing or its payload is corrupt;
// only write failures propagate.
type QualityStoreRepository struct {
	kv     *kvstore.Store
	logger *zap.Logger
}

func NewQualityStoreRepository(kv *kvstore.Store, logger *zap.Logger) *QualityStoreRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QualityStoreRepository{kv: kv, logger: logger}
}

func (r *QualityStoreRepository) GetAgents(ctx context.Context) ([]models.Agent, error) {
	agents := []models.Agent{}
	if !r.readCollection(ctx, agentsKey, &agents) {
		return []models.Agent{}, nil
	}
	return agents, nil
}

func (r *QualityStoreRepository) SaveAgents(ctx context.Context, agents []models.Agent) error {
	return r.writeCollection(ctx, agentsKey, agents)
}

func (r *QualityStoreRepository) GetQualityChecks(ctx context.Context) ([]models.QualityCheck, error) {
	checks := []models.QualityCheck{}
	if !r.readCollection(ctx, checksKey, &checks) {
		return []models.QualityCheck{}, nil
	}
	return checks, nil
}

func (r *QualityStoreRepository) SaveQualityChecks(ctx context.Context, checks []models.QualityCheck) error {
	return r.writeCollection(ctx, checksKey, checks)
}

// GetSettings returns the raw settings document for a namespace, or nil
// when none is stored.
func (r *QualityStoreRepository) GetSettings(ctx context.Context, namespace string) (json.RawMessage, error) {
	raw, err := r.kv.Get(ctx, settingsKeyPrefix+namespace)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read settings %q: %w", namespace, err)
	}
	if !json.Valid(raw) {
		r.logger.Warn("corrupt settings payload, returning empty",
			zap.String("namespace", namespace))
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

func (r *QualityStoreRepository) SaveSettings(ctx context.Context, namespace string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("settings %q: payload is not valid JSON", namespace)
	}
	if err := r.kv.Put(ctx, settingsKeyPrefix+namespace, value); err != nil {
		return fmt.Errorf("write settings %q: %w", namespace, err)
	}
	return nil
}

// DeleteSettings removes a namespace's settings document, reporting whether
// one was stored.
func (r *QualityStoreRepository) DeleteSettings(ctx context.Context, namespace string) (bool, error) {
	key := settingsKeyPrefix + namespace
	if _, err := r.kv.Get(ctx, key); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read settings %q: %w", namespace, err)
	}
	if err := r.kv.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("delete settings %q: %w", namespace, err)
	}
	return true, nil
}

// ListSettingsNamespaces returns the namespaces that currently hold a
// settings document.
func (r *QualityStoreRepository) ListSettingsNamespaces(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Keys(ctx, settingsKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list settings namespaces: %w", err)
	}
	namespaces := make([]string, 0, len(keys))
	for _, k := range keys {
		namespaces = append(namespaces, strings.TrimPrefix(k, settingsKeyPrefix))
	}
	return namespaces, nil
}

// readCollection unmarshals the stored collection into dest. It reports
// false on any failure so callers can fall back to the empty collection.
func (r *QualityStoreRepository) readCollection(ctx context.Context, key string, dest any) bool {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			r.logger.Warn("collection read failed, returning empty",
				zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		r.logger.Warn("corrupt collection payload, returning empty",
			zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *QualityStoreRepository) writeCollection(ctx context.Context, key string, collection any) error {
	raw, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("marshal collection %q: %w", key, err)
	}
	if err := r.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("write collection %q: %w", key, err)
	}
	return nil
}
