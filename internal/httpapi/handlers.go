// Package httpapi exposes the quality-control engine over a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mailqc/qc-server/internal/analysis"
	"github.com/mailqc/qc-server/internal/repository/models"
	"github.com/mailqc/qc-server/internal/service"
	"github.com/mailqc/qc-server/internal/zammad"
)

const (
	defaultCacheDuration  = 10 * time.Minute
	defaultRequestTimeout = 10 * time.Second

	cacheKeyPerformance = "http:performance_data"

	zammadNamespace = "zammad"
	dateLayout      = "2006-01-02"
)

type Handlers struct {
	review   ReviewService
	perf     PerformanceService
	emails   EmailFetcher
	cache    Cacher
	logger   *zap.Logger
	sfGroup  singleflight.Group
	cacheTTL time.Duration
}

// NewHandlers initializes the HTTP handlers.
func NewHandlers(review ReviewService, perf PerformanceService, emails EmailFetcher, cache Cacher, logger *zap.Logger, ttl time.Duration) *Handlers {
	if review == nil {
		panic("nil ReviewService provided to NewHandlers")
	}
	if perf == nil {
		panic("nil PerformanceService provided to NewHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &Handlers{
		review:   review,
		perf:     perf,
		emails:   emails,
		cache:    cache,
		logger:   logger.Named("http-handler"),
		cacheTTL: ttl,
	}
}

// Register mounts all routes on the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /api/v1/analyze", h.Analyze)
	mux.HandleFunc("GET /api/v1/criteria", h.ListCriteria)
	mux.HandleFunc("GET /api/v1/checks", h.ListChecks)
	mux.HandleFunc("POST /api/v1/checks", h.SaveCheck)
	mux.HandleFunc("GET /api/v1/agents", h.ListAgents)
	mux.HandleFunc("POST /api/v1/agents", h.AddAgent)
	mux.HandleFunc("DELETE /api/v1/agents/{id}", h.RemoveAgent)
	mux.HandleFunc("GET /api/v1/performance", h.Performance)
	mux.HandleFunc("GET /api/v1/emails", h.FetchEmails)
	mux.HandleFunc("GET /api/v1/zammad/agents", h.ZammadAgents)
	mux.HandleFunc("POST /api/v1/zammad/test", h.TestZammad)
	mux.HandleFunc("GET /api/v1/settings", h.ListSettingsNamespaces)
	mux.HandleFunc("GET /api/v1/settings/{namespace}", h.GetSettings)
	mux.HandleFunc("PUT /api/v1/settings/{namespace}", h.SaveSettings)
	mux.HandleFunc("DELETE /api/v1/settings/{namespace}", h.DeleteSettings)
}

type errorResponse struct {
	Error string `json:"error"`
}

type saveResponse struct {
	Success bool `json:"success"`
	Result  any  `json:"result,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleError maps service errors onto HTTP statuses.
func (h *Handlers) handleError(w http.ResponseWriter, ctx context.Context, op string, err error) {
	switch ctx.Err() {
	case context.Canceled:
		h.logger.Warn("request canceled", zap.String("op", op))
		writeError(w, 499, "request canceled")
		return
	case context.DeadlineExceeded:
		h.logger.Warn("request timeout", zap.String("op", op))
		writeError(w, http.StatusGatewayTimeout, "request timed out")
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCheck):
		h.logger.Info("invalid request", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAgentExists):
		h.logger.Info("duplicate agent", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		h.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "storage error")
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

type analyzeResponse struct {
	service.Evaluation
	Template templatePayload `json:"template"`
}

type templatePayload struct {
	DetectedTemplate  string          `json:"detectedTemplate,omitempty"`
	TemplateName      string          `json:"templateName,omitempty"`
	Score             float64         `json:"score"`
	MissingComponents []string        `json:"missingComponents"`
	ProhibitedPhrases []string        `json:"prohibitedPhrases"`
	ComponentScores   map[string]bool `json:"componentScores"`
}

func toTemplatePayload(t analysis.TemplateAnalysisResult) templatePayload {
	return templatePayload{
		DetectedTemplate:  t.DetectedTemplate,
		TemplateName:      t.TemplateName,
		Score:             t.Score,
		MissingComponents: t.MissingComponents,
		ProhibitedPhrases: t.ProhibitedPhrases,
		ComponentScores:   t.ComponentScores,
	}
}

// Analyze scores pasted email content without persisting anything.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	eval := h.review.Evaluate(models.Email{Subject: req.Subject, Body: req.Content})
	tpl := h.review.AnalyzeTemplate(req.Content)

	writeJSON(w, http.StatusOK, analyzeResponse{Evaluation: eval, Template: toTemplatePayload(tpl)})
}

// ListCriteria serves the fixed scoring catalog.
func (h *Handlers) ListCriteria(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.DefaultCriteria())
}

func (h *Handlers) ListChecks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	checks, err := h.review.GetQualityChecks(ctx)
	if err != nil {
		h.handleError(w, ctx, "ListChecks", err)
		return
	}
	writeJSON(w, http.StatusOK, checks)
}

// SaveCheck upserts a quality check and invalidates the cached dashboard.
func (h *Handlers) SaveCheck(w http.ResponseWriter, r *http.Request) {
	var qc models.QualityCheck
	if err := json.NewDecoder(r.Body).Decode(&qc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	saved, err := h.review.SaveQualityCheck(ctx, qc)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCheck) {
			writeJSON(w, http.StatusBadRequest, saveResponse{Success: false})
			return
		}
		h.handleError(w, ctx, "SaveCheck", err)
		return
	}

	h.invalidatePerformance(ctx)
	writeJSON(w, http.StatusOK, saveResponse{Success: true, Result: saved})
}

func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	agents, err := h.review.GetAgents(ctx)
	if err != nil {
		h.handleError(w, ctx, "ListAgents", err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *Handlers) AddAgent(w http.ResponseWriter, r *http.Request) {
	var partial models.Agent
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	agent, err := h.review.AddAgent(ctx, partial)
	if err != nil {
		h.handleError(w, ctx, "AddAgent", err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *Handlers) RemoveAgent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	removed, err := h.review.RemoveAgent(ctx, r.PathValue("id"))
	if err != nil {
		h.handleError(w, ctx, "RemoveAgent", err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	h.invalidatePerformance(ctx)
	writeJSON(w, http.StatusOK, saveResponse{Success: true})
}

// Performance serves the aggregated dashboard data through the read-through
// cache.
func (h *Handlers) Performance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	fetch := func(fetchCtx context.Context) (service.PerformanceData, error) {
		return h.perf.GetPerformanceData(fetchCtx)
	}

	var data service.PerformanceData
	var err error
	if h.cache != nil {
		rt := readThrough[service.PerformanceData]{
			cache:  h.cache,
			sf:     &h.sfGroup,
			key:    cacheKeyPerformance,
			ttl:    h.cacheTTL,
			logger: h.logger,
			fetch:  fetch,
		}
		data, err = rt.Load(ctx)
	} else {
		data, err = fetch(ctx)
	}
	if err != nil {
		h.handleError(w, ctx, "Performance", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// FetchEmails pulls reviewable emails from the configured ticketing system.
func (h *Handlers) FetchEmails(w http.ResponseWriter, r *http.Request) {
	if h.emails == nil {
		writeError(w, http.StatusServiceUnavailable, "ticketing integration not configured")
		return
	}

	q := r.URL.Query()
	from, err := time.Parse(dateLayout, q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(dateLayout, q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	ctx := r.Context()
	settings, err := h.zammadSettings(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	emails, err := h.emails.FetchEmails(ctx, settings, from, to, q.Get("agent_id"))
	if err != nil {
		h.logger.Error("email fetch failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "ticketing system request failed")
		return
	}
	writeJSON(w, http.StatusOK, emails)
}

// ZammadAgents lists the ticketing system's active agents so they can be
// imported into the local roster.
func (h *Handlers) ZammadAgents(w http.ResponseWriter, r *http.Request) {
	if h.emails == nil {
		writeError(w, http.StatusServiceUnavailable, "ticketing integration not configured")
		return
	}

	ctx := r.Context()
	settings, err := h.zammadSettings(ctx)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	agents, err := h.emails.FetchAgents(ctx, settings)
	if err != nil {
		h.logger.Error("agent fetch failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "ticketing system request failed")
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

// TestZammad verifies ticketing credentials. Settings may be posted in the
// body so a connection can be tested before saving; an empty body tests the
// stored configuration.
func (h *Handlers) TestZammad(w http.ResponseWriter, r *http.Request) {
	if h.emails == nil {
		writeError(w, http.StatusServiceUnavailable, "ticketing integration not configured")
		return
	}

	var settings zammad.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := r.Context()
	if settings.BaseURL == "" && settings.APIToken == "" {
		stored, err := h.zammadSettings(ctx)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		settings = stored
	}

	if err := h.emails.TestConnection(ctx, settings); err != nil {
		h.logger.Warn("zammad connection test failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: true})
}

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	raw, err := h.review.GetSettings(ctx, r.PathValue("namespace"))
	if err != nil {
		h.handleError(w, ctx, "GetSettings", err)
		return
	}
	if raw == nil {
		writeError(w, http.StatusNotFound, "no settings stored for namespace")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *Handlers) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	if err := h.review.SaveSettings(ctx, r.PathValue("namespace"), raw); err != nil {
		h.handleError(w, ctx, "SaveSettings", err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: true})
}

func (h *Handlers) DeleteSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	deleted, err := h.review.DeleteSettings(ctx, r.PathValue("namespace"))
	if err != nil {
		h.handleError(w, ctx, "DeleteSettings", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "no settings stored for namespace")
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: true})
}

// ListSettingsNamespaces serves the namespaces that hold stored settings.
func (h *Handlers) ListSettingsNamespaces(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultRequestTimeout)
	defer cancel()

	namespaces, err := h.review.ListSettingsNamespaces(ctx)
	if err != nil {
		h.handleError(w, ctx, "ListSettingsNamespaces", err)
		return
	}
	writeJSON(w, http.StatusOK, namespaces)
}

// zammadSettings loads and decodes the stored ticketing connection settings.
func (h *Handlers) zammadSettings(ctx context.Context) (zammad.Settings, error) {
	raw, err := h.review.GetSettings(ctx, zammadNamespace)
	if err != nil || raw == nil {
		return zammad.Settings{}, errors.New("zammad settings are not configured")
	}
	var settings zammad.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return zammad.Settings{}, errors.New("zammad settings are malformed")
	}
	return settings, nil
}

// invalidatePerformance drops the cached dashboard aggregate after a write.
func (h *Handlers) invalidatePerformance(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Del(ctx, cacheKeyPerformance); err != nil {
		h.logger.Warn("performance cache invalidation failed", zap.Error(err))
	}
}
