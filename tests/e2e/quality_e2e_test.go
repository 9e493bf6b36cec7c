//go:build e2e

package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mailqc/qc-server/internal/httpapi"
	"github.com/mailqc/qc-server/internal/repository"
	"github.com/mailqc/qc-server/internal/repository/models"
	"github.com/mailqc/qc-server/internal/service"
	"github.com/mailqc/qc-server/pkg/kvstore"
	"github.com/mailqc/qc-server/tests/e2e/mocks"
)

func setupStack(t *testing.T, cache httpapi.Cacher) *http.ServeMux {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	kv, err := kvstore.New(context.Background(), db)
	require.NoError(t, err)

	logger := zap.NewNop()
	store := repository.NewQualityStoreRepository(kv, logger)
	review := service.NewReviewService(store, logger)
	perf := service.NewPerformanceService(store, logger)

	handlers := httpapi.NewHandlers(review, perf, nil, cache, logger, 5*time.Minute)
	mux := http.NewServeMux()
	handlers.Register(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target, body string, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, reader))
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

const reviewableEmail = `Dear Mr Smith,

Thank you for contacting My Law Matters about your property purchase.
We have reviewed your documents and everything is in order.

Next steps: we will submit the searches this week and confirm once the
results arrive.

Best regards,
Jane Doe
My Law Matters
contact@mylawmatters.co.uk`

func TestE2E_AnalyzeAndSaveWorkflow(t *testing.T) {
	mux := setupStack(t, &mocks.InMemoryCache{})

	// Analyze pasted content without persisting.
	var analysis struct {
		Scores       []models.ScoreResult `json:"scores"`
		OverallScore int                  `json:"overallScore"`
	}
	body, _ := json.Marshal(map[string]string{"subject": "Re: your purchase", "content": reviewableEmail})
	rec := doJSON(t, mux, http.MethodPost, "/api/v1/analyze", string(body), &analysis)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, analysis.Scores, 4)

	// Nothing was stored by the analysis.
	var checks []models.QualityCheck
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/checks", "", &checks)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, checks)

	// Persist a reviewed check; the overall score is derived server-side.
	check := map[string]any{
		"agentName": "Jane Doe",
		"scores": []map[string]any{
			{"criteriaId": "tone", "score": 8, "feedback": "good"},
			{"criteriaId": "clarity", "score": 6, "feedback": "ok"},
			{"criteriaId": "spelling-grammar", "score": 9, "feedback": "clean"},
			{"criteriaId": "structure", "score": 7, "feedback": "nearly"},
		},
	}
	payload, _ := json.Marshal(check)

	var saveResp struct {
		Success bool                `json:"success"`
		Result  models.QualityCheck `json:"result"`
	}
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/checks", string(payload), &saveResp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, saveResp.Success)
	assert.Equal(t, 8, saveResp.Result.OverallScore)
	assert.NotEmpty(t, saveResp.Result.ID)
	assert.Equal(t, "completed", saveResp.Result.Status)

	// The unknown agent name was created implicitly.
	var agents []models.Agent
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/agents", "", &agents)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, agents, 1)
	assert.Equal(t, "Jane Doe", agents[0].Name)
	assert.Equal(t, "jane.doe@example.com", agents[0].Email)

	// The history now holds the saved check.
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/checks", "", &checks)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, checks, 1)
	assert.Equal(t, saveResp.Result.ID, checks[0].ID)
}

func TestE2E_UpsertReplacesInPlace(t *testing.T) {
	mux := setupStack(t, &mocks.InMemoryCache{})

	scores := func(v int) []map[string]any {
		return []map[string]any{
			{"criteriaId": "tone", "score": v},
			{"criteriaId": "clarity", "score": v},
			{"criteriaId": "spelling-grammar", "score": v},
			{"criteriaId": "structure", "score": v},
		}
	}

	for _, id := range []string{"qc-old", "qc-new"} {
		payload, _ := json.Marshal(map[string]any{"id": id, "agentName": "Jane Doe", "scores": scores(5)})
		rec := doJSON(t, mux, http.MethodPost, "/api/v1/checks", string(payload), nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Re-saving qc-old must keep its position instead of moving it forward.
	payload, _ := json.Marshal(map[string]any{"id": "qc-old", "agentName": "Jane Doe", "scores": scores(9)})
	rec := doJSON(t, mux, http.MethodPost, "/api/v1/checks", string(payload), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var checks []models.QualityCheck
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/checks", "", &checks)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, checks, 2)
	assert.Equal(t, "qc-new", checks[0].ID)
	assert.Equal(t, "qc-old", checks[1].ID)
	assert.Equal(t, 9, checks[1].OverallScore)
}

func TestE2E_AgentLifecycle(t *testing.T) {
	mux := setupStack(t, &mocks.InMemoryCache{})

	var agent models.Agent
	rec := doJSON(t, mux, http.MethodPost, "/api/v1/agents", `{"name":"Tom Brook","department":"Conveyancing"}`, &agent)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, "tom.brook@example.com", agent.Email)
	assert.Contains(t, agent.Avatar, "ui-avatars.com")

	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/agents/"+agent.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/agents/"+agent.ID, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var agents []models.Agent
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/agents", "", &agents)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, agents)
}

func TestE2E_SettingsRoundTrip(t *testing.T) {
	mux := setupStack(t, &mocks.InMemoryCache{})

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/settings/zammad", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, mux, http.MethodPut, "/api/v1/settings/zammad",
		`{"baseUrl":"https://support.example","apiToken":"secret"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/settings/zammad", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"baseUrl":"https://support.example","apiToken":"secret"}`, rec.Body.String())

	var namespaces []string
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/settings", "", &namespaces)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"zammad"}, namespaces)

	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/settings/zammad", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/api/v1/settings/zammad", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestE2E_PerformanceAndCaching(t *testing.T) {
	cache := mocks.NewTrackingCache()
	mux := setupStack(t, cache)

	payload, _ := json.Marshal(map[string]any{
		"agentName": "Jane Doe",
		"scores": []map[string]any{
			{"criteriaId": "tone", "score": 8},
			{"criteriaId": "clarity", "score": 6},
			{"criteriaId": "spelling-grammar", "score": 9},
			{"criteriaId": "structure", "score": 7},
		},
	})
	rec := doJSON(t, mux, http.MethodPost, "/api/v1/checks", string(payload), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data service.PerformanceData
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/performance", "", &data)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, data.Agents, 1)
	assert.Equal(t, 8.0, data.Agents[0].AverageScore)
	assert.Equal(t, 1, data.Agents[0].ChecksCount)
	require.Len(t, data.Overall, 1)

	// Give the async cache write a moment, then the second request should
	// be served from cache with identical content.
	time.Sleep(200 * time.Millisecond)

	var cached service.PerformanceData
	rec = doJSON(t, mux, http.MethodGet, "/api/v1/performance", "", &cached)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data, cached)
	assert.GreaterOrEqual(t, cache.SetCalls, 1)

	// Writes invalidate the cached aggregate.
	before := cache.DelCalls
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/checks", string(payload), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, cache.DelCalls, before)
}
