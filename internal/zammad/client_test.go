package zammad

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSettings(serverURL string) Settings {
	return Settings{BaseURL: serverURL, APIToken: "secret-token"}
}

func TestSettingsValidate(t *testing.T) {
	assert.Error(t, Settings{}.validate())
	assert.Error(t, Settings{BaseURL: "https://support.example"}.validate())
	assert.Error(t, Settings{APIToken: "t"}.validate())
	assert.NoError(t, Settings{BaseURL: "https://support.example", APIToken: "t"}.validate())
}

func TestTestConnection(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/users/me", r.URL.Path)
			assert.Equal(t, "Token token=secret-token", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(user{ID: 1, Login: "admin", Active: true})
		}))
		defer srv.Close()

		client := NewClient(srv.Client(), zap.NewNop())
		assert.NoError(t, client.TestConnection(context.Background(), testSettings(srv.URL)))
	})

	t.Run("rejected token is not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "authentication required", http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := NewClient(srv.Client(), zap.NewNop())
		err := client.TestConnection(context.Background(), testSettings(srv.URL))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "401")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("unconfigured settings fail before any request", func(t *testing.T) {
		client := NewClient(nil, zap.NewNop())
		assert.Error(t, client.TestConnection(context.Background(), Settings{}))
	})
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(user{ID: 1, Login: "admin"})
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), zap.NewNop())
	err := client.TestConnection(context.Background(), testSettings(srv.URL))

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func newZammadStub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tickets/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("expand"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]ticket{
			{ID: 100, Number: "20260001", Title: "Conveyancing query", OwnerID: 7},
			{ID: 101, Number: "20260002", Title: "Internal only", OwnerID: 7},
		})
	})
	mux.HandleFunc("/api/v1/tickets/100", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ticket{ID: 100, Number: "20260001", Title: "Conveyancing query", OwnerID: 7})
	})
	mux.HandleFunc("/api/v1/tickets/101", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ticket{ID: 101, Number: "20260002", Title: "Internal only", OwnerID: 7})
	})
	mux.HandleFunc("/api/v1/ticket_articles/by_ticket/100", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]article{
			{ID: 1, TicketID: 100, Type: "email", Subject: "Re: your purchase", Body: "Dear Mr Smith,",
				From: "jane@firm.example", To: "smith@client.example",
				CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)},
			{ID: 2, TicketID: 100, Type: "email", Subject: "Re: your purchase", Body: "Following up,",
				From: "jane@firm.example", To: "smith@client.example",
				CreatedAt: time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)},
			{ID: 3, TicketID: 100, Type: "note", Internal: true, Body: "internal note",
				CreatedAt: time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)},
		})
	})
	mux.HandleFunc("/api/v1/ticket_articles/by_ticket/101", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]article{
			{ID: 4, TicketID: 101, Type: "note", Internal: true, Body: "nothing outbound"},
		})
	})
	mux.HandleFunc("/api/v1/users/7", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(user{ID: 7, Firstname: "Jane", Lastname: "Doe", Email: "jane@firm.example", Active: true})
	})

	return httptest.NewServer(mux)
}

func TestFetchEmails(t *testing.T) {
	srv := newZammadStub(t)
	defer srv.Close()

	client := NewClient(srv.Client(), zap.NewNop())
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC)

	emails, err := client.FetchEmails(context.Background(), testSettings(srv.URL), from, to, "")
	require.NoError(t, err)

	// Ticket 101 has no outbound email article and is dropped.
	require.Len(t, emails, 1)

	email := emails[0]
	assert.Equal(t, "2", email.ID, "expected the newest email article")
	assert.Equal(t, "100", email.TicketID)
	assert.Equal(t, "20260001", email.TicketNumber)
	assert.Equal(t, "Following up,", email.Body)
	assert.Equal(t, "7", email.AgentID)
	assert.Equal(t, "Jane Doe", email.AgentName)
	assert.Equal(t, "2026-08-02T09:00:00Z", email.CreatedAt)
}

func TestFetchEmailsAgentFilter(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/tickets/search" {
			query = r.URL.Query().Get("query")
			json.NewEncoder(w).Encode([]ticket{})
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), zap.NewNop())
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC)

	emails, err := client.FetchEmails(context.Background(), testSettings(srv.URL), from, to, "7")
	require.NoError(t, err)
	assert.Empty(t, emails)
	assert.Equal(t, "created_at:[2026-08-01 TO 2026-08-07] AND owner_id:7", query)
}

func TestFetchAgents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users", r.URL.Path)
		json.NewEncoder(w).Encode([]user{
			{ID: 7, Firstname: "Jane", Lastname: "Doe", Email: "jane@firm.example", Active: true},
			{ID: 8, Login: "bot", Active: false},
			{ID: 9, Login: "tbrook", Active: true},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), zap.NewNop())
	agents, err := client.FetchAgents(context.Background(), testSettings(srv.URL))

	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "7", agents[0].ID)
	assert.Equal(t, "Jane Doe", agents[0].Name)
	assert.Equal(t, "tbrook", agents[1].Name, "login is the fallback display name")
}

func TestAgentNameCache(t *testing.T) {
	cache := &agentNameCache{entries: make(map[int64]string)}
	fetches := 0
	fetch := func(id int64) (string, error) {
		fetches++
		return "Jane Doe", nil
	}

	for i := 0; i < 3; i++ {
		name, err := cache.lookup(7, fetch)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", name)
	}
	assert.Equal(t, 1, fetches)
}

func TestLatestEmailArticle(t *testing.T) {
	t.Run("no candidates", func(t *testing.T) {
		assert.Nil(t, latestEmailArticle(nil))
		assert.Nil(t, latestEmailArticle([]article{{Type: "note"}, {Type: "email", Internal: true}}))
	})

	t.Run("newest wins", func(t *testing.T) {
		got := latestEmailArticle([]article{
			{ID: 1, Type: "email", CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
			{ID: 2, Type: "email", CreatedAt: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)},
			{ID: 3, Type: "email", CreatedAt: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)},
		})
		require.NotNil(t, got)
		assert.Equal(t, int64(2), got.ID)
	})
}
