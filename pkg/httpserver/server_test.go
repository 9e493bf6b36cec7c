package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestLoggingMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	mw := LoggingMiddleware(logger)

	t.Run("generates a request id", func(t *testing.T) {
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("Expected a generated X-Request-ID header")
		}
	})

	t.Run("propagates an incoming request id", func(t *testing.T) {
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "req-123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
			t.Errorf("Expected req-123, got %q", got)
		}
	})

	t.Run("records the handler status", func(t *testing.T) {
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", rec.Code)
		}
	})
}

func TestServerBuilder(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("invalid port", func(t *testing.T) {
		if _, err := New(http.NewServeMux(), WithPort(-1)); err == nil {
			t.Error("Expected an error for a negative port")
		}
		if _, err := New(http.NewServeMux(), WithPort(70000)); err == nil {
			t.Error("Expected an error for an out-of-range port")
		}
	})

	t.Run("serves requests with logging enabled", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "pong")
		})

		server, err := New(mux,
			WithPort(18080),
			WithLogger(logger),
			WithLogging(true),
			WithReadTimeout(5*time.Second),
			WithWriteTimeout(5*time.Second),
		)
		if err != nil {
			t.Fatalf("Failed to create server: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				t.Logf("Server shutdown error: %v", err)
			}
		}()

		server.Start()
		time.Sleep(100 * time.Millisecond)

		resp, err := http.Get("http://" + server.Addr().String() + "/ping")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200, got %d", resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Error("Expected the logging middleware to set X-Request-ID")
		}
	})

	t.Run("middleware ordering", func(t *testing.T) {
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		mux := http.NewServeMux()
		mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {})

		server, err := New(mux,
			WithPort(18081),
			WithMiddleware(tag("outer"), tag("inner")),
		)
		if err != nil {
			t.Fatalf("Failed to create server: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		}()

		server.Start()
		time.Sleep(100 * time.Millisecond)

		resp, err := http.Get("http://" + server.Addr().String() + "/ping")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()

		if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
			t.Errorf("Expected [outer inner], got %v", order)
		}
	})
}
