// Package zammad is a read-only client for the Zammad ticketing REST API,
// used to pull recent customer emails for review.
package zammad

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mailqc/qc-server/internal/repository/models"
)

const (
	defaultHTTPTimeout = 12 * time.Second
	maxRetryElapsed    = 15 * time.Second
	searchLimit        = 50
	ticketConcurrency  = 5
)

type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Zammad client. A nil httpClient falls back to a
// timeout-bounded default.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, logger: logger.Named("zammad")}
}

// TestConnection verifies the configured instance accepts the token.
func (c *Client) TestConnection(ctx context.Context, settings Settings) error {
	if err := settings.validate(); err != nil {
		return err
	}
	var me user
	return c.getJSON(ctx, settings, "/api/v1/users/me", nil, &me)
}

// FetchEmails returns the newest outbound customer email per ticket in the
// window, ordered as the search returned them. Tickets whose detail,
// article or owner lookup fails are dropped rather than failing the whole
// fetch.
func (c *Client) FetchEmails(ctx context.Context, settings Settings, from, to time.Time, agentID string) ([]models.Email, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("created_at:[%s TO %s]", from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	if agentID != "" {
		query += " AND owner_id:" + agentID
	}

	var tickets []ticket
	params := url.Values{
		"query":  {query},
		"expand": {"true"},
		"limit":  {strconv.Itoa(searchLimit)},
	}
	if err := c.getJSON(ctx, settings, "/api/v1/tickets/search", params, &tickets); err != nil {
		return nil, fmt.Errorf("ticket search: %w", err)
	}

	emails := make([]*models.Email, len(tickets))
	names := &agentNameCache{entries: make(map[int64]string)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ticketConcurrency)
	for i, t := range tickets {
		g.Go(func() error {
			email, err := c.fetchTicketEmail(gctx, settings, t, names)
			if err != nil {
				c.logger.Warn("skipping ticket",
					zap.Int64("ticket_id", t.ID), zap.Error(err))
				return nil
			}
			emails[i] = email
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.Email, 0, len(emails))
	for _, e := range emails {
		if e != nil {
			out = append(out, *e)
		}
	}

	c.logger.Info("fetched emails",
		zap.Int("tickets", len(tickets)),
		zap.Int("emails", len(out)))
	return out, nil
}

// FetchAgents lists the instance's active users as agents.
func (c *Client) FetchAgents(ctx context.Context, settings Settings) ([]models.Agent, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}

	var users []user
	params := url.Values{"expand": {"true"}}
	if err := c.getJSON(ctx, settings, "/api/v1/users", params, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	agents := make([]models.Agent, 0, len(users))
	for _, u := range users {
		if !u.Active {
			continue
		}
		agents = append(agents, models.Agent{
			ID:    strconv.FormatInt(u.ID, 10),
			Name:  u.displayName(),
			Email: u.Email,
		})
	}
	return agents, nil
}

// fetchTicketEmail resolves one ticket into an Email: ticket detail, its
// newest non-internal email article and the owner's display name.
func (c *Client) fetchTicketEmail(ctx context.Context, settings Settings, t ticket, names *agentNameCache) (*models.Email, error) {
	var detail ticket
	if err := c.getJSON(ctx, settings, fmt.Sprintf("/api/v1/tickets/%d", t.ID), nil, &detail); err != nil {
		return nil, fmt.Errorf("ticket detail: %w", err)
	}

	var articles []article
	if err := c.getJSON(ctx, settings, fmt.Sprintf("/api/v1/ticket_articles/by_ticket/%d", t.ID), nil, &articles); err != nil {
		return nil, fmt.Errorf("ticket articles: %w", err)
	}

	latest := latestEmailArticle(articles)
	if latest == nil {
		return nil, fmt.Errorf("no email article")
	}

	name, err := names.lookup(detail.OwnerID, func(id int64) (string, error) {
		var u user
		if err := c.getJSON(ctx, settings, fmt.Sprintf("/api/v1/users/%d", id), nil, &u); err != nil {
			return "", err
		}
		return u.displayName(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("owner lookup: %w", err)
	}

	subject := latest.Subject
	if subject == "" {
		subject = detail.Title
	}

	return &models.Email{
		ID:           strconv.FormatInt(latest.ID, 10),
		TicketID:     strconv.FormatInt(detail.ID, 10),
		TicketNumber: detail.Number,
		Subject:      subject,
		Body:         latest.Body,
		From:         latest.From,
		To:           latest.To,
		AgentID:      strconv.FormatInt(detail.OwnerID, 10),
		AgentName:    name,
		CreatedAt:    latest.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// latestEmailArticle picks the newest non-internal email-type article.
func latestEmailArticle(articles []article) *article {
	candidates := make([]article, 0, len(articles))
	for _, a := range articles {
		if a.Internal || a.Type != "email" {
			continue
		}
		candidates = append(candidates, a)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return &candidates[0]
}

// getJSON performs an authenticated GET with retry on transport failures
// and 5xx responses.
func (c *Client) getJSON(ctx context.Context, settings Settings, path string, params url.Values, target any) error {
	endpoint := strings.TrimRight(settings.BaseURL, "/") + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Token token="+settings.APIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error %d: %s", resp.StatusCode, truncate(body, 200))
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("request failed with status %d: %s", resp.StatusCode, truncate(body, 200)))
		}

		if err := json.Unmarshal(body, target); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxRetryElapsed
	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// agentNameCache memoizes owner display names so tickets sharing an agent
// trigger a single user lookup per fetch.
type agentNameCache struct {
	mu      sync.Mutex
	entries map[int64]string
}

func (c *agentNameCache) lookup(id int64, fetch func(int64) (string, error)) (string, error) {
	c.mu.Lock()
	if name, ok := c.entries[id]; ok {
		c.mu.Unlock()
		return name, nil
	}
	c.mu.Unlock()

	name, err := fetch(id)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[id] = name
	c.mu.Unlock()
	return name, nil
}
