package zammad

import (
	"fmt"
	"strings"
	"time"
)

// Settings are the connection parameters for a Zammad instance, stored
// under the "zammad" settings namespace.
type Settings struct {
	BaseURL  string `json:"baseUrl"`
	APIToken string `json:"apiToken"`
}

func (s Settings) validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("zammad base URL is not configured")
	}
	if strings.TrimSpace(s.APIToken) == "" {
		return fmt.Errorf("zammad API token is not configured")
	}
	return nil
}

// Wire shapes, mapped strictly at the boundary. Fields we do not consume
// are deliberately omitted.

type ticket struct {
	ID        int64     `json:"id"`
	Number    string    `json:"number"`
	Title     string    `json:"title"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type article struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

type user struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
}

func (u user) displayName() string {
	name := strings.TrimSpace(u.Firstname + " " + u.Lastname)
	if name == "" {
		return u.Login
	}
	return name
}
