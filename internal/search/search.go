// Package search finds chat messages containing a query, either in one
// session or across the gateway's most recent sessions.
package search

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/salmonumbrella/webclaw-cli/internal/gateway"
)

const (
	// SessionHistoryLimit is the history depth for a single-session search.
	SessionHistoryLimit = 500
	// GlobalHistoryLimit is the history depth per session in a global search.
	GlobalHistoryLimit = 200
	// GlobalSessionLimit caps how many sessions a global search visits.
	GlobalSessionLimit = 20
	// GlobalMatchLimit caps matches kept per session in a global search.
	GlobalMatchLimit = 10
)

const toolResultRole = "toolResult"

// Query is a search request. An empty SessionKey searches globally.
type Query struct {
	Text       string
	SessionKey string
}

// Match is one message that contains the query.
type Match struct {
	Text  string `json:"text"`
	Role  string `json:"role"`
	Index int    `json:"index"`
}

// Result groups the matches found in one session.
type Result struct {
	SessionKey   string  `json:"sessionKey"`
	SessionTitle string  `json:"sessionTitle"`
	FriendlyID   string  `json:"friendlyId"`
	Messages     []Match `json:"messages"`
}

// Searcher runs queries against a gateway.
type Searcher struct {
	api    gateway.GatewayAPI
	logger *slog.Logger
}

// New returns a Searcher. A nil logger discards diagnostics.
func New(api gateway.GatewayAPI, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Searcher{api: api, logger: logger}
}

// Run is a shorthand for New(api, nil).Run(ctx, q).
func Run(ctx context.Context, api gateway.GatewayAPI, q Query) ([]Result, error) {
	return New(api, nil).Run(ctx, q)
}

// Run executes q. A blank query returns no results without calling the
// gateway.
func (s *Searcher) Run(ctx context.Context, q Query) ([]Result, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return []Result{}, nil
	}
	needle := strings.ToLower(text)

	if key := strings.TrimSpace(q.SessionKey); key != "" {
		history, err := s.api.History(ctx, key, SessionHistoryLimit)
		if err != nil {
			return nil, err
		}
		return []Result{{
			SessionKey:   key,
			SessionTitle: key,
			FriendlyID:   key,
			Messages:     matches(history.Messages, needle),
		}}, nil
	}

	sessions, err := s.api.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) > GlobalSessionLimit {
		sessions = sessions[:GlobalSessionLimit]
	}

	results := []Result{}
	for _, session := range sessions {
		key := session.SessionKey()
		if key == "" {
			continue
		}
		history, err := s.api.History(ctx, key, GlobalHistoryLimit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Debug("skipping session", "session", key, "error", err)
			continue
		}
		found := matches(history.Messages, needle)
		if len(found) == 0 {
			continue
		}
		if len(found) > GlobalMatchLimit {
			found = found[:GlobalMatchLimit]
		}
		friendly := session.FriendlyID
		if friendly == "" {
			friendly = key
		}
		results = append(results, Result{
			SessionKey:   key,
			SessionTitle: session.DisplayTitle(),
			FriendlyID:   friendly,
			Messages:     found,
		})
	}
	return results, nil
}

// Count returns the total number of matches across results.
func Count(results []Result) int {
	n := 0
	for _, r := range results {
		n += len(r.Messages)
	}
	return n
}

func matches(messages []gateway.Message, needle string) []Match {
	out := []Match{}
	for i, msg := range messages {
		role := msg.Role
		if role == "" {
			role = "assistant"
		}
		if role == toolResultRole {
			continue
		}
		text := msg.Text()
		if strings.Contains(strings.ToLower(text), needle) {
			out = append(out, Match{Text: text, Role: role, Index: i})
		}
	}
	return out
}
