package gateway

import (
	"strings"
	"time"
)

// Session is one entry of sessions.list.
type Session struct {
	Key          string `json:"key,omitempty"`
	FriendlyID   string `json:"friendlyId,omitempty"`
	Title        string `json:"title,omitempty"`
	DerivedTitle string `json:"derivedTitle,omitempty"`
	Label        string `json:"label,omitempty"`
}

// SessionKey returns the key used to address the session, falling back to
// its friendly id.
func (s Session) SessionKey() string {
	if s.Key != "" {
		return s.Key
	}
	return s.FriendlyID
}

// DisplayTitle returns the first non-empty of title, derived title, label
// and key.
func (s Session) DisplayTitle() string {
	for _, candidate := range []string{s.Title, s.DerivedTitle, s.Label} {
		if candidate != "" {
			return candidate
		}
	}
	return s.SessionKey()
}

// ContentPart is one piece of a message body.
type ContentPart struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}

// Message is one chat message as returned by chat.history.
type Message struct {
	Role      string        `json:"role,omitempty"`
	Content   []ContentPart `json:"content,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"` // unix milliseconds
}

// Text joins the message's text parts.
func (m Message) Text() string {
	var sb strings.Builder
	for _, part := range m.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// Time returns the message timestamp, or the zero time when unset.
func (m Message) Time() time.Time {
	if m.Timestamp <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.Timestamp)
}

// History is the chat.history result.
type History struct {
	SessionKey string    `json:"sessionKey"`
	Messages   []Message `json:"messages"`
}

// CronJob is one scheduled gateway job.
type CronJob struct {
	ID       string `json:"id"`
	Label    string `json:"label,omitempty"`
	Schedule string `json:"schedule,omitempty"`
	Enabled  bool   `json:"enabled"`
	LastRun  string `json:"lastRun,omitempty"`
	NextRun  string `json:"nextRun,omitempty"`
}
