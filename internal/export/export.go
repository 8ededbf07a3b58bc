// Package export renders a chat history as markdown, JSON or plain text.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/salmonumbrella/webclaw-cli/internal/gateway"
)

// Format is an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
)

const (
	dateLayout     = "January 2, 2006 at 03:04 PM"
	isoLayout      = "2006-01-02T15:04:05.000Z07:00"
	maxFilenameLen = 64
	fallbackName   = "chat-export"
)

var now = time.Now

// ParseFormat accepts a format name or its common extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown export format %q (expected markdown, json or text)", s)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatText:
		return ".txt"
	default:
		return ".md"
	}
}

// Render renders messages in format f.
func Render(f Format, messages []gateway.Message, title string) (string, error) {
	switch f {
	case FormatMarkdown:
		return Markdown(messages, title), nil
	case FormatJSON:
		return JSON(messages, title)
	case FormatText:
		return Text(messages, title), nil
	default:
		return "", fmt.Errorf("unknown export format %q", f)
	}
}

// Markdown renders a markdown transcript with one section per message.
func Markdown(messages []gateway.Message, title string) string {
	lines := []string{"# Chat: " + title, "*Exported on " + now().Format(dateLayout) + "*", ""}
	for _, msg := range messages {
		content, ok := exportable(msg)
		if !ok {
			continue
		}
		lines = append(lines, "## "+roleLabel(msg.Role), "", content, "")
	}
	return strings.Join(lines, "\n")
}

// Text renders a plain transcript with one "Role: text" line per message.
func Text(messages []gateway.Message, title string) string {
	lines := []string{"Chat: " + title, "Exported on " + now().Format(dateLayout), ""}
	for _, msg := range messages {
		content, ok := exportable(msg)
		if !ok {
			continue
		}
		lines = append(lines, roleLabel(msg.Role)+": "+content, "")
	}
	return strings.Join(lines, "\n")
}

type jsonMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type jsonExport struct {
	Title      string        `json:"title"`
	ExportedAt string        `json:"exportedAt"`
	Messages   []jsonMessage `json:"messages"`
}

// JSON renders an indented JSON document.
func JSON(messages []gateway.Message, title string) (string, error) {
	doc := jsonExport{
		Title:      title,
		ExportedAt: now().UTC().Format(isoLayout),
		Messages:   []jsonMessage{},
	}
	for _, msg := range messages {
		content, ok := exportable(msg)
		if !ok {
			continue
		}
		stamp := "unknown"
		if ts := msg.Time(); !ts.IsZero() {
			stamp = ts.UTC().Format(isoLayout)
		}
		doc.Messages = append(doc.Messages, jsonMessage{Role: msg.Role, Content: content, Timestamp: stamp})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\p{Z}\s_-]`)
	whitespace  = regexp.MustCompile(`[\p{Z}\s]+`)
)

// Filename derives a safe file name for title in format f.
func Filename(title string, f Format) string {
	name := unsafeChars.ReplaceAllString(title, "")
	name = whitespace.ReplaceAllString(name, "-")
	name = strings.ToLower(name)
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	if name == "" {
		name = fallbackName
	}
	return name + f.Extension()
}

func exportable(msg gateway.Message) (string, bool) {
	if msg.Role != "user" && msg.Role != "assistant" {
		return "", false
	}
	text := msg.Text()
	return text, text != ""
}

func roleLabel(role string) string {
	switch role {
	case "user":
		return "User"
	case "assistant":
		return "Assistant"
	case "":
		return "Unknown"
	default:
		return role
	}
}
