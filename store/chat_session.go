package store

import (
	"encoding/json"
	"strings"
)

// ChatSession is a single assistant conversation. Sessions created while the
// backend was unreachable carry a "local-" identifier prefix and are marked
// LocalOnly until a sync pushes them to the server.
type ChatSession struct {
	ID        string
	Title     string
	Pinned    bool
	LocalOnly bool
	CreatedTs int64
	UpdatedTs int64
}

type FindChatSession struct {
	ID        *string
	LocalOnly *bool
	Pinned    *bool
}

type UpdateChatSession struct {
	ID        string
	Title     *string
	Pinned    *bool
	UpdatedTs *int64
}

type DeleteChatSession struct {
	ID string
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	// MessageRoleSystemError marks substituted error copy rendered in place
	// of an assistant answer.
	MessageRoleSystemError MessageRole = "system-error"
)

// Message is one transcript entry. Content is always a string; callers may
// hand arbitrary values to CoerceContent first.
type Message struct {
	ID        string
	SessionID string
	Role      MessageRole
	Content   string
	CreatedTs int64
}

type FindMessage struct {
	ID        *string
	SessionID *string
}

type DeleteMessage struct {
	ID        *string
	SessionID *string
}

// LocalIDPrefix marks sessions that exist only in the local fallback store.
const LocalIDPrefix = "local-"

// IsLocalID reports whether the session identifier was issued locally.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

const maxTitleRunes = 30

// DeriveTitle builds a session title from the first user message, truncated
// to 30 runes plus an ellipsis.
func DeriveTitle(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "New conversation"
	}
	runes := []rune(content)
	if len(runes) <= maxTitleRunes {
		return content
	}
	return string(runes[:maxTitleRunes]) + "…"
}

// CoerceContent renders any value as displayable message text. Maps, slices
// and structs are JSON-encoded; nil becomes a literal placeholder.
func CoerceContent(v any) string {
	switch val := v.(type) {
	case nil:
		return "[empty message]"
	case string:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "[unrenderable message]"
		}
		return string(b)
	}
}
