package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/lyceum-io/lyceum/store"
)

const sessionsPath = "/api/v1/chat-sessions"

// sessionPayload is the wire shape of a chat session. Timestamps travel as
// RFC 3339 strings and are re-hydrated on read.
type sessionPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *sessionPayload) toStore() *store.ChatSession {
	return &store.ChatSession{
		ID:        p.ID,
		Title:     p.Title,
		Pinned:    p.Pinned,
		CreatedTs: p.CreatedAt.Unix(),
		UpdatedTs: p.UpdatedAt.Unix(),
	}
}

type messagePayload struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *messagePayload) toStore() *store.Message {
	return &store.Message{
		ID:        p.ID,
		SessionID: p.SessionID,
		Role:      store.MessageRole(p.Role),
		Content:   p.Content,
		CreatedTs: p.CreatedAt.Unix(),
	}
}

// ListSessions fetches all chat sessions of the authenticated user.
func (c *Client) ListSessions(ctx context.Context) ([]*store.ChatSession, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, sessionsPath, nil, &env); err != nil {
		return nil, err
	}
	var data struct {
		ChatSessions []*sessionPayload `json:"chatSessions"`
	}
	if err := unwrapData(&env, &data); err != nil {
		return nil, err
	}
	sessions := make([]*store.ChatSession, 0, len(data.ChatSessions))
	for _, p := range data.ChatSessions {
		sessions = append(sessions, p.toStore())
	}
	return sessions, nil
}

// CreateSession creates a new chat session with the given title.
func (c *Client) CreateSession(ctx context.Context, title string) (*store.ChatSession, error) {
	body := map[string]any{"title": title}
	var env envelope
	if err := c.do(ctx, http.MethodPost, sessionsPath, body, &env); err != nil {
		return nil, err
	}
	var data struct {
		ChatSession *sessionPayload `json:"chatSession"`
	}
	if err := unwrapData(&env, &data); err != nil {
		return nil, err
	}
	if data.ChatSession == nil {
		return nil, errors.New("response has no chat session")
	}
	return data.ChatSession.toStore(), nil
}

// UpdateSession patches a session's mutable fields.
func (c *Client) UpdateSession(ctx context.Context, update *store.UpdateChatSession) (*store.ChatSession, error) {
	body := map[string]any{}
	if update.Title != nil {
		body["title"] = *update.Title
	}
	if update.Pinned != nil {
		body["pinned"] = *update.Pinned
	}
	var env envelope
	if err := c.do(ctx, http.MethodPatch, sessionsPath+"/"+url.PathEscape(update.ID), body, &env); err != nil {
		return nil, err
	}
	var data struct {
		ChatSession *sessionPayload `json:"chatSession"`
	}
	if err := unwrapData(&env, &data); err != nil {
		return nil, err
	}
	if data.ChatSession == nil {
		return nil, errors.New("response has no chat session")
	}
	return data.ChatSession.toStore(), nil
}

// DeleteSession removes a session and its messages.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, sessionsPath+"/"+url.PathEscape(id), nil, nil)
}

// ListMessages fetches a session's transcript in chronological order.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]*store.Message, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, sessionsPath+"/"+url.PathEscape(sessionID)+"/messages", nil, &env); err != nil {
		return nil, err
	}
	var data struct {
		Messages []*messagePayload `json:"messages"`
	}
	if err := unwrapData(&env, &data); err != nil {
		return nil, err
	}
	messages := make([]*store.Message, 0, len(data.Messages))
	for _, p := range data.Messages {
		messages = append(messages, p.toStore())
	}
	return messages, nil
}

// AppendMessage appends one message to a session's transcript.
func (c *Client) AppendMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	body := map[string]any{
		"id":      msg.ID,
		"role":    string(msg.Role),
		"content": msg.Content,
	}
	var env envelope
	if err := c.do(ctx, http.MethodPost, sessionsPath+"/"+url.PathEscape(msg.SessionID)+"/messages", body, &env); err != nil {
		return nil, err
	}
	var data struct {
		Message *messagePayload `json:"message"`
	}
	if err := unwrapData(&env, &data); err != nil {
		return nil, err
	}
	if data.Message == nil {
		return nil, errors.New("response has no message")
	}
	return data.Message.toStore(), nil
}
