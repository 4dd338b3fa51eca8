package store

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

// SyncResult reports the outcome of pushing one local-only session to the
// backend.
type SyncResult struct {
	LocalID  string
	RemoteID string
	Messages int
	Err      error
}

// Sync pushes local-only fallback sessions to the backend. Sessions are
// re-created remotely under server-issued identifiers, their messages are
// replayed in order, and the local copies are rewritten under the new
// identifier. A session that fails to sync stays local-only and is retried
// on the next Sync; there is no automatic background reconciliation.
func (s *Store) Sync(ctx context.Context) []SyncResult {
	if s.remote == nil {
		return nil
	}
	s.sessionCache.Delete(sessionListCacheKey)

	results := []SyncResult{}
	for _, session := range s.listLocalOnly(ctx) {
		results = append(results, s.syncSession(ctx, session))
	}
	return results
}

func (s *Store) syncSession(ctx context.Context, session *ChatSession) SyncResult {
	result := SyncResult{LocalID: session.ID}

	created, err := s.remote.CreateSession(ctx, session.Title)
	if err != nil {
		result.Err = errors.Wrap(err, "failed to create remote session")
		return result
	}
	result.RemoteID = created.ID

	localID := session.ID
	messages, err := s.driver.ListMessages(ctx, &FindMessage{SessionID: &localID})
	if err != nil {
		result.Err = errors.Wrap(err, "failed to read local messages")
		return result
	}

	// Replay in chronological order; server-side append order defines the
	// remote transcript.
	for _, msg := range messages {
		remoteMsg := *msg
		remoteMsg.SessionID = created.ID
		if _, err := s.remote.AppendMessage(ctx, &remoteMsg); err != nil {
			result.Err = errors.Wrapf(err, "failed to replay message %s", msg.ID)
			return result
		}
		result.Messages++
	}

	// Rewrite the local copy under the server-issued identifier. The old
	// rows go first so the replayed messages can keep their identifiers.
	if err := s.driver.DeleteChatSession(ctx, &DeleteChatSession{ID: session.ID}); err != nil {
		slog.Warn("failed to drop local-only session after sync", slog.String("session", session.ID), slog.String("error", err.Error()))
	}
	created.LocalOnly = false
	if _, err := s.driver.CreateChatSession(ctx, created); err != nil {
		slog.Warn("failed to rewrite synced session locally", slog.String("session", created.ID), slog.String("error", err.Error()))
	}
	for _, msg := range messages {
		moved := *msg
		moved.SessionID = created.ID
		if _, err := s.driver.CreateMessage(ctx, &moved); err != nil {
			slog.Warn("failed to rewrite synced message locally", slog.String("message", msg.ID), slog.String("error", err.Error()))
		}
	}

	return result
}
