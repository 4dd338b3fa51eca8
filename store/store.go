package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/lyceum-io/lyceum/internal/profile"
	"github.com/lyceum-io/lyceum/store/cache"
)

// Remote is the backend session API consumed by the store. Any failure of a
// Remote method degrades to the local driver; the store never surfaces
// remote errors to its callers.
type Remote interface {
	ListSessions(ctx context.Context) ([]*ChatSession, error)
	CreateSession(ctx context.Context, title string) (*ChatSession, error)
	UpdateSession(ctx context.Context, update *UpdateChatSession) (*ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
	ListMessages(ctx context.Context, sessionID string) ([]*Message, error)
	AppendMessage(ctx context.Context, msg *Message) (*Message, error)
}

const sessionListCacheKey = "chat_sessions"

// Store owns the list of chat sessions and their messages. Reads and writes
// go to the backend first and fall back to the local durable copy, so every
// operation keeps working while the backend is unreachable.
type Store struct {
	profile *profile.Profile
	remote  Remote
	driver  Driver

	sessionCache *cache.Cache

	now func() time.Time
}

// New creates a new instance of Store. remote may be nil for offline use.
func New(remote Remote, driver Driver, profile *profile.Profile) *Store {
	return &Store{
		profile: profile,
		remote:  remote,
		driver:  driver,
		sessionCache: cache.New(cache.Config{
			DefaultTTL:      30 * time.Second,
			CleanupInterval: time.Minute,
			MaxItems:        16,
		}),
		now: time.Now,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.sessionCache.Close()
	return s.driver.Close()
}

// ListSessions returns the backend's sessions when reachable, refreshed into
// the local copy, plus any local-only fallback sessions. On remote failure it
// returns the local copy. It never fails; the worst case is an empty list.
func (s *Store) ListSessions(ctx context.Context) []*ChatSession {
	if cached, ok := s.sessionCache.Get(sessionListCacheKey); ok {
		if list, ok := cached.([]*ChatSession); ok {
			return list
		}
	}

	if s.remote != nil {
		remote, err := s.remote.ListSessions(ctx)
		if err == nil {
			for _, session := range remote {
				if _, err := s.driver.CreateChatSession(ctx, session); err != nil {
					slog.Warn("failed to mirror session locally", slog.String("session", session.ID), slog.String("error", err.Error()))
				}
			}
			// Combine into a fresh slice; appending into remote's backing
			// array would let the cached list alias the caller's data.
			localOnly := s.listLocalOnly(ctx)
			list := make([]*ChatSession, 0, len(remote)+len(localOnly))
			list = append(append(list, remote...), localOnly...)
			s.sessionCache.Set(sessionListCacheKey, list, 0)
			return list
		}
		slog.Warn("session list unavailable, using local copy", slog.String("error", err.Error()))
	}

	local, err := s.driver.ListChatSessions(ctx, &FindChatSession{})
	if err != nil {
		slog.Error("failed to list local sessions", slog.String("error", err.Error()))
		return []*ChatSession{}
	}
	return local
}

// CreateSession creates a session on the backend, or a local fallback session
// with a locally issued identifier when the backend is unreachable. The error
// is non-nil only if even the local store rejected the write.
func (s *Store) CreateSession(ctx context.Context, title string) (*ChatSession, error) {
	s.sessionCache.Delete(sessionListCacheKey)

	if s.remote != nil {
		session, err := s.remote.CreateSession(ctx, title)
		if err == nil {
			if _, err := s.driver.CreateChatSession(ctx, session); err != nil {
				slog.Warn("failed to mirror session locally", slog.String("session", session.ID), slog.String("error", err.Error()))
			}
			return session, nil
		}
		slog.Warn("session create unavailable, creating local fallback", slog.String("error", err.Error()))
	}

	now := s.now().Unix()
	session := &ChatSession{
		ID:        LocalIDPrefix + shortuuid.New(),
		Title:     title,
		LocalOnly: true,
		CreatedTs: now,
		UpdatedTs: now,
	}
	if _, err := s.driver.CreateChatSession(ctx, session); err != nil {
		// No further degradation path; this single operation fails.
		return nil, errors.Wrap(err, "failed to create fallback session")
	}
	return session, nil
}

// AppendMessage appends one message to a session, coercing content to a
// string. Remote failures degrade to the local copy; the session's UpdatedTs
// changes on success of either path.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, role MessageRole, content any) (*Message, error) {
	s.sessionCache.Delete(sessionListCacheKey)

	msg := &Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   CoerceContent(content),
		CreatedTs: s.now().Unix(),
	}

	if s.remote != nil && !IsLocalID(sessionID) {
		created, err := s.remote.AppendMessage(ctx, msg)
		if err == nil {
			s.mirrorMessage(ctx, created)
			return created, nil
		}
		slog.Warn("message append unavailable, writing local copy", slog.String("session", sessionID), slog.String("error", err.Error()))
	}

	if err := s.ensureLocalSession(ctx, msg); err != nil {
		return nil, err
	}
	if _, err := s.driver.CreateMessage(ctx, msg); err != nil {
		return nil, errors.Wrap(err, "failed to append message locally")
	}
	s.touchLocalSession(ctx, sessionID)
	return msg, nil
}

// ListMessages returns the session transcript in chronological order,
// falling back to the local copy. It never fails.
func (s *Store) ListMessages(ctx context.Context, sessionID string) []*Message {
	if s.remote != nil && !IsLocalID(sessionID) {
		remote, err := s.remote.ListMessages(ctx, sessionID)
		if err == nil {
			for _, msg := range remote {
				s.mirrorMessage(ctx, msg)
			}
			return remote
		}
		slog.Warn("message list unavailable, using local copy", slog.String("session", sessionID), slog.String("error", err.Error()))
	}

	local, err := s.driver.ListMessages(ctx, &FindMessage{SessionID: &sessionID})
	if err != nil {
		slog.Error("failed to list local messages", slog.String("session", sessionID), slog.String("error", err.Error()))
		return []*Message{}
	}
	return local
}

// DeleteSession removes the session remotely when possible and always drops
// the local copies. Deleting a non-existent session is a no-op.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	s.sessionCache.Delete(sessionListCacheKey)

	if s.remote != nil && !IsLocalID(sessionID) {
		if err := s.remote.DeleteSession(ctx, sessionID); err != nil {
			slog.Warn("session delete unavailable, removing local copy only", slog.String("session", sessionID), slog.String("error", err.Error()))
		}
	}
	if err := s.driver.DeleteChatSession(ctx, &DeleteChatSession{ID: sessionID}); err != nil {
		return errors.Wrap(err, "failed to delete local session")
	}
	return nil
}

// UpdateTitle renames a session, best effort on the remote side. The local
// copy is the source of truth for fallback consistency.
func (s *Store) UpdateTitle(ctx context.Context, sessionID string, title string) {
	s.sessionCache.Delete(sessionListCacheKey)

	now := s.now().Unix()
	update := &UpdateChatSession{ID: sessionID, Title: &title, UpdatedTs: &now}
	if s.remote != nil && !IsLocalID(sessionID) {
		if _, err := s.remote.UpdateSession(ctx, update); err != nil {
			slog.Warn("session rename unavailable remotely", slog.String("session", sessionID), slog.String("error", err.Error()))
		}
	}
	if _, err := s.driver.UpdateChatSession(ctx, update); err != nil {
		slog.Warn("failed to rename local session", slog.String("session", sessionID), slog.String("error", err.Error()))
	}
}

func (s *Store) listLocalOnly(ctx context.Context) []*ChatSession {
	localOnly := true
	list, err := s.driver.ListChatSessions(ctx, &FindChatSession{LocalOnly: &localOnly})
	if err != nil {
		slog.Warn("failed to list local-only sessions", slog.String("error", err.Error()))
		return nil
	}
	return list
}

func (s *Store) mirrorMessage(ctx context.Context, msg *Message) {
	if err := s.ensureLocalSession(ctx, msg); err != nil {
		return
	}
	if _, err := s.driver.CreateMessage(ctx, msg); err != nil {
		slog.Warn("failed to mirror message locally", slog.String("message", msg.ID), slog.String("error", err.Error()))
		return
	}
	s.touchLocalSession(ctx, msg.SessionID)
}

// ensureLocalSession guarantees a session row exists before a local message
// write, deriving a title from the first user message if needed.
func (s *Store) ensureLocalSession(ctx context.Context, msg *Message) error {
	id := msg.SessionID
	existing, err := s.driver.ListChatSessions(ctx, &FindChatSession{ID: &id})
	if err != nil {
		return errors.Wrap(err, "failed to look up local session")
	}
	if len(existing) > 0 {
		return nil
	}
	now := s.now().Unix()
	session := &ChatSession{
		ID:        id,
		Title:     DeriveTitle(msg.Content),
		LocalOnly: IsLocalID(id),
		CreatedTs: now,
		UpdatedTs: now,
	}
	if _, err := s.driver.CreateChatSession(ctx, session); err != nil {
		return errors.Wrap(err, "failed to create local session")
	}
	return nil
}

func (s *Store) touchLocalSession(ctx context.Context, sessionID string) {
	now := s.now().Unix()
	if _, err := s.driver.UpdateChatSession(ctx, &UpdateChatSession{ID: sessionID, UpdatedTs: &now}); err != nil {
		slog.Warn("failed to touch local session", slog.String("session", sessionID), slog.String("error", err.Error()))
	}
}
