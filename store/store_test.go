package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyceum-io/lyceum/internal/profile"
	"github.com/lyceum-io/lyceum/store"
	"github.com/lyceum-io/lyceum/store/db/sqlite"
)

// fakeRemote is a scriptable backend. With failing set, every method returns
// an error, simulating an unreachable backend.
type fakeRemote struct {
	failing  bool
	sessions []*store.ChatSession
	messages map[string][]*store.Message
	created  int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{messages: map[string][]*store.Message{}}
}

var errUnreachable = errors.New("connection refused")

func (f *fakeRemote) ListSessions(ctx context.Context) ([]*store.ChatSession, error) {
	if f.failing {
		return nil, errUnreachable
	}
	return f.sessions, nil
}

func (f *fakeRemote) CreateSession(ctx context.Context, title string) (*store.ChatSession, error) {
	if f.failing {
		return nil, errUnreachable
	}
	f.created++
	now := time.Now().Unix()
	session := &store.ChatSession{
		ID:        "remote-" + title,
		Title:     title,
		CreatedTs: now,
		UpdatedTs: now,
	}
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeRemote) UpdateSession(ctx context.Context, update *store.UpdateChatSession) (*store.ChatSession, error) {
	if f.failing {
		return nil, errUnreachable
	}
	for _, session := range f.sessions {
		if session.ID == update.ID {
			if update.Title != nil {
				session.Title = *update.Title
			}
			return session, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeRemote) DeleteSession(ctx context.Context, id string) error {
	if f.failing {
		return errUnreachable
	}
	return nil
}

func (f *fakeRemote) ListMessages(ctx context.Context, sessionID string) ([]*store.Message, error) {
	if f.failing {
		return nil, errUnreachable
	}
	return f.messages[sessionID], nil
}

func (f *fakeRemote) AppendMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	if f.failing {
		return nil, errUnreachable
	}
	f.messages[msg.SessionID] = append(f.messages[msg.SessionID], msg)
	return msg, nil
}

func newTestStore(t *testing.T, remote store.Remote) *store.Store {
	t.Helper()
	ctx := context.Background()

	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "lyceum_test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(ctx))

	st := store.New(remote, driver, p)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestCreateSession_FallsBackWhenRemoteUnreachable(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.failing = true
	st := newTestStore(t, remote)

	session, err := st.CreateSession(ctx, "Bio notes")
	require.NoError(t, err)
	assert.True(t, session.LocalOnly)
	assert.True(t, store.IsLocalID(session.ID))
	assert.Equal(t, "Bio notes", session.Title)

	// The fallback session stays usable end to end.
	msg, err := st.AppendMessage(ctx, session.ID, store.MessageRoleUser, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)

	messages := st.ListMessages(ctx, session.ID)
	require.Len(t, messages, 1)
	assert.Equal(t, msg.ID, messages[0].ID)
}

func TestCreateSession_RemoteWins(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	st := newTestStore(t, remote)

	session, err := st.CreateSession(ctx, "Algebra")
	require.NoError(t, err)
	assert.False(t, session.LocalOnly)
	assert.False(t, store.IsLocalID(session.ID))
	assert.Equal(t, 1, remote.created)
}

func TestListSessions_NeverFails(t *testing.T) {
	ctx := context.Background()

	t.Run("remote down falls back to local copy", func(t *testing.T) {
		remote := newFakeRemote()
		st := newTestStore(t, remote)

		created, err := st.CreateSession(ctx, "History")
		require.NoError(t, err)

		remote.failing = true
		sessions := st.ListSessions(ctx)
		require.Len(t, sessions, 1)
		assert.Equal(t, created.ID, sessions[0].ID)
	})

	t.Run("empty worst case", func(t *testing.T) {
		remote := newFakeRemote()
		remote.failing = true
		st := newTestStore(t, remote)
		assert.Empty(t, st.ListSessions(ctx))
	})

	t.Run("local-only sessions ride along with remote list", func(t *testing.T) {
		remote := newFakeRemote()
		st := newTestStore(t, remote)

		remote.failing = true
		local, err := st.CreateSession(ctx, "Offline notes")
		require.NoError(t, err)

		remote.failing = false
		_, err = st.CreateSession(ctx, "Online notes")
		require.NoError(t, err)

		ids := []string{}
		for _, session := range st.ListSessions(ctx) {
			ids = append(ids, session.ID)
		}
		assert.Contains(t, ids, local.ID)
		assert.Contains(t, ids, "remote-Online notes")
	})
}

// capacityRemote returns a preset session list, standing in for a remote
// whose slice has spare capacity behind it.
type capacityRemote struct {
	*fakeRemote
	list []*store.ChatSession
}

func (r *capacityRemote) ListSessions(ctx context.Context) ([]*store.ChatSession, error) {
	return r.list, nil
}

func TestListSessions_DoesNotAliasRemoteSlice(t *testing.T) {
	ctx := context.Background()

	remoteSession := &store.ChatSession{ID: "remote-1", Title: "Remote", UpdatedTs: 10}
	sentinel := &store.ChatSession{ID: "sentinel", Title: "Untouched"}
	backing := make([]*store.ChatSession, 2, 4)
	backing[0] = remoteSession
	backing[1] = sentinel

	remote := &capacityRemote{fakeRemote: newFakeRemote(), list: backing[:1]}
	st := newTestStore(t, remote)

	// A local-only fallback session that rides along with the remote list.
	remote.failing = true
	local, err := st.CreateSession(ctx, "Offline")
	require.NoError(t, err)
	remote.failing = false

	sessions := st.ListSessions(ctx)
	require.Len(t, sessions, 2)
	assert.Equal(t, remoteSession.ID, sessions[0].ID)
	assert.Equal(t, local.ID, sessions[1].ID)

	// The remote slice's backing array is untouched by the combination.
	assert.Same(t, sentinel, backing[1])
}

func TestAppendMessage_Degradation(t *testing.T) {
	ctx := context.Background()

	t.Run("remote failure writes local copy", func(t *testing.T) {
		remote := newFakeRemote()
		st := newTestStore(t, remote)

		session, err := st.CreateSession(ctx, "Chem")
		require.NoError(t, err)

		remote.failing = true
		msg, err := st.AppendMessage(ctx, session.ID, store.MessageRoleUser, "what's due?")
		require.NoError(t, err)

		messages := st.ListMessages(ctx, session.ID)
		require.Len(t, messages, 1)
		assert.Equal(t, msg.ID, messages[0].ID)
	})

	t.Run("content coercion", func(t *testing.T) {
		st := newTestStore(t, nil)
		session, err := st.CreateSession(ctx, "Coercion")
		require.NoError(t, err)

		msg, err := st.AppendMessage(ctx, session.ID, store.MessageRoleAssistant, map[string]any{"text": "hi"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"text": "hi"}`, msg.Content)

		msg, err = st.AppendMessage(ctx, session.ID, store.MessageRoleAssistant, nil)
		require.NoError(t, err)
		assert.Equal(t, "[empty message]", msg.Content)
	})

	t.Run("chronological order preserved", func(t *testing.T) {
		st := newTestStore(t, nil)
		session, err := st.CreateSession(ctx, "Order")
		require.NoError(t, err)

		for _, content := range []string{"first", "second", "third"} {
			_, err := st.AppendMessage(ctx, session.ID, store.MessageRoleUser, content)
			require.NoError(t, err)
		}
		messages := st.ListMessages(ctx, session.ID)
		require.Len(t, messages, 3)
		assert.Equal(t, "first", messages[0].Content)
		assert.Equal(t, "second", messages[1].Content)
		assert.Equal(t, "third", messages[2].Content)
	})
}

func TestAppendMessage_TouchesSessionTimestamp(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, nil)

	session, err := st.CreateSession(ctx, "Timestamps")
	require.NoError(t, err)

	_, err = st.AppendMessage(ctx, session.ID, store.MessageRoleUser, "hello")
	require.NoError(t, err)

	sessions := st.ListSessions(ctx)
	require.Len(t, sessions, 1)
	assert.GreaterOrEqual(t, sessions[0].UpdatedTs, session.UpdatedTs)
}

func TestDeleteSession_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, nil)

	session, err := st.CreateSession(ctx, "Doomed")
	require.NoError(t, err)
	_, err = st.AppendMessage(ctx, session.ID, store.MessageRoleUser, "bye")
	require.NoError(t, err)

	require.NoError(t, st.DeleteSession(ctx, session.ID))
	assert.Empty(t, st.ListSessions(ctx))
	assert.Empty(t, st.ListMessages(ctx, session.ID))

	// Deleting again is a no-op, not an error.
	require.NoError(t, st.DeleteSession(ctx, session.ID))
	require.NoError(t, st.DeleteSession(ctx, "never-existed"))
}

func TestUpdateTitle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, nil)

	session, err := st.CreateSession(ctx, "Old title")
	require.NoError(t, err)

	st.UpdateTitle(ctx, session.ID, "New title")
	sessions := st.ListSessions(ctx)
	require.Len(t, sessions, 1)
	assert.Equal(t, "New title", sessions[0].Title)
}

func TestSync_PushesLocalOnlySessions(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	st := newTestStore(t, remote)

	remote.failing = true
	local, err := st.CreateSession(ctx, "Offline work")
	require.NoError(t, err)
	_, err = st.AppendMessage(ctx, local.ID, store.MessageRoleUser, "q1")
	require.NoError(t, err)
	_, err = st.AppendMessage(ctx, local.ID, store.MessageRoleAssistant, "a1")
	require.NoError(t, err)

	remote.failing = false
	results := st.Sync(ctx)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, local.ID, results[0].LocalID)
	assert.Equal(t, 2, results[0].Messages)
	assert.False(t, store.IsLocalID(results[0].RemoteID))

	// Replayed in order under the server-issued identifier.
	replayed := remote.messages[results[0].RemoteID]
	require.Len(t, replayed, 2)
	assert.Equal(t, "q1", replayed[0].Content)
	assert.Equal(t, "a1", replayed[1].Content)

	// The local copy now lives under the new identifier.
	remote.failing = true
	assert.Empty(t, st.ListMessages(ctx, local.ID))
	messages := st.ListMessages(ctx, results[0].RemoteID)
	require.Len(t, messages, 2)
	assert.Equal(t, "q1", messages[0].Content)
}

func TestSync_FailedSessionStaysLocal(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	st := newTestStore(t, remote)

	remote.failing = true
	local, err := st.CreateSession(ctx, "Stuck")
	require.NoError(t, err)

	results := st.Sync(ctx)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)

	sessions := st.ListSessions(ctx)
	require.Len(t, sessions, 1)
	assert.Equal(t, local.ID, sessions[0].ID)
	assert.True(t, sessions[0].LocalOnly)
}

func TestSync_NoRemote(t *testing.T) {
	st := newTestStore(t, nil)
	assert.Nil(t, st.Sync(context.Background()))
}
