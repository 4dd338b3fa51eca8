package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/lyceum-io/lyceum/store"
)

func (d *DB) CreateChatSession(ctx context.Context, create *store.ChatSession) (*store.ChatSession, error) {
	fields := []string{"id", "title", "pinned", "local_only", "created_ts", "updated_ts"}
	args := []any{create.ID, create.Title, create.Pinned, create.LocalOnly, create.CreatedTs, create.UpdatedTs}

	stmt := `INSERT INTO chat_session (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			pinned = excluded.pinned,
			local_only = excluded.local_only,
			updated_ts = excluded.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to create chat_session")
	}

	return create, nil
}

func (d *DB) ListChatSessions(ctx context.Context, find *store.FindChatSession) ([]*store.ChatSession, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.LocalOnly != nil {
		where, args = append(where, "local_only = "+placeholder(len(args)+1)), append(args, *find.LocalOnly)
	}
	if find.Pinned != nil {
		where, args = append(where, "pinned = "+placeholder(len(args)+1)), append(args, *find.Pinned)
	}

	query := `SELECT id, title, pinned, local_only, created_ts, updated_ts
		FROM chat_session
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat_sessions")
	}
	defer rows.Close()

	list := make([]*store.ChatSession, 0)
	for rows.Next() {
		s := &store.ChatSession{}
		if err := rows.Scan(&s.ID, &s.Title, &s.Pinned, &s.LocalOnly, &s.CreatedTs, &s.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat_session")
		}
		list = append(list, s)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat_sessions")
	}

	return list, nil
}

func (d *DB) UpdateChatSession(ctx context.Context, update *store.UpdateChatSession) (*store.ChatSession, error) {
	set, args := []string{}, []any{}

	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.Pinned != nil {
		set, args = append(set, "pinned = "+placeholder(len(args)+1)), append(args, *update.Pinned)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}

	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE chat_session SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to update chat_session")
	}

	id := update.ID
	list, err := d.ListChatSessions(ctx, &store.FindChatSession{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) DeleteChatSession(ctx context.Context, delete *store.DeleteChatSession) error {
	// Deleting a session also drops its messages. Deleting a non-existent
	// session is a no-op.
	if _, err := d.db.ExecContext(ctx, `DELETE FROM message WHERE session_id = ?`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete messages of chat_session")
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM chat_session WHERE id = ?`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete chat_session")
	}
	return nil
}
