package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for the local fallback store driver.
// It contains all methods a local database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error

	// ChatSession model related methods.
	CreateChatSession(ctx context.Context, create *ChatSession) (*ChatSession, error)
	ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error)
	UpdateChatSession(ctx context.Context, update *UpdateChatSession) (*ChatSession, error)
	DeleteChatSession(ctx context.Context, delete *DeleteChatSession) error

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)
	DeleteMessage(ctx context.Context, delete *DeleteMessage) error
}
