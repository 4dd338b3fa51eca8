package db

import (
	"github.com/pkg/errors"

	"github.com/lyceum-io/lyceum/internal/profile"
	"github.com/lyceum-io/lyceum/store"
	"github.com/lyceum-io/lyceum/store/db/sqlite"
)

// NewDBDriver creates a new local store driver based on profile.
// Only SQLite is supported: the fallback store lives on the user's machine
// and must work without any external service.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' is supported", profile.Driver)
	}
}
