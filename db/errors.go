package db

import (
	"strings"

	"github.com/teranos/storygraph/errors"
)

// ErrDatabaseClosed marks operations attempted after Close. This comes
// up when a usage row races graceful shutdown.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err means the connection is gone.
// The sql package signals this with its own unexported error value, so
// the message check is the only handle on driver-level failures.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
