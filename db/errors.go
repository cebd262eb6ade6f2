package db

import (
	"strings"

	"github.com/teranos/classdb/errors"
)

// ErrDatabaseClosed is returned when a store, writer or reader is used after Close.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// database/sql reports its own closed errors, so their message is matched too.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "transaction has already been committed or rolled back")
}
