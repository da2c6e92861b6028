package repositories

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
)

// DBTX is the subset of [sql.DB] and [sql.Tx] the repositories need.
// Passing a [sql.Tx] scopes every statement of an ingestion cycle to one
// transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// isUniqueViolation reports whether err is a unique or primary key
// constraint violation. Insert races on natural keys surface this way and
// are resolved by re-reading the existing row.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
