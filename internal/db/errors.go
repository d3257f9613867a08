package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrNoRows      = errors.New("db: no rows")
)

// Op names the failed command for error context: Redis command names for the
// cache, SQL verbs for the relational store.
const (
	OpPing    = "PING"
	OpGet     = "GET"
	OpSet     = "SET"
	OpOpen    = "OPEN"
	OpMigrate = "MIGRATE"
	OpBegin   = "BEGIN"
	OpPrepare = "PREPARE"
	OpInsert  = "INSERT"
	OpSelect  = "SELECT"
	OpCommit  = "COMMIT"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
