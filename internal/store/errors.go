package store

import (
	"fmt"
)

// DatabaseError wraps a failed query or connection error on a table.
type DatabaseError struct {
	Op    string
	Table string
	Err   error
}

func (e *DatabaseError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("database %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("database %s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}
