package stock

import (
	"errors"
	"fmt"
)

var (
	ErrMissingToken   = errors.New("stock api token is not configured")
	ErrSyncInProgress = errors.New("another stock sync run is in progress")
)

// APIError reports a failed call to the external stock API.
type APIError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error: %s", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status code: %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

// DatabaseError reports a failed repository operation.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error: %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
