package storeclient

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"
)

var (
	// ErrNotFound is returned when the requested session or participant does not exist
	ErrNotFound = errors.New("not found")

	// ErrWriteFailed is returned when the store rejected or failed a mutation
	ErrWriteFailed = errors.New("write failed")
)

// mapError translates a Connect error into the client taxonomy.
// Not found wins for every call; other failures of mutations become ErrWriteFailed.
func mapError(op string, err error, write bool) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		msg = connectErr.Message()
	}

	switch {
	case connect.CodeOf(err) == connect.CodeNotFound:
		return fmt.Errorf("%s: %w: %s", op, ErrNotFound, msg)
	case write:
		return fmt.Errorf("%s: %w: %s", op, ErrWriteFailed, msg)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
