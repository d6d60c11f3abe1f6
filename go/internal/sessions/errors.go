package sessions

import "errors"

// ErrSessionNotFound is returned when no session row matches the requested id
var ErrSessionNotFound = errors.New("session not found")
