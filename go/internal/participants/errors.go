package participants

import "errors"

var (
	// ErrParticipantNotFound is returned when no participant row matches the requested id
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrValidation marks input rejected before reaching the database
	ErrValidation = errors.New("validation failed")
)
