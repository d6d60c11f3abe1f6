// Package ui holds the narrow interfaces through which the client library
// talks to whatever renders it.
package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrPromptCancelled is returned by a NamePrompter when the user dismissed the prompt
var ErrPromptCancelled = errors.New("prompt cancelled")

// Notifier shows one-shot, non-blocking notifications
type Notifier interface {
	Info(msg string)
	Success(msg string)
	Error(msg string)
	// Celebrate plays the reveal effect
	Celebrate()
}

// Navigator moves between the landing view and a session view
type Navigator interface {
	ToLanding()
	ToSession(sessionID uuid.UUID)
}

// NamePrompter asks the user for a display name
type NamePrompter interface {
	PromptName(ctx context.Context) (string, error)
}

// Clipboard receives text the user asked to copy
type Clipboard interface {
	Copy(text string) error
}

// SessionPath is the shareable path of a session view
func SessionPath(sessionID uuid.UUID) string {
	return fmt.Sprintf("/session/%s", sessionID)
}

// LandingPath is the path of the landing view
const LandingPath = "/"
