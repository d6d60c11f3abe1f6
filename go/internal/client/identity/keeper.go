// Package identity decides who is viewing a session. There is no login: the
// viewer is whoever owns the participant id saved locally for that session.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Persisted keys
const (
	KeySessionID = "sessionId"
	KeyUserID    = "userId"
	KeyUserName  = "userName"
)

// Identity is the locally saved participant of a session
type Identity struct {
	SessionID     uuid.UUID
	ParticipantID uuid.UUID
	Name          string
}

// Complete reports whether all three values are present
func (i Identity) Complete() bool {
	return i.SessionID != uuid.Nil && i.ParticipantID != uuid.Nil && i.Name != ""
}

// Keeper reads and writes the saved identity
type Keeper struct {
	store Store
}

func NewKeeper(store Store) *Keeper {
	return &Keeper{store: store}
}

// Load returns whatever is saved. Missing or unparsable ids come back as uuid.Nil.
func (k *Keeper) Load(ctx context.Context) (Identity, error) {
	var id Identity

	sessionID, err := k.loadID(ctx, KeySessionID)
	if err != nil {
		return Identity{}, err
	}
	id.SessionID = sessionID

	participantID, err := k.loadID(ctx, KeyUserID)
	if err != nil {
		return Identity{}, err
	}
	id.ParticipantID = participantID

	name, _, err := k.store.Get(ctx, KeyUserName)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to load name: %w", err)
	}
	id.Name = name

	return id, nil
}

func (k *Keeper) loadID(ctx context.Context, key string) (uuid.UUID, error) {
	raw, ok, err := k.store.Get(ctx, key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !ok {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, nil
	}
	return id, nil
}

// SavedSession returns the saved session id, if any
func (k *Keeper) SavedSession(ctx context.Context) (uuid.UUID, bool, error) {
	id, err := k.loadID(ctx, KeySessionID)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, id != uuid.Nil, nil
}

// Save persists all three values
func (k *Keeper) Save(ctx context.Context, id Identity) error {
	values := []struct{ key, value string }{
		{KeySessionID, id.SessionID.String()},
		{KeyUserID, id.ParticipantID.String()},
		{KeyUserName, id.Name},
	}
	for _, v := range values {
		if err := k.store.Set(ctx, v.key, v.value); err != nil {
			return fmt.Errorf("failed to save identity: %w", err)
		}
	}
	return nil
}

// Clear removes all three values. Every key is attempted even if one fails.
func (k *Keeper) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyUserID, KeyUserName, KeySessionID} {
		if err := k.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}
