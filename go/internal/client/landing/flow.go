// Package landing creates new sessions and rejoins the saved one.
package landing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/client/identity"
	"github.com/mcdev12/scrumpoker/go/internal/client/ui"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNoSavedSession is returned by Rejoin when nothing was saved
var ErrNoSavedSession = errors.New("no saved session")

// Store is the part of the store client the landing view writes through
type Store interface {
	CreateSession(ctx context.Context) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	CreateParticipant(ctx context.Context, sessionID uuid.UUID, name string) (*models.Participant, error)
}

// Flow drives the landing view
type Flow struct {
	store     Store
	keeper    *identity.Keeper
	prompter  ui.NamePrompter
	notifier  ui.Notifier
	navigator ui.Navigator
}

func NewFlow(store Store, keeper *identity.Keeper, prompter ui.NamePrompter, notifier ui.Notifier, navigator ui.Navigator) *Flow {
	return &Flow{
		store:     store,
		keeper:    keeper,
		prompter:  prompter,
		notifier:  notifier,
		navigator: navigator,
	}
}

// SavedSession returns the session offered for rejoining
func (f *Flow) SavedSession(ctx context.Context) (uuid.UUID, bool) {
	id, ok, err := f.keeper.SavedSession(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read saved session")
		return uuid.Nil, false
	}
	return id, ok
}

// Start creates a session, joins it under a prompted name and opens it.
// Nothing is persisted unless both writes succeed; a session created for a
// participant that could not be created is deleted again.
func (f *Flow) Start(ctx context.Context) (identity.Identity, error) {
	name, err := identity.PromptName(ctx, f.prompter)
	if err != nil {
		return identity.Identity{}, err
	}

	session, err := f.store.CreateSession(ctx)
	if err != nil {
		return identity.Identity{}, f.fail(err)
	}

	participant, err := f.store.CreateParticipant(ctx, session.ID, name)
	if err != nil {
		if delErr := f.store.DeleteSession(ctx, session.ID); delErr != nil {
			log.Error().Err(delErr).Str("session_id", session.ID.String()).Msg("Failed to delete orphaned session")
		}
		return identity.Identity{}, f.fail(err)
	}

	return f.enter(ctx, identity.Identity{SessionID: session.ID, ParticipantID: participant.ID, Name: name})
}

// Rejoin joins the saved session under a prompted name
func (f *Flow) Rejoin(ctx context.Context) (identity.Identity, error) {
	sessionID, ok := f.SavedSession(ctx)
	if !ok {
		return identity.Identity{}, f.fail(ErrNoSavedSession)
	}

	name, err := identity.PromptName(ctx, f.prompter)
	if err != nil {
		return identity.Identity{}, err
	}

	participant, err := f.store.CreateParticipant(ctx, sessionID, name)
	if err != nil {
		return identity.Identity{}, f.fail(err)
	}

	return f.enter(ctx, identity.Identity{SessionID: sessionID, ParticipantID: participant.ID, Name: name})
}

func (f *Flow) enter(ctx context.Context, id identity.Identity) (identity.Identity, error) {
	if err := f.keeper.Save(ctx, id); err != nil {
		if clearErr := f.keeper.Clear(ctx); clearErr != nil {
			log.Warn().Err(clearErr).Msg("Failed to clear partial identity")
		}
		return identity.Identity{}, f.fail(err)
	}

	log.Info().
		Str("session_id", id.SessionID.String()).
		Str("participant_id", id.ParticipantID.String()).
		Msg("Entering session")

	f.navigator.ToSession(id.SessionID)
	return id, nil
}

func (f *Flow) fail(err error) error {
	log.Error().Err(err).Msg("Error joining session")
	f.notifier.Error(identity.JoinFailedMessage(err))
	return fmt.Errorf("join session: %w", err)
}
