package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/client/ui"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	// ErrValidationFailed is returned for a name that is empty after trimming
	ErrValidationFailed = errors.New("validation failed")

	// ErrJoinCancelled is returned when the viewer dismissed the name prompt without an identity
	ErrJoinCancelled = errors.New("join cancelled")
)

// Notification texts
const (
	MsgNameRequired = "You must enter a name to join a session."
	msgJoinFailed   = "Failed to join session: %s"
)

// JoinFailedMessage is the notification shown when joining a session failed
func JoinFailedMessage(err error) string {
	return fmt.Sprintf(msgJoinFailed, err.Error())
}

// ParticipantCreator creates the participant row for a new viewer
type ParticipantCreator interface {
	CreateParticipant(ctx context.Context, sessionID uuid.UUID, name string) (*models.Participant, error)
}

// ValidateName trims raw and rejects an empty result
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	return name, nil
}

// PromptName asks until a non-empty name is submitted or the prompt is
// dismissed. Dismissal returns ErrJoinCancelled.
func PromptName(ctx context.Context, prompter ui.NamePrompter) (string, error) {
	for {
		raw, err := prompter.PromptName(ctx)
		if errors.Is(err, ui.ErrPromptCancelled) {
			return "", ErrJoinCancelled
		}
		if err != nil {
			return "", err
		}

		name, err := ValidateName(raw)
		if errors.Is(err, ErrValidationFailed) {
			continue
		}
		return name, nil
	}
}

// Bootstrap resolves the viewer of a session view
type Bootstrap struct {
	keeper    *Keeper
	creator   ParticipantCreator
	prompter  ui.NamePrompter
	notifier  ui.Notifier
	navigator ui.Navigator
}

func NewBootstrap(keeper *Keeper, creator ParticipantCreator, prompter ui.NamePrompter, notifier ui.Notifier, navigator ui.Navigator) *Bootstrap {
	return &Bootstrap{
		keeper:    keeper,
		creator:   creator,
		prompter:  prompter,
		notifier:  notifier,
		navigator: navigator,
	}
}

// Resolve returns the viewer of sessionID. A complete saved identity for the
// same session is reused; anything else is cleared and the viewer joins under
// a freshly prompted name. When Resolve fails the viewer has already been
// notified and sent to the landing view.
func (b *Bootstrap) Resolve(ctx context.Context, sessionID uuid.UUID) (Identity, error) {
	saved, err := b.keeper.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load saved identity")
	}
	if err == nil && saved.Complete() && saved.SessionID == sessionID {
		return saved, nil
	}

	if err := b.keeper.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to clear saved identity")
	}

	name, err := PromptName(ctx, b.prompter)
	if errors.Is(err, ErrJoinCancelled) {
		b.notifier.Error(MsgNameRequired)
		b.navigator.ToLanding()
		return Identity{}, err
	}
	if err != nil {
		return Identity{}, err
	}

	participant, err := b.creator.CreateParticipant(ctx, sessionID, name)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to join session")
		b.notifier.Error(JoinFailedMessage(err))
		b.navigator.ToLanding()
		return Identity{}, err
	}

	id := Identity{
		SessionID:     sessionID,
		ParticipantID: participant.ID,
		Name:          name,
	}
	if err := b.keeper.Save(ctx, id); err != nil {
		// joined server side; the viewer is prompted again next time
		log.Warn().Err(err).Msg("Failed to save identity")
		if clearErr := b.keeper.Clear(ctx); clearErr != nil {
			log.Warn().Err(clearErr).Msg("Failed to clear partial identity")
		}
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("participant_id", participant.ID.String()).
		Msg("Joined session")

	return id, nil
}
