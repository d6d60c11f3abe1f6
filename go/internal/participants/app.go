package participants

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/deck"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/rs/zerolog/log"
)

// MaxNameLength is the longest display name accepted, in runes
const MaxNameLength = 64

// ParticipantsRepository defines what the app layer needs from the repository
type ParticipantsRepository interface {
	CreateParticipant(ctx context.Context, sessionID uuid.UUID, name string) (*models.Participant, error)
	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*models.Participant, error)
	CastVote(ctx context.Context, id uuid.UUID, vote string) (*models.Participant, error)
	DeleteParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error)
}

// SessionLookup confirms that a session exists before listing its participants
type SessionLookup interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
}

// App handles participant business logic
type App struct {
	repo     ParticipantsRepository
	sessions SessionLookup
	deck     *deck.Deck
}

// NewApp creates a new participants App
func NewApp(repo ParticipantsRepository, sessions SessionLookup, d *deck.Deck) *App {
	if d == nil {
		d = deck.Default()
	}
	return &App{
		repo:     repo,
		sessions: sessions,
		deck:     d,
	}
}

// CreateParticipant adds a named participant to a session
func (a *App) CreateParticipant(ctx context.Context, sessionID uuid.UUID, name string) (*models.Participant, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	p, err := a.repo.CreateParticipant(ctx, sessionID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("participant_id", p.ID.String()).
		Str("name", p.Name).
		Msg("participant joined")
	return p, nil
}

// ListParticipants returns the participants of an existing session
func (a *App) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*models.Participant, error) {
	if _, err := a.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	list, err := a.repo.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return list, nil
}

// CastVote records a card from the deck as the participant's vote
func (a *App) CastVote(ctx context.Context, id uuid.UUID, vote string) (*models.Participant, error) {
	if !a.deck.Contains(vote) {
		return nil, fmt.Errorf("%w: %q is not a card in the deck", ErrValidation, vote)
	}

	p, err := a.repo.CastVote(ctx, id, vote)
	if err != nil {
		return nil, fmt.Errorf("failed to cast vote: %w", err)
	}

	log.Debug().
		Str("session_id", p.SessionID.String()).
		Str("participant_id", id.String()).
		Msg("vote cast")
	return p, nil
}

// DeleteParticipant removes a participant from its session
func (a *App) DeleteParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	p, err := a.repo.DeleteParticipant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete participant: %w", err)
	}

	log.Info().
		Str("session_id", p.SessionID.String()).
		Str("participant_id", id.String()).
		Str("name", p.Name).
		Msg("participant left")
	return p, nil
}

// NormalizeName trims a display name and checks it is present and not too long
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", ErrValidation, MaxNameLength)
	}
	return name, nil
}
