package sessions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/rs/zerolog/log"
)

// SessionsRepository defines what the app layer needs from the repository
type SessionsRepository interface {
	CreateSession(ctx context.Context) (*models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	SetVotesRevealed(ctx context.Context, id uuid.UUID, revealed bool) (*models.Session, error)
	ResetVotes(ctx context.Context, id uuid.UUID) (*models.Session, int64, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// App handles session business logic
type App struct {
	repo SessionsRepository
}

// NewApp creates a new sessions App
func NewApp(repo SessionsRepository) *App {
	return &App{
		repo: repo,
	}
}

// CreateSession starts a new estimation room with server defaults
func (a *App) CreateSession(ctx context.Context) (*models.Session, error) {
	session, err := a.repo.CreateSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().Str("session_id", session.ID.String()).Msg("created session")
	return session, nil
}

// GetSession retrieves a session by ID
func (a *App) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// SetVotesRevealed shows or hides the votes of a session
func (a *App) SetVotesRevealed(ctx context.Context, id uuid.UUID, revealed bool) (*models.Session, error) {
	session, err := a.repo.SetVotesRevealed(ctx, id, revealed)
	if err != nil {
		return nil, fmt.Errorf("failed to set votes revealed: %w", err)
	}

	log.Info().
		Str("session_id", id.String()).
		Bool("votes_revealed", revealed).
		Msg("updated reveal state")
	return session, nil
}

// ResetVotes starts a new round: hides the cards and clears all votes
func (a *App) ResetVotes(ctx context.Context, id uuid.UUID) (*models.Session, int64, error) {
	session, cleared, err := a.repo.ResetVotes(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reset votes: %w", err)
	}

	log.Info().
		Str("session_id", id.String()).
		Int64("cleared_votes", cleared).
		Msg("reset votes")
	return session, cleared, nil
}

// DeleteSession removes a session; used to clean up sessions whose creator never joined
func (a *App) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := a.repo.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	log.Info().Str("session_id", id.String()).Msg("deleted session")
	return nil
}
