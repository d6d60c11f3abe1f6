package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/mcdev12/scrumpoker/go/internal/sqlutil"
)

// DB is what the repository needs from pgx: plain queries plus transactions.
// *pgxpool.Pool satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	createSessionSQL = `INSERT INTO sessions DEFAULT VALUES
RETURNING id, votes_revealed, created_at`

	getSessionSQL = `SELECT id, votes_revealed, created_at FROM sessions WHERE id = $1`

	setVotesRevealedSQL = `UPDATE sessions SET votes_revealed = $2 WHERE id = $1
RETURNING id, votes_revealed, created_at`

	clearVotesSQL = `UPDATE users SET vote = NULL WHERE session_id = $1 AND vote IS NOT NULL`

	deleteSessionSQL = `DELETE FROM sessions WHERE id = $1`
)

// Repository implements session data access operations
type Repository struct {
	db DB
}

// NewRepository creates a new sessions repository
func NewRepository(db DB) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateSession inserts a session relying entirely on column defaults
func (r *Repository) CreateSession(ctx context.Context) (*models.Session, error) {
	session, err := scanSession(r.db.QueryRow(ctx, createSessionSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID
func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := scanSession(r.db.QueryRow(ctx, getSessionSQL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// SetVotesRevealed overwrites the reveal flag (last writer wins)
func (r *Repository) SetVotesRevealed(ctx context.Context, id uuid.UUID, revealed bool) (*models.Session, error) {
	session, err := scanSession(r.db.QueryRow(ctx, setVotesRevealedSQL, id, revealed))
	if err != nil {
		return nil, fmt.Errorf("failed to update votes_revealed: %w", err)
	}
	return session, nil
}

// ResetVotes hides the cards and clears every vote of the session in one transaction.
// It returns the updated session and the number of votes cleared.
func (r *Repository) ResetVotes(ctx context.Context, id uuid.UUID) (*models.Session, int64, error) {
	var (
		session *models.Session
		cleared int64
	)

	err := sqlutil.RunTx(ctx, r.db, func(tx pgx.Tx) error {
		s, err := scanSession(tx.QueryRow(ctx, setVotesRevealedSQL, id, false))
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, clearVotesSQL, id)
		if err != nil {
			return err
		}

		session = s
		cleared = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reset votes: %w", err)
	}

	return session, cleared, nil
}

// DeleteSession deletes a session and, by cascade, its participants
func (r *Repository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteSessionSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	if err := row.Scan(&s.ID, &s.VotesRevealed, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}
