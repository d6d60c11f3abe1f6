package participants

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/mcdev12/scrumpoker/go/internal/sessions"
)

// foreignKeyViolation is the SQLSTATE raised when users.session_id references a missing session
const foreignKeyViolation = "23503"

// DB is what the repository needs from pgx. *pgxpool.Pool satisfies it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	participantColumns = `id, session_id, name, vote, created_at`

	createParticipantSQL = `INSERT INTO users (session_id, name) VALUES ($1, $2)
RETURNING ` + participantColumns

	listParticipantsSQL = `SELECT ` + participantColumns + ` FROM users
WHERE session_id = $1 ORDER BY created_at, id`

	castVoteSQL = `UPDATE users SET vote = $2 WHERE id = $1
RETURNING ` + participantColumns

	deleteParticipantSQL = `DELETE FROM users WHERE id = $1
RETURNING ` + participantColumns
)

// Repository implements participant data access operations
type Repository struct {
	db DB
}

// NewRepository creates a new participants repository
func NewRepository(db DB) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateParticipant inserts a participant into a session
func (r *Repository) CreateParticipant(ctx context.Context, sessionID uuid.UUID, name string) (*models.Participant, error) {
	p, err := scanParticipant(r.db.QueryRow(ctx, createParticipantSQL, sessionID, name))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, sessions.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}
	return p, nil
}

// ListParticipants returns every participant of a session in join order
func (r *Repository) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*models.Participant, error) {
	rows, err := r.db.Query(ctx, listParticipantsSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var result []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	return result, nil
}

// CastVote overwrites the participant's vote
func (r *Repository) CastVote(ctx context.Context, id uuid.UUID, vote string) (*models.Participant, error) {
	p, err := scanParticipant(r.db.QueryRow(ctx, castVoteSQL, id, vote))
	if err != nil {
		return nil, fmt.Errorf("failed to cast vote: %w", err)
	}
	return p, nil
}

// DeleteParticipant removes a participant and returns the deleted row
func (r *Repository) DeleteParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	p, err := scanParticipant(r.db.QueryRow(ctx, deleteParticipantSQL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to delete participant: %w", err)
	}
	return p, nil
}

func scanParticipant(row pgx.Row) (*models.Participant, error) {
	var p models.Participant
	if err := row.Scan(&p.ID, &p.SessionID, &p.Name, &p.Vote, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}
