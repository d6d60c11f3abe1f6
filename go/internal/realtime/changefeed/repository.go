package changefeed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

// ErrOutboxNotFound is returned when an outbox row is missing or was already sent
var ErrOutboxNotFound = errors.New("outbox event not found or already sent")

const (
	outboxColumns = `id, session_id, table_name, event_type, new_record, old_record, created_at, sent_at`

	fetchOutboxByIDSQL = `SELECT ` + outboxColumns + ` FROM change_outbox
WHERE id = $1 AND sent_at IS NULL`

	fetchUnsentOutboxSQL = `SELECT ` + outboxColumns + ` FROM change_outbox
WHERE sent_at IS NULL ORDER BY created_at LIMIT $1`

	markOutboxSentSQL = `UPDATE change_outbox SET sent_at = now() WHERE id = $1`

	countUnsentSQL = `SELECT COUNT(*) FROM change_outbox WHERE sent_at IS NULL`
)

// Repository reads and acknowledges change_outbox rows
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new outbox repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// FetchOutboxByID returns an unsent outbox row
func (r *Repository) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*OutboxRecord, error) {
	rec, err := scanOutbox(r.db.QueryRowContext(ctx, fetchOutboxByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOutboxNotFound
		}
		return nil, fmt.Errorf("failed to fetch outbox event by ID: %w", err)
	}
	return rec, nil
}

// FetchUnsentOutbox returns up to limit unsent rows, oldest first
func (r *Repository) FetchUnsentOutbox(ctx context.Context, limit int) ([]OutboxRecord, error) {
	rows, err := r.db.QueryContext(ctx, fetchUnsentOutboxSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var records []OutboxRecord
	for rows.Next() {
		rec, err := scanOutbox(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}

	return records, nil
}

// MarkOutboxSent stamps sent_at on an outbox row
func (r *Repository) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, markOutboxSentSQL, id); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}

// CountUnsent returns how many outbox rows still wait for delivery
func (r *Repository) CountUnsent(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, countUnsentSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unsent outbox events: %w", err)
	}
	return count, nil
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOutbox(row rowScanner) (*OutboxRecord, error) {
	var (
		rec      OutboxRecord
		newRec   pqtype.NullRawMessage
		oldRec   pqtype.NullRawMessage
		sentTime sql.NullTime
	)

	err := row.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.TableName,
		&rec.EventType,
		&newRec,
		&oldRec,
		&rec.CreatedAt,
		&sentTime,
	)
	if err != nil {
		return nil, err
	}

	if newRec.Valid {
		rec.NewRecord = newRec.RawMessage
	}
	if oldRec.Valid {
		rec.OldRecord = oldRec.RawMessage
	}
	rec.SentAt = sqlutil.FromSqlTime(sentTime)

	return &rec, nil
}
