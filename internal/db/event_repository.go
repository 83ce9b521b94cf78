package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ralphloop/ralph/internal/models"
)

// Event repository errors.
var (
	ErrEventNotFound = errors.New("event not found")
)

// EventRepository handles audit event persistence.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Record inserts an audit event.
func (r *EventRepository) Record(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (
			id, change_ref, run_id, type, iteration_index, verdict, status, detail, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.ChangeRef.String(),
		nullableString(event.RunID),
		string(event.Type),
		event.IterationIndex,
		nullableString(string(event.Verdict)),
		nullableString(string(event.Status)),
		nullableString(event.Detail),
		event.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// ListRecent returns the most recent events, newest first. When changeRef is
// non-empty only that change's events are returned.
func (r *EventRepository) ListRecent(ctx context.Context, changeRef models.ChangeRef, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, change_ref, run_id, type, iteration_index, verdict, status, detail, created_at
		FROM events
	`
	args := []any{}
	if changeRef != "" {
		query += " WHERE change_ref = ?"
		args = append(args, changeRef.String())
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// CountByChange returns the number of recorded events for a change.
func (r *EventRepository) CountByChange(ctx context.Context, changeRef models.ChangeRef) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE change_ref = ?", changeRef.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// PruneOlderThan deletes events older than the cutoff and returns how many
// were removed.
func (r *EventRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM events WHERE created_at < ?", cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned events: %w", err)
	}
	return deleted, nil
}

func scanEvent(rows *sql.Rows) (*models.Event, error) {
	var (
		event     models.Event
		changeRef string
		runID     sql.NullString
		verdict   sql.NullString
		status    sql.NullString
		detail    sql.NullString
		createdAt string
	)
	if err := rows.Scan(
		&event.ID, &changeRef, &runID, (*string)(&event.Type),
		&event.IterationIndex, &verdict, &status, &detail, &createdAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	event.ChangeRef = models.ChangeRef(changeRef)
	event.RunID = runID.String
	event.Verdict = models.Verdict(verdict.String)
	event.Status = models.LoopStatus(status.String)
	event.Detail = detail.String
	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		event.CreatedAt = parsed
	}

	return &event, nil
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
