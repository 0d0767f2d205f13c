package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/woramet12/fitnu/internal/model"
)

const eventColumns = `id, title, description, date, time, location, creator, participants, tokens, created_at`

// EventRepository handles persistence for events and their participant sets.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.Title, e.Description, e.Date, e.Time, e.Location,
		e.Creator, e.Participants, e.Tokens, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListRecent returns up to limit events ordered by creation time descending.
func (r *EventRepository) ListRecent(ctx context.Context, limit int) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return collectEvents(rows)
}

// SearchByTokens returns events whose token set intersects the query tokens,
// newest first.
func (r *EventRepository) SearchByTokens(ctx context.Context, tokens []string, limit int) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE tokens && $1
		 ORDER BY created_at DESC
		 LIMIT $2`, tokens, limit)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return collectEvents(rows)
}

// ListByCreator returns events created by uid, newest first.
func (r *EventRepository) ListByCreator(ctx context.Context, uid string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE creator->>'id' = $1
		 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, fmt.Errorf("list created events: %w", err)
	}
	return collectEvents(rows)
}

// ListJoined returns events where uid appears in the participant set,
// newest first.
func (r *EventRepository) ListJoined(ctx context.Context, uid string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE participants @> $1
		 ORDER BY created_at DESC`,
		[]map[string]string{{"id": uid}})
	if err != nil {
		return nil, fmt.Errorf("list joined events: %w", err)
	}
	return collectEvents(rows)
}

// Mutate runs a read-modify-write cycle on one event's participant set.
//
// The row is read with SELECT ... FOR UPDATE inside a transaction, so two
// concurrent mutations of the same event serialize instead of clobbering
// each other: fn always sees the latest persisted participant set, never a
// stale in-memory copy. fn returns whether the set changed; an unchanged
// set skips the write entirely.
func (r *EventRepository) Mutate(ctx context.Context, id string, fn func(e *model.Event) (bool, error)) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	row := tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
			return err
		}
		err = fmt.Errorf("lock event row: %w", err)
		return err
	}

	changed, err := fn(e)
	if err != nil {
		return err
	}
	if changed {
		if _, err = tx.Exec(ctx,
			`UPDATE events SET participants = $2 WHERE id = $1`,
			id, e.Participants,
		); err != nil {
			err = fmt.Errorf("update participants: %w", err)
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes the event's messages and then the event itself in one
// transaction. Child messages go first so a partial failure can never leave
// messages without a reachable parent.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM messages WHERE event_id = $1`, id); err != nil {
		err = fmt.Errorf("delete event messages: %w", err)
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		err = fmt.Errorf("delete event: %w", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location,
		&e.Creator, &e.Participants, &e.Tokens, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if e.Participants == nil {
		e.Participants = []model.UserRef{}
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]model.Event, error) {
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
