package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/woramet12/fitnu/internal/model"
)

// MessageRepository handles persistence for chat messages.
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append inserts a new message. Messages are never updated or deleted
// individually; the only delete path is the event-wide one.
func (r *MessageRepository) Append(ctx context.Context, m *model.Message) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO messages (id, event_id, type, text, image_url, sender, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.EventID, string(m.Type), m.Text, m.ImageURL, m.Sender, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListByEvent returns all messages for an event ordered by creation time
// ascending.
func (r *MessageRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, type, text, image_url, sender, created_at
		 FROM messages
		 WHERE event_id = $1
		 ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var typ string
		if err := rows.Scan(&m.ID, &m.EventID, &typ, &m.Text, &m.ImageURL, &m.Sender, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Type = model.MessageType(typ)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
