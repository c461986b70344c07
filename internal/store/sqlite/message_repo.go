package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chatcore/internal/domain"
)

// MessageRepo is the append/read-only message store. Every failure wraps
// domain.ErrStorage so callers can keep storage errors out of success paths.
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Append(ctx context.Context, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO messages (conversation_id, sender_id, receiver_id, body, attachment_path, attachment_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		m.ConversationID.String(),
		m.SenderID,
		m.ReceiverID,
		m.Body,
		m.AttachmentPath,
		m.AttachmentType,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w: %v", domain.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w: %v", domain.ErrStorage, err)
	}
	m.ID = id
	return nil
}

func (r *MessageRepo) Recent(ctx context.Context, id domain.ConversationID, limit int) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, receiver_id, body, attachment_path, attachment_type, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	msgs, err := r.query(ctx, query, id.String(), limit)
	if err != nil {
		return nil, err
	}
	// The window is selected newest-first; hand it back in chronological
	// order, oldest of the window first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *MessageRepo) ListAll(ctx context.Context) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, receiver_id, body, attachment_path, attachment_type, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
	`
	return r.query(ctx, query)
}

func (r *MessageRepo) query(ctx context.Context, query string, args ...any) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		var conv string
		if err := rows.Scan(
			&m.ID,
			&conv,
			&m.SenderID,
			&m.ReceiverID,
			&m.Body,
			&m.AttachmentPath,
			&m.AttachmentType,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w: %v", domain.ErrStorage, err)
		}
		m.ConversationID = domain.ConversationID(conv)
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w: %v", domain.ErrStorage, err)
	}
	return res, nil
}
