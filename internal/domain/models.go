package domain

import "time"

// User represents an application user. Credentials live here; live
// online/offline state does not: presence is scoped to the process and
// tracked in memory only.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          *string   `db:"email" json:"email,omitempty"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastSeen       time.Time `db:"last_seen" json:"last_seen"`
}

// Message is a single direct message. Messages are immutable once persisted;
// the store only ever appends and reads.
type Message struct {
	ID             int64          `db:"id"`
	ConversationID ConversationID `db:"conversation_id"`
	SenderID       string         `db:"sender_id"`
	ReceiverID     string         `db:"receiver_id"`
	Body           string         `db:"body"` // encrypted at rest
	AttachmentPath *string        `db:"attachment_path"`
	AttachmentType *string        `db:"attachment_type"`
	CreatedAt      time.Time      `db:"created_at"`
}
