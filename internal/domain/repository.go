package domain

import "context"

// UserRepository defines persistence operations for users. Lookups return
// (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// MessageRepository defines persistence operations for messages. There are
// deliberately no update or delete operations.
type MessageRepository interface {
	// Append persists the message, assigning its id and, when CreatedAt is
	// zero, its timestamp. Failures wrap ErrStorage.
	Append(ctx context.Context, m *Message) error
	// Recent returns at most limit most-recent messages of the conversation
	// in chronological order: the oldest of the returned window first.
	Recent(ctx context.Context, id ConversationID, limit int) ([]*Message, error)
	// ListAll returns every stored message, newest first.
	ListAll(ctx context.Context) ([]*Message, error)
}
