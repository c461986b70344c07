package domain

import "fmt"

const conversationSeparator = "-"

// ConversationID identifies the direct conversation between two users. No
// conversation row is ever created or stored; the id is computed on demand
// and used purely as a partition key for messages.
//
// On the send path the id is always derived server-side from the verified
// sender/receiver pair, never taken from the client.
type ConversationID string

// NewConversationID derives the canonical id for the unordered pair (a, b):
// the two ids sorted and joined with "-". The same id comes back regardless
// of argument order.
//
// User ids containing "-" could make two distinct pairs collide. The current
// identity scheme does not issue such ids, and changing the separator would
// orphan every already-persisted conversation id, so this is flagged rather
// than guarded against.
func NewConversationID(a, b string) (ConversationID, error) {
	if a == "" || b == "" {
		return "", fmt.Errorf("%w: conversation requires two participant ids", ErrInvalidInput)
	}
	if b < a {
		a, b = b, a
	}
	return ConversationID(a + conversationSeparator + b), nil
}

// ParseConversationID accepts a client-supplied id for read-only history
// lookups. An unknown id simply yields an empty history.
func ParseConversationID(raw string) (ConversationID, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: conversation id must not be empty", ErrInvalidInput)
	}
	return ConversationID(raw), nil
}

func (c ConversationID) String() string { return string(c) }
