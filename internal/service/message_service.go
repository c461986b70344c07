package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"chatcore/internal/domain"
	"chatcore/internal/metrics"
	"chatcore/internal/presence"
)

const maxBodyRunes = 5000

// GroupDirectory is the broadcast-group membership table: every connection
// that subscribed to a conversation. Members returns a snapshot taken under
// the directory's own lock.
type GroupDirectory interface {
	Members(id domain.ConversationID) []presence.Conn
}

// PresenceDirectory resolves a user id to its active connection, if any.
// Satisfied by *presence.Registry.
type PresenceDirectory interface {
	Lookup(userID string) (presence.Conn, bool)
}

// MessageService is the authoritative path from "a connection wants to send
// a message" to "message is durable and delivered": derive the conversation
// id, persist, then fan out.
type MessageService struct {
	messages  domain.MessageRepository
	groups    GroupDirectory
	presence  PresenceDirectory
	encryptor Encryptor
	validate  *validator.Validate

	HistoryLimit int
}

// Encryptor abstracts the at-rest body encryption (security.Encryptor).
type Encryptor interface {
	Encrypt(plain string) (string, error)
	Decrypt(enc string) (string, error)
}

func NewMessageService(
	messages domain.MessageRepository,
	groups GroupDirectory,
	presenceDir PresenceDirectory,
	encryptor Encryptor,
	historyLimit int,
) *MessageService {
	return &MessageService{
		messages:     messages,
		groups:       groups,
		presence:     presenceDir,
		encryptor:    encryptor,
		validate:     validator.New(),
		HistoryLimit: historyLimit,
	}
}

// SendInput carries a message submission. There is deliberately no
// conversation id field: the id is always recomputed from the sender and
// receiver, so a client-supplied id can never address someone else's
// conversation.
type SendInput struct {
	SenderID       string  `json:"senderId" validate:"required"`
	ReceiverID     string  `json:"receiverId" validate:"required"`
	Body           string  `json:"body"`
	AttachmentPath *string `json:"attachmentPath"`
	AttachmentType *string `json:"attachmentType"`
}

// MessageResponse is the wire shape of a delivered or fetched message.
type MessageResponse struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Body           string    `json:"body"`
	AttachmentPath *string   `json:"attachmentPath,omitempty"`
	AttachmentType *string   `json:"attachmentType,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Send persists the message and fans it out. Durability precedes fan-out: if
// the append fails nothing is delivered, and the error (wrapping
// domain.ErrStorage) is the sender's alone.
//
// Fan-out is dual-path: every member of the conversation's broadcast group
// receives the message, and additionally the receiver's registered presence
// handle when it is not already a group member — that covers a receiver who
// is online but has not opened this conversation yet. A receiver whose
// presence handle differs from its group-member connection gets the message
// on both; the router does not de-duplicate.
func (s *MessageService) Send(ctx context.Context, in SendInput) (*MessageResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		metrics.MessagesFailed.Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if in.Body == "" && (in.AttachmentPath == nil || *in.AttachmentPath == "") {
		metrics.MessagesFailed.Inc()
		return nil, fmt.Errorf("%w: message body must not be empty", domain.ErrInvalidInput)
	}
	if len([]rune(in.Body)) > maxBodyRunes {
		metrics.MessagesFailed.Inc()
		return nil, fmt.Errorf("%w: message body exceeds %d characters", domain.ErrInvalidInput, maxBodyRunes)
	}

	conv, err := domain.NewConversationID(in.SenderID, in.ReceiverID)
	if err != nil {
		metrics.MessagesFailed.Inc()
		return nil, err
	}

	encrypted, err := s.encryptor.Encrypt(in.Body)
	if err != nil {
		metrics.MessagesFailed.Inc()
		return nil, fmt.Errorf("encrypt body: %w", err)
	}

	msg := &domain.Message{
		ConversationID: conv,
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		Body:           encrypted,
		AttachmentPath: in.AttachmentPath,
		AttachmentType: in.AttachmentType,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		metrics.MessagesFailed.Inc()
		return nil, fmt.Errorf("append message: %w", err)
	}

	resp := toResponse(msg, in.Body)
	event := map[string]any{"type": "message", "message": resp}

	// Snapshot first, write after: socket writes never happen under the
	// membership lock, and a member that died mid-send just drops out.
	members := s.groups.Members(conv)
	for _, m := range members {
		m.Deliver(event)
	}
	if rc, ok := s.presence.Lookup(in.ReceiverID); ok && !containsConn(members, rc) {
		rc.Deliver(event)
	}

	metrics.MessagesSent.Inc()
	return resp, nil
}

// History returns up to HistoryLimit most-recent messages of the
// conversation in chronological order, bodies decrypted.
func (s *MessageService) History(ctx context.Context, id domain.ConversationID) ([]*MessageResponse, error) {
	msgs, err := s.messages.Recent(ctx, id, s.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	return s.toResponses(msgs), nil
}

// All returns every stored message, newest first. Unpaginated; serves the
// administrative history endpoint only.
func (s *MessageService) All(ctx context.Context) ([]*MessageResponse, error) {
	msgs, err := s.messages.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return s.toResponses(msgs), nil
}

func (s *MessageService) toResponses(msgs []*domain.Message) []*MessageResponse {
	res := make([]*MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		body := m.Body
		if dec, err := s.encryptor.Decrypt(m.Body); err == nil {
			body = dec
		}
		// on decrypt error fall back to the raw stored value
		res = append(res, toResponse(m, body))
	}
	return res
}

func toResponse(m *domain.Message, body string) *MessageResponse {
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Body:           body,
		AttachmentPath: m.AttachmentPath,
		AttachmentType: m.AttachmentType,
		Timestamp:      m.CreatedAt,
	}
}

func containsConn(conns []presence.Conn, c presence.Conn) bool {
	for _, m := range conns {
		if m == c {
			return true
		}
	}
	return false
}
