package chat

import (
	"fmt"
	"strings"

	"github.com/swiftserve/swiftserve-chat-api/models"
	"gorm.io/gorm"
)

// mediaSummary stands in for the body in the conversation summary when a
// message has no text.
const mediaSummary = "[media]"

// Pipeline validates, persists, and broadcasts chat events. The message
// insert and the conversation summary update commit as one transaction, so
// the summary never points at a message that was not persisted.
type Pipeline struct {
	db  *gorm.DB
	hub *Hub
}

// NewPipeline creates a pipeline over the given store and room manager.
func NewPipeline(db *gorm.DB, hub *Hub) *Pipeline {
	return &Pipeline{db: db, hub: hub}
}

// EnsureConversation upserts the order's conversation and the user's
// membership in it. Members only ever grow; re-adding an existing member
// is a no-op, not an error.
func (p *Pipeline) EnsureConversation(orderID, userID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := p.db.Transaction(func(tx *gorm.DB) error {
		return ensureMembership(tx, &conv, orderID, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert conversation: %w", err)
	}
	return &conv, nil
}

// Send validates the payload, persists the message together with the
// conversation summary update, then broadcasts message:new to the room.
// Persistence is awaited before the broadcast, so broadcast order matches
// persistence order; on failure nothing is broadcast and the summary is
// untouched.
func (p *Pipeline) Send(s *Session, payload SendPayload) (*models.Message, error) {
	kind := payload.Kind
	if kind == "" {
		kind = models.MessageKindText
	}
	body := strings.TrimSpace(payload.Text)

	switch kind {
	case models.MessageKindText:
		if body == "" {
			return nil, ErrInvalidMessage
		}
	case models.MessageKindImage, models.MessageKindFile:
		if payload.Media == nil || payload.Media.URL == "" {
			return nil, ErrInvalidMessage
		}
	default:
		// "system" messages are minted by the server, never accepted
		// from a client.
		return nil, ErrInvalidMessage
	}

	msg := &models.Message{
		OrderID:        payload.OrderID,
		SenderID:       s.Identity.UserID,
		ReceiverID:     payload.ReceiverID,
		Kind:           kind,
		Body:           body,
		DeliveryStatus: models.DeliverySent,
	}
	if payload.Media != nil {
		msg.MediaURL = payload.Media.URL
		msg.MediaMimeHint = payload.Media.MimeHint
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := ensureMembership(tx, &conv, payload.OrderID, s.Identity.UserID); err != nil {
			return err
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		summary := msg.Body
		if summary == "" {
			summary = mediaSummary
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).
			Updates(map[string]interface{}{
				"last_message_text":      summary,
				"last_message_sender_id": msg.SenderID,
				"last_message_at":        msg.CreatedAt,
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	p.hub.Broadcast(payload.OrderID, EventMessageNew, MessageNewPayload{
		Message:     msg,
		ClientMsgID: payload.ClientMsgID,
	}, nil)

	return msg, nil
}

// ensureMembership lazily creates the conversation for an order and adds
// the acting user to its member set.
func ensureMembership(tx *gorm.DB, conv *models.Conversation, orderID, userID uint) error {
	if err := tx.Where(models.Conversation{OrderID: orderID}).FirstOrCreate(conv).Error; err != nil {
		return err
	}

	member := models.ConversationMember{ConversationID: conv.ID, UserID: userID}
	return tx.Where(models.ConversationMember{ConversationID: conv.ID, UserID: userID}).
		FirstOrCreate(&member).Error
}
