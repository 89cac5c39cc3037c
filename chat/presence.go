package chat

import (
	"fmt"

	"github.com/swiftserve/swiftserve-chat-api/models"
	"gorm.io/gorm"
)

// Broadcaster relays presence and receipt signals through the room
// manager. Typing signals are never persisted; seen receipts are a batched
// delivery-status update.
type Broadcaster struct {
	db  *gorm.DB
	hub *Hub
}

// NewBroadcaster creates a broadcaster over the given store and room
// manager.
func NewBroadcaster(db *gorm.DB, hub *Hub) *Broadcaster {
	return &Broadcaster{db: db, hub: hub}
}

// Typing relays a typing signal to every room member except the
// originator. Best-effort: a lost typing signal is harmless and not
// retried.
func (b *Broadcaster) Typing(s *Session, orderID uint, isTyping bool) {
	b.hub.Broadcast(orderID, EventTyping, TypingEventPayload{
		OrderID:  orderID,
		UserID:   s.Identity.UserID,
		IsTyping: isTyping,
	}, s)
}

// MarkSeen bulk-advances delivery status to seen for the given message
// IDs, then broadcasts a seen update carrying only the IDs that actually
// belong to the order. Unknown IDs and IDs from other orders are ignored;
// an empty match is a tolerated no-op with no broadcast. The update is
// advance-only: a message already seen stays seen.
func (b *Broadcaster) MarkSeen(s *Session, orderID uint, messageIDs []string) ([]string, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	var matched []string
	if err := b.db.Model(&models.Message{}).
		Where("order_id = ? AND id IN ?", orderID, messageIDs).
		Pluck("id", &matched).Error; err != nil {
		return nil, fmt.Errorf("look up messages: %w", err)
	}
	if len(matched) == 0 {
		return nil, nil
	}

	if err := b.db.Model(&models.Message{}).
		Where("id IN ? AND delivery_status <> ?", matched, models.DeliverySeen).
		Update("delivery_status", models.DeliverySeen).Error; err != nil {
		return nil, fmt.Errorf("advance receipts: %w", err)
	}

	b.hub.Broadcast(orderID, EventSeenUpdate, SeenUpdatePayload{
		OrderID:    orderID,
		UserID:     s.Identity.UserID,
		MessageIDs: matched,
	}, nil)

	return matched, nil
}
