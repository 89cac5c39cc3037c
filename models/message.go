package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message kinds
const (
	MessageKindText   = "text"
	MessageKindImage  = "image"
	MessageKindFile   = "file"
	MessageKindSystem = "system"
)

// Delivery statuses, monotonically advancing sent -> delivered -> seen
const (
	DeliverySent      = "sent"
	DeliveryDelivered = "delivered"
	DeliverySeen      = "seen"
)

// Message represents one chat event in an order conversation.
// Messages are append-only; delivery_status is the only field mutated
// after creation.
type Message struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	OrderID        uint      `gorm:"not null;index" json:"order_id"` // foreign key to orders table
	Order          Order     `gorm:"foreignKey:OrderID" json:"-"`    // don't include full order in JSON
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	ReceiverID     *uint     `json:"receiver_id,omitempty"` // nullable, set for directed messages
	Kind           string    `gorm:"not null;default:'text'" json:"kind"`
	Body           string    `gorm:"type:text" json:"body"`
	MediaURL       string    `json:"media_url,omitempty"`       // reference handed over by the upload service
	MediaMimeHint  string    `json:"media_mime_hint,omitempty"` // advisory only, never validated against content
	DeliveryStatus string    `gorm:"not null;default:'sent'" json:"delivery_status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns a UUID so message identifiers are stable references
// on the wire regardless of insert order.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
