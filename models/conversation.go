package models

import (
	"time"
)

// Conversation holds the persisted membership and cached last-message
// summary for one order's chat. Created lazily by the first join or send.
type Conversation struct {
	ID                  uint                 `gorm:"primaryKey" json:"id"`
	OrderID             uint                 `gorm:"uniqueIndex;not null" json:"order_id"`
	Order               Order                `gorm:"foreignKey:OrderID" json:"-"`
	Members             []ConversationMember `gorm:"foreignKey:ConversationID" json:"members"`
	LastMessageText     *string              `json:"last_message_text,omitempty"`
	LastMessageSenderID *uint                `json:"last_message_sender_id,omitempty"`
	LastMessageAt       *time.Time           `json:"last_message_at,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// TableName specifies the table name for the Conversation model
func (Conversation) TableName() string {
	return "conversations"
}

// ConversationMember is one user's membership in a conversation. The
// composite unique index gives set semantics; rows are only ever inserted,
// a member is never removed.
type ConversationMember struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;uniqueIndex:idx_conversation_user" json:"conversation_id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_conversation_user" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for the ConversationMember model
func (ConversationMember) TableName() string {
	return "conversation_members"
}
