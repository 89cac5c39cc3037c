package models

import (
	"time"

	"gorm.io/gorm"
)

// Order represents a fulfillment order in the marketplace
type Order struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Description string         `gorm:"not null" json:"description"`
	Status      string         `gorm:"not null;default:'placed'" json:"status"` // placed, accepted, dispatched, delivered, cancelled
	CustomerID  uint           `gorm:"not null;index" json:"customer_id"`       // foreign key to users table
	Customer    User           `gorm:"foreignKey:CustomerID" json:"customer"`
	StaffID     *uint          `gorm:"index" json:"staff_id"` // nullable, staff agent handling the order
	Staff       *User          `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	DriverID    *uint          `gorm:"index" json:"driver_id"` // nullable, assigned when the order is dispatched
	Driver      *User          `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}
