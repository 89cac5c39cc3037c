package chat

import (
	"errors"
	"fmt"

	"github.com/swiftserve/swiftserve-chat-api/middleware"
	"github.com/swiftserve/swiftserve-chat-api/models"
	"gorm.io/gorm"
)

// OrderAuthorizer decides whether a user may join an order's room. The
// policy is injected into the gateway so deployments can swap it without
// touching the dispatch path.
type OrderAuthorizer interface {
	CanJoin(orderID uint, identity middleware.Identity) error
}

// ParticipantAuthorizer allows only the order's participants in: the
// customer who placed it, the staff agent handling it, and the driver
// assigned to it.
type ParticipantAuthorizer struct {
	db *gorm.DB
}

// NewParticipantAuthorizer creates the default authorization policy.
func NewParticipantAuthorizer(db *gorm.DB) *ParticipantAuthorizer {
	return &ParticipantAuthorizer{db: db}
}

// CanJoin checks the acting identity against the order's participant set.
func (a *ParticipantAuthorizer) CanJoin(orderID uint, identity middleware.Identity) error {
	var order models.Order
	if err := a.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("load order: %w", err)
	}

	allowed := false
	switch identity.Role {
	case models.RoleCustomer:
		allowed = order.CustomerID == identity.UserID
	case models.RoleStaff:
		allowed = order.StaffID != nil && *order.StaffID == identity.UserID
	case models.RoleDriver:
		allowed = order.DriverID != nil && *order.DriverID == identity.UserID
	}

	if !allowed {
		return ErrForbidden
	}
	return nil
}
