package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/swiftserve/swiftserve-chat-api/middleware"
	"github.com/swiftserve/swiftserve-chat-api/models"
)

func TestParticipantAuthorizer(t *testing.T) {
	db := setupChatTestDB(t)

	customer := models.User{Name: "Customer", Email: "c@example.com", Role: models.RoleCustomer}
	db.Create(&customer)
	staff := models.User{Name: "Staff", Email: "s@example.com", Role: models.RoleStaff}
	db.Create(&staff)
	driver := models.User{Name: "Driver", Email: "d@example.com", Role: models.RoleDriver}
	db.Create(&driver)

	staffID := staff.ID
	driverID := driver.ID
	order := models.Order{
		Description: "Dispatch run",
		Status:      "dispatched",
		CustomerID:  customer.ID,
		StaffID:     &staffID,
		DriverID:    &driverID,
	}
	db.Create(&order)

	unassigned := models.Order{
		Description: "Fresh order",
		CustomerID:  customer.ID,
	}
	db.Create(&unassigned)

	authorizer := NewParticipantAuthorizer(db)

	tests := []struct {
		name     string
		orderID  uint
		identity middleware.Identity
		wantErr  error
	}{
		{
			name:     "Customer joins their own order",
			orderID:  order.ID,
			identity: middleware.Identity{UserID: customer.ID, Role: models.RoleCustomer},
		},
		{
			name:     "Assigned staff joins",
			orderID:  order.ID,
			identity: middleware.Identity{UserID: staff.ID, Role: models.RoleStaff},
		},
		{
			name:     "Assigned driver joins",
			orderID:  order.ID,
			identity: middleware.Identity{UserID: driver.ID, Role: models.RoleDriver},
		},
		{
			name:     "Another customer is refused",
			orderID:  order.ID,
			identity: middleware.Identity{UserID: customer.ID + 100, Role: models.RoleCustomer},
			wantErr:  ErrForbidden,
		},
		{
			name:     "Staff is refused on an order handled by nobody",
			orderID:  unassigned.ID,
			identity: middleware.Identity{UserID: staff.ID, Role: models.RoleStaff},
			wantErr:  ErrForbidden,
		},
		{
			name:     "Driver is refused before assignment",
			orderID:  unassigned.ID,
			identity: middleware.Identity{UserID: driver.ID, Role: models.RoleDriver},
			wantErr:  ErrForbidden,
		},
		{
			name:     "Unknown role is refused",
			orderID:  order.ID,
			identity: middleware.Identity{UserID: customer.ID, Role: "admin"},
			wantErr:  ErrForbidden,
		},
		{
			name:     "Missing order is refused",
			orderID:  9999,
			identity: middleware.Identity{UserID: customer.ID, Role: models.RoleCustomer},
			wantErr:  ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authorizer.CanJoin(tt.orderID, tt.identity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
