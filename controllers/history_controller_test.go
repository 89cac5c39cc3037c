package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/swiftserve/swiftserve-chat-api/config"
	"github.com/swiftserve/swiftserve-chat-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHistoryTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Auto-migrate all models
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Conversation{},
		&models.ConversationMember{},
		&models.Message{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// mockAuthMiddleware injects an authenticated user the way EnsureValidToken
// would after validating a real token.
func mockAuthMiddleware(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", strconv.FormatUint(uint64(userID), 10))
		c.Next()
	}
}

func TestListOrderMessages(t *testing.T) {
	// Setup
	db := setupHistoryTestDB(t)
	config.SetDB(db)

	// Create customer
	customer := models.User{
		Name:  "Customer User",
		Email: "customer@example.com",
		Role:  models.RoleCustomer,
	}
	db.Create(&customer)

	// Create staff agent
	staff := models.User{
		Name:  "Staff User",
		Email: "staff@example.com",
		Role:  models.RoleStaff,
	}
	db.Create(&staff)

	// Create driver
	driver := models.User{
		Name:  "Driver User",
		Email: "driver@example.com",
		Role:  models.RoleDriver,
	}
	db.Create(&driver)

	// Create another customer for testing unauthorized access
	otherCustomer := models.User{
		Name:  "Other Customer",
		Email: "other@example.com",
		Role:  models.RoleCustomer,
	}
	db.Create(&otherCustomer)

	// Create order with assigned staff and driver
	staffID := staff.ID
	driverID := driver.ID
	order := models.Order{
		Description: "Test order",
		Status:      "dispatched",
		CustomerID:  customer.ID,
		StaffID:     &staffID,
		DriverID:    &driverID,
	}
	db.Create(&order)

	// Create messages for the order
	msg1 := models.Message{
		OrderID:  order.ID,
		SenderID: customer.ID,
		Kind:     models.MessageKindText,
		Body:     "Where is my delivery?",
	}
	db.Create(&msg1)

	msg2 := models.Message{
		OrderID:  order.ID,
		SenderID: driver.ID,
		Kind:     models.MessageKindText,
		Body:     "Five minutes away",
	}
	db.Create(&msg2)

	// Create order with no messages
	emptyOrder := models.Order{
		Description: "Order with no messages",
		CustomerID:  customer.ID,
		StaffID:     &staffID,
	}
	db.Create(&emptyOrder)

	tests := []struct {
		name           string
		userID         uint
		orderID        string
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name:           "Customer lists messages on their own order",
			userID:         customer.ID,
			orderID:        fmt.Sprint(order.ID),
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				data := response["data"].([]interface{})
				assert.Len(t, data, 2)

				// Check messages are in chronological order
				first := data[0].(map[string]interface{})
				assert.Equal(t, "Where is my delivery?", first["body"])
				assert.Equal(t, float64(customer.ID), first["sender_id"])

				second := data[1].(map[string]interface{})
				assert.Equal(t, "Five minutes away", second["body"])
				assert.Equal(t, float64(driver.ID), second["sender_id"])
			},
		},
		{
			name:           "Assigned driver lists messages",
			userID:         driver.ID,
			orderID:        fmt.Sprint(order.ID),
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				data := response["data"].([]interface{})
				assert.Len(t, data, 2)
			},
		},
		{
			name:           "Assigned staff lists messages",
			userID:         staff.ID,
			orderID:        fmt.Sprint(order.ID),
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				data := response["data"].([]interface{})
				assert.Len(t, data, 2)
			},
		},
		{
			name:           "Returns empty array when no messages exist",
			userID:         customer.ID,
			orderID:        fmt.Sprint(emptyOrder.ID),
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				data := response["data"].([]interface{})
				assert.Len(t, data, 0)
			},
		},
		{
			name:           "Customer cannot list messages on another customer's order",
			userID:         otherCustomer.ID,
			orderID:        fmt.Sprint(order.ID),
			expectedStatus: http.StatusForbidden,
			expectedError:  "FORBIDDEN",
		},
		{
			name:           "Driver cannot list messages on an order without assignment",
			userID:         driver.ID,
			orderID:        fmt.Sprint(emptyOrder.ID),
			expectedStatus: http.StatusForbidden,
			expectedError:  "FORBIDDEN",
		},
		{
			name:           "Fail with invalid order ID",
			userID:         customer.ID,
			orderID:        "999",
			expectedStatus: http.StatusNotFound,
			expectedError:  "ORDER_NOT_FOUND",
		},
		{
			name:           "Fail for unknown user",
			userID:         9999,
			orderID:        fmt.Sprint(order.ID),
			expectedStatus: http.StatusNotFound,
			expectedError:  "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup router
			router := setupTestRouter()
			router.GET("/orders/:id/messages",
				mockAuthMiddleware(tt.userID),
				ListOrderMessages,
			)

			// Create request
			req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/orders/%s/messages", tt.orderID), nil)

			// Execute request
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			// Assert status code
			assert.Equal(t, tt.expectedStatus, w.Code)

			// Parse response
			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)

			if tt.expectedError != "" {
				// Check error response
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			} else if tt.checkResponse != nil {
				// Check success response
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestListConversations(t *testing.T) {
	// Setup
	db := setupHistoryTestDB(t)
	config.SetDB(db)

	customer := models.User{
		Name:  "Customer User",
		Email: "customer@example.com",
		Role:  models.RoleCustomer,
	}
	db.Create(&customer)

	staff := models.User{
		Name:  "Staff User",
		Email: "staff@example.com",
		Role:  models.RoleStaff,
	}
	db.Create(&staff)

	orderA := models.Order{Description: "Order A", CustomerID: customer.ID}
	db.Create(&orderA)
	orderB := models.Order{Description: "Order B", CustomerID: customer.ID}
	db.Create(&orderB)

	// Customer is a member of both conversations, staff only of the first
	text := "latest on A"
	senderID := customer.ID
	convA := models.Conversation{OrderID: orderA.ID, LastMessageText: &text, LastMessageSenderID: &senderID}
	db.Create(&convA)
	convB := models.Conversation{OrderID: orderB.ID}
	db.Create(&convB)

	db.Create(&models.ConversationMember{ConversationID: convA.ID, UserID: customer.ID})
	db.Create(&models.ConversationMember{ConversationID: convA.ID, UserID: staff.ID})
	db.Create(&models.ConversationMember{ConversationID: convB.ID, UserID: customer.ID})

	tests := []struct {
		name          string
		userID        uint
		expectedCount int
	}{
		{
			name:          "Customer sees both conversations",
			userID:        customer.ID,
			expectedCount: 2,
		},
		{
			name:          "Staff sees only their conversation",
			userID:        staff.ID,
			expectedCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/conversations",
				mockAuthMiddleware(tt.userID),
				ListConversations,
			)

			req, _ := http.NewRequest(http.MethodGet, "/conversations", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)
			assert.True(t, response["success"].(bool))

			data := response["data"].([]interface{})
			assert.Len(t, data, tt.expectedCount)
		})
	}
}
