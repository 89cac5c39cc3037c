package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swiftserve/swiftserve-chat-api/config"
	"github.com/swiftserve/swiftserve-chat-api/middleware"
	"github.com/swiftserve/swiftserve-chat-api/models"
)

// ListOrderMessages handles GET /api/v1/orders/:id/messages - the history
// read a client performs after reconnecting, since room broadcasts are
// never queued for offline members.
func ListOrderMessages(c *gin.Context) {
	// Extract user ID from JWT token
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.PureJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	// Find the user in the database
	db := config.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		c.PureJSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found",
			},
		})
		return
	}

	// Get order ID from URL parameter
	orderID := c.Param("id")
	if orderID == "" {
		c.PureJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Order ID is required",
			},
		})
		return
	}

	// Fetch the order
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		c.PureJSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	// Authorization check: only order participants can read the thread.
	// Same policy the room authorizer enforces on join_order.
	canView := false
	switch user.Role {
	case models.RoleCustomer:
		canView = order.CustomerID == user.ID
	case models.RoleStaff:
		canView = order.StaffID != nil && *order.StaffID == user.ID
	case models.RoleDriver:
		canView = order.DriverID != nil && *order.DriverID == user.ID
	}

	if !canView {
		c.PureJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to view messages on this order",
			},
		})
		return
	}

	// Fetch messages for this order in persistence order
	var messages []models.Message
	if err := db.Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		c.PureJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch messages",
			},
		})
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// ListConversations handles GET /api/v1/conversations - lists the
// conversations the caller is a member of, newest activity first, with the
// cached last-message summary.
func ListConversations(c *gin.Context) {
	// Extract user ID from JWT token
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.PureJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	db := config.GetDB()
	var conversations []models.Conversation
	if err := db.
		Joins("JOIN conversation_members ON conversation_members.conversation_id = conversations.id").
		Where("conversation_members.user_id = ?", userID).
		Preload("Members").
		Order("conversations.last_message_at DESC NULLS LAST").
		Find(&conversations).Error; err != nil {
		c.PureJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch conversations",
			},
		})
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    conversations,
	})
}
