package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/swiftserve/swiftserve-chat-api/chat"
	"github.com/swiftserve/swiftserve-chat-api/config"
	"github.com/swiftserve/swiftserve-chat-api/controllers"
	"github.com/swiftserve/swiftserve-chat-api/middleware"
	"github.com/swiftserve/swiftserve-chat-api/models"
)

func main() {
	// Basic logging
	log.Println("Starting SwiftServe chat server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Conversation{},
		&models.ConversationMember{},
		&models.Message{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Wire the chat subsystem: one hub per process, torn down with it
	verifier, err := middleware.NewTokenVerifier(cfg)
	if err != nil {
		log.Fatalf("Failed to set up the token verifier: %v", err)
	}
	hub := chat.NewHub()
	gateway := chat.NewGateway(cfg, db, hub, verifier, chat.NewParticipantAuthorizer(db))

	// Initialize Gin router
	router := gin.Default()
	router.Use(cors.Default())

	// WebSocket entry point
	router.GET("/ws", gateway.HandleWebSocket)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// History reads for reconnecting clients
		authed := v1.Group("/")
		authed.Use(middleware.EnsureValidToken(cfg))
		{
			authed.GET("/orders/:id/messages", controllers.ListOrderMessages)
			authed.GET("/conversations", controllers.ListConversations)
		}
	}

	// Start server
	addr := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "SwiftServe chat API is running",
	})
}
