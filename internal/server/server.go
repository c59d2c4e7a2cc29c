package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tradepost/marketplace/backend/internal/database"
	"github.com/tradepost/marketplace/backend/internal/handlers"
	"github.com/tradepost/marketplace/backend/internal/middleware"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	// Initialize database
	db := database.New()

	// Create unified handler
	handler := handlers.NewHandler(db)

	// Create server instance
	newServer := &Server{
		db:      db,
		handler: handler,
	}

	// Configure Gin router
	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)
	fmt.Println("📝 Press Ctrl+C to stop the server")

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Listing routes (public reads)
		api.GET("/listings", s.handler.Listing.GetListings)
		api.GET("/listings/:id", s.handler.Listing.GetListing)

		// Rating routes (public reads)
		api.GET("/ratings/seller/:id", s.handler.Rating.GetSellerRatings)
		api.GET("/ratings/seller/:id/score", s.handler.Rating.GetSellerScore)
		api.GET("/ratings/seller/:id/distribution", s.handler.Rating.GetSellerDistribution)

		// User routes (public reads)
		api.GET("/users/:id", s.handler.User.GetUserProfile)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Auth protected routes
			protected.GET("/me", s.handler.Auth.GetMe)

			// Listing protected routes
			protected.POST("/listings", s.handler.Listing.CreateListing)
			protected.PUT("/listings/:id", s.handler.Listing.UpdateListing)
			protected.DELETE("/listings/:id", s.handler.Listing.DeleteListing)

			// Rating protected routes
			protected.POST("/ratings", s.handler.Rating.CreateRating)
			protected.PUT("/ratings/:id", s.handler.Rating.UpdateRating)
			protected.DELETE("/ratings/:id", s.handler.Rating.DeleteRating)
			protected.GET("/ratings/can-rate", s.handler.Rating.CanRate)

			// Message protected routes
			protected.POST("/messages", s.handler.Message.SendMessage)
			protected.GET("/messages/:userId", s.handler.Message.GetConversation)
			protected.GET("/conversations", s.handler.Message.GetConversations)

			// User protected routes
			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)
		}
	}

	return r
}
