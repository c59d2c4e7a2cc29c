package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tradepost/marketplace/backend/internal/database"
	"github.com/tradepost/marketplace/backend/internal/notify"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Rating  *RatingHandler
	Listing *ListingHandler
	Message *MessageHandler
	User    *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db database.Service) *Handler {
	gormDB := db.GetDB()
	notifier := notify.NewSMSNotifier()

	return &Handler{
		Auth:    NewAuthHandler(gormDB),
		Rating:  NewRatingHandler(gormDB, notifier),
		Listing: NewListingHandler(gormDB),
		Message: NewMessageHandler(gormDB),
		User:    NewUserHandler(gormDB),
	}
}

// currentUserID reads the authenticated user ID set by the auth middleware.
func currentUserID(c *gin.Context) (int, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	switch id := v.(type) {
	case int:
		return id, true
	case uint:
		return int(id), true
	case float64:
		return int(id), true
	}
	return 0, false
}
