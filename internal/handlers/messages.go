package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradepost/marketplace/backend/internal/models"
)

type MessageHandler struct {
	db *gorm.DB
}

func NewMessageHandler(db *gorm.DB) *MessageHandler {
	return &MessageHandler{db: db}
}

// SendMessage sends a message to another user (PROTECTED). A message
// exchange is what later makes the sender eligible to rate the seller.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	senderID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		RecipientID int    `json:"recipient_id" binding:"required"`
		ListingID   *int   `json:"listing_id"`
		Body        string `json:"body" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.RecipientID == senderID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot message yourself"})
		return
	}

	var recipient models.User
	if err := h.db.First(&recipient, input.RecipientID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipient not found"})
		return
	}

	message := models.Message{
		SenderID:    senderID,
		RecipientID: input.RecipientID,
		ListingID:   input.ListingID,
		Body:        input.Body,
	}

	if err := h.db.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, message)
}

// GetConversation returns all messages between the caller and another user,
// oldest first (PROTECTED)
func (h *MessageHandler) GetConversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	otherID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var messages []models.Message
	if err := h.db.Preload("Sender").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at asc").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	var responses []gin.H
	for _, message := range messages {
		responses = append(responses, gin.H{
			"id":           message.ID,
			"sender_id":    message.SenderID,
			"recipient_id": message.RecipientID,
			"listing_id":   message.ListingID,
			"body":         message.Body,
			"sender": gin.H{
				"id":       message.Sender.ID,
				"username": message.Sender.Username,
				"avatar":   message.Sender.Avatar,
			},
			"created_at": message.CreatedAt,
		})
	}

	if responses == nil {
		responses = []gin.H{}
	}

	c.JSON(http.StatusOK, responses)
}

// GetConversations returns the caller's conversation partners with the most
// recent message for each (PROTECTED)
func (h *MessageHandler) GetConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var messages []models.Message
	if err := h.db.
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at desc").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	// Fold to the latest message per partner; messages are newest first.
	seen := make(map[int]bool)
	var conversations []gin.H
	for _, message := range messages {
		partnerID := message.SenderID
		if partnerID == userID {
			partnerID = message.RecipientID
		}
		if seen[partnerID] {
			continue
		}
		seen[partnerID] = true

		var partner models.User
		if err := h.db.First(&partner, partnerID).Error; err != nil {
			continue
		}

		conversations = append(conversations, gin.H{
			"user": gin.H{
				"id":       partner.ID,
				"username": partner.Username,
				"avatar":   partner.Avatar,
			},
			"last_message": gin.H{
				"body":       message.Body,
				"sender_id":  message.SenderID,
				"created_at": message.CreatedAt,
			},
		})
	}

	if conversations == nil {
		conversations = []gin.H{}
	}

	c.JSON(http.StatusOK, conversations)
}
