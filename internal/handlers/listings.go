package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradepost/marketplace/backend/internal/models"
)

type ListingHandler struct {
	db *gorm.DB
}

func NewListingHandler(db *gorm.DB) *ListingHandler {
	return &ListingHandler{db: db}
}

// GetListings returns all active listings, newest first
func (h *ListingHandler) GetListings(c *gin.Context) {
	var listings []models.Listing

	query := h.db.Preload("Seller").Order("created_at desc")
	if seller := c.Query("seller_id"); seller != "" {
		query = query.Where("seller_id = ?", seller)
	} else {
		query = query.Where("status = ?", "active")
	}

	if err := query.Find(&listings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	var responses []gin.H
	for _, listing := range listings {
		responses = append(responses, gin.H{
			"id":          listing.ID,
			"title":       listing.Title,
			"description": listing.Description,
			"price":       listing.Price,
			"image":       listing.Image,
			"status":      listing.Status,
			"seller_id":   listing.SellerID,
			"seller": gin.H{
				"id":            listing.Seller.ID,
				"username":      listing.Seller.Username,
				"avatar":        listing.Seller.Avatar,
				"seller_rating": listing.Seller.SellerRating,
				"total_ratings": listing.Seller.TotalRatings,
			},
			"created_at": listing.CreatedAt,
			"updated_at": listing.UpdatedAt,
		})
	}

	// If no listings, return empty array not null
	if responses == nil {
		responses = []gin.H{}
	}

	c.JSON(http.StatusOK, responses)
}

// GetListing returns a single listing by ID
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID := c.Param("id")
	var listing models.Listing

	if err := h.db.Preload("Seller").First(&listing, listingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          listing.ID,
		"title":       listing.Title,
		"description": listing.Description,
		"price":       listing.Price,
		"image":       listing.Image,
		"status":      listing.Status,
		"seller_id":   listing.SellerID,
		"seller": gin.H{
			"id":            listing.Seller.ID,
			"username":      listing.Seller.Username,
			"avatar":        listing.Seller.Avatar,
			"seller_rating": listing.Seller.SellerRating,
			"total_ratings": listing.Seller.TotalRatings,
		},
		"created_at": listing.CreatedAt,
		"updated_at": listing.UpdatedAt,
	})
}

// CreateListing creates a new listing (PROTECTED)
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var input struct {
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Image       string  `json:"image"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	sellerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listing := models.Listing{
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Image:       input.Image,
		Status:      "active",
		SellerID:    sellerID,
	}

	if err := h.db.Create(&listing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}

	// Reload with seller information
	h.db.Preload("Seller").First(&listing, listing.ID)

	c.JSON(http.StatusCreated, listing)
}

// UpdateListing updates an existing listing (PROTECTED - requires ownership)
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	listingID := c.Param("id")

	sellerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Price       *float64 `json:"price"`
		Image       string   `json:"image"`
		Status      string   `json:"status"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var listing models.Listing
	if err := h.db.First(&listing, listingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	// Check ownership
	if listing.SellerID != sellerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own listings"})
		return
	}

	if input.Title != "" {
		listing.Title = input.Title
	}
	if input.Description != "" {
		listing.Description = input.Description
	}
	if input.Price != nil {
		listing.Price = *input.Price
	}
	if input.Image != "" {
		listing.Image = input.Image
	}
	if input.Status != "" {
		listing.Status = input.Status
	}

	h.db.Save(&listing)
	h.db.Preload("Seller").First(&listing, listing.ID)

	c.JSON(http.StatusOK, listing)
}

// DeleteListing deletes a listing (PROTECTED - requires ownership)
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	listingID := c.Param("id")

	sellerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var listing models.Listing
	if err := h.db.First(&listing, listingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	// Check ownership
	if listing.SellerID != sellerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own listings"})
		return
	}

	if err := h.db.Delete(&listing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete listing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted successfully"})
}
