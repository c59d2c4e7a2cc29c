package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradepost/marketplace/backend/internal/models"
	"github.com/tradepost/marketplace/backend/internal/notify"
	"github.com/tradepost/marketplace/backend/internal/ratings"
)

type RatingHandler struct {
	db       *gorm.DB
	svc      *ratings.Service
	notifier *notify.SMSNotifier
}

func NewRatingHandler(db *gorm.DB, notifier *notify.SMSNotifier) *RatingHandler {
	return &RatingHandler{
		db:       db,
		svc:      ratings.NewService(db),
		notifier: notifier,
	}
}

// respondRatingError maps service errors to a status, a stable code and a
// human-readable message.
func respondRatingError(c *gin.Context, err error) {
	var vErr *ratings.ValidationError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "code": "VALIDATION_ERROR"})
	case errors.Is(err, ratings.ErrSelfRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "SELF_RATING"})
	case errors.Is(err, ratings.ErrNotEligible):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "NOT_ELIGIBLE"})
	case errors.Is(err, ratings.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "DUPLICATE_RATING"})
	case errors.Is(err, ratings.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "FORBIDDEN"})
	case errors.Is(err, ratings.ErrSellerNotFound),
		errors.Is(err, ratings.ErrRatingNotFound),
		errors.Is(err, ratings.ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "NOT_FOUND"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong", "code": "INTERNAL"})
	}
}

// CreateRating creates a rating for a seller (PROTECTED)
func (h *RatingHandler) CreateRating(c *gin.Context) {
	raterID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateRatingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	rating, err := h.svc.Create(raterID, input)
	if err != nil {
		respondRatingError(c, err)
		return
	}

	// Nice-to-have: ping the seller. Never blocks or fails the request.
	var seller models.User
	if err := h.db.First(&seller, rating.SellerID).Error; err == nil {
		h.notifier.RatingReceived(seller.Phone, rating.Score)
	}

	c.JSON(http.StatusCreated, rating)
}

// UpdateRating updates the caller's own rating (PROTECTED, owner-only)
func (h *RatingHandler) UpdateRating(c *gin.Context) {
	raterID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ratingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rating ID", "code": "VALIDATION_ERROR"})
		return
	}

	var input models.UpdateRatingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	rating, err := h.svc.Update(raterID, ratingID, input)
	if err != nil {
		respondRatingError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

// DeleteRating deletes the caller's own rating (PROTECTED, owner-only)
func (h *RatingHandler) DeleteRating(c *gin.Context) {
	raterID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ratingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rating ID", "code": "VALIDATION_ERROR"})
		return
	}

	if err := h.svc.Delete(raterID, ratingID); err != nil {
		respondRatingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rating deleted successfully"})
}

// GetSellerRatings returns a seller's ratings, newest first (public)
func (h *RatingHandler) GetSellerRatings(c *gin.Context) {
	sellerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seller ID", "code": "VALIDATION_ERROR"})
		return
	}

	list, err := h.svc.ListForSeller(sellerID)
	if err != nil {
		respondRatingError(c, err)
		return
	}

	var responses []gin.H
	for _, rating := range list {
		responses = append(responses, gin.H{
			"id":         rating.ID,
			"seller_id":  rating.SellerID,
			"rater_id":   rating.RaterID,
			"listing_id": rating.ListingID,
			"score":      rating.Score,
			"comment":    rating.Comment,
			"rater": gin.H{
				"id":       rating.Rater.ID,
				"username": rating.Rater.Username,
				"avatar":   rating.Rater.Avatar,
			},
			"created_at": rating.CreatedAt,
			"updated_at": rating.UpdatedAt,
		})
	}

	// If no ratings, return empty array not null
	if responses == nil {
		responses = []gin.H{}
	}

	c.JSON(http.StatusOK, responses)
}

// GetSellerScore returns the stored aggregate for a seller (public)
func (h *RatingHandler) GetSellerScore(c *gin.Context) {
	sellerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seller ID", "code": "VALIDATION_ERROR"})
		return
	}

	score, err := h.svc.SellerScore(sellerID)
	if err != nil {
		respondRatingError(c, err)
		return
	}

	display := "New Seller"
	if !score.NewSeller {
		display = strconv.FormatFloat(score.SellerRating, 'f', 1, 64)
	}

	c.JSON(http.StatusOK, gin.H{
		"seller_id":        score.SellerID,
		"seller_rating":    score.SellerRating,
		"total_ratings":    score.TotalRatings,
		"positive_ratings": score.PositiveRatings,
		"new_seller":       score.NewSeller,
		"display":          display,
	})
}

// GetSellerDistribution returns the per-star rating counts (public)
func (h *RatingHandler) GetSellerDistribution(c *gin.Context) {
	sellerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid seller ID", "code": "VALIDATION_ERROR"})
		return
	}

	dist, err := h.svc.Distribution(sellerID)
	if err != nil {
		respondRatingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"seller_id":    sellerID,
		"distribution": dist,
	})
}

// CanRate reports whether the caller may rate the given seller (PROTECTED)
func (h *RatingHandler) CanRate(c *gin.Context) {
	raterID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	sellerID, err := strconv.Atoi(c.Query("seller_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seller_id query parameter is required", "code": "VALIDATION_ERROR"})
		return
	}

	eligibility, err := h.svc.CanRate(raterID, sellerID)
	if err != nil {
		respondRatingError(c, err)
		return
	}

	c.JSON(http.StatusOK, eligibility)
}
