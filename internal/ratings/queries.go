package ratings

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tradepost/marketplace/backend/internal/models"
)

// Score is the public seller-score view built from the stored aggregate.
// NewSeller is true while the seller has no ratings yet.
type Score struct {
	SellerID        int     `json:"seller_id"`
	SellerRating    float64 `json:"seller_rating"`
	TotalRatings    int     `json:"total_ratings"`
	PositiveRatings int     `json:"positive_ratings"`
	NewSeller       bool    `json:"new_seller"`
}

// ListForSeller returns a seller's ratings, newest first, with rater info.
func (s *Service) ListForSeller(sellerID int) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := s.db.Preload("Rater").
		Where("seller_id = ?", sellerID).
		Order("created_at desc").
		Find(&ratings).Error; err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}

// SellerScore reads the stored aggregate from the seller record. This is the
// denormalized read path: it may lag the rating rows until the next recompute.
func (s *Service) SellerScore(sellerID int) (Score, error) {
	var seller models.User
	if err := s.db.First(&seller, sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Score{}, ErrSellerNotFound
		}
		return Score{}, fmt.Errorf("load seller: %w", err)
	}

	return Score{
		SellerID:        seller.ID,
		SellerRating:    seller.SellerRating,
		TotalRatings:    seller.TotalRatings,
		PositiveRatings: seller.PositiveRatings,
		NewSeller:       seller.TotalRatings == 0,
	}, nil
}

// Distribution returns the number of ratings per star value (1..5) for a
// seller, with zero counts filled in.
func (s *Service) Distribution(sellerID int) (map[int]int64, error) {
	var rows []struct {
		Score int
		Count int64
	}
	if err := s.db.Model(&models.Rating{}).
		Select("score, count(*) as count").
		Where("seller_id = ?", sellerID).
		Group("score").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}

	dist := make(map[int]int64, 5)
	for score := 1; score <= 5; score++ {
		dist[score] = 0
	}
	for _, row := range rows {
		dist[row.Score] = row.Count
	}
	return dist, nil
}
