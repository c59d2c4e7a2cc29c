package ratings

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/tradepost/marketplace/backend/internal/models"
)

const (
	// Ratings of 4 stars and up count toward the positive total.
	positiveScoreMin = 4
	maxCommentLen    = 1000
)

// Service owns the seller-rating rules: eligibility, mutations and the
// denormalized aggregate fields on the seller record.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Eligibility is the result of the can-rate check.
type Eligibility struct {
	CanRate      bool   `json:"can_rate"`
	AlreadyRated bool   `json:"already_rated"`
	Reason       string `json:"reason,omitempty"`
}

// eligibility applies the creation rules in order, first failure wins:
// self-rating, missing/inactive seller, no prior message exchange, duplicate.
func (s *Service) eligibility(raterID, sellerID int) error {
	if raterID == sellerID {
		return ErrSelfRating
	}

	var seller models.User
	if err := s.db.First(&seller, sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSellerNotFound
		}
		return fmt.Errorf("load seller: %w", err)
	}
	if !seller.IsActive {
		return ErrSellerNotFound
	}

	var rated int64
	if err := s.db.Model(&models.Rating{}).
		Where("seller_id = ? AND rater_id = ?", sellerID, raterID).
		Count(&rated).Error; err != nil {
		return fmt.Errorf("check existing rating: %w", err)
	}

	if rated > 0 {
		return ErrDuplicate
	}

	var exchanged int64
	if err := s.db.Model(&models.Message{}).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			raterID, sellerID, sellerID, raterID).
		Count(&exchanged).Error; err != nil {
		return fmt.Errorf("check message exchange: %w", err)
	}
	if exchanged == 0 {
		return ErrNotEligible
	}

	return nil
}

// CanRate reports whether raterID may create a rating for sellerID.
// Read-only; an existing rating is reported via AlreadyRated so clients
// route to the update flow instead.
func (s *Service) CanRate(raterID, sellerID int) (Eligibility, error) {
	err := s.eligibility(raterID, sellerID)
	switch {
	case err == nil:
		return Eligibility{CanRate: true}, nil
	case errors.Is(err, ErrDuplicate):
		return Eligibility{AlreadyRated: true, Reason: "already rated"}, nil
	case errors.Is(err, ErrSelfRating):
		return Eligibility{Reason: "cannot rate yourself"}, nil
	case errors.Is(err, ErrSellerNotFound):
		return Eligibility{Reason: "seller not found"}, nil
	case errors.Is(err, ErrNotEligible):
		return Eligibility{Reason: "message exchange required"}, nil
	default:
		return Eligibility{}, err
	}
}

func validateScore(score int) error {
	if score < 1 || score > 5 {
		return validationf("score must be an integer between 1 and 5")
	}
	return nil
}

func validateComment(comment string) error {
	if len(comment) > maxCommentLen {
		return validationf(fmt.Sprintf("comment must be at most %d characters", maxCommentLen))
	}
	return nil
}

// Create validates and inserts a rating, then recomputes the seller's
// aggregate. A unique-constraint loss in a concurrent duplicate race maps
// to ErrDuplicate. A recompute failure is logged and swallowed: the rating
// is already durable and the verifier/backfill commands reconcile drift.
func (s *Service) Create(raterID int, req models.CreateRatingRequest) (*models.Rating, error) {
	if err := validateScore(req.Score); err != nil {
		return nil, err
	}
	if err := validateComment(req.Comment); err != nil {
		return nil, err
	}

	if err := s.eligibility(raterID, req.SellerID); err != nil {
		return nil, err
	}

	if req.ListingID != nil {
		var listing models.Listing
		if err := s.db.First(&listing, *req.ListingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrListingNotFound
			}
			return nil, fmt.Errorf("load listing: %w", err)
		}
	}

	rating := models.Rating{
		SellerID:  req.SellerID,
		RaterID:   raterID,
		ListingID: req.ListingID,
		Score:     req.Score,
		Comment:   req.Comment,
	}

	if err := s.db.Create(&rating).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create rating: %w", err)
	}

	s.recomputeAndLog(rating.SellerID)

	s.db.Preload("Rater").First(&rating, rating.ID)
	return &rating, nil
}

// Update changes the score and/or comment of the rater's own rating and
// re-triggers the aggregate recompute for its seller.
func (s *Service) Update(raterID, ratingID int, req models.UpdateRatingRequest) (*models.Rating, error) {
	var rating models.Rating
	if err := s.db.First(&rating, ratingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("load rating: %w", err)
	}

	if rating.RaterID != raterID {
		return nil, ErrNotOwner
	}

	if req.Score != nil {
		if err := validateScore(*req.Score); err != nil {
			return nil, err
		}
		rating.Score = *req.Score
	}
	if req.Comment != nil {
		if err := validateComment(*req.Comment); err != nil {
			return nil, err
		}
		rating.Comment = *req.Comment
	}

	if err := s.db.Save(&rating).Error; err != nil {
		return nil, fmt.Errorf("update rating: %w", err)
	}

	s.recomputeAndLog(rating.SellerID)

	s.db.Preload("Rater").First(&rating, rating.ID)
	return &rating, nil
}

// Delete removes the rater's own rating and re-triggers the aggregate
// recompute for its seller.
func (s *Service) Delete(raterID, ratingID int) error {
	var rating models.Rating
	if err := s.db.First(&rating, ratingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRatingNotFound
		}
		return fmt.Errorf("load rating: %w", err)
	}

	if rating.RaterID != raterID {
		return ErrNotOwner
	}

	if err := s.db.Delete(&rating).Error; err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}

	s.recomputeAndLog(rating.SellerID)
	return nil
}

func (s *Service) recomputeAndLog(sellerID int) {
	if err := s.RecomputeSellerAggregate(sellerID); err != nil {
		log.Printf("⚠️ Aggregate recompute failed for seller %d: %v", sellerID, err)
	}
}

// Aggregate is the denormalized summary stored on the seller record.
type Aggregate struct {
	TotalRatings    int     `json:"total_ratings"`
	PositiveRatings int     `json:"positive_ratings"`
	SellerRating    float64 `json:"seller_rating"`
}

func (s *Service) computeSellerAggregate(sellerID int) (Aggregate, error) {
	var total, positive int64
	if err := s.db.Model(&models.Rating{}).
		Where("seller_id = ?", sellerID).
		Count(&total).Error; err != nil {
		return Aggregate{}, fmt.Errorf("count ratings: %w", err)
	}
	if err := s.db.Model(&models.Rating{}).
		Where("seller_id = ? AND score >= ?", sellerID, positiveScoreMin).
		Count(&positive).Error; err != nil {
		return Aggregate{}, fmt.Errorf("count positive ratings: %w", err)
	}

	agg := Aggregate{
		TotalRatings:    int(total),
		PositiveRatings: int(positive),
	}
	if total > 0 {
		agg.SellerRating = float64(positive) / float64(total) * 5
	}
	return agg, nil
}

// RecomputeSellerAggregate recalculates the seller's aggregate fields from
// the rating rows and persists all three in a single update. Idempotent
// full recompute; rating volume per seller is low enough that the extra
// read cost beats incremental-delta bookkeeping.
func (s *Service) RecomputeSellerAggregate(sellerID int) error {
	agg, err := s.computeSellerAggregate(sellerID)
	if err != nil {
		return err
	}

	if err := s.db.Model(&models.User{}).
		Where("id = ?", sellerID).
		Updates(map[string]interface{}{
			"total_ratings":    agg.TotalRatings,
			"positive_ratings": agg.PositiveRatings,
			"seller_rating":    agg.SellerRating,
		}).Error; err != nil {
		return fmt.Errorf("persist aggregate: %w", err)
	}
	return nil
}
