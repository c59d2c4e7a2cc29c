package models

import "time"

// Rating model - one buyer's rating of a seller, at most one per (seller, rater)
type Rating struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	SellerID  int       `gorm:"not null;uniqueIndex:idx_ratings_seller_rater" json:"seller_id"`
	RaterID   int       `gorm:"not null;uniqueIndex:idx_ratings_seller_rater" json:"rater_id"`
	ListingID *int      `json:"listing_id,omitempty"` // optional transaction context
	Score     int       `gorm:"not null;check:score >= 1 AND score <= 5" json:"score"`
	Comment   string    `gorm:"size:1000" json:"comment,omitempty"`
	Seller    User      `gorm:"foreignKey:SellerID" json:"-"`
	Rater     User      `gorm:"foreignKey:RaterID" json:"rater,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateRatingRequest struct {
	SellerID  int    `json:"seller_id"`
	ListingID *int   `json:"listing_id,omitempty"`
	Score     int    `json:"score"`
	Comment   string `json:"comment"`
}

type UpdateRatingRequest struct {
	Score   *int    `json:"score,omitempty"`
	Comment *string `json:"comment,omitempty"`
}
