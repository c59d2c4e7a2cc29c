package models

import "time"

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
	Phone    string `json:"-"` // E.164, only used for SMS notifications
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// Denormalized seller aggregate, maintained by the ratings service only.
	// SellerRating is PositiveRatings/TotalRatings*5, or 0 with no ratings.
	TotalRatings    int     `gorm:"default:0" json:"total_ratings"`
	PositiveRatings int     `gorm:"default:0" json:"positive_ratings"`
	SellerRating    float64 `gorm:"default:0" json:"seller_rating"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}
