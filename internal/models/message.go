package models

import "time"

// Message model - buyer/seller conversation; its existence gates rating eligibility
type Message struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	SenderID    int       `gorm:"not null;index" json:"sender_id"`
	RecipientID int       `gorm:"not null;index" json:"recipient_id"`
	ListingID   *int      `json:"listing_id,omitempty"`
	Body        string    `gorm:"not null" json:"body"`
	Sender      User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Recipient   User      `gorm:"foreignKey:RecipientID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	RecipientID int    `json:"recipient_id"`
	ListingID   *int   `json:"listing_id,omitempty"`
	Body        string `json:"body"`
}
