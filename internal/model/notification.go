package model

import "time"

type Notification struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Body       string    `gorm:"type:text" json:"body"`
	DocumentID string    `gorm:"size:36" json:"document_id,omitempty"`
	IsRead     bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// NotificationEvent is the queue payload fanned out into one Notification per recipient.
type NotificationEvent struct {
	UserIDs    []uint `json:"user_ids"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	DocumentID string `json:"document_id,omitempty"`
}
