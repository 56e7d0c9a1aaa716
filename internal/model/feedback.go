package model

import (
	"time"

	"github.com/google/uuid"
)

// Rating is unique per (user, document).
type Rating struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_rating_user_document" json:"user_id"`
	DocumentID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_rating_user_document;index" json:"document_id"`
	Score      int       `gorm:"not null" json:"score"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:char(36);not null;index" json:"document_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
