package model

import "time"

const (
	UserRoleStudent = "student"
	UserRoleAdmin   = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:student" json:"role"`
	FacultyID    *uint     `gorm:"index" json:"faculty_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	SubscribedSubjects  []Subject `gorm:"many2many:user_subject_subscriptions" json:"-"`
	SubscribedFaculties []Faculty `gorm:"many2many:user_faculty_subscriptions" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
