package model

import (
	"time"

	"gorm.io/gorm"

	"unidoc-hub/internal/pkg/textnorm"
)

type Faculty struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:128;not null" json:"name"`
	Code       string    `gorm:"size:32;uniqueIndex" json:"code"`
	NameFolded string    `gorm:"size:128;index" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (f *Faculty) BeforeSave(tx *gorm.DB) error {
	f.NameFolded = textnorm.Fold(f.Name)
	return nil
}

type Subject struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:128;not null" json:"name"`
	Code       string    `gorm:"size:32;index" json:"code"`
	FacultyID  *uint     `gorm:"index" json:"faculty_id,omitempty"`
	NameFolded string    `gorm:"size:128;index" json:"-"`
	CreatedAt  time.Time `json:"created_at"`

	Faculty *Faculty `gorm:"foreignKey:FacultyID" json:"faculty,omitempty"`
}

func (s *Subject) BeforeSave(tx *gorm.DB) error {
	s.NameFolded = textnorm.Fold(s.Name)
	return nil
}

type DocumentType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;not null;uniqueIndex" json:"name"`
}
