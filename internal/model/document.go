package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"unidoc-hub/internal/pkg/textnorm"
)

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusActive   DocumentStatus = "active"
	DocumentStatusInactive DocumentStatus = "inactive"
)

type Document struct {
	ID             uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	FileKey        string         `gorm:"size:512;not null" json:"file_key"`
	FileName       string         `gorm:"size:255" json:"file_name"`
	MimeType       string         `gorm:"size:128" json:"mime_type"`
	FileSize       int64          `json:"file_size"`
	PageCount      int            `json:"page_count,omitempty"`
	Status         DocumentStatus `gorm:"size:16;not null;index;default:pending" json:"status"`
	DownloadCount  int64          `gorm:"not null;default:0;index" json:"download_count"`
	SearchText     string         `gorm:"type:text" json:"-"`
	SubjectID      *uint          `gorm:"index" json:"subject_id,omitempty"`
	FacultyID      *uint          `gorm:"index" json:"faculty_id,omitempty"`
	DocumentTypeID *uint          `gorm:"index" json:"document_type_id,omitempty"`
	UploaderID     *uint          `gorm:"index" json:"uploader_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Subject      *Subject      `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Faculty      *Faculty      `gorm:"foreignKey:FacultyID" json:"faculty,omitempty"`
	DocumentType *DocumentType `gorm:"foreignKey:DocumentTypeID" json:"document_type,omitempty"`
	Uploader     *User         `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Document) BeforeSave(tx *gorm.DB) error {
	d.SearchText = textnorm.Fold(d.Title + " " + d.Description)
	return nil
}

func (d *Document) IsActive() bool {
	return d.Status == DocumentStatusActive
}
