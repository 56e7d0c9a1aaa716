package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"unidoc-hub/internal/model"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListFaculties(ctx context.Context) ([]model.Faculty, error) {
	var list []model.Faculty
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list faculties failed: %w", err)
	}
	return list, nil
}

// ListSubjects lists every subject when facultyID is 0.
func (r *CatalogRepository) ListSubjects(ctx context.Context, facultyID uint) ([]model.Subject, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if facultyID != 0 {
		q = q.Where("faculty_id = ?", facultyID)
	}
	var list []model.Subject
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list subjects failed: %w", err)
	}
	return list, nil
}

func (r *CatalogRepository) ListDocumentTypes(ctx context.Context) ([]model.DocumentType, error) {
	var list []model.DocumentType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list document types failed: %w", err)
	}
	return list, nil
}

func (r *CatalogRepository) GetSubject(ctx context.Context, id uint) (*model.Subject, error) {
	var subject model.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject failed: %w", err)
	}
	return &subject, nil
}

func (r *CatalogRepository) GetFaculty(ctx context.Context, id uint) (*model.Faculty, error) {
	var faculty model.Faculty
	if err := r.db.WithContext(ctx).First(&faculty, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get faculty failed: %w", err)
	}
	return &faculty, nil
}

func (r *CatalogRepository) GetDocumentType(ctx context.Context, id uint) (*model.DocumentType, error) {
	var docType model.DocumentType
	if err := r.db.WithContext(ctx).First(&docType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document type failed: %w", err)
	}
	return &docType, nil
}
