package app

import (
	"context"

	"unidoc-hub/internal/model"
	"unidoc-hub/internal/repository"
)

type CatalogService struct {
	catalogRepo *repository.CatalogRepository
}

func NewCatalogService(catalogRepo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo}
}

func (s *CatalogService) ListFaculties(ctx context.Context) ([]model.Faculty, error) {
	return s.catalogRepo.ListFaculties(ctx)
}

func (s *CatalogService) ListSubjects(ctx context.Context, facultyID uint) ([]model.Subject, error) {
	return s.catalogRepo.ListSubjects(ctx, facultyID)
}

func (s *CatalogService) ListDocumentTypes(ctx context.Context) ([]model.DocumentType, error) {
	return s.catalogRepo.ListDocumentTypes(ctx)
}
