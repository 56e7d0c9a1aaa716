package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"unidoc-hub/internal/model"
	"unidoc-hub/internal/repository"
)

type SubscriptionService struct {
	subscriptionRepo *repository.SubscriptionRepository
	catalogRepo      *repository.CatalogRepository
}

type Subscriptions struct {
	Subjects  []model.Subject `json:"subjects"`
	Faculties []model.Faculty `json:"faculties"`
}

func NewSubscriptionService(subscriptionRepo *repository.SubscriptionRepository, catalogRepo *repository.CatalogRepository) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		catalogRepo:      catalogRepo,
	}
}

func (s *SubscriptionService) SubscribeSubject(ctx context.Context, userID, subjectID uint) error {
	if userID == 0 || subjectID == 0 {
		return ErrInvalidInput
	}
	subject, err := s.catalogRepo.GetSubject(ctx, subjectID)
	if err != nil {
		return err
	}
	if subject == nil {
		return ErrSubjectNotFound
	}
	return s.subscriptionRepo.SubscribeSubject(ctx, userID, subject)
}

func (s *SubscriptionService) UnsubscribeSubject(ctx context.Context, userID, subjectID uint) error {
	if userID == 0 || subjectID == 0 {
		return ErrInvalidInput
	}
	return s.subscriptionRepo.UnsubscribeSubject(ctx, userID, subjectID)
}

func (s *SubscriptionService) SubscribeFaculty(ctx context.Context, userID, facultyID uint) error {
	if userID == 0 || facultyID == 0 {
		return ErrInvalidInput
	}
	faculty, err := s.catalogRepo.GetFaculty(ctx, facultyID)
	if err != nil {
		return err
	}
	if faculty == nil {
		return ErrFacultyNotFound
	}
	return s.subscriptionRepo.SubscribeFaculty(ctx, userID, faculty)
}

func (s *SubscriptionService) UnsubscribeFaculty(ctx context.Context, userID, facultyID uint) error {
	if userID == 0 || facultyID == 0 {
		return ErrInvalidInput
	}
	return s.subscriptionRepo.UnsubscribeFaculty(ctx, userID, facultyID)
}

func (s *SubscriptionService) List(ctx context.Context, userID uint) (*Subscriptions, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	out := &Subscriptions{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subjects, err := s.subscriptionRepo.ListSubjects(gctx, userID)
		out.Subjects = subjects
		return err
	})
	g.Go(func() error {
		faculties, err := s.subscriptionRepo.ListFaculties(gctx, userID)
		out.Faculties = faculties
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
