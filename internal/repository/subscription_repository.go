package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"unidoc-hub/internal/model"
)

const (
	subjectSubscriptionTable = "user_subject_subscriptions"
	facultySubscriptionTable = "user_faculty_subscriptions"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) SubscribeSubject(ctx context.Context, userID uint, subject *model.Subject) error {
	user := model.User{ID: userID}
	if err := r.db.WithContext(ctx).Model(&user).Omit("SubscribedSubjects.*").Association("SubscribedSubjects").Append(subject); err != nil {
		return fmt.Errorf("subscribe subject failed: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) UnsubscribeSubject(ctx context.Context, userID uint, subjectID uint) error {
	user := model.User{ID: userID}
	if err := r.db.WithContext(ctx).Model(&user).Association("SubscribedSubjects").Delete(&model.Subject{ID: subjectID}); err != nil {
		return fmt.Errorf("unsubscribe subject failed: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) SubscribeFaculty(ctx context.Context, userID uint, faculty *model.Faculty) error {
	user := model.User{ID: userID}
	if err := r.db.WithContext(ctx).Model(&user).Omit("SubscribedFaculties.*").Association("SubscribedFaculties").Append(faculty); err != nil {
		return fmt.Errorf("subscribe faculty failed: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) UnsubscribeFaculty(ctx context.Context, userID uint, facultyID uint) error {
	user := model.User{ID: userID}
	if err := r.db.WithContext(ctx).Model(&user).Association("SubscribedFaculties").Delete(&model.Faculty{ID: facultyID}); err != nil {
		return fmt.Errorf("unsubscribe faculty failed: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) SubscribedSubjectIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Table(subjectSubscriptionTable).Where("user_id = ?", userID).Pluck("subject_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list subscribed subjects failed: %w", err)
	}
	return ids, nil
}

func (r *SubscriptionRepository) SubscribedFacultyIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Table(facultySubscriptionTable).Where("user_id = ?", userID).Pluck("faculty_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list subscribed faculties failed: %w", err)
	}
	return ids, nil
}

func (r *SubscriptionRepository) ListSubjects(ctx context.Context, userID uint) ([]model.Subject, error) {
	var subjects []model.Subject
	user := model.User{ID: userID}
	if err := r.db.WithContext(ctx).Model(&user).Association("SubscribedSubjects").Find(&subjects); err != nil {
		return nil, fmt.Errorf("list subject subscriptions failed: %w", err)
	}
	return subjects, nil
}

func (r *SubscriptionRepository) ListFaculties(ctx context.Context, userID uint) ([]model.Faculty, error) {
	var faculties []model.Faculty
	user := model.User{ID: userID}
	if err := r.db.WithContext(ctx).Model(&user).Association("SubscribedFaculties").Find(&faculties); err != nil {
		return nil, fmt.Errorf("list faculty subscriptions failed: %w", err)
	}
	return faculties, nil
}

// SubscriberIDs returns users following the subject or the faculty, without duplicates.
func (r *SubscriptionRepository) SubscriberIDs(ctx context.Context, subjectID, facultyID *uint) ([]uint, error) {
	seen := make(map[uint]struct{})
	var out []uint
	collect := func(table, column string, id *uint) error {
		if id == nil || *id == 0 {
			return nil
		}
		var ids []uint
		if err := r.db.WithContext(ctx).Table(table).Where(column+" = ?", *id).Pluck("user_id", &ids).Error; err != nil {
			return err
		}
		for _, uid := range ids {
			if _, ok := seen[uid]; ok {
				continue
			}
			seen[uid] = struct{}{}
			out = append(out, uid)
		}
		return nil
	}
	if err := collect(subjectSubscriptionTable, "subject_id", subjectID); err != nil {
		return nil, fmt.Errorf("list subject subscribers failed: %w", err)
	}
	if err := collect(facultySubscriptionTable, "faculty_id", facultyID); err != nil {
		return nil, fmt.Errorf("list faculty subscribers failed: %w", err)
	}
	return out, nil
}
