package app

import (
	"context"
	"errors"
	"testing"

	"unidoc-hub/internal/model"
	"unidoc-hub/internal/repository"
)

func newFeedbackFixture(t *testing.T) (*FeedbackService, model.Document, model.Document, []model.User) {
	t.Helper()
	db := newTestDB(t)
	users := []model.User{
		{Username: "an", Email: "an@uni.test", PasswordHash: "x", Role: model.UserRoleStudent},
		{Username: "binh", Email: "binh@uni.test", PasswordHash: "x", Role: model.UserRoleStudent},
	}
	for i := range users {
		mustCreate(t, db, &users[i])
	}
	active := model.Document{Title: "Giáo trình", FileKey: "documents/a.pdf", Status: model.DocumentStatusActive}
	pending := model.Document{Title: "Nháp", FileKey: "documents/b.pdf", Status: model.DocumentStatusPending}
	mustCreate(t, db, &active)
	mustCreate(t, db, &pending)

	svc := NewFeedbackService(repository.NewFeedbackRepository(db), repository.NewDocumentRepository(db))
	return svc, active, pending, users
}

func TestRateUpsertsAndSummarizes(t *testing.T) {
	svc, active, pending, users := newFeedbackFixture(t)
	ctx := context.Background()

	if _, err := svc.Rate(ctx, users[0].ID, active.ID, 6); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("score 6 error = %v", err)
	}
	if _, err := svc.Rate(ctx, users[0].ID, pending.ID, 4); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("pending document error = %v", err)
	}

	if _, err := svc.Rate(ctx, users[0].ID, active.ID, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Rate(ctx, users[0].ID, active.ID, 4); err != nil {
		t.Fatal(err)
	}
	view, err := svc.Rate(ctx, users[1].ID, active.ID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if view.Count != 2 || view.Average != 4.5 || view.MyScore != 5 {
		t.Errorf("view = %+v", view)
	}

	anon, err := svc.Rating(ctx, 0, active.ID)
	if err != nil || anon.MyScore != 0 || anon.Count != 2 {
		t.Errorf("anonymous Rating() = %+v, %v", anon, err)
	}
}

func TestCommentOwnership(t *testing.T) {
	svc, active, _, users := newFeedbackFixture(t)
	ctx := context.Background()

	if _, err := svc.AddComment(ctx, users[0].ID, active.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank comment error = %v", err)
	}
	c, err := svc.AddComment(ctx, users[0].ID, active.ID, " Tài liệu rất hữu ích ")
	if err != nil {
		t.Fatal(err)
	}
	if c.Content != "Tài liệu rất hữu ích" {
		t.Errorf("content = %q", c.Content)
	}

	if err := svc.DeleteComment(ctx, users[1].ID, false, c.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("other user delete error = %v", err)
	}
	if err := svc.DeleteComment(ctx, users[1].ID, true, c.ID); err != nil {
		t.Errorf("admin delete error = %v", err)
	}
	if err := svc.DeleteComment(ctx, users[0].ID, false, c.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("delete twice error = %v", err)
	}

	list, err := svc.ListComments(ctx, active.ID, 10)
	if err != nil || len(list) != 0 {
		t.Errorf("ListComments() = %v, %v", list, err)
	}
}
