package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"unidoc-hub/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type catalogFixture struct {
	it       model.Faculty
	math     model.Faculty
	calculus model.Subject
	network  model.Subject
	student  model.User
}

func seedCatalog(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()
	f := catalogFixture{
		it:   model.Faculty{Name: "Công nghệ thông tin", Code: "CNTT"},
		math: model.Faculty{Name: "Toán học", Code: "TOAN"},
	}
	for _, fac := range []*model.Faculty{&f.it, &f.math} {
		if err := db.Create(fac).Error; err != nil {
			t.Fatal(err)
		}
	}
	f.calculus = model.Subject{Name: "Giải tích 1", Code: "MATH101", FacultyID: &f.math.ID}
	f.network = model.Subject{Name: "Mạng máy tính", Code: "IT202", FacultyID: &f.it.ID}
	for _, s := range []*model.Subject{&f.calculus, &f.network} {
		if err := db.Create(s).Error; err != nil {
			t.Fatal(err)
		}
	}
	f.student = model.User{Username: "an", Email: "an@uni.test", PasswordHash: "x", Role: model.UserRoleStudent}
	if err := db.Create(&f.student).Error; err != nil {
		t.Fatal(err)
	}
	return f
}

func createDoc(t *testing.T, db *gorm.DB, doc model.Document) model.Document {
	t.Helper()
	if doc.FileKey == "" {
		doc.FileKey = "documents/" + doc.Title
	}
	if doc.Status == "" {
		doc.Status = model.DocumentStatusActive
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSearchByKeywordsEmptyIssuesNoQuery(t *testing.T) {
	db := newTestDB(t)
	queries := 0
	if err := db.Callback().Query().Before("gorm:query").Register("test:count_queries", func(*gorm.DB) {
		queries++
	}); err != nil {
		t.Fatal(err)
	}

	repo := NewDocumentRepository(db)
	docs, err := repo.SearchByKeywords(context.Background(), []string{"", "  ", "%"}, 10)
	if err != nil {
		t.Fatalf("SearchByKeywords() error = %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("want empty non-nil result, got %v", docs)
	}
	if queries != 0 {
		t.Errorf("issued %d queries, want 0", queries)
	}
}

func TestSearchByKeywordsMatchesFieldsAndRanks(t *testing.T) {
	db := newTestDB(t)
	fx := seedCatalog(t, db)
	repo := NewDocumentRepository(db)

	strong := createDoc(t, db, model.Document{Title: "Đề thi Giải tích 2023", Description: "Giải tích có lời giải", SubjectID: &fx.calculus.ID})
	weak := createDoc(t, db, model.Document{Title: "Tổng hợp công thức", SubjectID: &fx.calculus.ID, DownloadCount: 100})
	createDoc(t, db, model.Document{Title: "Giáo trình mạng", SubjectID: &fx.network.ID})
	createDoc(t, db, model.Document{Title: "Giải tích bản nháp", Status: model.DocumentStatusPending})

	docs, err := repo.SearchByKeywords(context.Background(), []string{"giai tich"}, 10)
	if err != nil {
		t.Fatalf("SearchByKeywords() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].ID != strong.ID || docs[1].ID != weak.ID {
		t.Errorf("order = [%s %s], want strong match first", docs[0].Title, docs[1].Title)
	}
	if docs[0].Subject == nil || docs[0].Subject.Name != "Giải tích 1" {
		t.Errorf("subject not preloaded: %+v", docs[0].Subject)
	}
}

func TestSearchByKeywordsKeepsCloseMatchBeyondCandidateCap(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)

	for i := 0; i < maxSearchCandidates+5; i++ {
		createDoc(t, db, model.Document{Title: fmt.Sprintf("Giáo trình mạng %d", i), DownloadCount: 1000})
	}
	rare := createDoc(t, db, model.Document{Title: "Mạng máy tính nâng cao"})

	docs, err := repo.SearchByKeywords(context.Background(), []string{"mạng", "nâng cao"}, 5)
	if err != nil {
		t.Fatalf("SearchByKeywords() error = %v", err)
	}
	if len(docs) != 5 || docs[0].ID != rare.ID {
		t.Errorf("first = %q, want the document matching both keywords", docs[0].Title)
	}
}

func TestSearchByKeywordsFacultyAndLimit(t *testing.T) {
	db := newTestDB(t)
	fx := seedCatalog(t, db)
	repo := NewDocumentRepository(db)

	for i := 0; i < 3; i++ {
		createDoc(t, db, model.Document{Title: fmt.Sprintf("Tài liệu %d", i), FacultyID: &fx.it.ID, DownloadCount: int64(i)})
	}

	docs, err := repo.SearchByKeywords(context.Background(), []string{"Công nghệ"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].DownloadCount < docs[1].DownloadCount {
		t.Errorf("ties should fall back to download count")
	}
}

func TestRecommendBySubscriptions(t *testing.T) {
	db := newTestDB(t)
	fx := seedCatalog(t, db)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	createDoc(t, db, model.Document{Title: "A", SubjectID: &fx.calculus.ID, DownloadCount: 1})
	createDoc(t, db, model.Document{Title: "B", FacultyID: &fx.it.ID, DownloadCount: 5})
	createDoc(t, db, model.Document{Title: "C", SubjectID: &fx.network.ID})

	docs, err := repo.RecommendBySubscriptions(ctx, nil, nil, 10)
	if err != nil || len(docs) != 0 {
		t.Fatalf("no subscriptions: docs=%v err=%v", docs, err)
	}

	docs, err = repo.RecommendBySubscriptions(ctx, []uint{fx.calculus.ID}, []uint{fx.it.ID}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].Title != "B" {
		t.Errorf("got %v", titles(docs))
	}
}

func TestDocumentStatusAndDownloads(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	doc := createDoc(t, db, model.Document{Title: "Pending", Status: model.DocumentStatusPending})

	pending, err := repo.ListByStatus(ctx, model.DocumentStatusPending, 0)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListByStatus = %v, %v", pending, err)
	}

	if err := repo.UpdateStatus(ctx, doc.ID, model.DocumentStatusActive); err != nil {
		t.Fatal(err)
	}
	if err := repo.IncrementDownloadCount(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetByIDWithRelations(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsActive() || got.DownloadCount != 1 {
		t.Errorf("status=%s downloads=%d", got.Status, got.DownloadCount)
	}

	list, total, err := repo.ListActive(ctx, DocumentFilter{})
	if err != nil || total != 1 || len(list) != 1 {
		t.Errorf("ListActive = %d/%d, %v", len(list), total, err)
	}
}

func TestGetByIDWithRelationsNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)
	doc := model.Document{}
	_ = doc.BeforeCreate(nil)

	if _, err := repo.GetByIDWithRelations(context.Background(), doc.ID); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := repo.IncrementDownloadCount(context.Background(), doc.ID); err != ErrNotFound {
		t.Errorf("increment err = %v, want ErrNotFound", err)
	}
}

func TestSubscriptions(t *testing.T) {
	db := newTestDB(t)
	fx := seedCatalog(t, db)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	if err := repo.SubscribeSubject(ctx, fx.student.ID, &fx.calculus); err != nil {
		t.Fatal(err)
	}
	if err := repo.SubscribeFaculty(ctx, fx.student.ID, &fx.math); err != nil {
		t.Fatal(err)
	}

	subjects, err := repo.SubscribedSubjectIDs(ctx, fx.student.ID)
	if err != nil || len(subjects) != 1 || subjects[0] != fx.calculus.ID {
		t.Fatalf("SubscribedSubjectIDs = %v, %v", subjects, err)
	}

	users, err := repo.SubscriberIDs(ctx, &fx.calculus.ID, &fx.math.ID)
	if err != nil || len(users) != 1 || users[0] != fx.student.ID {
		t.Fatalf("SubscriberIDs = %v, %v", users, err)
	}

	if err := repo.UnsubscribeSubject(ctx, fx.student.ID, fx.calculus.ID); err != nil {
		t.Fatal(err)
	}
	subjects, _ = repo.SubscribedSubjectIDs(ctx, fx.student.ID)
	if len(subjects) != 0 {
		t.Errorf("still subscribed: %v", subjects)
	}
}

func TestUpsertRatingKeepsOnePerUser(t *testing.T) {
	db := newTestDB(t)
	fx := seedCatalog(t, db)
	doc := createDoc(t, db, model.Document{Title: "Rated"})
	repo := NewFeedbackRepository(db)
	ctx := context.Background()

	for _, score := range []int{2, 5} {
		if err := repo.UpsertRating(ctx, &model.Rating{UserID: fx.student.ID, DocumentID: doc.ID, Score: score}); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := repo.RatingSummary(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Count != 1 || summary.Average != 5 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestNotificationsReadState(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, &model.Notification{UserID: 7, Title: fmt.Sprintf("n%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	list, _ := repo.ListByUserID(ctx, 7, false, 0)
	ok, err := repo.MarkRead(ctx, 7, list[0].ID)
	if err != nil || !ok {
		t.Fatalf("MarkRead = %v, %v", ok, err)
	}
	if ok, _ := repo.MarkRead(ctx, 8, list[1].ID); ok {
		t.Error("marked another user's notification")
	}
	if n, _ := repo.CountUnread(ctx, 7); n != 2 {
		t.Errorf("unread = %d, want 2", n)
	}
	if n, _ := repo.MarkAllRead(ctx, 7); n != 2 {
		t.Errorf("MarkAllRead affected %d, want 2", n)
	}
}

func TestConversationMessagesRecentOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	conv := &model.Conversation{UserID: 1, Title: "Giải tích"}
	if err := repo.Create(ctx, conv); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		msg := &model.ConversationMessage{ConversationID: conv.ID, UserID: 1, Role: "STUDENT", Content: fmt.Sprintf("m%d", i)}
		if err := repo.CreateMessage(ctx, msg); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := repo.ListRecentMessages(ctx, conv.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Content != "m3" || recent[1].Content != "m4" {
		t.Errorf("recent = %+v", recent)
	}

	if got, _ := repo.GetByIDAndUserID(ctx, conv.ID, 2); got != nil {
		t.Error("conversation visible to another user")
	}
	if err := repo.DeleteByIDAndUserID(ctx, conv.ID, 1); err != nil {
		t.Fatal(err)
	}
	if all, _ := repo.ListMessages(ctx, conv.ID, 0); len(all) != 0 {
		t.Errorf("messages left after delete: %d", len(all))
	}
}

func titles(docs []model.Document) []string {
	out := make([]string, len(docs))
	for i := range docs {
		out[i] = docs[i].Title
	}
	return out
}
