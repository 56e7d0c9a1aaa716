package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"unidoc-hub/internal/model"
	"unidoc-hub/internal/repository"
)

type documentFixture struct {
	svc      *DocumentService
	store    *fakeObjectStore
	notifier *recordingNotifier
	docs     *repository.DocumentRepository
	subs     *repository.SubscriptionRepository
	uploader model.User
	reader   model.User
	subject  model.Subject
	faculty  model.Faculty
}

func newDocumentFixture(t *testing.T) documentFixture {
	t.Helper()
	db := newTestDB(t)
	f := documentFixture{
		store:    newFakeObjectStore(),
		notifier: &recordingNotifier{},
		docs:     repository.NewDocumentRepository(db),
		subs:     repository.NewSubscriptionRepository(db),
		faculty:  model.Faculty{Name: "Toán học", Code: "TOAN"},
		uploader: model.User{Username: "binh", Email: "binh@uni.test", PasswordHash: "x", Role: model.UserRoleStudent},
		reader:   model.User{Username: "chi", Email: "chi@uni.test", PasswordHash: "x", Role: model.UserRoleStudent},
	}
	mustCreate(t, db, &f.faculty)
	f.subject = model.Subject{Name: "Giải tích 1", Code: "MATH101", FacultyID: &f.faculty.ID}
	mustCreate(t, db, &f.subject)
	mustCreate(t, db, &f.uploader)
	mustCreate(t, db, &f.reader)

	f.svc = NewDocumentService(
		f.docs,
		repository.NewCatalogRepository(db),
		f.subs,
		f.store,
		f.notifier,
		DocumentServiceOptions{MaxUploadBytes: 1024, SignedURLTTL: time.Minute},
	)
	return f
}

func (f documentFixture) upload(t *testing.T, title string) *model.Document {
	t.Helper()
	doc, err := f.svc.Upload(context.Background(), f.uploader.ID, UploadInput{
		Title:     title,
		SubjectID: &f.subject.ID,
		FileName:  "notes.txt",
		File:      strings.NewReader("giới hạn và đạo hàm"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	return doc
}

func TestUploadStoresPendingDocument(t *testing.T) {
	f := newDocumentFixture(t)
	doc := f.upload(t, "Bài giảng giải tích")

	if doc.Status != model.DocumentStatusPending {
		t.Errorf("status = %q, want pending", doc.Status)
	}
	want := "documents/" + doc.ID.String() + ".txt"
	if doc.FileKey != want {
		t.Errorf("FileKey = %q, want %q", doc.FileKey, want)
	}
	if _, ok := f.store.objects[want]; !ok {
		t.Error("file not stored")
	}
	if _, err := f.svc.Get(context.Background(), doc.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("pending Get() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestUploadRejectsBadFiles(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input UploadInput
		want  error
	}{
		{"extension", UploadInput{Title: "x", FileName: "run.exe", File: strings.NewReader("MZ")}, ErrUnsupportedFileType},
		{"size", UploadInput{Title: "x", FileName: "big.txt", File: strings.NewReader(strings.Repeat("a", 2048))}, ErrFileTooLarge},
		{"pdf", UploadInput{Title: "x", FileName: "fake.pdf", File: strings.NewReader("not a pdf at all")}, ErrInvalidPDF},
		{"subject", UploadInput{Title: "x", FileName: "a.txt", SubjectID: ptr(uint(999)), File: strings.NewReader("a")}, ErrSubjectNotFound},
		{"title", UploadInput{FileName: "a.txt", File: strings.NewReader("a")}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Upload(ctx, f.uploader.ID, tc.input); !errors.Is(err, tc.want) {
				t.Errorf("Upload() error = %v, want %v", err, tc.want)
			}
		})
	}
	if len(f.store.objects) != 0 {
		t.Errorf("rejected uploads left %d objects", len(f.store.objects))
	}
}

func TestApproveNotifiesUploaderAndSubscribers(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()
	if err := f.subs.SubscribeSubject(ctx, f.reader.ID, &f.subject); err != nil {
		t.Fatal(err)
	}
	if err := f.subs.SubscribeSubject(ctx, f.uploader.ID, &f.subject); err != nil {
		t.Fatal(err)
	}
	doc := f.upload(t, "Đề thi giải tích")

	approved, err := f.svc.Approve(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if !approved.IsActive() {
		t.Errorf("status = %q", approved.Status)
	}
	got := f.notifier.recipients()
	if got[f.uploader.ID] != 1 || got[f.reader.ID] != 1 {
		t.Errorf("recipients = %v", got)
	}

	if _, err := f.svc.Approve(ctx, doc.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Approve() error = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.Get(ctx, doc.ID); err != nil {
		t.Errorf("Get() after approve error = %v", err)
	}
}

func TestRejectHidesDocument(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()
	doc := f.upload(t, "Nháp")

	if _, err := f.svc.Reject(ctx, doc.ID, "trùng lặp"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if _, err := f.svc.Download(ctx, doc.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Download() of inactive error = %v", err)
	}
	if len(f.notifier.events) != 1 || !strings.Contains(f.notifier.events[0].Body, "trùng lặp") {
		t.Errorf("events = %+v", f.notifier.events)
	}
	if _, err := f.svc.Reject(ctx, uuid.New(), ""); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Reject() unknown error = %v", err)
	}
}

func TestDownloadCountsAndSigns(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()
	doc := f.upload(t, "Slide")
	if _, err := f.svc.Approve(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}

	link, err := f.svc.Download(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if !strings.Contains(link.URL, doc.FileKey) || link.FileName != "notes.txt" {
		t.Errorf("link = %+v", link)
	}
	got, err := f.svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DownloadCount != 1 {
		t.Errorf("DownloadCount = %d, want 1", got.DownloadCount)
	}
}

func TestSearchAndRecommended(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()
	doc := f.upload(t, "Bài tập giải tích")
	if _, err := f.svc.Approve(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}

	found, err := f.svc.Search(ctx, "  giai tich ", 0)
	if err != nil || len(found) != 1 {
		t.Fatalf("Search() = %v, %v", found, err)
	}
	if empty, _ := f.svc.Search(ctx, "   ", 0); len(empty) != 0 {
		t.Errorf("blank Search() = %v", empty)
	}

	recs, err := f.svc.Recommended(ctx, f.reader.ID, 0)
	if err != nil || len(recs) != 0 {
		t.Fatalf("Recommended() without subscriptions = %v, %v", recs, err)
	}
	if err := f.subs.SubscribeFaculty(ctx, f.reader.ID, &f.faculty); err != nil {
		t.Fatal(err)
	}
	// The document only links the subject, so a faculty subscription does not match it.
	recs, _ = f.svc.Recommended(ctx, f.reader.ID, 0)
	if len(recs) != 0 {
		t.Errorf("Recommended() by faculty = %d docs", len(recs))
	}
	if err := f.subs.SubscribeSubject(ctx, f.reader.ID, &f.subject); err != nil {
		t.Fatal(err)
	}
	recs, _ = f.svc.Recommended(ctx, f.reader.ID, 0)
	if len(recs) != 1 || recs[0].ID != doc.ID {
		t.Errorf("Recommended() by subject = %v", recs)
	}
}

func ptr[T any](v T) *T {
	return &v
}
