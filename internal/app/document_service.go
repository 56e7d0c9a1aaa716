package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"unidoc-hub/internal/model"
	"unidoc-hub/internal/repository"
)

// Subscriber notifications are published in batches of this many recipients.
const notifyBatchSize = 200

// ObjectStore is the slice of object storage used for document files.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	SignedURL(key, fileName string, ttl time.Duration) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, ev model.NotificationEvent) error
}

type DocumentServiceOptions struct {
	MaxUploadBytes    int64
	AllowedExtensions []string
	SignedURLTTL      time.Duration
	SearchLimit       int
}

type DocumentService struct {
	documentRepo     *repository.DocumentRepository
	catalogRepo      *repository.CatalogRepository
	subscriptionRepo *repository.SubscriptionRepository
	objects          ObjectStore
	notifier         Notifier
	opts             DocumentServiceOptions
	allowed          map[string]struct{}
	log              *slog.Logger
}

type UploadInput struct {
	Title          string
	Description    string
	SubjectID      *uint
	FacultyID      *uint
	DocumentTypeID *uint
	FileName       string
	ContentType    string
	Size           int64
	File           io.Reader
}

type DownloadLink struct {
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	ExpiresAt time.Time `json:"expires_at"`
}

type DocumentPage struct {
	Items    []model.Document `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":  "text/plain; charset=utf-8",
}

func NewDocumentService(
	documentRepo *repository.DocumentRepository,
	catalogRepo *repository.CatalogRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	objects ObjectStore,
	notifier Notifier,
	opts DocumentServiceOptions,
) *DocumentService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if len(opts.AllowedExtensions) == 0 {
		opts.AllowedExtensions = []string{".pdf", ".docx", ".txt", ".doc", ".pptx", ".xlsx"}
	}
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = 15 * time.Minute
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 10
	}
	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return &DocumentService{
		documentRepo:     documentRepo,
		catalogRepo:      catalogRepo,
		subscriptionRepo: subscriptionRepo,
		objects:          objects,
		notifier:         notifier,
		opts:             opts,
		allowed:          allowed,
		log:              slog.Default().With("component", "document_service"),
	}
}

// Upload stores the file and creates a pending document owned by uploaderID.
func (s *DocumentService) Upload(ctx context.Context, uploaderID uint, input UploadInput) (*model.Document, error) {
	title := strings.TrimSpace(input.Title)
	if uploaderID == 0 || title == "" || input.File == nil {
		return nil, ErrInvalidInput
	}
	ext := strings.ToLower(filepath.Ext(input.FileName))
	if _, ok := s.allowed[ext]; !ok {
		return nil, ErrUnsupportedFileType
	}
	if input.Size > s.opts.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if err := s.checkCatalogLinks(ctx, input); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(input.File, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrInvalidInput
	}

	var pages int
	if ext == ".pdf" {
		pages, err = pdfPageCount(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
		}
	}

	contentType := contentTypes[ext]
	if contentType == "" {
		contentType = input.ContentType
	}

	doc := &model.Document{
		ID:             uuid.New(),
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		FileName:       filepath.Base(input.FileName),
		MimeType:       contentType,
		FileSize:       int64(len(data)),
		PageCount:      pages,
		Status:         model.DocumentStatusPending,
		SubjectID:      input.SubjectID,
		FacultyID:      input.FacultyID,
		DocumentTypeID: input.DocumentTypeID,
		UploaderID:     &uploaderID,
	}
	doc.FileKey = "documents/" + doc.ID.String() + ext

	if err := s.objects.Put(ctx, doc.FileKey, contentType, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		if delErr := s.objects.Delete(context.WithoutCancel(ctx), doc.FileKey); delErr != nil {
			s.log.Warn("remove orphaned upload failed", "key", doc.FileKey, "error", delErr)
		}
		return nil, err
	}
	s.log.Info("document uploaded", "document_id", doc.ID, "uploader_id", uploaderID, "size", doc.FileSize)
	return doc, nil
}

// Get returns an active document. Pending and inactive documents are reported as not found.
func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.IsActive() {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *DocumentService) ListActive(ctx context.Context, filter repository.DocumentFilter) (*DocumentPage, error) {
	docs, total, err := s.documentRepo.ListActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &DocumentPage{Items: docs, Total: total, Page: page, PageSize: size}, nil
}

// Search matches the whole query as a phrase plus each of its words.
func (s *DocumentService) Search(ctx context.Context, query string, limit int) ([]model.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Document{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = s.opts.SearchLimit
	}
	keywords := []string{query}
	if fields := strings.Fields(query); len(fields) > 1 {
		keywords = append(keywords, fields...)
	}
	return s.documentRepo.SearchByKeywords(ctx, keywords, limit)
}

func (s *DocumentService) Recommended(ctx context.Context, userID uint, limit int) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 || limit > 50 {
		limit = s.opts.SearchLimit
	}

	var subjectIDs, facultyIDs []uint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.subscriptionRepo.SubscribedSubjectIDs(gctx, userID)
		subjectIDs = ids
		return err
	})
	g.Go(func() error {
		ids, err := s.subscriptionRepo.SubscribedFacultyIDs(gctx, userID)
		facultyIDs = ids
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.documentRepo.RecommendBySubscriptions(ctx, subjectIDs, facultyIDs, limit)
}

func (s *DocumentService) ListPending(ctx context.Context, limit int) ([]model.Document, error) {
	return s.documentRepo.ListByStatus(ctx, model.DocumentStatusPending, limit)
}

// Approve activates a pending or inactive document, then tells the uploader
// and everyone subscribed to its subject or faculty.
func (s *DocumentService) Approve(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.IsActive() {
		return nil, ErrInvalidTransition
	}
	if err := s.setStatus(ctx, doc, model.DocumentStatusActive); err != nil {
		return nil, err
	}

	if doc.UploaderID != nil {
		s.notify(ctx, model.NotificationEvent{
			UserIDs:    []uint{*doc.UploaderID},
			Title:      "Tài liệu đã được duyệt",
			Body:       fmt.Sprintf("Tài liệu %q của bạn đã được duyệt và hiển thị công khai.", doc.Title),
			DocumentID: doc.ID.String(),
		})
	}
	if err := s.notifySubscribers(ctx, doc); err != nil {
		s.log.Warn("notify subscribers failed", "document_id", doc.ID, "error", err)
	}
	return doc, nil
}

// Reject moves a document to inactive. Active documents may be deactivated the same way.
func (s *DocumentService) Reject(ctx context.Context, id uuid.UUID, reason string) (*model.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == model.DocumentStatusInactive {
		return nil, ErrInvalidTransition
	}
	if err := s.setStatus(ctx, doc, model.DocumentStatusInactive); err != nil {
		return nil, err
	}

	if doc.UploaderID != nil {
		body := fmt.Sprintf("Tài liệu %q của bạn không được duyệt.", doc.Title)
		if reason = strings.TrimSpace(reason); reason != "" {
			body += " Lý do: " + reason
		}
		s.notify(ctx, model.NotificationEvent{
			UserIDs:    []uint{*doc.UploaderID},
			Title:      "Tài liệu bị từ chối",
			Body:       body,
			DocumentID: doc.ID.String(),
		})
	}
	return doc, nil
}

// Download counts the download and returns a short-lived signed URL.
func (s *DocumentService) Download(ctx context.Context, id uuid.UUID) (*DownloadLink, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.objects.SignedURL(doc.FileKey, doc.FileName, s.opts.SignedURLTTL)
	if err != nil {
		return nil, err
	}
	if err := s.documentRepo.IncrementDownloadCount(ctx, doc.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &DownloadLink{
		URL:       url,
		FileName:  doc.FileName,
		ExpiresAt: time.Now().Add(s.opts.SignedURLTTL),
	}, nil
}

func (s *DocumentService) load(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	if id == uuid.Nil {
		return nil, ErrDocumentNotFound
	}
	doc, err := s.documentRepo.GetByIDWithRelations(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) setStatus(ctx context.Context, doc *model.Document, status model.DocumentStatus) error {
	if err := s.documentRepo.UpdateStatus(ctx, doc.ID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	s.log.Info("document status changed", "document_id", doc.ID, "from", doc.Status, "to", status)
	doc.Status = status
	return nil
}

func (s *DocumentService) checkCatalogLinks(ctx context.Context, input UploadInput) error {
	if input.SubjectID != nil {
		subject, err := s.catalogRepo.GetSubject(ctx, *input.SubjectID)
		if err != nil {
			return err
		}
		if subject == nil {
			return ErrSubjectNotFound
		}
	}
	if input.FacultyID != nil {
		faculty, err := s.catalogRepo.GetFaculty(ctx, *input.FacultyID)
		if err != nil {
			return err
		}
		if faculty == nil {
			return ErrFacultyNotFound
		}
	}
	if input.DocumentTypeID != nil {
		docType, err := s.catalogRepo.GetDocumentType(ctx, *input.DocumentTypeID)
		if err != nil {
			return err
		}
		if docType == nil {
			return ErrDocumentTypeNotFound
		}
	}
	return nil
}

func (s *DocumentService) notifySubscribers(ctx context.Context, doc *model.Document) error {
	if s.notifier == nil || (doc.SubjectID == nil && doc.FacultyID == nil) {
		return nil
	}
	ids, err := s.subscriptionRepo.SubscriberIDs(ctx, doc.SubjectID, doc.FacultyID)
	if err != nil {
		return err
	}
	recipients := make([]uint, 0, len(ids))
	for _, id := range ids {
		if doc.UploaderID != nil && id == *doc.UploaderID {
			continue
		}
		recipients = append(recipients, id)
	}
	if len(recipients) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(recipients); start += notifyBatchSize {
		end := min(start+notifyBatchSize, len(recipients))
		batch := recipients[start:end]
		g.Go(func() error {
			return s.notifier.Notify(gctx, model.NotificationEvent{
				UserIDs:    batch,
				Title:      "Tài liệu mới",
				Body:       fmt.Sprintf("Tài liệu mới %q vừa được đăng trong mục bạn theo dõi.", doc.Title),
				DocumentID: doc.ID.String(),
			})
		})
	}
	return g.Wait()
}

func (s *DocumentService) notify(ctx context.Context, ev model.NotificationEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.log.Warn("notify failed", "document_id", ev.DocumentID, "error", err)
	}
}

func pdfPageCount(data []byte) (int, error) {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}
