package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"unidoc-hub/internal/model"
	"unidoc-hub/internal/pkg/textnorm"
	"unidoc-hub/internal/repository"
)

const (
	maxListedDocuments    = 10
	listDescriptionLength = 150

	UnsupportedFormatMarker = "[Định dạng tệp không hỗ trợ trích xuất nội dung]"
	ExtractionFailedMarker  = "[Không thể trích xuất nội dung tài liệu]"

	msgNeedKeywords      = "Bạn muốn tìm tài liệu về chủ đề nào? Hãy cho biết tên môn học, khoa hoặc từ khóa cụ thể hơn."
	msgNeedSubscriptions = "Bạn chưa theo dõi môn học hoặc khoa nào. Hãy theo dõi một vài môn học hoặc khoa để nhận gợi ý tài liệu phù hợp."
	msgNoRecommendations = "Hiện chưa có tài liệu nào thuộc các môn học hoặc khoa bạn đang theo dõi."
	msgNeedDocument      = "Bạn muốn hỏi về tài liệu nào? Hãy cung cấp ID tài liệu hoặc số thứ tự của tài liệu trong danh sách tìm kiếm."
	msgLookupFailed      = "Xin lỗi, hệ thống gặp sự cố khi tra cứu kho tài liệu. Vui lòng thử lại sau."
)

type ContextBuilder struct {
	catalog     Catalog
	subs        SubscriptionSource
	extractor   TextExtractor
	searchLimit int
	logger      *slog.Logger
}

func NewContextBuilder(catalog Catalog, subs SubscriptionSource, extractor TextExtractor, searchLimit int) *ContextBuilder {
	if searchLimit <= 0 || searchLimit > maxListedDocuments {
		searchLimit = maxListedDocuments
	}
	return &ContextBuilder{
		catalog:     catalog,
		subs:        subs,
		extractor:   extractor,
		searchLimit: searchLimit,
		logger:      slog.Default().With("component", "assistant.context"),
	}
}

// Build assembles the catalog text for one turn. It never fails: lookup
// problems become explanatory text in the returned context.
func (b *ContextBuilder) Build(ctx context.Context, userID uint, analysis Analysis, history History) string {
	var (
		out string
		err error
	)
	switch analysis.Intent {
	case IntentSearch:
		out, err = b.searchContext(ctx, analysis.Keywords)
	case IntentRecommend:
		out, err = b.recommendContext(ctx, userID)
	case IntentSummarize, IntentDocumentQuestion:
		out, err = b.documentContext(ctx, analysis, history)
	default:
		return ""
	}
	if err != nil {
		b.logger.Error("build context failed", "intent", analysis.Intent, "user_id", userID, "error", err)
		return msgLookupFailed
	}
	return out
}

func (b *ContextBuilder) searchContext(ctx context.Context, keywords []string) (string, error) {
	if len(keywords) == 0 {
		return msgNeedKeywords, nil
	}
	docs, err := b.catalog.SearchByKeywords(ctx, keywords, b.searchLimit)
	if err != nil {
		return "", err
	}
	quoted := quoteKeywords(keywords)
	if len(docs) == 0 {
		return fmt.Sprintf("Không tìm thấy tài liệu nào phù hợp với từ khóa %s.", quoted), nil
	}
	header := fmt.Sprintf("Tìm thấy %d tài liệu phù hợp với từ khóa %s:", len(docs), quoted)
	return formatDocumentList(header, docs), nil
}

func (b *ContextBuilder) recommendContext(ctx context.Context, userID uint) (string, error) {
	var subjectIDs, facultyIDs []uint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := b.subs.SubscribedSubjectIDs(gctx, userID)
		subjectIDs = ids
		return err
	})
	g.Go(func() error {
		ids, err := b.subs.SubscribedFacultyIDs(gctx, userID)
		facultyIDs = ids
		return err
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("load subscriptions failed: %w", err)
	}
	if len(subjectIDs) == 0 && len(facultyIDs) == 0 {
		return msgNeedSubscriptions, nil
	}

	docs, err := b.catalog.RecommendBySubscriptions(ctx, subjectIDs, facultyIDs, b.searchLimit)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return msgNoRecommendations, nil
	}
	return formatDocumentList("Các tài liệu được gợi ý dựa trên môn học và khoa bạn theo dõi:", docs), nil
}

func (b *ContextBuilder) documentContext(ctx context.Context, analysis Analysis, history History) (string, error) {
	id, notice, err := b.resolveDocumentID(ctx, analysis, history)
	if err != nil {
		return "", err
	}
	if notice != "" {
		return notice, nil
	}

	doc, err := b.catalog.GetByIDWithRelations(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && (doc == nil || !doc.IsActive())) {
		return fmt.Sprintf("Không tìm thấy tài liệu có ID %s.", id), nil
	}
	if err != nil {
		return "", err
	}

	return formatDocumentDetail(doc, b.documentText(ctx, doc)), nil
}

// resolveDocumentID returns either an id or a notice for the user explaining
// why no document could be picked.
func (b *ContextBuilder) resolveDocumentID(ctx context.Context, analysis Analysis, history History) (uuid.UUID, string, error) {
	if analysis.DocumentID != "" {
		id, err := uuid.Parse(analysis.DocumentID)
		if err != nil {
			return uuid.Nil, fmt.Sprintf("ID tài liệu %q không hợp lệ.", analysis.DocumentID), nil
		}
		return id, "", nil
	}
	if analysis.ListPosition <= 0 {
		return uuid.Nil, msgNeedDocument, nil
	}

	// The earlier result list is not stored, so the search is run again.
	keywords := analysis.Keywords
	if len(keywords) == 0 {
		keywords = classifyHeuristically(history.LastStudentMessage()).Keywords
	}
	if len(keywords) == 0 {
		return uuid.Nil, msgNeedDocument, nil
	}
	docs, err := b.catalog.SearchByKeywords(ctx, keywords, b.searchLimit)
	if err != nil {
		return uuid.Nil, "", err
	}
	if analysis.ListPosition > len(docs) {
		return uuid.Nil, fmt.Sprintf("Danh sách tìm kiếm cho từ khóa %s chỉ có %d tài liệu, không có tài liệu thứ %d.",
			quoteKeywords(keywords), len(docs), analysis.ListPosition), nil
	}
	return docs[analysis.ListPosition-1].ID, "", nil
}

func (b *ContextBuilder) documentText(ctx context.Context, doc *model.Document) string {
	if !b.extractor.IsSupported(doc.FileKey) {
		return UnsupportedFormatMarker
	}
	text, err := b.extractor.ExtractText(ctx, doc.FileKey)
	if err != nil {
		b.logger.Warn("extract document text failed", "document_id", doc.ID, "file_key", doc.FileKey, "error", err)
		return ExtractionFailedMarker
	}
	if strings.TrimSpace(text) == "" {
		return "[Tài liệu không có nội dung văn bản]"
	}
	return text
}

func formatDocumentList(header string, docs []model.Document) string {
	if len(docs) > maxListedDocuments {
		docs = docs[:maxListedDocuments]
	}
	var sb strings.Builder
	sb.WriteString(header)
	for i := range docs {
		d := &docs[i]
		fmt.Fprintf(&sb, "\n%d. %s (ID: %s)", i+1, d.Title, d.ID)
		fmt.Fprintf(&sb, "\n   Môn học: %s | Loại: %s | Lượt tải: %d",
			subjectName(d), typeName(d), d.DownloadCount)
		if desc := strings.TrimSpace(d.Description); desc != "" {
			if cut, truncated := textnorm.Truncate(textnorm.CollapseSpaces(desc), listDescriptionLength); truncated {
				desc = cut + "..."
			} else {
				desc = cut
			}
			fmt.Fprintf(&sb, "\n   Mô tả: %s", desc)
		}
	}
	return sb.String()
}

func formatDocumentDetail(d *model.Document, text string) string {
	var sb strings.Builder
	sb.WriteString("Thông tin tài liệu:")
	fmt.Fprintf(&sb, "\n- Tiêu đề: %s", d.Title)
	fmt.Fprintf(&sb, "\n- ID: %s", d.ID)
	fmt.Fprintf(&sb, "\n- Môn học: %s", subjectName(d))
	if d.Faculty != nil {
		fmt.Fprintf(&sb, "\n- Khoa: %s", d.Faculty.Name)
	}
	fmt.Fprintf(&sb, "\n- Loại tài liệu: %s", typeName(d))
	if d.Uploader != nil {
		fmt.Fprintf(&sb, "\n- Người đăng: %s", d.Uploader.Username)
	}
	fmt.Fprintf(&sb, "\n- Lượt tải: %d", d.DownloadCount)
	fmt.Fprintf(&sb, "\n- Ngày đăng: %s", d.CreatedAt.Format("02/01/2006"))
	if desc := strings.TrimSpace(d.Description); desc != "" {
		fmt.Fprintf(&sb, "\n- Mô tả: %s", desc)
	}
	sb.WriteString("\n\nNội dung tài liệu:\n")
	sb.WriteString(text)
	return sb.String()
}

func subjectName(d *model.Document) string {
	if d.Subject != nil {
		return d.Subject.Name
	}
	return "Không rõ"
}

func typeName(d *model.Document) string {
	if d.DocumentType != nil {
		return d.DocumentType.Name
	}
	return "Không rõ"
}

func quoteKeywords(keywords []string) string {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = `"` + kw + `"`
	}
	return strings.Join(quoted, ", ")
}
