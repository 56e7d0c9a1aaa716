package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"unidoc-hub/internal/model"
	"unidoc-hub/internal/pkg/textnorm"
)

// Keyword search scores at most this many candidates in memory. Candidates
// are picked by how many keywords hit the title or description, so a rarely
// downloaded but closely matching document still makes the cut.
const maxSearchCandidates = 200

type DocumentRepository struct {
	db *gorm.DB
}

type DocumentFilter struct {
	SubjectID uint
	FacultyID uint
	Page      int
	PageSize  int
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// SearchByKeywords returns active documents whose title, description, subject
// or faculty contains any keyword, best matches first. No query is issued for
// an empty keyword list.
func (r *DocumentRepository) SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]model.Document, error) {
	folded := foldKeywords(keywords)
	if len(folded) == 0 {
		return []model.Document{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	clauses := make([]string, 0, len(folded)*3)
	args := make([]interface{}, 0, len(folded)*3)
	hits := make([]string, 0, len(folded))
	hitArgs := make([]interface{}, 0, len(folded))
	for _, kw := range folded {
		pattern := "%" + kw + "%"
		hits = append(hits, "CASE WHEN documents.search_text LIKE ? THEN 1 ELSE 0 END")
		hitArgs = append(hitArgs, pattern)
		clauses = append(clauses,
			"documents.search_text LIKE ?",
			"documents.subject_id IN (SELECT id FROM subjects WHERE name_folded LIKE ?)",
			"documents.faculty_id IN (SELECT id FROM faculties WHERE name_folded LIKE ?)",
		)
		args = append(args, pattern, pattern, pattern)
	}

	var candidates []model.Document
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("documents.status = ?", model.DocumentStatusActive).
		Where("("+strings.Join(clauses, " OR ")+")", args...).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "(" + strings.Join(hits, " + ") + ") DESC, documents.download_count DESC, documents.created_at DESC",
			Vars:               hitArgs,
			WithoutParentheses: true,
		}}).
		Limit(maxSearchCandidates).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("search documents failed: %w", err)
	}

	scores := make(map[uuid.UUID]int, len(candidates))
	for i := range candidates {
		scores[candidates[i].ID] = relevance(&candidates[i], folded)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := scores[candidates[i].ID], scores[candidates[j].ID]
		if si != sj {
			return si > sj
		}
		return candidates[i].DownloadCount > candidates[j].DownloadCount
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// RecommendBySubscriptions returns the most downloaded active documents
// belonging to any of the given subjects or faculties.
func (r *DocumentRepository) RecommendBySubscriptions(ctx context.Context, subjectIDs, facultyIDs []uint, limit int) ([]model.Document, error) {
	if len(subjectIDs) == 0 && len(facultyIDs) == 0 {
		return []model.Document{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var (
		clauses []string
		args    []interface{}
	)
	if len(subjectIDs) > 0 {
		clauses = append(clauses, "documents.subject_id IN ?")
		args = append(args, subjectIDs)
	}
	if len(facultyIDs) > 0 {
		clauses = append(clauses, "documents.faculty_id IN ?")
		args = append(args, facultyIDs)
	}

	var docs []model.Document
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("documents.status = ?", model.DocumentStatusActive).
		Where("("+strings.Join(clauses, " OR ")+")", args...).
		Order("documents.download_count DESC").
		Order("documents.created_at DESC").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("recommend documents failed: %w", err)
	}
	return docs, nil
}

// GetByIDWithRelations returns ErrNotFound when no document has the id.
func (r *DocumentRepository) GetByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := r.withRelations(r.db.WithContext(ctx)).
		Preload("Uploader").
		Where("documents.id = ?", id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListActive(ctx context.Context, filter DocumentFilter) ([]model.Document, int64, error) {
	page, size := normalizePage(filter.Page, filter.PageSize)

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Document{}).Where("status = ?", model.DocumentStatusActive)
		if filter.SubjectID != 0 {
			q = q.Where("subject_id = ?", filter.SubjectID)
		}
		if filter.FacultyID != 0 {
			q = q.Where("faculty_id = ?", filter.FacultyID)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count documents failed: %w", err)
	}

	var docs []model.Document
	if err := r.withRelations(base()).Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, total, nil
}

func (r *DocumentRepository) ListByStatus(ctx context.Context, status model.DocumentStatus, limit int) ([]model.Document, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var docs []model.Document
	err := r.withRelations(r.db.WithContext(ctx)).
		Preload("Uploader").
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents by status failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update document status failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("increment download count failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Subject").Preload("Faculty").Preload("DocumentType")
}

// relevance counts (field, keyword) matches over title, description, subject and faculty.
func relevance(doc *model.Document, keywords []string) int {
	fields := []string{textnorm.Fold(doc.Title), textnorm.Fold(doc.Description)}
	if doc.Subject != nil {
		fields = append(fields, doc.Subject.NameFolded)
	}
	if doc.Faculty != nil {
		fields = append(fields, doc.Faculty.NameFolded)
	}

	score := 0
	for _, field := range fields {
		if field == "" {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(field, kw) {
				score++
			}
		}
	}
	return score
}

func foldKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.NewReplacer("%", "", "_", " ").Replace(textnorm.Fold(kw))
		kw = textnorm.CollapseSpaces(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
