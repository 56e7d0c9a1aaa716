// Package assistant answers student questions about the document catalog.
//
// A turn runs analyze -> build context -> compose in a single pass. Every
// stage degrades to text instead of failing, so Orchestrator.Chat always
// produces a reply.
package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"unidoc-hub/internal/model"
)

type Intent string

const (
	IntentSearch           Intent = "SEARCH"
	IntentRecommend        Intent = "RECOMMEND"
	IntentSummarize        Intent = "SUMMARIZE"
	IntentDocumentQuestion Intent = "DOCUMENT_QUESTION"
	IntentGeneral          Intent = "GENERAL"
)

func (i Intent) Valid() bool {
	switch i {
	case IntentSearch, IntentRecommend, IntentSummarize, IntentDocumentQuestion, IntentGeneral:
		return true
	}
	return false
}

// needsCatalog reports whether the intent is answered from catalog data.
func (i Intent) needsCatalog() bool {
	return i != IntentGeneral
}

// Analysis is the classified form of one user message. Every field carries a
// usable zero value: no document id is "", no list position is 0.
type Analysis struct {
	Intent       Intent   `json:"intent"`
	Keywords     []string `json:"keywords"`
	DocumentID   string   `json:"documentId,omitempty"`
	ListPosition int      `json:"listPosition,omitempty"`
	NeedsContext bool     `json:"needsContext"`
}

type Request struct {
	UserID  uint
	Message string
	History []HistoryItem
}

type Reply struct {
	Reply            string    `json:"reply"`
	Timestamp        time.Time `json:"timestamp"`
	Intent           Intent    `json:"intent,omitempty"`
	SuggestedActions []string  `json:"suggestedActions,omitempty"`
}

// Catalog is the read-only document store the pipeline consults.
type Catalog interface {
	SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]model.Document, error)
	RecommendBySubscriptions(ctx context.Context, subjectIDs, facultyIDs []uint, limit int) ([]model.Document, error)
	GetByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Document, error)
}

type SubscriptionSource interface {
	SubscribedSubjectIDs(ctx context.Context, userID uint) ([]uint, error)
	SubscribedFacultyIDs(ctx context.Context, userID uint) ([]uint, error)
}

type TextExtractor interface {
	IsSupported(fileKey string) bool
	ExtractText(ctx context.Context, fileKey string) (string, error)
}
