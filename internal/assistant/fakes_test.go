package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"unidoc-hub/internal/ai"
	"unidoc-hub/internal/model"
	"unidoc-hub/internal/repository"
)

var errBoom = errors.New("boom")

// fakeGenerator routes classification prompts to analyze and everything
// else to complete.
type fakeGenerator struct {
	mu        sync.Mutex
	analyze   func(prompt string) (string, error)
	complete  func(prompt string) (string, error)
	send      func(call int, msg string) (string, error)
	sends     int
	completes int
	histories [][]ai.ChatMessage
}

func (g *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "bộ phân loại") {
		if g.analyze == nil {
			return "", errBoom
		}
		return g.analyze(prompt)
	}
	g.mu.Lock()
	g.completes++
	g.mu.Unlock()
	if g.complete == nil {
		return "", errBoom
	}
	return g.complete(prompt)
}

func (g *fakeGenerator) StartConversation(history []ai.ChatMessage) ai.Conversation {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.histories = append(g.histories, history)
	return &fakeConversation{g: g}
}

type fakeConversation struct {
	g *fakeGenerator
}

func (c *fakeConversation) Send(_ context.Context, msg string) (string, error) {
	c.g.mu.Lock()
	c.g.sends++
	call := c.g.sends
	c.g.mu.Unlock()
	if c.g.send == nil {
		return "", errBoom
	}
	return c.g.send(call, msg)
}

type fakeCatalog struct {
	docs        []model.Document
	searchErr   error
	searchCalls int
	lastKeys    []string
	recommended []model.Document
	recSubjects []uint
}

func (c *fakeCatalog) SearchByKeywords(_ context.Context, keywords []string, limit int) ([]model.Document, error) {
	c.searchCalls++
	c.lastKeys = keywords
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	if len(keywords) == 0 {
		return []model.Document{}, nil
	}
	out := c.docs
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) RecommendBySubscriptions(_ context.Context, subjectIDs, facultyIDs []uint, limit int) ([]model.Document, error) {
	c.recSubjects = subjectIDs
	return c.recommended, nil
}

func (c *fakeCatalog) GetByIDWithRelations(_ context.Context, id uuid.UUID) (*model.Document, error) {
	for i := range c.docs {
		if c.docs[i].ID == id {
			d := c.docs[i]
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeSubs struct {
	subjects  []uint
	faculties []uint
}

func (s *fakeSubs) SubscribedSubjectIDs(context.Context, uint) ([]uint, error) {
	return s.subjects, nil
}

func (s *fakeSubs) SubscribedFacultyIDs(context.Context, uint) ([]uint, error) {
	return s.faculties, nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (e *fakeExtractor) IsSupported(fileKey string) bool {
	return strings.HasSuffix(fileKey, ".pdf") || strings.HasSuffix(fileKey, ".docx") || strings.HasSuffix(fileKey, ".txt")
}

func (e *fakeExtractor) ExtractText(context.Context, string) (string, error) {
	e.calls++
	return e.text, e.err
}

func activeDoc(title, fileKey string) model.Document {
	return model.Document{
		ID:          uuid.New(),
		Title:       title,
		Description: "Mô tả " + title,
		FileKey:     fileKey,
		Status:      model.DocumentStatusActive,
		Subject:     &model.Subject{Name: "Giải tích 1"},
	}
}
