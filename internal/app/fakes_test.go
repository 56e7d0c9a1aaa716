package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"unidoc-hub/internal/assistant"
	"unidoc-hub/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:app_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatal(err)
	}
}

type fakeObjectStore struct {
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Put(_ context.Context, key, _ string, r io.Reader) error {
	if s.putErr != nil {
		return s.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = b
	return nil
}

func (s *fakeObjectStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStore) SignedURL(key, fileName string, ttl time.Duration) (string, error) {
	return "https://storage.test/" + key + "?name=" + fileName, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.NotificationEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev model.NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) recipients() map[uint]int {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := map[uint]int{}
	for _, ev := range n.events {
		for _, id := range ev.UserIDs {
			out[id]++
		}
	}
	return out
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads []any
	failOn   int
}

// Publish fails on the failOn-th call (1-based) when failOn is set.
func (p *recordingPublisher) Publish(_ context.Context, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn > 0 && len(p.payloads)+1 == p.failOn {
		p.failOn = 0
		return fmt.Errorf("broker unavailable")
	}
	p.payloads = append(p.payloads, v)
	return nil
}

type stubAssistant struct {
	requests []assistant.Request
	reply    assistant.Reply
}

func (a *stubAssistant) Chat(_ context.Context, req assistant.Request) assistant.Reply {
	a.requests = append(a.requests, req)
	return a.reply
}
