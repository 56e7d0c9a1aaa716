package assistant

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"unidoc-hub/internal/model"
)

func newTestOrchestrator(gen *fakeGenerator, catalog *fakeCatalog, extractor *fakeExtractor) *Orchestrator {
	o := NewOrchestrator(
		NewAnalyzer(gen, time.Second),
		NewContextBuilder(catalog, &fakeSubs{}, extractor, 10),
		NewComposer(gen, time.Second, 0),
		Options{MaxHistory: 10, AnalyzerHistory: 2},
	)
	o.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }
	return o
}

func TestChatSearchWithNoMatchesReportsKeywords(t *testing.T) {
	catalog := &fakeCatalog{}
	o := newTestOrchestrator(&fakeGenerator{}, catalog, &fakeExtractor{})

	reply := o.Chat(context.Background(), Request{UserID: 1, Message: "tìm tài liệu về giải tích"})
	if reply.Intent != IntentSearch {
		t.Fatalf("intent = %s", reply.Intent)
	}
	if len(catalog.lastKeys) == 0 || catalog.lastKeys[0] != "giai tich" {
		t.Errorf("keywords = %v", catalog.lastKeys)
	}
	if !strings.Contains(reply.Reply, "Không tìm thấy") || !strings.Contains(reply.Reply, "giai tich") {
		t.Errorf("reply = %q", reply.Reply)
	}
	if len(reply.SuggestedActions) == 0 {
		t.Error("no suggested actions")
	}
}

func TestChatSummarizeByID(t *testing.T) {
	doc := activeDoc("Giáo trình giải tích", "documents/gt.pdf")
	var sent string
	gen := &fakeGenerator{send: func(_ int, msg string) (string, error) {
		sent = msg
		return "Tóm tắt: giới hạn và đạo hàm.", nil
	}}
	o := newTestOrchestrator(gen, &fakeCatalog{docs: []model.Document{doc}}, &fakeExtractor{text: "Chương 1 giới hạn"})

	reply := o.Chat(context.Background(), Request{UserID: 1, Message: "tóm tắt tài liệu " + doc.ID.String()})
	if reply.Intent != IntentSummarize {
		t.Fatalf("intent = %s", reply.Intent)
	}
	if reply.Reply != "Tóm tắt: giới hạn và đạo hàm." {
		t.Errorf("reply = %q", reply.Reply)
	}
	for _, want := range []string{"Giáo trình giải tích", "Chương 1 giới hạn", doc.ID.String()} {
		if !strings.Contains(sent, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestChatSummarizeExtractionFailure(t *testing.T) {
	doc := activeDoc("Giáo trình", "documents/gt.pdf")
	var sent string
	gen := &fakeGenerator{send: func(_ int, msg string) (string, error) {
		sent = msg
		return "ok", nil
	}}
	o := newTestOrchestrator(gen, &fakeCatalog{docs: []model.Document{doc}}, &fakeExtractor{err: errBoom})

	o.Chat(context.Background(), Request{UserID: 1, Message: "tóm tắt tài liệu " + doc.ID.String()})
	if !strings.Contains(sent, ExtractionFailedMarker) {
		t.Errorf("prompt = %q", sent)
	}
}

func TestChatForwardsAtMostTenHistoryEntries(t *testing.T) {
	gen := &fakeGenerator{send: func(int, string) (string, error) { return "chào bạn", nil }}
	o := newTestOrchestrator(gen, &fakeCatalog{}, &fakeExtractor{})

	history := make([]HistoryItem, 15)
	for i := range history {
		history[i] = HistoryItem{Role: RoleStudent, Content: fmt.Sprintf("h%d", i)}
	}
	o.Chat(context.Background(), Request{UserID: 1, Message: "xin chào", History: history})

	if len(gen.histories) != 1 {
		t.Fatalf("conversations started = %d", len(gen.histories))
	}
	forwarded := gen.histories[0]
	if len(forwarded) != 10 {
		t.Fatalf("forwarded %d entries", len(forwarded))
	}
	for i, m := range forwarded {
		if want := fmt.Sprintf("h%d", i+5); m.Content != want {
			t.Errorf("entry %d = %q, want %q", i, m.Content, want)
		}
	}
}

func TestChatFallbackOnComposeFailure(t *testing.T) {
	o := newTestOrchestrator(&fakeGenerator{}, &fakeCatalog{}, &fakeExtractor{})

	reply := o.Chat(context.Background(), Request{UserID: 1, Message: "xin chào"})
	if reply.Reply != FallbackReply || reply.Timestamp.IsZero() {
		t.Errorf("reply = %+v", reply)
	}
}

func TestChatRecoversFromPanic(t *testing.T) {
	gen := &fakeGenerator{send: func(int, string) (string, error) { panic("provider bug") }}
	o := newTestOrchestrator(gen, &fakeCatalog{}, &fakeExtractor{})

	reply := o.Chat(context.Background(), Request{UserID: 1, Message: "xin chào"})
	if reply.Reply != FallbackReply {
		t.Errorf("reply = %q", reply.Reply)
	}
}
