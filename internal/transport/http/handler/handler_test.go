package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"unidoc-hub/internal/app"
	"unidoc-hub/internal/assistant"
	"unidoc-hub/internal/transport/http/middleware"
)

type echoAssistant struct {
	last assistant.Request
}

func (a *echoAssistant) Chat(_ context.Context, req assistant.Request) assistant.Reply {
	a.last = req
	return assistant.Reply{
		Reply:            "đã nhận: " + req.Message,
		Timestamp:        time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Intent:           assistant.IntentGeneral,
		SuggestedActions: assistant.SuggestedActions(assistant.IntentGeneral),
	}
}

func newAssistantRouter(asst *echoAssistant) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAssistantHandler(app.NewConversationService(nil, asst, nil, nil, 10))
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uint(5))
		c.Next()
	})
	r.POST("/assistant/chat", h.Chat)
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAssistantChat(t *testing.T) {
	asst := &echoAssistant{}
	r := newAssistantRouter(asst)

	w := postJSON(r, "/assistant/chat", gin.H{
		"message": "xin chào",
		"history": []gin.H{{"role": "STUDENT", "content": "chào"}, {"role": "ADMIN", "content": "Chào bạn"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Reply            string   `json:"reply"`
			Timestamp        string   `json:"timestamp"`
			Intent           string   `json:"intent"`
			SuggestedActions []string `json:"suggestedActions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != 0 || resp.Data.Reply != "đã nhận: xin chào" || resp.Data.Intent != "GENERAL" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Data.Timestamp != "2025-01-02T03:04:05Z" {
		t.Errorf("timestamp = %q", resp.Data.Timestamp)
	}
	if asst.last.UserID != 5 || len(asst.last.History) != 2 || asst.last.History[1].Role != assistant.RoleAdmin {
		t.Errorf("request = %+v", asst.last)
	}
}

func TestAssistantChatValidation(t *testing.T) {
	r := newAssistantRouter(&echoAssistant{})

	cases := map[string]gin.H{
		"missing message": {"history": []gin.H{}},
		"long message":    {"message": strings.Repeat("ă", 2001)},
		"bad role":        {"message": "hi", "history": []gin.H{{"role": "BOT", "content": "x"}}},
		"long history":    {"message": "hi", "history": []gin.H{{"role": "ADMIN", "content": strings.Repeat("a", 2001)}}},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if w := postJSON(r, "/assistant/chat", body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}

	if w := postJSON(r, "/assistant/chat", gin.H{"message": strings.Repeat("ă", 2000)}); w.Code != http.StatusOK {
		t.Errorf("2000-rune message status = %d", w.Code)
	}
}

func TestDocumentRoutesRejectMalformedIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(nil)
	r := gin.New()
	r.GET("/documents/:id", h.Get)
	r.GET("/documents/:id/download", h.Download)

	for _, path := range []string{"/documents/abc", "/documents/123/download"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, w.Code)
		}
	}
}
