package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveHealth(t *testing.T, h *HealthHandler) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", h.Check)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return w.Code, body
}

func TestHealthReportsStorageAndProvider(t *testing.T) {
	ok := func(context.Context) error { return nil }
	h := &HealthHandler{
		appName:   "unidoc-hub",
		env:       "test",
		startedAt: time.Now().Add(-time.Minute),
		llm:       llmInfo{Provider: "vertex", Model: "gemini-1.5-flash"},
		probes: []dependencyProbe{
			{name: "mysql", check: ok},
			{name: "storage", target: "docs-bucket", check: ok},
			{name: "llm", target: "vertex", check: ok},
		},
	}

	code, body := serveHealth(t, h)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	llm := body["llm"].(map[string]any)
	if llm["provider"] != "vertex" || llm["model"] != "gemini-1.5-flash" {
		t.Errorf("llm = %v", llm)
	}
	storage := body["dependencies"].(map[string]any)["storage"].(map[string]any)
	if storage["ok"] != true || storage["target"] != "docs-bucket" {
		t.Errorf("storage = %v", storage)
	}
	if up, _ := body["uptime_sec"].(float64); up < 59 {
		t.Errorf("uptime_sec = %v", body["uptime_sec"])
	}
}

func TestHealthFailingDependency(t *testing.T) {
	h := &HealthHandler{
		appName:   "unidoc-hub",
		startedAt: time.Now(),
		llm:       llmInfo{Provider: "openai"},
		probes: []dependencyProbe{
			{name: "redis", check: func(context.Context) error { return nil }},
			{name: "storage", target: "docs-bucket", check: func(context.Context) error {
				return errors.New("bucket unreachable")
			}},
		},
	}

	code, body := serveHealth(t, h)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
	deps := body["dependencies"].(map[string]any)
	if deps["redis"].(map[string]any)["ok"] != true {
		t.Errorf("redis = %v", deps["redis"])
	}
	storage := deps["storage"].(map[string]any)
	if storage["ok"] != false || storage["message"] != "bucket unreachable" {
		t.Errorf("storage = %v", storage)
	}
}
