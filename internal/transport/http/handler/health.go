package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"unidoc-hub/internal/bootstrap"
)

const healthTimeout = 2 * time.Second

var errNotConfigured = errors.New("not configured")

type HealthHandler struct {
	appName   string
	env       string
	startedAt time.Time
	llm       llmInfo
	probes    []dependencyProbe
}

type llmInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

type dependencyProbe struct {
	name   string
	target string
	check  func(ctx context.Context) error
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	cfg := app.Config
	llm := llmInfo{Provider: cfg.LLM.Provider, Model: cfg.LLM.Model}
	if cfg.LLM.Provider == "vertex" {
		llm.Model = cfg.Vertex.Model
	}

	return &HealthHandler{
		appName:   cfg.App.Name,
		env:       cfg.App.Env,
		startedAt: app.StartedAt,
		llm:       llm,
		probes: []dependencyProbe{
			{name: "mysql", check: func(ctx context.Context) error {
				sqlDB, err := app.MySQL.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}},
			{name: "redis", check: func(ctx context.Context) error {
				return app.Redis.Ping(ctx).Err()
			}},
			{name: "rabbitmq", check: func(context.Context) error {
				if app.MQConn == nil || app.MQConn.IsClosed() {
					return errors.New("connection closed")
				}
				return nil
			}},
			{name: "storage", target: cfg.Storage.Bucket, check: func(ctx context.Context) error {
				if app.Storage == nil {
					return errNotConfigured
				}
				return app.Storage.Ping(ctx)
			}},
			{name: "llm", target: llm.Provider, check: func(context.Context) error {
				if app.Generator == nil {
					return errNotConfigured
				}
				return nil
			}},
		},
	}
}

// Check probes every dependency concurrently and answers 503 if any fails.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	statuses := make([]dependencyStatus, len(h.probes))
	var g errgroup.Group
	for i, p := range h.probes {
		i, p := i, p
		g.Go(func() error {
			statuses[i] = dependencyStatus{OK: true, Target: p.target}
			if err := p.check(ctx); err != nil {
				statuses[i] = dependencyStatus{OK: false, Target: p.target, Message: err.Error()}
			}
			return nil
		})
	}
	_ = g.Wait()

	allOK := true
	deps := make(gin.H, len(h.probes))
	for i, p := range h.probes {
		deps[p.name] = statuses[i]
		allOK = allOK && statuses[i].OK
	}

	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, gin.H{
		"app":          h.appName,
		"env":          h.env,
		"uptime_sec":   int(time.Since(h.startedAt).Seconds()),
		"llm":          h.llm,
		"dependencies": deps,
	})
}
