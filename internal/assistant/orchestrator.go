package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"
)

const FallbackReply = "Xin lỗi, trợ lý đang gặp sự cố và chưa thể trả lời câu hỏi của bạn. Vui lòng thử lại sau ít phút."

type Options struct {
	MaxHistory      int
	AnalyzerHistory int
}

type Orchestrator struct {
	analyzer *Analyzer
	builder  *ContextBuilder
	composer *Composer
	opts     Options
	now      func() time.Time
	logger   *slog.Logger
}

func NewOrchestrator(analyzer *Analyzer, builder *ContextBuilder, composer *Composer, opts Options) *Orchestrator {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	if opts.AnalyzerHistory <= 0 {
		opts.AnalyzerHistory = 2
	}
	return &Orchestrator{
		analyzer: analyzer,
		builder:  builder,
		composer: composer,
		opts:     opts,
		now:      time.Now,
		logger:   slog.Default().With("component", "assistant"),
	}
}

// Chat runs one turn. Failures at any stage, panics included, end in
// FallbackReply; Chat never returns an error.
func (o *Orchestrator) Chat(ctx context.Context, req Request) (reply Reply) {
	logger := o.logger.With("user_id", req.UserID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("assistant turn panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			reply = o.fallback()
		}
	}()

	message := strings.TrimSpace(req.Message)
	history := NewHistory(req.History, o.opts.MaxHistory)

	analysis := o.analyzer.Analyze(ctx, message, history.Recent(o.opts.AnalyzerHistory))
	logger.Info("message analyzed",
		"intent", analysis.Intent,
		"keywords", analysis.Keywords,
		"document_id", analysis.DocumentID,
		"list_position", analysis.ListPosition,
	)

	var catalogContext string
	if analysis.NeedsContext {
		catalogContext = o.builder.Build(ctx, req.UserID, analysis, history)
	}

	text, err := o.composer.Compose(ctx, Composition{
		Intent:  analysis.Intent,
		Context: catalogContext,
		History: history,
		Message: message,
	})
	if err != nil {
		logger.Error("compose reply failed", "intent", analysis.Intent, "error", err)
		return o.fallback()
	}

	return Reply{
		Reply:            text,
		Timestamp:        o.now(),
		Intent:           analysis.Intent,
		SuggestedActions: SuggestedActions(analysis.Intent),
	}
}

func (o *Orchestrator) fallback() Reply {
	return Reply{
		Reply:     FallbackReply,
		Timestamp: o.now(),
	}
}
