package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"unidoc-hub/internal/ai"
)

const systemPrompt = `Bạn là trợ lý học tập của thư viện tài liệu trường đại học.
Trả lời bằng tiếng Việt, ngắn gọn, thân thiện và chính xác.
Chỉ dựa vào phần "Thông tin tra cứu" khi nói về tài liệu trong kho; không bịa ra tài liệu, ID hay nội dung không có ở đó.
Khi liệt kê tài liệu, giữ nguyên tiêu đề và ID để sinh viên có thể mở hoặc hỏi tiếp.`

var errNotApplicable = errors.New("strategy not applicable")

// Composition is the input of one compose call.
type Composition struct {
	Intent  Intent
	Context string
	History History
	Message string
}

// prompt is the single message sent to the model for this turn.
func (c Composition) prompt() string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	if strings.TrimSpace(c.Context) != "" {
		sb.WriteString("\n\nThông tin tra cứu:\n")
		sb.WriteString(c.Context)
	}
	sb.WriteString("\n\nCâu hỏi của sinh viên: ")
	sb.WriteString(c.Message)
	return sb.String()
}

type strategy struct {
	name string
	run  func(ctx context.Context, c Composition) (string, error)
}

type Composer struct {
	gen        ai.Generator
	timeout    time.Duration
	backoff    time.Duration
	strategies []strategy
	logger     *slog.Logger
}

func NewComposer(gen ai.Generator, timeout, backoff time.Duration) *Composer {
	c := &Composer{
		gen:     gen,
		timeout: timeout,
		backoff: backoff,
		logger:  slog.Default().With("component", "assistant.composer"),
	}
	c.strategies = []strategy{
		{name: "conversation", run: c.viaConversation},
		{name: "completion", run: c.viaCompletion},
		{name: "raw_context", run: rawSearchContext},
	}
	return c
}

// Compose tries each strategy in order and returns the first reply. The error
// joins every failure when all of them fail.
func (c *Composer) Compose(ctx context.Context, comp Composition) (string, error) {
	var errs []error
	for _, s := range c.strategies {
		reply, err := s.run(ctx, comp)
		if err == nil {
			if len(errs) > 0 {
				c.logger.Info("reply composed after fallback", "strategy", s.name, "intent", comp.Intent)
			}
			return reply, nil
		}
		if !errors.Is(err, errNotApplicable) {
			c.logger.Warn("compose strategy failed", "strategy", s.name, "intent", comp.Intent, "error", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}
	return "", errors.Join(errs...)
}

// viaConversation seeds a model conversation with the history and sends the
// prompt, retrying once after a fixed backoff.
func (c *Composer) viaConversation(ctx context.Context, comp Composition) (string, error) {
	const attempts = 2
	prompt := comp.prompt()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff); err != nil {
				return "", err
			}
		}
		conv := c.gen.StartConversation(comp.History.ChatMessages())
		reply, err := c.call(ctx, func(callCtx context.Context) (string, error) {
			return conv.Send(callCtx, prompt)
		})
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (c *Composer) viaCompletion(ctx context.Context, comp Composition) (string, error) {
	return c.call(ctx, func(callCtx context.Context) (string, error) {
		return c.gen.Complete(callCtx, comp.prompt())
	})
}

// rawSearchContext hands a search result list back unchanged so the user
// still sees the documents.
func rawSearchContext(_ context.Context, comp Composition) (string, error) {
	if comp.Intent != IntentSearch || strings.TrimSpace(comp.Context) == "" {
		return "", errNotApplicable
	}
	return comp.Context, nil
}

func (c *Composer) call(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	reply, err := fn(callCtx)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ai.ErrEmptyResponse
	}
	return reply, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
