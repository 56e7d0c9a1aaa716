package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"unidoc-hub/internal/ai"
)

const analysisPromptTemplate = `Bạn là bộ phân loại yêu cầu cho trợ lý tài liệu của trường đại học.
Hãy phân tích tin nhắn mới nhất của sinh viên và CHỈ trả về một đối tượng JSON, không kèm giải thích:
{
  "intent": "SEARCH" | "RECOMMEND" | "SUMMARIZE" | "DOCUMENT_QUESTION" | "GENERAL",
  "keywords": ["từ khóa tìm kiếm, không dấu, chữ thường"],
  "documentId": "uuid của tài liệu nếu có, ngược lại null",
  "listPosition": số thứ tự (bắt đầu từ 1) nếu sinh viên nhắc tới "tài liệu thứ N" trong danh sách trước đó, ngược lại null,
  "needsContext": true nếu cần tra cứu kho tài liệu để trả lời
}

Ý nghĩa intent:
- SEARCH: tìm tài liệu theo chủ đề, môn học, khoa.
- RECOMMEND: xin gợi ý tài liệu phù hợp với sinh viên.
- SUMMARIZE: tóm tắt một tài liệu cụ thể.
- DOCUMENT_QUESTION: hỏi về nội dung của một tài liệu cụ thể.
- GENERAL: chào hỏi hoặc câu hỏi không liên quan tới kho tài liệu.

Lịch sử gần đây:
%s

Tin nhắn: %s`

type Analyzer struct {
	gen     ai.Generator
	timeout time.Duration
	logger  *slog.Logger
}

func NewAnalyzer(gen ai.Generator, timeout time.Duration) *Analyzer {
	return &Analyzer{
		gen:     gen,
		timeout: timeout,
		logger:  slog.Default().With("component", "assistant.analyzer"),
	}
}

// Analyze classifies message. It falls back to the local heuristic when the
// model call fails or its answer cannot be decoded.
func (a *Analyzer) Analyze(ctx context.Context, message string, history History) Analysis {
	prompt := fmt.Sprintf(analysisPromptTemplate, history.transcript(), message)

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.gen.Complete(callCtx, prompt)
	if err != nil {
		a.logger.Warn("analysis call failed, using heuristic", "error", err)
		return classifyHeuristically(message)
	}
	return ParseAnalysisResult(raw, message)
}

// ParseAnalysisResult decodes the model's answer for message, falling back to
// the heuristic classifier when no usable JSON object is found.
func ParseAnalysisResult(raw, message string) Analysis {
	parsed, ok := decodeAnalysis(raw)
	if !ok {
		return classifyHeuristically(message)
	}
	if parsed.DocumentID == "" {
		parsed.DocumentID = strings.ToLower(uuidPattern.FindString(message))
	}
	return normalizeAnalysis(parsed)
}

// modelAnalysis mirrors the JSON the model is asked for. Pointers tell an
// explicit null apart from a missing field.
type modelAnalysis struct {
	Intent       string          `json:"intent"`
	Keywords     []string        `json:"keywords"`
	DocumentID   *string         `json:"documentId"`
	ListPosition json.RawMessage `json:"listPosition"`
	NeedsContext *bool           `json:"needsContext"`
}

// decodeAnalysis reports false when raw holds no JSON object or the object
// names an unknown intent.
func decodeAnalysis(raw string) (Analysis, bool) {
	obj, ok := firstJSONObject(raw)
	if !ok {
		return Analysis{}, false
	}
	var m modelAnalysis
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return Analysis{}, false
	}
	intent := Intent(strings.ToUpper(strings.TrimSpace(m.Intent)))
	if !intent.Valid() {
		return Analysis{}, false
	}

	out := Analysis{Intent: intent, Keywords: m.Keywords}
	if m.DocumentID != nil {
		if id, err := uuid.Parse(strings.TrimSpace(*m.DocumentID)); err == nil {
			out.DocumentID = id.String()
		}
	}
	out.ListPosition = decodePosition(m.ListPosition)
	if m.NeedsContext != nil {
		out.NeedsContext = *m.NeedsContext
	}
	return out, true
}

// decodePosition accepts 2, 2.0 and "2". Anything else is no position.
func decodePosition(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &n); err != nil {
			return 0
		}
	}
	if n < 1 || n != float64(int(n)) {
		return 0
	}
	return int(n)
}

// firstJSONObject returns the first balanced {...} in s, skipping braces
// inside string literals.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// normalizeAnalysis fills defaults so that no field needs a nil check.
func normalizeAnalysis(a Analysis) Analysis {
	if !a.Intent.Valid() {
		a.Intent = IntentGeneral
	}
	keywords := make([]string, 0, len(a.Keywords))
	seen := make(map[string]struct{}, len(a.Keywords))
	for _, kw := range a.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	a.Keywords = keywords
	if a.ListPosition < 0 {
		a.ListPosition = 0
	}
	if a.Intent.needsCatalog() {
		a.NeedsContext = true
	}
	return a
}
