package assistant

import (
	"strings"

	"unidoc-hub/internal/ai"
)

// Role tags a history entry. STUDENT is the person asking, ADMIN the assistant side.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

const DefaultMaxHistory = 10

type HistoryItem struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is an immutable, already-trimmed conversation. It never holds more
// entries than the limit it was built with.
type History struct {
	items []HistoryItem
}

// NewHistory keeps the max most recent non-blank entries in their original order.
func NewHistory(items []HistoryItem, max int) History {
	if max <= 0 {
		max = DefaultMaxHistory
	}
	kept := make([]HistoryItem, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Content) == "" {
			continue
		}
		if it.Role != RoleAdmin {
			it.Role = RoleStudent
		}
		kept = append(kept, it)
	}
	if len(kept) > max {
		kept = kept[len(kept)-max:]
	}
	return History{items: kept}
}

func (h History) Len() int {
	return len(h.items)
}

func (h History) Items() []HistoryItem {
	out := make([]HistoryItem, len(h.items))
	copy(out, h.items)
	return out
}

// Recent returns the last n entries as a new History.
func (h History) Recent(n int) History {
	if n <= 0 {
		return History{}
	}
	if n >= len(h.items) {
		return h
	}
	return History{items: h.items[len(h.items)-n:]}
}

// LastStudentMessage returns the newest STUDENT entry, or "".
func (h History) LastStudentMessage() string {
	for i := len(h.items) - 1; i >= 0; i-- {
		if h.items[i].Role == RoleStudent {
			return h.items[i].Content
		}
	}
	return ""
}

func (h History) ChatMessages() []ai.ChatMessage {
	out := make([]ai.ChatMessage, 0, len(h.items))
	for _, it := range h.items {
		role := ai.RoleUser
		if it.Role == RoleAdmin {
			role = ai.RoleAssistant
		}
		out = append(out, ai.ChatMessage{Role: role, Content: it.Content})
	}
	return out
}

func (h History) transcript() string {
	if len(h.items) == 0 {
		return "(không có)"
	}
	var sb strings.Builder
	for _, it := range h.items {
		label := "Sinh viên"
		if it.Role == RoleAdmin {
			label = "Trợ lý"
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(it.Content)
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
