package app

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"unidoc-hub/internal/assistant"
	"unidoc-hub/internal/model"
	"unidoc-hub/internal/repository"
)

const (
	maxChatMessageLength = 2000
	conversationTitleMax = 64

	// Redis always holds this many newest messages; callers trim on read.
	cachedHistoryWindow = 200
)

// Assistant answers a single chat turn.
type Assistant interface {
	Chat(ctx context.Context, req assistant.Request) assistant.Reply
}

type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID uint) ([]model.ConversationMessage, bool, error)
	SetHistory(ctx context.Context, conversationID uint, messages []model.ConversationMessage) error
	DeleteHistory(ctx context.Context, conversationID uint) error
	Invalidate(ctx context.Context, conversationID uint) error
	IsDirty(ctx context.Context, conversationID uint) (bool, error)
}

type ConversationService struct {
	conversationRepo *repository.ConversationRepository
	assistant        Assistant
	publisher        Publisher
	historyCache     HistoryCache
	maxHistory       int
	log              *slog.Logger
}

type ChatInput struct {
	UserID         uint
	Message        string
	History        []assistant.HistoryItem
	ConversationID uint
}

type ChatResult struct {
	assistant.Reply
	ConversationID uint `json:"conversationId,omitempty"`
}

func NewConversationService(
	conversationRepo *repository.ConversationRepository,
	asst Assistant,
	publisher Publisher,
	historyCache HistoryCache,
	maxHistory int,
) *ConversationService {
	if maxHistory <= 0 {
		maxHistory = assistant.DefaultMaxHistory
	}
	return &ConversationService{
		conversationRepo: conversationRepo,
		assistant:        asst,
		publisher:        publisher,
		historyCache:     historyCache,
		maxHistory:       maxHistory,
		log:              slog.Default().With("component", "conversation_service"),
	}
}

func (s *ConversationService) Create(ctx context.Context, userID uint, title string) (*model.Conversation, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Cuộc trò chuyện mới"
	}
	if utf8.RuneCountInString(title) > conversationTitleMax {
		title = string([]rune(title)[:conversationTitleMax])
	}
	conv := &model.Conversation{UserID: userID, Title: title}
	if err := s.conversationRepo.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationService) List(ctx context.Context, userID uint) ([]model.Conversation, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.conversationRepo.ListByUserID(ctx, userID)
}

func (s *ConversationService) Delete(ctx context.Context, userID, conversationID uint) error {
	if _, err := s.owned(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.conversationRepo.DeleteByIDAndUserID(ctx, conversationID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		if err := s.historyCache.DeleteHistory(ctx, conversationID); err != nil {
			s.log.Warn("drop cached history failed", "conversation_id", conversationID, "error", err)
		}
	}
	return nil
}

// Messages returns up to limit of the newest messages, oldest first. The
// Redis copy is used unless a write is still in flight.
func (s *ConversationService) Messages(ctx context.Context, userID, conversationID uint, limit int) ([]model.ConversationMessage, error) {
	if _, err := s.owned(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.history(ctx, conversationID, limit)
}

// Chat runs one assistant turn. With a conversation id the stored history is
// used and both turns are queued for persistence; otherwise the history
// supplied by the client is replayed as is.
func (s *ConversationService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrMessageEmpty
	}
	if utf8.RuneCountInString(message) > maxChatMessageLength {
		return nil, ErrInvalidInput
	}

	if input.ConversationID == 0 {
		reply := s.assistant.Chat(ctx, assistant.Request{
			UserID:  input.UserID,
			Message: message,
			History: input.History,
		})
		return &ChatResult{Reply: reply}, nil
	}

	if _, err := s.owned(ctx, input.UserID, input.ConversationID); err != nil {
		return nil, err
	}
	stored, err := s.history(ctx, input.ConversationID, s.maxHistory)
	if err != nil {
		return nil, err
	}

	if s.publisher == nil {
		return nil, ErrMessageEnqueue
	}
	if s.historyCache != nil {
		if err := s.historyCache.Invalidate(ctx, input.ConversationID); err != nil {
			s.log.Warn("invalidate cached history failed", "conversation_id", input.ConversationID, "error", err)
		}
	}
	studentMsg := model.ConversationMessage{
		ConversationID: input.ConversationID,
		UserID:         input.UserID,
		Role:           string(assistant.RoleStudent),
		Content:        message,
		CreatedAt:      time.Now(),
	}
	if err := s.publisher.Publish(ctx, studentMsg); err != nil {
		s.log.Error("enqueue student message failed", "conversation_id", input.ConversationID, "error", err)
		return nil, ErrMessageEnqueue
	}

	reply := s.assistant.Chat(ctx, assistant.Request{
		UserID:  input.UserID,
		Message: message,
		History: toHistoryItems(stored),
	})

	adminMsg := model.ConversationMessage{
		ConversationID: input.ConversationID,
		UserID:         input.UserID,
		Role:           string(assistant.RoleAdmin),
		Content:        reply.Reply,
		Intent:         string(reply.Intent),
		CreatedAt:      reply.Timestamp,
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), adminMsg); err != nil {
		s.log.Error("enqueue assistant reply failed", "conversation_id", input.ConversationID, "error", err)
	}

	return &ChatResult{Reply: reply, ConversationID: input.ConversationID}, nil
}

func (s *ConversationService) owned(ctx context.Context, userID, conversationID uint) (*model.Conversation, error) {
	if userID == 0 || conversationID == 0 {
		return nil, ErrInvalidInput
	}
	conv, err := s.conversationRepo.GetByIDAndUserID(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *ConversationService) history(ctx context.Context, conversationID uint, limit int) ([]model.ConversationMessage, error) {
	if limit <= 0 || limit > cachedHistoryWindow {
		limit = cachedHistoryWindow
	}
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, conversationID)
		if err == nil && !dirty {
			cached, hit, cacheErr := s.historyCache.GetHistory(ctx, conversationID)
			if cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.conversationRepo.ListRecentMessages(ctx, conversationID, cachedHistoryWindow)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, conversationID); dirtyErr == nil && !dirty {
			if err := s.historyCache.SetHistory(ctx, conversationID, messages); err != nil {
				s.log.Warn("cache history failed", "conversation_id", conversationID, "error", err)
			}
		}
	}
	return trimMessages(messages, limit), nil
}

func toHistoryItems(messages []model.ConversationMessage) []assistant.HistoryItem {
	items := make([]assistant.HistoryItem, 0, len(messages))
	for _, m := range messages {
		items = append(items, assistant.HistoryItem{Role: assistant.Role(m.Role), Content: m.Content})
	}
	return items
}

func trimMessages(messages []model.ConversationMessage, limit int) []model.ConversationMessage {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
