package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"unidoc-hub/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		return fmt.Errorf("create conversation failed: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListByUserID(ctx context.Context, userID uint) ([]model.Conversation, error) {
	var list []model.Conversation
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	return list, nil
}

func (r *ConversationRepository) GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation failed: %w", err)
	}
	return &conv, nil
}

// DeleteByIDAndUserID removes the conversation together with its messages.
func (r *ConversationRepository) DeleteByIDAndUserID(ctx context.Context, id, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&model.ConversationMessage{}).Error; err != nil {
			return fmt.Errorf("delete conversation messages failed: %w", err)
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Conversation{}).Error; err != nil {
			return fmt.Errorf("delete conversation failed: %w", err)
		}
		return nil
	})
}

func (r *ConversationRepository) Touch(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Conversation{}).Where("id = ?", id).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
		return fmt.Errorf("touch conversation failed: %w", err)
	}
	return nil
}

func (r *ConversationRepository) CreateMessage(ctx context.Context, msg *model.ConversationMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("create conversation message failed: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uint, limit int) ([]model.ConversationMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var messages []model.ConversationMessage
	if err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at ASC").Order("id ASC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list conversation messages failed: %w", err)
	}
	return messages, nil
}

// ListRecentMessages returns the newest limit messages in chronological order.
func (r *ConversationRepository) ListRecentMessages(ctx context.Context, conversationID uint, limit int) ([]model.ConversationMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	var messages []model.ConversationMessage
	if err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list recent conversation messages failed: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
