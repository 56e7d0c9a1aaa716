package ai

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrEmptyResponse = errors.New("empty llm response")

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator is a generative-text backend.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	StartConversation(history []ChatMessage) Conversation
}

// Conversation remembers the turns exchanged through it.
type Conversation interface {
	Send(ctx context.Context, message string) (string, error)
}
