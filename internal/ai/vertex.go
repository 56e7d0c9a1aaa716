package ai

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// VertexGenerator talks to Gemini through Vertex AI.
type VertexGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewVertexGenerator(ctx context.Context, projectID, region, modelName, credentialsFile string) (*VertexGenerator, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex project id and region are required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := genai.NewClient(ctx, projectID, region, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vertex client failed: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.3),
	}
	return &VertexGenerator{client: client, model: model}, nil
}

func (g *VertexGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vertex generate failed: %w", err)
	}
	return responseText(resp)
}

func (g *VertexGenerator) StartConversation(history []ChatMessage) Conversation {
	cs := g.model.StartChat()
	turns := toVertexHistory(history)
	conv := &vertexConversation{session: cs}
	// The next Send is a user turn, so a trailing user turn is folded into it.
	if n := len(turns); n > 0 && turns[n-1].Role == "user" {
		conv.pending = joinText(turns[n-1].Parts)
		turns = turns[:n-1]
	}
	cs.History = turns
	return conv
}

func (g *VertexGenerator) Close() error {
	return g.client.Close()
}

type vertexConversation struct {
	session *genai.ChatSession
	pending string
}

func (c *vertexConversation) Send(ctx context.Context, message string) (string, error) {
	if c.pending != "" {
		message = c.pending + "\n\n" + message
		c.pending = ""
	}
	resp, err := c.session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("vertex chat failed: %w", err)
	}
	return responseText(resp)
}

// toVertexHistory maps assistant turns to the "model" role and drops system
// messages, which Gemini only accepts as SystemInstruction. Gemini also wants
// the history to open with a user turn and alternate roles, so leading model
// turns are dropped and consecutive turns of one role are merged.
func toVertexHistory(history []ChatMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := "user"
		switch m.Role {
		case RoleSystem:
			continue
		case RoleAssistant:
			role = "model"
		}
		if len(out) == 0 && role != "user" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = []genai.Part{genai.Text(joinText(out[n-1].Parts) + "\n\n" + m.Content)}
			continue
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return out
}

func joinText(parts []genai.Part) string {
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if t, ok := part.(genai.Text); ok {
			texts = append(texts, string(t))
		}
	}
	return strings.Join(texts, "\n\n")
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
