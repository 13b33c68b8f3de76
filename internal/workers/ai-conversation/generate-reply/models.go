// internal/workers/ai-conversation/generate-reply/models.go
package generatereply

import "morvo-assistant/internal/models"

type Input struct {
	Message string                    `json:"message"`
	History []models.ConversationTurn `json:"history,omitempty"`
	Profile *models.Profile           `json:"profile,omitempty"`
	// SystemPrompt overrides the built-in assistant instruction when set.
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

type Output struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	FinishReason string `json:"finishReason,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}
