// internal/workers/ai-conversation/classify-message/models.go
package classifymessage

import "morvo-assistant/internal/models"

type Input struct {
	Message string `json:"message"`
}

type Output struct {
	Category       models.Category `json:"category"`
	Table          string          `json:"table,omitempty"`
	DisplayName    string          `json:"displayName,omitempty"`
	MatchedKeyword string          `json:"matchedKeyword,omitempty"`
	IsQuestion     bool            `json:"isQuestion"`
}
