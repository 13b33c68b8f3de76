// internal/workers/ai-conversation/generate-reply/config.go
package generatereply

import "time"

type Config struct {
	GenAIBaseURL string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxTokens    int
	Temperature  float64
}

func LoadConfig() *Config {
	return &Config{
		GenAIBaseURL: "https://api.openai.com/v1",
		Model:        "gpt-4o",
		Timeout:      30 * time.Second,
		MaxTokens:    700,
		Temperature:  0.3,
	}
}
