// internal/workers/ai-conversation/query-marketing-data/config.go
package querymarketingdata

import "time"

type Config struct {
	Timeout    time.Duration
	CacheTTL   time.Duration
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    2 * time.Second,
		CacheTTL:   5 * time.Minute,
		MaxResults: 5,
	}
}
