// internal/workers/ai-conversation/query-marketing-data/models.go
package querymarketingdata

import "morvo-assistant/internal/models"

type Input struct {
	Category    models.Category `json:"category"`
	Table       string          `json:"table"`
	DisplayName string          `json:"displayName"`
}

type Output struct {
	Result *models.LookupResult `json:"result"`
	Source string               `json:"source"` // cache, postgres, elasticsearch
}

// row keeps column order so the fallback formatter is deterministic.
type row struct {
	columns []string
	values  map[string]interface{}
}
