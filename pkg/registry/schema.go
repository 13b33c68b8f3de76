// pkg/registry/schema.go
package registry

// CategoryRegistry maps message categories to lookup tables and trigger keywords.
type CategoryRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Categories  []Category `json:"categories"`
}

// Category is one classification bucket. Order in the registry is the
// classification precedence.
type Category struct {
	ID          string   `json:"id"`
	Table       string   `json:"table"`
	DisplayName string   `json:"displayName"`
	Keywords    []string `json:"keywords"`
}
