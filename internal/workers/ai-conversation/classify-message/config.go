// internal/workers/ai-conversation/classify-message/config.go
package classifymessage

import "morvo-assistant/pkg/registry"

type Config struct {
	Registry *registry.CategoryRegistry
}

func LoadConfig() *Config {
	return &Config{
		Registry: registry.DefaultRegistry(),
	}
}

// LoadConfigFromFile reads the keyword registry at path, falling back to the
// built-in table when path is empty.
func LoadConfigFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadConfig(), nil
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	return &Config{Registry: reg}, nil
}
