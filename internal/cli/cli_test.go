package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"morvo-assistant/internal/models"
	"morvo-assistant/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keywords.json")
	require.NoError(t, registry.DefaultRegistry().Save(path))
	return path
}

func writeConfig(t *testing.T, llmURL string) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`
store:
  driver: sqlite
database:
  sqlite:
    path: %s
apis:
  genai:
    base_url: %s
    api_key: sk-test
    timeout: 2000
logging:
  level: error
`, filepath.Join(dir, "morvo.db"), llmURL)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newLLM(t *testing.T, text string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "gpt-4o",
			"choices": []interface{}{
				map[string]interface{}{
					"message":       map[string]string{"role": "assistant", "content": text},
					"finish_reason": "stop",
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// ==========================
// Registry Commands
// ==========================

func TestRegistryValidate(t *testing.T) {
	path := writeRegistry(t)

	out, err := run(t, "", "registry", "validate", "--path", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Found 3 categories")
}

func TestRegistryValidate_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"categories":`), 0o644))

	_, err := run(t, "", "registry", "validate", "--path", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry validation failed")
}

func TestRegistryAddKeyword(t *testing.T) {
	path := writeRegistry(t)

	_, err := run(t, "", "registry", "add-keyword", "--path", path, "--category", "reputation", "--keyword", "Reviews")
	require.NoError(t, err)

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	c, ok := reg.Find("reputation")
	require.True(t, ok)
	assert.Contains(t, c.Keywords, "reviews")

	out, err := run(t, "", "registry", "list", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "reviews")
}

func TestRegistryAddKeyword_Conflict(t *testing.T) {
	path := writeRegistry(t)

	_, err := run(t, "", "registry", "add-keyword", "--path", path, "--category", "reputation", "--keyword", "seo")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already belongs")
}

// ==========================
// Conversation Commands
// ==========================

func TestChat_InteractiveEphemeral(t *testing.T) {
	cfgPath := writeConfig(t, newLLM(t, "unused"))

	out, err := run(t, "مرحبا\nسارة\nexit\nignored\n", "--config", cfgPath, "--ephemeral", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "1. مدير/ة تسويق")
	assert.NotContains(t, out, "ignored")
}

func TestChat_OneShotJSON(t *testing.T) {
	cfgPath := writeConfig(t, newLLM(t, "unused"))

	out, err := run(t, "", "--config", cfgPath, "--format", "json", "chat", "مرحبا")

	require.NoError(t, err)
	var reply models.Reply
	require.NoError(t, json.Unmarshal([]byte(out), &reply))
	assert.Equal(t, models.SourceIntake, reply.Decision.Source)
}

func TestIntakeAndProfile_PersistAcrossInvocations(t *testing.T) {
	cfgPath := writeConfig(t, newLLM(t, "unused"))
	answers := []string{"Omar", "3", "retail", "1", "4", "more sales", "1"}

	_, err := run(t, "", "--config", cfgPath, "--user", "omar", "intake", "begin")
	require.NoError(t, err)

	var out string
	for _, answer := range answers {
		out, err = run(t, "", "--config", cfgPath, "--user", "omar", "intake", "advance", answer)
		require.NoError(t, err, "answer %q", answer)
	}
	assert.Contains(t, out, "Omar")

	out, err = run(t, "", "--config", cfgPath, "--user", "omar", "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "complete=true")

	_, err = run(t, "", "--config", cfgPath, "--user", "omar", "reset")
	require.NoError(t, err)

	_, err = run(t, "", "--config", cfgPath, "--user", "omar", "profile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no profile")
}

func TestIntakeAdvance_WithoutSession(t *testing.T) {
	cfgPath := writeConfig(t, newLLM(t, "unused"))

	_, err := run(t, "", "--config", cfgPath, "--ephemeral", "intake", "advance", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTAKE_NO_ACTIVE_SESSION")
}
