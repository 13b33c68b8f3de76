// internal/workers/ai-conversation/generate-reply/handler_test.go
package generatereply

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"morvo-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return &TestLogger{t: l.t, fields: l.mergeFields(fields)}
}

func (l *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	all := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return all
}

// BenchmarkLogger is a minimal logger for benchmarks
type BenchmarkLogger struct{}

func (b *BenchmarkLogger) Info(msg string, fields map[string]interface{})  {}
func (b *BenchmarkLogger) Warn(msg string, fields map[string]interface{})  {}
func (b *BenchmarkLogger) Error(msg string, fields map[string]interface{}) {}
func (b *BenchmarkLogger) With(fields map[string]interface{}) Logger       { return b }

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(baseURL string) *Config {
	return &Config{
		GenAIBaseURL: baseURL,
		APIKey:       "sk-test",
		Model:        "gpt-4o",
		Timeout:      2 * time.Second,
		MaxTokens:    700,
		Temperature:  0.3,
	}
}

func completionBody(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"model": "gpt-4o",
		"choices": []interface{}{
			map[string]interface{}{
				"message":       map[string]string{"role": "assistant", "content": text},
				"finish_reason": "stop",
			},
		},
	})
	return string(body)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	var captured chatRequest
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(completionBody("  ركّز على المحتوى القصير 💡  ")))
	}))
	defer srv.Close()

	handler := NewHandler(createTestConfig(srv.URL), NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{
		Message: "كيف أزيد التفاعل؟",
		History: []models.ConversationTurn{
			{Role: models.TurnRoleUser, Text: "مرحبا"},
			{Role: models.TurnRoleAssistant, Text: "أهلاً!"},
		},
		Profile: &models.Profile{Role: "marketing_manager", Industry: "مطاعم"},
	})

	require.NoError(t, err)
	assert.Equal(t, "ركّز على المحتوى القصير 💡", output.Text)
	assert.Equal(t, "stop", output.FinishReason)
	assert.Equal(t, 1, calls)

	assert.Equal(t, "gpt-4o", captured.Model)
	assert.Equal(t, 700, captured.MaxTokens)
	assert.InDelta(t, 0.3, captured.Temperature, 0.0001)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.True(t, strings.HasPrefix(captured.Messages[0].Content, "You are MORVO"))
	assert.Contains(t, captured.Messages[0].Content, "\nUser profile → role: marketing_manager; industry: مطاعم")
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, chatMessage{Role: "user", Content: "كيف أزيد التفاعل؟"}, captured.Messages[3])
}

func TestHandler_Execute_ErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		retryAfter string
		sentinel   error
		kind       Kind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, "", ErrGenerationAuth, KindAuth},
		{"forbidden", http.StatusForbidden, `{}`, "", ErrGenerationAuth, KindAuth},
		{"rate limited", http.StatusTooManyRequests, `{}`, "12", ErrGenerationRateLimited, KindRateLimit},
		{"gateway timeout", http.StatusGatewayTimeout, `{}`, "", ErrGenerationTimeout, KindTimeout},
		{"server error", http.StatusInternalServerError, `{}`, "", ErrGenerationFailed, KindUnknown},
		{"empty completion", http.StatusOK, completionBody("   "), "", ErrGenerationFailed, KindUnknown},
		{"no choices", http.StatusOK, `{"choices":[]}`, "", ErrGenerationFailed, KindUnknown},
		{"malformed body", http.StatusOK, `{"choices":`, "", ErrGenerationFailed, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			handler := NewHandler(createTestConfig(srv.URL), NewTestLogger(t))
			_, err := handler.Execute(context.Background(), &Input{Message: "hello"})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, 1, calls, "generation must not be retried")
		})
	}
}

func TestHandler_Execute_RetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	handler := NewHandler(createTestConfig(srv.URL), NewTestLogger(t))
	_, err := handler.Execute(context.Background(), &Input{Message: "hello"})

	assert.Equal(t, 12*time.Second, RetryAfterOf(err))
}

func TestHandler_Execute_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	config := createTestConfig(srv.URL)
	config.Timeout = 30 * time.Millisecond
	handler := NewHandler(config, NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{Message: "hello"})
	assert.ErrorIs(t, err, ErrGenerationTimeout)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestHandler_Execute_EmptyMessage(t *testing.T) {
	handler := NewHandler(createTestConfig("http://127.0.0.1:0"), NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{Message: "  "})
	assert.ErrorIs(t, err, ErrGenerationFailed)

	_, err = handler.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("other")))
	assert.Equal(t, KindAuth, KindOf(&Error{Sentinel: ErrGenerationAuth}))
}

// ==========================
// Prompt Building
// ==========================

func TestProfileSuffix(t *testing.T) {
	tests := []struct {
		name     string
		profile  *models.Profile
		expected string
	}{
		{"nil", nil, ""},
		{"empty", &models.Profile{Name: "Laila"}, ""},
		{
			"full",
			&models.Profile{
				Role:          "business_owner",
				Industry:      "تجارة إلكترونية",
				CompanySize:   "2_10",
				WebsiteStatus: models.WebsiteActive,
				WebsiteURL:    "https://example.com",
				Goals:         []string{"a", "b", "c", "d", "e", "f"},
				BudgetRange:   "5k_15k",
			},
			"\nUser profile → role: business_owner; industry: تجارة إلكترونية; company_size: 2_10; " +
				"website: active; url: https://example.com; goals: a, b, c, d, e; budget: 5k_15k",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ProfileSuffix(tt.profile))
		})
	}
}

func TestBuildMessages_CustomSystemPromptAndBlankHistory(t *testing.T) {
	handler := NewHandler(createTestConfig("http://unused"), NewTestLogger(t))
	msgs := handler.buildMessages(&Input{
		Message:      "hi",
		SystemPrompt: "custom",
		History:      []models.ConversationTurn{{Role: models.TurnRoleUser, Text: "  "}},
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, "custom", msgs[0].Content)
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkBuildMessages(b *testing.B) {
	handler := NewHandler(createTestConfig("http://unused"), &BenchmarkLogger{})
	history := make([]models.ConversationTurn, 10)
	for i := range history {
		history[i] = models.ConversationTurn{Role: models.TurnRoleUser, Text: "message"}
	}
	input := &Input{Message: "hello", History: history, Profile: &models.Profile{Role: "other"}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.buildMessages(input)
	}
}
