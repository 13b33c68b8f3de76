// internal/workers/ai-conversation/classify-message/handler_test.go
package classifymessage

import (
	"context"
	"testing"

	"morvo-assistant/internal/models"
	"morvo-assistant/pkg/registry"

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
// Classification
// ==========================

func TestHandler_Classify(t *testing.T) {
	h := NewHandler(LoadConfig(), NewTestLogger(t))

	tests := []struct {
		name     string
		message  string
		expected models.Category
		table    string
	}{
		{"arabic reputation", "وش يقولون الناس عن البراند؟", models.CategoryReputation, "mentions"},
		{"english sentiment upper case", "Show me SENTIMENT for last week", models.CategoryReputation, "mentions"},
		{"social content", "أبي أفكار منشورات للانستقرام", models.CategorySocialContent, "posts"},
		{"engagement", "how is our engagement", models.CategorySocialContent, "posts"},
		{"seo", "كيف أحسن SEO موقعي", models.CategorySearchVisibility, "seo"},
		{"google ranking", "ranking on google", models.CategorySearchVisibility, "seo"},
		{"reputation beats social when both match", "mentions on posts", models.CategoryReputation, "mentions"},
		{"social beats search when both match", "post about seo", models.CategorySocialContent, "posts"},
		{"no match", "أبي خطة تسويق لرمضان", models.CategoryNone, ""},
		{"empty", "", models.CategoryNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := h.Classify(tt.message)
			assert.Equal(t, tt.expected, out.Category)
			assert.Equal(t, tt.table, out.Table)
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Message: "وش السمعة؟"})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryReputation, out.Category)
	assert.Equal(t, "السمعة والذكور", out.DisplayName)
	assert.True(t, out.IsQuestion)

	_, err = h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrClassificationFailed)
}

func TestHandler_Execute_CancelledContext(t *testing.T) {
	h := NewHandler(LoadConfig(), NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, &Input{Message: "seo"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandler_CustomRegistryOrder(t *testing.T) {
	reg := &registry.CategoryRegistry{Categories: []registry.Category{
		{ID: "search_visibility", Table: "seo", Keywords: []string{"SEO"}},
		{ID: "social_content", Table: "posts", Keywords: []string{"post"}},
	}}
	h := NewHandler(&Config{Registry: reg}, NewTestLogger(t))

	assert.Equal(t, models.CategorySearchVisibility, h.Classify("post about seo").Category)

	out := h.Classify("new post ideas")
	assert.Equal(t, models.CategorySocialContent, out.Category)
	assert.Equal(t, "posts", out.Table)

	assert.Equal(t, models.CategoryNone, h.Classify("brand mentions").Category)
}

// ==========================
// Question heuristic
// ==========================

func TestIsQuestion(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"وش أفضل وقت للنشر", true},
		{"كيف أزيد المتابعين", true},
		{"What is SEO", true},
		{"  should I post daily  ", true},
		{"أفضل وقت للنشر؟", true},
		{"best time to post?", true},
		{"مازن", false},      // starts with ما but is a name
		{"كمال", false},      // starts with كم
		{"whatever works", false},
		{"Laila", false},
		{"تجارة إلكترونية", false},
		{"", false},
		{"   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsQuestion(tt.text))
		})
	}
}

// ==========================
// Config
// ==========================

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfigFromFile("")
	require.NoError(t, err)
	assert.Len(t, cfg.Registry.Categories, 3)

	_, err = LoadConfigFromFile("/nonexistent/keywords.json")
	assert.Error(t, err)
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkClassify(b *testing.B) {
	h := NewHandler(LoadConfig(), &BenchmarkLogger{})
	msg := "أبي أعرف كيف أطور ترتيب موقعي في نتائج البحث"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Classify(msg)
	}
}

func BenchmarkIsQuestion(b *testing.B) {
	for i := 0; i < b.N; i++ {
		IsQuestion("وش أفضل استراتيجية للسوشيال ميديا")
	}
}
