package intake

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Name
// ==========================

func TestCleanName(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"arabic name", "  سارة ", "سارة", true},
		{"latin name is title-cased", "laila ahmed", "Laila Ahmed", true},
		{"hyphen and apostrophe", "anne-marie", "Anne-Marie", true},
		{"deny-listed arabic filler", "نعم", "", false},
		{"deny-listed latin filler any case", "OK", "", false},
		{"greeting phrase", "thank you", "", false},
		{"too short", "a", "", false},
		{"digits", "sara2", "", false},
		{"mixed scripts", "sara سارة", "", false},
		{"empty", "   ", "", false},
		{"too long", "abcdefghijabcdefghijabcdefghijabcdefghijk", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cleanName(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCleanName_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				got, ok := cleanName("laila ahmed")
				assert.True(t, ok)
				assert.Equal(t, "Laila Ahmed", got)
			}
		}()
	}
	wg.Wait()
}

// ==========================
// Goals
// ==========================

func TestParseGoals(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   []string
		wantOK bool
	}{
		{"ascii commas with padding", "a, b ,c", []string{"a", "b", "c"}, true},
		{"only separators", ",,,", nil, false},
		{"blank", "   ", nil, false},
		{"arabic comma and semicolons", "زيادة الوعي، تحسين التحويلات؛ SEO; leads", []string{"زيادة الوعي", "تحسين التحويلات", "SEO", "leads"}, true},
		{"ideographic comma", "x、y", []string{"x", "y"}, true},
		{"truncated to five", "1,2,3,4,5,6,7", []string{"1", "2", "3", "4", "5"}, true},
		{"single goal", "more sales", []string{"more sales"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseGoals(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// Choices
// ==========================

func TestMatchOption(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID string
		wantOK bool
	}{
		{"option id", "business_owner", "business_owner", true},
		{"option id any case", "  Business_Owner ", "business_owner", true},
		{"label", "رائد/ة أعمال", "entrepreneur", true},
		{"ordinal", "1", "marketing_manager", true},
		{"arabic-indic ordinal", "٦", "other", true},
		{"ordinal with dot", "3.", "business_owner", true},
		{"out of range ordinal", "7", "", false},
		{"zero", "0", "", false},
		{"free text", "I run a bakery", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchOption(roleOptions, tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestMatchOption_LabelWithoutEmoji(t *testing.T) {
	opt, ok := matchOption(websiteStatusOptions, "لا")
	assert.True(t, ok)
	assert.Equal(t, "none", opt.ID)

	opt, ok = matchOption(websiteStatusOptions, "❌ لا")
	assert.True(t, ok)
	assert.Equal(t, "none", opt.ID)

	opt, ok = matchOption(companySizeOptions, "2")
	assert.True(t, ok)
	assert.Equal(t, "2_10", opt.ID)
}

// ==========================
// Industry and URL
// ==========================

func TestCleanIndustry(t *testing.T) {
	got, ok := cleanIndustry("  مطاعم  ")
	assert.True(t, ok)
	assert.Equal(t, "مطاعم", got)

	_, ok = cleanIndustry("ab")
	assert.False(t, ok)

	long := make([]rune, 101)
	for i := range long {
		long[i] = 'ت'
	}
	_, ok = cleanIndustry(string(long))
	assert.False(t, ok)
}

func TestCleanURL(t *testing.T) {
	valid := []string{"https://example.com", "HTTP://shop.example.sa/path?q=1", " https://x.io "}
	for _, u := range valid {
		_, ok := cleanURL(u)
		assert.True(t, ok, u)
	}

	invalid := []string{"example.com", "ftp://example.com", "https://", "https:// example.com", ""}
	for _, u := range invalid {
		_, ok := cleanURL(u)
		assert.False(t, ok, u)
	}
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkMatchOption(b *testing.B) {
	for i := 0; i < b.N; i++ {
		matchOption(budgetOptions, "حسب المشروع")
	}
}
