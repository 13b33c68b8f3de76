package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_IsValid(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, reg.Validate())

	ids := make([]string, 0, len(reg.Categories))
	for _, c := range reg.Categories {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"reputation", "social_content", "search_visibility"}, ids)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		reg     CategoryRegistry
		wantErr string
	}{
		{"empty", CategoryRegistry{}, "no categories"},
		{"missing table", CategoryRegistry{Categories: []Category{{ID: "a", Keywords: []string{"x"}}}}, "required"},
		{"bad table", CategoryRegistry{Categories: []Category{{ID: "a", Table: "x; drop", Keywords: []string{"x"}}}}, "invalid table"},
		{"no keywords", CategoryRegistry{Categories: []Category{{ID: "a", Table: "t"}}}, "no keywords"},
		{
			"shared keyword",
			CategoryRegistry{Categories: []Category{
				{ID: "a", Table: "t1", Keywords: []string{"x"}},
				{ID: "b", Table: "t2", Keywords: []string{"x"}},
			}},
			"both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.json")
	reg := DefaultRegistry()
	require.NoError(t, reg.AddKeyword("reputation", "  Reviews "))
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	c, ok := loaded.Find("reputation")
	require.True(t, ok)
	assert.Contains(t, c.Keywords, "reviews")
	assert.NotEmpty(t, loaded.LastUpdated)
}

func TestAddKeyword_Errors(t *testing.T) {
	reg := DefaultRegistry()
	assert.Error(t, reg.AddKeyword("unknown", "x"))
	assert.Error(t, reg.AddKeyword("reputation", "  "))
	assert.Error(t, reg.AddKeyword("reputation", "seo"))

	c, _ := reg.Find("reputation")
	assert.NotContains(t, c.Keywords, "seo")
}

func TestLoadRegistry_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"categories":`), 0o600))
	_, err := LoadRegistry(path)
	assert.Error(t, err)
}
