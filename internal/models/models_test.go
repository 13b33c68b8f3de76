package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalUserID(t *testing.T) {
	t.Run("uuid passes through normalised", func(t *testing.T) {
		raw := "3F2504E0-4F89-11D3-9A0C-0305E82C3301"
		assert.Equal(t, "3f2504e0-4f89-11d3-9a0c-0305e82c3301", CanonicalUserID(raw))
	})

	t.Run("free-form id maps to uuid v5", func(t *testing.T) {
		got := CanonicalUserID("whatsapp:+966500000000")
		parsed, err := uuid.Parse(got)
		assert.NoError(t, err)
		assert.Equal(t, uuid.Version(5), parsed.Version())
		assert.Equal(t, got, CanonicalUserID(" whatsapp:+966500000000 "))
	})

	t.Run("different ids map apart", func(t *testing.T) {
		assert.NotEqual(t, CanonicalUserID("a"), CanonicalUserID("b"))
	})
}

func TestWebsiteStatus_HasWebsite(t *testing.T) {
	assert.True(t, WebsiteActive.HasWebsite())
	assert.True(t, WebsiteNeedsWork.HasWebsite())
	assert.True(t, WebsiteUnderConstruction.HasWebsite())
	assert.False(t, WebsiteNone.HasWebsite())
	assert.False(t, WebsiteStatus("").HasWebsite())
}

func TestProfile_CloneIsDeep(t *testing.T) {
	p := &Profile{UserID: "u1", Goals: []string{"a", "b"}}
	cp := p.Clone()
	cp.Goals[0] = "changed"

	assert.Equal(t, "a", p.Goals[0])
	assert.Nil(t, (*Profile)(nil).Clone())
	assert.False(t, (*Profile)(nil).IsComplete())
}

func TestPrompt_Text(t *testing.T) {
	p := &Prompt{
		Message: "كم حجم الشركة؟",
		Notice:  "اختر من القائمة.",
		Options: []Option{{ID: "solo", Label: "solo"}, {ID: "2_10", Label: "2-10"}},
	}
	assert.Equal(t, "اختر من القائمة.\nكم حجم الشركة؟\n1. solo\n2. 2-10", p.Text())
}

func TestIntakeResult_Text(t *testing.T) {
	done := &IntakeResult{Completion: &Completion{Message: "done"}}
	assert.Equal(t, "done", done.Text())

	next := &IntakeResult{Prompt: &Prompt{Message: "next"}}
	assert.Equal(t, "next", next.Text())
}
