package models

import "time"

// WebsiteStatus records whether the user's business has a website.
type WebsiteStatus string

const (
	WebsiteActive            WebsiteStatus = "active"
	WebsiteNeedsWork         WebsiteStatus = "needs_work"
	WebsiteUnderConstruction WebsiteStatus = "under_construction"
	WebsiteNone              WebsiteStatus = "none"
)

// HasWebsite reports whether a URL is expected for this status.
func (s WebsiteStatus) HasWebsite() bool {
	return s != "" && s != WebsiteNone
}

// MaxGoals bounds the number of goals kept on a profile.
const MaxGoals = 5

// Profile is the onboarding record built by the intake engine.
type Profile struct {
	UserID        string        `json:"userId" db:"user_id"`
	Name          string        `json:"name,omitempty" db:"name"`
	Role          string        `json:"role,omitempty" db:"role"`
	Industry      string        `json:"industry,omitempty" db:"industry"`
	CompanySize   string        `json:"companySize,omitempty" db:"company_size"`
	WebsiteStatus WebsiteStatus `json:"websiteStatus,omitempty" db:"website_status"`
	WebsiteURL    string        `json:"websiteUrl,omitempty" db:"website_url"`
	Goals         []string      `json:"goals,omitempty" db:"goals"`
	BudgetRange   string        `json:"budgetRange,omitempty" db:"budget_range"`
	Complete      bool          `json:"complete" db:"complete"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" db:"updated_at"`
}

// IsComplete is nil-safe.
func (p *Profile) IsComplete() bool {
	return p != nil && p.Complete
}

// Clone returns a deep copy so callers can mutate a working profile without
// touching the stored one.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Goals != nil {
		cp.Goals = append([]string(nil), p.Goals...)
	}
	return &cp
}
