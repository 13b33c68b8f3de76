package models

import "time"

// StepID names one intake step.
type StepID string

const (
	StepName          StepID = "name"
	StepRole          StepID = "role"
	StepIndustry      StepID = "industry"
	StepCompanySize   StepID = "company_size"
	StepWebsiteStatus StepID = "website_status"
	StepWebsiteURL    StepID = "website_url"
	StepGoals         StepID = "goals"
	StepBudget        StepID = "budget"
	StepComplete      StepID = "complete"
)

// IntakeSession is the in-progress onboarding state for one user.
type IntakeSession struct {
	UserID       string    `json:"userId" db:"user_id"`
	CurrentStep  StepID    `json:"currentStep" db:"current_step"`
	Profile      *Profile  `json:"profile" db:"profile"`
	ErrorCount   int       `json:"errorCount" db:"error_count"`
	StartedAt    time.Time `json:"startedAt" db:"started_at"`
	LastActivity time.Time `json:"lastActivity" db:"last_activity"`
}
