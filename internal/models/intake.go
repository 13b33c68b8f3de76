package models

import "strconv"

// Option is one selectable answer for a choice step.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Prompt is what the user sees for the current intake step.
type Prompt struct {
	Step       StepID   `json:"step"`
	Message    string   `json:"message"`
	Options    []Option `json:"options,omitempty"`
	StepNumber int      `json:"stepNumber"`
	TotalSteps int      `json:"totalSteps"`
	Notice     string   `json:"notice,omitempty"`
}

// Text renders the prompt as a single chat message: notice, message, then
// numbered options.
func (p *Prompt) Text() string {
	if p == nil {
		return ""
	}
	out := p.Message
	if p.Notice != "" {
		out = p.Notice + "\n" + out
	}
	for i, opt := range p.Options {
		out += "\n" + strconv.Itoa(i+1) + ". " + opt.Label
	}
	return out
}

// Completion is returned when the final intake step is accepted.
type Completion struct {
	Profile *Profile `json:"profile"`
	Message string   `json:"message"`
}

// IntakeResult holds exactly one of Prompt or Completion.
type IntakeResult struct {
	Prompt     *Prompt     `json:"prompt,omitempty"`
	Completion *Completion `json:"completion,omitempty"`
}

// Text returns the user-facing text of whichever half is set.
func (r *IntakeResult) Text() string {
	switch {
	case r == nil:
		return ""
	case r.Completion != nil:
		return r.Completion.Message
	default:
		return r.Prompt.Text()
	}
}
