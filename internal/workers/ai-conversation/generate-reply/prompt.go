package generatereply

import (
	"strings"

	"morvo-assistant/internal/models"
)

// SystemPrompt is the assistant's standing instruction.
const SystemPrompt = "You are MORVO, an intelligent Arabic/English marketing strategist.\n" +
	"Core behavior:\n" +
	"1) First try to answer from three data domains: mentions (brand sentiment), posts (social content performance), and seo (search signals). If the user asks about any of these, craft a short clean summary from the data without exposing raw field names.\n" +
	"2) Otherwise, answer using expert marketing knowledge with practical, ROI-focused advice.\n" +
	"Tone:\n" +
	"- Arabic: warm, friendly, natural. Avoid markdown symbols and quotes. Use occasional emojis like 💡📈🤝 when helpful.\n" +
	"- English: confident, concise, professional.\n" +
	"Formatting:\n" +
	"- Output plain text only. No **bold**, quotes, or asterisks.\n" +
	"- Prefer a short paragraph. Use numbered bullets only when clearly helpful and keep them succinct.\n" +
	"- Make answers readable and appealing; add relevant emojis sparingly.\n" +
	"- Personalize if profile info is known (role, industry, size, website, goals, budget).\n"

// ProfileSuffix renders the known profile fields as one context line, or ""
// when nothing is known.
func ProfileSuffix(p *models.Profile) string {
	if p == nil {
		return ""
	}
	var parts []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			parts = append(parts, label+": "+value)
		}
	}
	add("role", p.Role)
	add("industry", p.Industry)
	add("company_size", p.CompanySize)
	add("website", string(p.WebsiteStatus))
	add("url", p.WebsiteURL)
	if len(p.Goals) > 0 {
		goals := p.Goals
		if len(goals) > models.MaxGoals {
			goals = goals[:models.MaxGoals]
		}
		parts = append(parts, "goals: "+strings.Join(goals, ", "))
	}
	add("budget", p.BudgetRange)

	if len(parts) == 0 {
		return ""
	}
	return "\nUser profile → " + strings.Join(parts, "; ")
}

func (h *Handler) buildMessages(input *Input) []chatMessage {
	system := input.SystemPrompt
	if system == "" {
		system = SystemPrompt
	}

	messages := make([]chatMessage, 0, len(input.History)+2)
	messages = append(messages, chatMessage{Role: "system", Content: system + ProfileSuffix(input.Profile)})
	for _, turn := range input.History {
		if strings.TrimSpace(turn.Text) == "" {
			continue
		}
		messages = append(messages, chatMessage{Role: string(turn.Role), Content: turn.Text})
	}
	messages = append(messages, chatMessage{Role: "user", Content: input.Message})
	return messages
}
