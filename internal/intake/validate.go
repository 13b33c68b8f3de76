package intake

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"morvo-assistant/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	arabicName = regexp.MustCompile(`^[\x{0600}-\x{06FF}\x{0750}-\x{077F}\x{08A0}-\x{08FF}\s\-']{2,40}$`)
	latinName  = regexp.MustCompile(`^[A-Za-z\s\-']{2,40}$`)
	websiteURL = regexp.MustCompile(`(?i)^https?://[^\s/$.?#].[^\s]*$`)
	goalSplit  = regexp.MustCompile(`[,،;؛、]`)
)

// Filler words users often send instead of their name.
var nonNames = map[string]struct{}{
	"ايه": {}, "أيه": {}, "ايوه": {}, "أيوه": {}, "نعم": {}, "لا": {}, "تمام": {}, "طيب": {},
	"اوكي": {}, "أوكي": {}, "اوكيه": {}, "مرحبا": {}, "اهلا": {}, "أهلا": {}, "هلا": {},
	"thanks": {}, "thank you": {}, "ok": {}, "okay": {}, "hello": {}, "hi": {}, "hey": {}, "yes": {},
}

func cleanName(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if _, deny := nonNames[strings.ToLower(s)]; deny {
		return "", false
	}
	if latinName.MatchString(s) {
		// A Caser carries state; one per call.
		return cases.Title(language.Und).String(s), true
	}
	if arabicName.MatchString(s) {
		return s, true
	}
	return "", false
}

func cleanIndustry(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(s)
	return s, n >= 3 && n <= 100
}

func cleanURL(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	return s, s != "" && websiteURL.MatchString(s)
}

// parseGoals splits on the comma family, drops blanks and keeps at most
// models.MaxGoals entries in the order given.
func parseGoals(raw string) ([]string, bool) {
	var goals []string
	for _, part := range goalSplit.Split(raw, -1) {
		if g := strings.TrimSpace(part); g != "" {
			goals = append(goals, g)
		}
	}
	if len(goals) == 0 {
		return nil, false
	}
	if len(goals) > models.MaxGoals {
		goals = goals[:models.MaxGoals]
	}
	return goals, true
}

// matchOption accepts an option id, its label (with or without the leading
// emoji) or its 1-based position.
func matchOption(options []models.Option, raw string) (models.Option, bool) {
	answer := normalizeChoice(raw)
	if answer == "" {
		return models.Option{}, false
	}
	for _, opt := range options {
		if answer == strings.ToLower(opt.ID) || answer == normalizeChoice(opt.Label) {
			return opt, true
		}
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	return models.Option{}, false
}

func normalizeChoice(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if r >= '٠' && r <= '٩' {
			return '0' + (r - '٠')
		}
		return r
	}, s)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.TrimSuffix(s, ".")
}
