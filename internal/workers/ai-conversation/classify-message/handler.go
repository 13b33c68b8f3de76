package classifymessage

import (
	"context"
	"errors"
	"strings"

	"morvo-assistant/internal/models"
)

const (
	TaskType = "classify-message"
)

var (
	ErrClassificationFailed = errors.New("CLASSIFICATION_FAILED")
)

// questionLeads are the words that mark a message as a direct question when
// they are its first token.
var questionLeads = map[string]struct{}{
	"ما": {}, "ماهي": {}, "متى": {}, "كيف": {}, "ليش": {}, "لماذا": {}, "هل": {}, "كم": {},
	"وين": {}, "أين": {}, "وش": {}, "ايش": {},
	"what": {}, "how": {}, "why": {}, "when": {}, "where": {}, "who": {}, "which": {},
	"can": {}, "should": {},
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type rule struct {
	category    models.Category
	table       string
	displayName string
	keywords    []string
}

type Handler struct {
	config *Config
	rules  []rule
	logger Logger
}

func NewHandler(config *Config, log Logger) *Handler {
	rules := make([]rule, 0, len(config.Registry.Categories))
	for _, c := range config.Registry.Categories {
		kws := make([]string, 0, len(c.Keywords))
		for _, kw := range c.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		rules = append(rules, rule{
			category:    models.Category(c.ID),
			table:       c.Table,
			displayName: c.DisplayName,
			keywords:    kws,
		})
	}

	return &Handler{
		config: config,
		rules:  rules,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrClassificationFailed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output := h.Classify(input.Message)
	output.IsQuestion = IsQuestion(input.Message)
	return output, nil
}

// Classify tests the lower-cased message against each category in registry
// order. The first substring hit wins; no hit yields CategoryNone.
func (h *Handler) Classify(message string) *Output {
	text := strings.ToLower(message)
	for _, r := range h.rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return &Output{
					Category:       r.category,
					Table:          r.table,
					DisplayName:    r.displayName,
					MatchedKeyword: kw,
				}
			}
		}
	}
	return &Output{Category: models.CategoryNone}
}

// IsQuestion reports whether text reads as a direct question: it contains a
// question mark (Latin or Arabic), or its first whitespace-delimited token is
// a question word.
func IsQuestion(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if strings.ContainsAny(t, "?؟") {
		return true
	}
	fields := strings.Fields(t)
	_, ok := questionLeads[fields[0]]
	return ok
}
