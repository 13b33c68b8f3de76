// Package router answers one user message at a time: session control first,
// then the onboarding gate, then structured lookup with generative fallback.
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "morvo-assistant/internal/common/errors"
	"morvo-assistant/internal/common/logger"
	"morvo-assistant/internal/common/metrics"
	"morvo-assistant/internal/common/observability"
	"morvo-assistant/internal/intake"
	"morvo-assistant/internal/models"
	"morvo-assistant/internal/store"
	classifymessage "morvo-assistant/internal/workers/ai-conversation/classify-message"
	generatereply "morvo-assistant/internal/workers/ai-conversation/generate-reply"
	querymarketingdata "morvo-assistant/internal/workers/ai-conversation/query-marketing-data"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Intake interface {
	Start(ctx context.Context, userID string) (*models.Prompt, error)
	Resume(ctx context.Context, userID, answer string) (*models.IntakeResult, error)
	Current(ctx context.Context, userID string) (*models.IntakeSession, error)
}

type Classifier interface {
	Execute(ctx context.Context, input *classifymessage.Input) (*classifymessage.Output, error)
}

type Lookup interface {
	Execute(ctx context.Context, input *querymarketingdata.Input) (*querymarketingdata.Output, error)
}

type Generator interface {
	Execute(ctx context.Context, input *generatereply.Input) (*generatereply.Output, error)
}

type Config struct {
	HistoryLimit  int
	LookupTimeout time.Duration
}

// Deps are the router's collaborators. Lookup and Generator may be nil when
// the corresponding tier is disabled.
type Deps struct {
	Store         store.Store
	Intake        Intake
	Classifier    Classifier
	Lookup        Lookup
	Generator     Generator
	Observability *observability.Observability
}

type Router struct {
	cfg        Config
	store      store.Store
	intake     Intake
	classifier Classifier
	lookup     Lookup
	generator  Generator
	obs        *observability.Observability
	log        logger.Logger
}

func New(cfg Config, deps Deps, log logger.Logger) *Router {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 2 * time.Second
	}
	return &Router{
		cfg:        cfg,
		store:      deps.Store,
		intake:     deps.Intake,
		classifier: deps.Classifier,
		lookup:     deps.Lookup,
		generator:  deps.Generator,
		obs:        deps.Observability,
		log:        log.With(map[string]interface{}{"component": "router"}),
	}
}

// HandleMessage returns only the reply text of Route.
func (r *Router) HandleMessage(ctx context.Context, userID, text string) (string, error) {
	reply, err := r.Route(ctx, userID, text)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// Route produces exactly one reply for text. Only generative failures are
// returned as errors; they carry a generatereply.Kind.
func (r *Router) Route(ctx context.Context, userID, text string) (*models.Reply, error) {
	userID = models.CanonicalUserID(userID)
	start := time.Now()
	ctx, span := r.obs.StartSpan(ctx, "router.route", attribute.String("user.id", userID))
	defer span.End()

	reply, err := r.route(ctx, userID, text)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RouteDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		r.obs.RecordTurn(ctx, "error", elapsed)
		return nil, err
	}

	source := string(reply.Decision.Source)
	span.SetAttributes(
		attribute.String("route.source", source),
		attribute.String("route.category", string(reply.Decision.Category)),
	)
	metrics.MessagesRouted.WithLabelValues(source, string(reply.Decision.Category)).Inc()
	metrics.RouteDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	r.obs.RecordTurn(ctx, source, elapsed)
	return reply, nil
}

func (r *Router) route(ctx context.Context, userID, text string) (*models.Reply, error) {
	normalized := normalize(text)

	if reply, logTurns := r.control(ctx, userID, normalized); reply != nil {
		if logTurns {
			r.appendTurns(ctx, userID, text, reply.Text)
		}
		return reply, nil
	}

	profile, err := r.store.GetProfile(ctx, userID)
	if err != nil {
		r.log.Warn("profile read failed, treating as incomplete", map[string]interface{}{
			"userId": userID, "error": err.Error(),
		})
		profile = nil
	}

	if !profile.IsComplete() {
		reply, err := r.onboarding(ctx, userID, text)
		if err != nil {
			r.appendTurn(ctx, userID, models.TurnRoleUser, text)
			return nil, err
		}
		if reply != nil {
			r.appendTurns(ctx, userID, text, reply.Text)
			return reply, nil
		}
	} else if in(greetingTriggers, normalized) {
		reply := &models.Reply{
			Text:     welcomeBack,
			Decision: models.RouteDecision{Category: models.CategoryNone, Source: models.SourceGreeting},
		}
		r.appendTurns(ctx, userID, text, reply.Text)
		return reply, nil
	}

	reply, err := r.answer(ctx, userID, text, profile)
	if err != nil {
		r.appendTurn(ctx, userID, models.TurnRoleUser, text)
		return nil, err
	}
	r.appendTurns(ctx, userID, text, reply.Text)
	return reply, nil
}

// control handles the two-message reset. It returns nil when text is not a
// control utterance and no reset is pending. logTurns is false after a
// confirmed reset so the cleared history stays empty.
func (r *Router) control(ctx context.Context, userID, normalized string) (reply *models.Reply, logTurns bool) {
	decision := models.RouteDecision{Category: models.CategoryNone, Source: models.SourceControl}

	pending, err := r.store.IsResetPending(ctx, userID)
	if err != nil {
		r.log.Warn("reset flag read failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		pending = false
	}

	if pending {
		if err := r.store.SetResetPending(ctx, userID, false); err != nil {
			r.log.Warn("reset flag not cleared", map[string]interface{}{"userId": userID, "error": err.Error()})
		}
		if in(confirmTokens, normalized) {
			prompt := r.reset(ctx, userID)
			metrics.ResetRequests.WithLabelValues("confirmed").Inc()
			return &models.Reply{Text: resetDone, Decision: decision, Prompt: prompt}, false
		}
		outcome := "abandoned"
		if in(cancelTokens, normalized) {
			outcome = "cancelled"
		}
		metrics.ResetRequests.WithLabelValues(outcome).Inc()
		return &models.Reply{Text: resetCancel, Decision: decision}, true
	}

	if in(startOverPhrases, normalized) {
		if err := r.store.SetResetPending(ctx, userID, true); err != nil {
			r.log.Warn("reset flag not set", map[string]interface{}{"userId": userID, "error": err.Error()})
		}
		metrics.ResetRequests.WithLabelValues("prompted").Inc()
		return &models.Reply{Text: resetConfirm, Decision: decision}, true
	}
	return nil, false
}

func (r *Router) reset(ctx context.Context, userID string) *models.Prompt {
	steps := []struct {
		name string
		fn   func(context.Context, string) error
	}{
		{"turns", r.store.DeleteTurns},
		{"session", r.store.DeleteSession},
		{"profile", r.store.DeleteProfile},
	}
	for _, s := range steps {
		if err := s.fn(ctx, userID); err != nil {
			r.log.Error("reset step failed", map[string]interface{}{
				"userId": userID, "target": s.name, "error": err.Error(),
			})
		}
	}
	r.log.Info("conversation reset", map[string]interface{}{"userId": userID})

	prompt, err := r.intake.Start(ctx, userID)
	if err != nil {
		r.log.Warn("intake restart failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		return nil
	}
	return prompt
}

// onboarding gates users without a complete profile. A nil reply with a nil
// error means intake reported the profile complete after all and the message
// should be answered normally.
func (r *Router) onboarding(ctx context.Context, userID, text string) (*models.Reply, error) {
	intakeDecision := models.RouteDecision{Category: models.CategoryNone, Source: models.SourceIntake}

	sess, err := r.intake.Current(ctx, userID)
	if err != nil {
		r.log.Warn("session read failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		sess = nil
	}

	// URLs routinely carry a query string, so "?" is not a question there.
	awaitingURL := sess != nil && sess.CurrentStep == models.StepWebsiteURL
	if !awaitingURL && classifymessage.IsQuestion(text) {
		reply, err := r.answer(ctx, userID, text, nil)
		if err != nil {
			return nil, err
		}
		prompt, err := r.intake.Start(ctx, userID)
		if err == nil {
			reply.Text += "\n\n" + nudgePrefix + prompt.Message
			reply.Prompt = prompt
		}
		return reply, nil
	}

	if sess != nil {
		result, err := r.intake.Resume(ctx, userID, text)
		switch {
		case err == nil:
			reply := &models.Reply{Text: result.Text(), Decision: intakeDecision, Prompt: result.Prompt}
			return reply, nil
		case !errors.Is(err, intake.ErrNoActiveSession):
			return nil, err
		}
	}

	prompt, err := r.intake.Start(ctx, userID)
	if errors.Is(err, intake.ErrProfileComplete) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.Reply{
		Text:     welcomeLine + "\n\n" + prompt.Text(),
		Decision: intakeDecision,
		Prompt:   prompt,
	}, nil
}

// answer runs classification, the structured lookup and the generative
// fallback, each at most once.
func (r *Router) answer(ctx context.Context, userID, text string, profile *models.Profile) (*models.Reply, error) {
	class, err := r.classifier.Execute(ctx, &classifymessage.Input{Message: text})
	if err != nil {
		r.log.Warn("classification failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		class = &classifymessage.Output{Category: models.CategoryNone}
	}
	decision := models.RouteDecision{Category: class.Category}

	if class.Category != models.CategoryNone {
		if answer, ok := r.structured(ctx, userID, class); ok {
			decision.Source = models.SourceStructuredLookup
			return &models.Reply{Text: answer, Decision: decision}, nil
		}
	}

	if r.generator == nil {
		decision.Source = models.SourceNoneAvailable
		return &models.Reply{Text: noAnswer, Decision: decision}, nil
	}

	out, err := r.generator.Execute(ctx, &generatereply.Input{
		Message: text,
		History: r.history(ctx, userID),
		Profile: profile,
	})
	if err != nil {
		kind := generatereply.KindOf(err)
		metrics.GenerationFailures.WithLabelValues(string(kind)).Inc()
		r.log.Error("generation failed", map[string]interface{}{
			"userId": userID, "kind": string(kind), "error": err.Error(),
		})
		return nil, err
	}

	decision.Source = models.SourceGenerative
	return &models.Reply{Text: strings.TrimSpace(out.Text), Decision: decision}, nil
}

// structured returns the lookup text when it is usable. Misses, placeholder
// payloads and transport errors all fall through.
func (r *Router) structured(ctx context.Context, userID string, class *classifymessage.Output) (string, bool) {
	if r.lookup == nil || class.Table == "" {
		return "", false
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()
	lookupCtx, span := r.obs.StartSpan(lookupCtx, "router.lookup", attribute.String("lookup.table", class.Table))
	defer span.End()

	out, err := r.lookup.Execute(lookupCtx, &querymarketingdata.Input{
		Category:    class.Category,
		Table:       class.Table,
		DisplayName: class.DisplayName,
	})
	result := lookupResult(out, err)
	metrics.LookupResults.WithLabelValues(class.Table, string(result.Kind)).Inc()

	text := strings.TrimSpace(result.Text)
	if result.Kind == models.LookupOK && text != "" && !querymarketingdata.IsPlaceholder(text) {
		return text, true
	}

	fields := map[string]interface{}{
		"userId": userID,
		"table":  class.Table,
		"kind":   string(result.Kind),
	}
	if result.Kind == models.LookupTransportError {
		stdErr := lookupError(class.Table, result)
		fields["errorKind"] = string(result.ErrorKind)
		fields["code"] = string(stdErr.Code)
		fields["error"] = stdErr.Details
		r.log.Warn("structured lookup failed", fields)
		return "", false
	}
	r.log.Info("structured lookup fell through", fields)
	return "", false
}

func lookupError(table string, result *models.LookupResult) *apperrors.StandardError {
	if result.ErrorKind == models.LookupErrTimeout {
		return apperrors.NewLookupTimeoutError(table)
	}
	return apperrors.NewLookupFailedError(table, result.Err)
}

func lookupResult(out *querymarketingdata.Output, err error) *models.LookupResult {
	switch {
	case err != nil:
		return &models.LookupResult{Kind: models.LookupTransportError, ErrorKind: models.LookupErrQuery, Err: err}
	case out == nil || out.Result == nil:
		return &models.LookupResult{Kind: models.LookupEmpty}
	default:
		return out.Result
	}
}

func (r *Router) history(ctx context.Context, userID string) []models.ConversationTurn {
	turns, err := r.store.GetTurns(ctx, userID)
	if err != nil {
		r.log.Warn("history read failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		return nil
	}
	if len(turns) > r.cfg.HistoryLimit {
		turns = turns[len(turns)-r.cfg.HistoryLimit:]
	}
	return turns
}

func (r *Router) appendTurns(ctx context.Context, userID, userText, replyText string) {
	r.appendTurn(ctx, userID, models.TurnRoleUser, userText)
	r.appendTurn(ctx, userID, models.TurnRoleAssistant, replyText)
}

func (r *Router) appendTurn(ctx context.Context, userID string, role models.TurnRole, text string) {
	if err := r.store.AppendTurn(ctx, userID, role, text); err != nil {
		r.log.Warn("turn not recorded", map[string]interface{}{
			"userId": userID, "role": string(role), "error": err.Error(),
		})
	}
}
