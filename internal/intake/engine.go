// Package intake runs the guided onboarding dialog that builds a user's
// marketing profile one validated answer at a time.
package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"morvo-assistant/internal/common/logger"
	"morvo-assistant/internal/common/metrics"
	"morvo-assistant/internal/common/observability"
	"morvo-assistant/internal/models"
	"morvo-assistant/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrNoActiveSession = errors.New("INTAKE_NO_ACTIVE_SESSION")
	ErrProfileComplete = errors.New("INTAKE_PROFILE_COMPLETE")
)

// CompletionNotifier is told about every finished profile.
type CompletionNotifier interface {
	ProfileCompleted(ctx context.Context, profile *models.Profile) error
}

type Engine struct {
	store    store.Store
	notifier CompletionNotifier
	obs      *observability.Observability
	log      logger.Logger
	now      func() time.Time
}

type Option func(*Engine)

func WithNotifier(n CompletionNotifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithObservability(obs *observability.Observability) Option {
	return func(e *Engine) { e.obs = obs }
}

func NewEngine(st store.Store, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		log:   log.With(map[string]interface{}{"component": "intake"}),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start opens a session at the first step, or returns the current prompt of
// an existing one. It fails with ErrProfileComplete for onboarded users.
func (e *Engine) Start(ctx context.Context, userID string) (*models.Prompt, error) {
	ctx, span := e.obs.StartSpan(ctx, "intake.start", attribute.String("user.id", userID))
	defer span.End()

	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		e.log.Warn("profile read failed, assuming incomplete", map[string]interface{}{
			"userId": userID, "error": err.Error(),
		})
	}
	if profile.IsComplete() {
		return nil, ErrProfileComplete
	}

	sess, err := e.store.GetSession(ctx, userID)
	if err != nil {
		e.log.Warn("session read failed, starting fresh", map[string]interface{}{
			"userId": userID, "error": err.Error(),
		})
		sess = nil
	}
	if sess != nil {
		if s, ok := lookupStep(sess.CurrentStep); ok {
			return s.prompt(""), nil
		}
		e.log.Warn("session at unknown step, restarting", map[string]interface{}{
			"userId": userID, "step": string(sess.CurrentStep),
		})
	}

	now := e.now()
	sess = &models.IntakeSession{
		UserID:       userID,
		CurrentStep:  models.StepName,
		Profile:      &models.Profile{UserID: userID},
		StartedAt:    now,
		LastActivity: now,
	}
	e.saveSession(ctx, sess)
	e.log.Info("intake started", map[string]interface{}{"userId": userID})

	return steps[0].prompt(""), nil
}

// Resume validates answer against the session's current step. A rejected
// answer returns the same step with a corrective notice and leaves the profile
// untouched; an accepted one advances, and the last one completes the profile.
func (e *Engine) Resume(ctx context.Context, userID, answer string) (*models.IntakeResult, error) {
	ctx, span := e.obs.StartSpan(ctx, "intake.resume", attribute.String("user.id", userID))
	defer span.End()

	sess, err := e.store.GetSession(ctx, userID)
	if err != nil {
		e.log.Warn("session read failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrNoActiveSession, err)
	}
	if sess == nil {
		return nil, ErrNoActiveSession
	}

	current, ok := lookupStep(sess.CurrentStep)
	if !ok {
		current = steps[0]
		sess.CurrentStep = current.id
	}
	span.SetAttributes(attribute.String("intake.step", string(current.id)))

	work := sess.Profile.Clone()
	if work == nil {
		work = &models.Profile{UserID: userID}
	}

	sess.LastActivity = e.now()
	if !current.apply(work, answer) {
		sess.ErrorCount++
		e.saveSession(ctx, sess)
		metrics.IntakeAnswers.WithLabelValues(string(current.id), "rejected").Inc()
		e.log.Info("intake answer rejected", map[string]interface{}{
			"userId": userID, "step": string(current.id), "errorCount": sess.ErrorCount,
		})
		return &models.IntakeResult{Prompt: current.prompt(current.notice)}, nil
	}
	metrics.IntakeAnswers.WithLabelValues(string(current.id), "accepted").Inc()

	sess.Profile = work
	next := nextStep(current.id, work)
	if next == models.StepComplete {
		return &models.IntakeResult{Completion: e.complete(ctx, sess)}, nil
	}

	sess.CurrentStep = next
	e.saveSession(ctx, sess)
	s, _ := lookupStep(next)
	return &models.IntakeResult{Prompt: s.prompt("")}, nil
}

// Current returns the user's active session, or nil.
func (e *Engine) Current(ctx context.Context, userID string) (*models.IntakeSession, error) {
	return e.store.GetSession(ctx, userID)
}

func (e *Engine) complete(ctx context.Context, sess *models.IntakeSession) *models.Completion {
	profile := sess.Profile
	profile.UserID = sess.UserID
	profile.Complete = true
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = sess.StartedAt
	}
	profile.UpdatedAt = e.now()

	if err := e.store.UpsertProfile(ctx, sess.UserID, profile); err != nil {
		metrics.ProfileSaveFailures.Inc()
		e.log.Error("completed profile not persisted", map[string]interface{}{
			"userId": sess.UserID, "error": err.Error(),
		})
	}
	if err := e.store.DeleteSession(ctx, sess.UserID); err != nil {
		e.log.Warn("finished session not deleted", map[string]interface{}{
			"userId": sess.UserID, "error": err.Error(),
		})
	}
	if e.notifier != nil {
		if err := e.notifier.ProfileCompleted(ctx, profile); err != nil {
			e.log.Warn("completion notification failed", map[string]interface{}{
				"userId": sess.UserID, "error": err.Error(),
			})
		}
	}
	metrics.IntakeCompleted.Inc()
	e.log.Info("intake completed", map[string]interface{}{
		"userId": sess.UserID, "errorCount": sess.ErrorCount,
	})

	return &models.Completion{
		Profile: profile.Clone(),
		Message: CompletionMessage(profile.Name),
	}
}

func (e *Engine) saveSession(ctx context.Context, sess *models.IntakeSession) {
	if err := e.store.SaveSession(ctx, sess); err != nil {
		e.log.Warn("session not saved", map[string]interface{}{
			"userId": sess.UserID, "step": string(sess.CurrentStep), "error": err.Error(),
		})
	}
}

// CompletionMessage is the acknowledgement sent when the profile is done.
func CompletionMessage(name string) string {
	if name == "" {
		name = "صديقي"
	}
	return fmt.Sprintf("تم يا %s! ✅ الآن اسألني أي شيء في التسويق وبعطيك توصيات عملية.", name)
}
