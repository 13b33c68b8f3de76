package generatereply

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	httpclient "morvo-assistant/internal/common/http"
)

const (
	TaskType = "generate-reply"
)

var (
	ErrGenerationAuth        = errors.New("GENERATION_AUTH_FAILED")
	ErrGenerationRateLimited = errors.New("GENERATION_RATE_LIMITED")
	ErrGenerationTimeout     = errors.New("GENERATION_TIMEOUT")
	ErrGenerationFailed      = errors.New("GENERATION_FAILED")
)

// Kind is the coarse failure class of a generation error.
type Kind string

const (
	KindNone      Kind = ""
	KindAuth      Kind = "auth"
	KindRateLimit Kind = "rate_limit"
	KindTimeout   Kind = "timeout"
	KindUnknown   Kind = "unknown"
)

// Error carries the sentinel, the transport cause and, for rate limits, the
// provider's requested back-off.
type Error struct {
	Sentinel   error
	Cause      error
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Sentinel.Error()
	}
	return e.Sentinel.Error() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Cause}
}

// KindOf classifies err. Errors not produced by this package are KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrGenerationAuth):
		return KindAuth
	case errors.Is(err, ErrGenerationRateLimited):
		return KindRateLimit
	case errors.Is(err, ErrGenerationTimeout):
		return KindTimeout
	default:
		return KindUnknown
	}
}

// RetryAfterOf returns the back-off requested by the provider, if any.
func RetryAfterOf(err error) time.Duration {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.RetryAfter
	}
	return 0
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Handler calls an OpenAI-compatible chat-completions endpoint exactly once.
type Handler struct {
	config *Config
	client *httpclient.Client
	logger Logger
}

func NewHandler(config *Config, log Logger) *Handler {
	return &Handler{
		config: config,
		// no client timeout; the context bounds each call
		client: httpclient.NewJSONClient(config.GenAIBaseURL, config.APIKey, 0),
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.Message) == "" {
		return nil, &Error{Sentinel: ErrGenerationFailed, Cause: errors.New("empty message")}
	}

	req := chatRequest{
		Model:       h.config.Model,
		Messages:    h.buildMessages(input),
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	}

	start := time.Now()
	var resp chatResponse
	if err := h.client.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		genErr := classify(ctx, err)
		h.logger.Error("generation failed", map[string]interface{}{
			"kind":       string(KindOf(genErr)),
			"error":      err.Error(),
			"durationMs": time.Since(start).Milliseconds(),
		})
		return nil, genErr
	}

	if len(resp.Choices) == 0 {
		return nil, &Error{Sentinel: ErrGenerationFailed, Cause: errors.New("no choices in response")}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, &Error{Sentinel: ErrGenerationFailed, Cause: errors.New("empty completion")}
	}

	h.logger.Info("generation completed", map[string]interface{}{
		"model":        resp.Model,
		"historyTurns": len(input.History),
		"durationMs":   time.Since(start).Milliseconds(),
	})

	return &Output{
		Text:         text,
		Model:        resp.Model,
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Sentinel: ErrGenerationTimeout, Cause: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Sentinel: ErrGenerationTimeout, Cause: err}
	}

	var se *httpclient.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
			return &Error{Sentinel: ErrGenerationAuth, Cause: err}
		case se.StatusCode == http.StatusTooManyRequests:
			return &Error{Sentinel: ErrGenerationRateLimited, Cause: err, RetryAfter: se.RetryAfter}
		case se.StatusCode == http.StatusRequestTimeout || se.StatusCode == http.StatusGatewayTimeout:
			return &Error{Sentinel: ErrGenerationTimeout, Cause: err}
		}
	}
	return &Error{Sentinel: ErrGenerationFailed, Cause: err}
}
