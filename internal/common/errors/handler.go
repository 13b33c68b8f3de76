// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// UserFacingApology is shown to end users when the final answer tier fails.
const UserFacingApology = "عذراً، حدث خطأ في المعالجة. يرجى المحاولة مرة أخرى."

// ErrorHandler writes StandardErrors as JSON API responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// ErrorBody is the payload under the "error" key of every failed response.
type ErrorBody struct {
	Code        ErrorCode              `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Category    string                 `json:"category"`
	Retryable   bool                   `json:"retryable"`
	UserMessage string                 `json:"userMessage,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   string                 `json:"timestamp"`
}

type envelope struct {
	Error ErrorBody `json:"error"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HTTPStatus maps an error code to its response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeIntakeNoActiveSession, ErrCodeIntakeProfileComplete:
		return http.StatusConflict
	case ErrCodeStoreUnavailable, ErrCodeGenerationRateLimited:
		return http.StatusServiceUnavailable
	case ErrCodeLookupTimeout, ErrCodeGenerationTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeLookupFailed, ErrCodeGenerationAuthFailed, ErrCodeGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Write normalizes err and writes it to w.
func (h *ErrorHandler) Write(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := h.normalizeError(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(r, stdErr, status)

	body := ErrorBody{
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Category:  GetErrorCategory(stdErr.Code),
		Retryable: stdErr.Retryable,
		Metadata:  stdErr.Metadata,
		Timestamp: stdErr.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
	if GetErrorCategory(stdErr.Code) == "AI" {
		body.UserMessage = UserFacingApology
	}

	w.Header().Set("Content-Type", "application/json")
	if stdErr.Retryable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(stdErr)))
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: body})
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

func retryAfterSeconds(stdErr *StandardError) int {
	if v, ok := stdErr.Metadata["retryAfterSeconds"].(int); ok && v > 0 {
		return v
	}
	if stdErr.Code == ErrCodeGenerationRateLimited || stdErr.Code == ErrCodeRateLimited {
		return 30
	}
	return 5
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"retries":       GetRetryCount(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        status,
	}
	if r != nil {
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
