package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.warns = append(l.warns, msg)
}

// ==========================
// Classification
// ==========================

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrCodeIntakeNoActiveSession, "INTAKE"},
		{ErrCodeStoreUnavailable, "STORE"},
		{ErrCodeLookupTimeout, "LOOKUP"},
		{ErrCodeGenerationRateLimited, "AI"},
		{ErrCodeInvalidRequest, "REQUEST"},
		{ErrCodeInternal, "OTHER"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCategory(tt.code))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeInvalidRequest))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrCodeIntakeNoActiveSession))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(ErrCodeGenerationAuthFailed))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrCodeGenerationRateLimited))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(ErrCodeGenerationTimeout))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("SOMETHING_ELSE"))
}

func TestRetryability(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeGenerationTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeGenerationAuthFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeIntakeProfileComplete))
}

func TestStandardError_UnwrapKeepsCause(t *testing.T) {
	sentinel := stderrors.New("GENERATION_TIMEOUT")
	err := NewGenerationTimeoutError(sentinel)

	assert.True(t, stderrors.Is(err, sentinel))
	assert.Contains(t, err.Error(), "GENERATION_TIMEOUT")

	got, ok := AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeGenerationTimeout, got.Code)
}

// ==========================
// HTTP Handler
// ==========================

func TestErrorHandler_WriteStandardError(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", nil)
	h.Write(rec, req, NewGenerationRateLimitedError(stderrors.New("status 429")))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))

	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeGenerationRateLimited, body.Error.Code)
	assert.Equal(t, "AI", body.Error.Category)
	assert.Equal(t, UserFacingApology, body.Error.UserMessage)
	assert.Len(t, log.errors, 1)
}

func TestErrorHandler_WritePlainError(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	h.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), stderrors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestErrorHandler_ClientErrorsLogAsWarn(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	h.Write(rec, httptest.NewRequest(http.MethodPost, "/v1/intake/advance", nil), NewNoActiveSessionError("u1", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)
}
