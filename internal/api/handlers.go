package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	apperrors "morvo-assistant/internal/common/errors"
	"morvo-assistant/internal/common/validation"
	"morvo-assistant/internal/intake"
	"morvo-assistant/internal/models"
	generatereply "morvo-assistant/internal/workers/ai-conversation/generate-reply"
)

const maxBodyBytes = 64 << 10

type chatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type intakeRequest struct {
	UserID string `json:"userId"`
	Answer string `json:"answer"`
}

type promptResponse struct {
	Prompt *models.Prompt `json:"prompt"`
	Text   string         `json:"text"`
}

type advanceResponse struct {
	Prompt     *models.Prompt     `json:"prompt,omitempty"`
	Completion *models.Completion `json:"completion,omitempty"`
	Text       string             `json:"text"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, s.chat, &req) {
		return
	}

	reply, err := s.router.Route(r.Context(), req.UserID, req.Message)
	if err != nil {
		s.errors.Write(w, r, toStandardError(err, req.UserID))
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleBeginIntake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if !s.decode(w, r, s.begin, &req) {
		return
	}

	userID := models.CanonicalUserID(req.UserID)
	prompt, err := s.intake.Start(r.Context(), userID)
	if err != nil {
		s.errors.Write(w, r, toStandardError(err, userID))
		return
	}
	writeJSON(w, http.StatusOK, promptResponse{Prompt: prompt, Text: prompt.Text()})
}

func (s *Server) handleAdvanceIntake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if !s.decode(w, r, s.advance, &req) {
		return
	}

	userID := models.CanonicalUserID(req.UserID)
	result, err := s.intake.Resume(r.Context(), userID, req.Answer)
	if err != nil {
		s.errors.Write(w, r, toStandardError(err, userID))
		return
	}
	writeJSON(w, http.StatusOK, advanceResponse{
		Prompt:     result.Prompt,
		Completion: result.Completion,
		Text:       result.Text(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.errors.Write(w, r, apperrors.NewStoreUnavailableError("ping", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// decode validates the body against v and unmarshals it into dst. On failure
// it writes the error response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v *validation.Validator, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.errors.Write(w, r, apperrors.NewInvalidRequestError("request body too large or unreadable"))
		return false
	}

	result, err := v.ValidateJSON(body)
	if err != nil {
		s.errors.Write(w, r, apperrors.NewInvalidRequestError("malformed JSON body"))
		return false
	}
	if !result.Valid {
		s.errors.Write(w, r, apperrors.NewInvalidRequestError(strings.Join(result.GetErrorMessages(), "; ")))
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		s.errors.Write(w, r, apperrors.NewInvalidRequestError("malformed JSON body"))
		return false
	}
	return true
}

// toStandardError maps domain errors onto API error codes.
func toStandardError(err error, userID string) error {
	if _, ok := apperrors.AsStandardError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, intake.ErrNoActiveSession):
		return apperrors.NewNoActiveSessionError(userID, err)
	case errors.Is(err, intake.ErrProfileComplete):
		return apperrors.NewProfileCompleteError(userID, err)
	}

	switch generatereply.KindOf(err) {
	case generatereply.KindAuth:
		return apperrors.NewGenerationAuthError(err)
	case generatereply.KindRateLimit:
		stdErr := apperrors.NewGenerationRateLimitedError(err)
		if d := generatereply.RetryAfterOf(err); d > 0 {
			stdErr = stdErr.WithMetadata("retryAfterSeconds", int(math.Ceil(d.Seconds())))
		}
		return stdErr
	case generatereply.KindTimeout:
		return apperrors.NewGenerationTimeoutError(err)
	case generatereply.KindUnknown:
		return apperrors.NewGenerationFailedError(err)
	}
	return apperrors.NewInternalError(err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
