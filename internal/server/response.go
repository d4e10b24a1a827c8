package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danieljhkim/atelier/internal/alias"
	"github.com/danieljhkim/atelier/internal/engine"
	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/forest"
	"github.com/danieljhkim/atelier/internal/fsops"
	"github.com/danieljhkim/atelier/internal/replay"
	"github.com/danieljhkim/atelier/internal/templates"
)

// Error codes.
const (
	codeInvalidJSON       = "invalid_json"
	codeInvalidInput      = "invalid_input"
	codeNotFound          = "not_found"
	codeConflict          = "conflict"
	codeInvalidEvent      = "invalid_event"
	codeMalformedTemplate = "malformed_template"
	codeUnknownDropTarget = "unknown_drop_target"
	codeAliasTimeout      = "alias_timeout"
	codeReadOnly          = "read_only"
	codeUnavailable       = "unavailable"
	codeInternal          = "internal_error"
)

type errorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

type successResponse struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successResponse{Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorPayload{
		Code:      code,
		Message:   message,
		RequestID: requestIDFromContext(r.Context()),
	}})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapDomainError(err)
	writeError(w, r, status, code, err.Error())
}

func mapDomainError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, engine.ErrValidation),
		errors.Is(err, event.ErrUnknownEventType),
		errors.Is(err, alias.ErrEmptyKey),
		errors.Is(err, fsops.ErrInvalidIdentifier):
		return http.StatusBadRequest, codeInvalidInput
	case engine.IsNotFound(err):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, replay.ErrIDCollision),
		errors.Is(err, forest.ErrDuplicateNode):
		return http.StatusConflict, codeConflict
	case errors.Is(err, forest.ErrUnknownParent),
		errors.Is(err, forest.ErrDanglingLink):
		return http.StatusUnprocessableEntity, codeInvalidEvent
	case errors.Is(err, replay.ErrMalformedTemplate):
		return http.StatusUnprocessableEntity, codeMalformedTemplate
	case errors.Is(err, replay.ErrUnknownDropTarget):
		return http.StatusUnprocessableEntity, codeUnknownDropTarget
	case errors.Is(err, replay.ErrAliasTimeout):
		return http.StatusGatewayTimeout, codeAliasTimeout
	case errors.Is(err, templates.ErrReadOnly):
		return http.StatusForbidden, codeReadOnly
	case errors.Is(err, engine.ErrNoRuntime):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
