package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/crm"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/roles"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/source"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/views"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Warnf("[API] Failed to encode response: %v", err)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// respondErr maps a domain error onto its status code.
func respondErr(w http.ResponseWriter, err error) {
	var invalid crm.ValidationErrors
	if errors.As(err, &invalid) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   http.StatusText(http.StatusUnprocessableEntity),
			Message: err.Error(),
			Fields:  invalid,
		})
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Log.Errorf("[API] %v", err)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	var upstream *source.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	}

	switch {
	case errors.Is(err, crm.ErrUnknownEntity),
		errors.Is(err, table.ErrUnknownRow),
		errors.Is(err, source.ErrNotFound),
		errors.Is(err, views.ErrNotFound),
		errors.Is(err, roles.ErrNotFound),
		errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, table.ErrUnknownColumn),
		errors.Is(err, table.ErrInvalidFilter),
		errors.Is(err, source.ErrInvalidInput),
		errors.Is(err, views.ErrInvalid),
		errors.Is(err, roles.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, table.ErrActionUnavailable),
		errors.Is(err, views.ErrPermissionDenied),
		errors.Is(err, ErrSessionForbidden),
		errors.Is(err, ErrAdminRequired):
		return http.StatusForbidden
	case errors.Is(err, table.ErrActionDisabled),
		errors.Is(err, table.ErrDraftClosed),
		errors.Is(err, table.ErrNoDraft),
		errors.Is(err, roles.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, source.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON request body into dst. An empty body leaves dst
// untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
