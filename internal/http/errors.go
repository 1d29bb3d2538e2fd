// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/fairyhunter13/product-catalog-editor/internal/catalog"
	"github.com/fairyhunter13/product-catalog-editor/internal/editor"
	"github.com/fairyhunter13/product-catalog-editor/internal/grid"
	"github.com/fairyhunter13/product-catalog-editor/internal/model"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, jsonError{Error: message, Details: details})
}

// statusFor maps a flow error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, editor.ErrInFlight), errors.Is(err, editor.ErrPendingEdits):
		return http.StatusConflict
	case errors.Is(err, grid.ErrUnknownAction), errors.Is(err, grid.ErrNoRowID):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnprocessableEntity:
		return "validation_error"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadGateway:
		return "upstream_error"
	default:
		return "internal_error"
	}
}

// writeFlowError answers with the status and code for err. Draft validation
// failures also name the offending fields.
func writeFlowError(w http.ResponseWriter, err error) {
	st := statusFor(err)
	body := jsonError{Error: errorCode(st), Details: err.Error()}
	var fe *model.FieldError
	if errors.As(err, &fe) {
		body.Fields = fe.Fields
	}
	writeJSON(w, st, body)
}
