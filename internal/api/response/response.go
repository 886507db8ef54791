// Package response contains the JSON response helpers shared by the API
// handlers.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pokevault/pokevault/internal/auth"
	"github.com/pokevault/pokevault/internal/catalog"
	"github.com/pokevault/pokevault/internal/list"
	"github.com/pokevault/pokevault/internal/search"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// SuccessResponse wraps successful response payloads.
type SuccessResponse struct {
	Data any `json:"data"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

// Success writes a 200 response wrapping data.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// Created writes a 201 response wrapping data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// NoContent writes a 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    status,
	})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, err)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, err error) {
	Error(w, http.StatusUnauthorized, err)
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, err error) {
	Error(w, http.StatusNotFound, err)
}

// Conflict writes a 409 response.
func Conflict(w http.ResponseWriter, err error) {
	Error(w, http.StatusConflict, err)
}

// InternalError writes a 500 response.
func InternalError(w http.ResponseWriter, err error) {
	Error(w, http.StatusInternalServerError, err)
}

// FromError maps a domain error to the matching HTTP response:
//
//	empty query, malformed input      -> 400
//	invalid credentials               -> 401
//	unknown card or list item         -> 404
//	duplicate add, superseded search  -> 409
//	catalog unreachable               -> 502
//
// Anything unrecognized becomes a 500.
func FromError(w http.ResponseWriter, err error) {
	var notFound *catalog.NotFoundError

	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		BadRequest(w, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err)
	case errors.As(err, &notFound), errors.Is(err, list.ErrItemNotFound):
		NotFound(w, err)
	case errors.Is(err, list.ErrDuplicate), errors.Is(err, search.ErrStaleSession):
		Conflict(w, err)
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		Error(w, http.StatusBadGateway, err)
	default:
		InternalError(w, err)
	}
}
