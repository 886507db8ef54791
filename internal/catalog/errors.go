package catalog

import (
	"errors"
	"fmt"
)

// ErrCatalogUnavailable indicates the catalog API could not be reached or
// returned a non-2xx response. Callers decide whether to retry; the client
// itself only retries transient transport failures and 429s.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// NotFoundError is returned when the catalog has no resource at the
// requested URL.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// APIError represents a structured error response from the catalog API.
type APIError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error %d: %s", e.Code, e.Message)
}

// apiErrorEnvelope is the wire shape of an error response.
type apiErrorEnvelope struct {
	Error APIError `json:"error"`
}
