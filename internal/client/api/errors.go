package api

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/freshcart/internal/common"
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.kind, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// mapStatus classifies an HTTP status into the client error taxonomy.
func mapStatus(code int, message string) error {
	if message == "" {
		message = http.StatusText(code)
	}

	var kind error
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		kind = common.ErrUnauthorized
	case code == http.StatusNotFound:
		kind = common.ErrNotFound
	case code >= http.StatusInternalServerError:
		kind = common.ErrRemote
	default:
		kind = common.ErrValidation
	}

	return &StatusError{StatusCode: code, Message: message, kind: kind}
}
