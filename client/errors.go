package client

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Fixed user-facing copy for failed exchanges. Raw transport errors are never
// rendered into a conversation.
const (
	MsgAuthRequired       = "You need to sign in before using the assistant."
	MsgServiceUnavailable = "The assistant service is currently unavailable. Please try again later."
	MsgServerError        = "The assistant ran into a server error. Please try again."
	MsgConnectivity       = "The assistant could not be reached. Check your connection and try again."
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// UserMessage maps an exchange failure to the fixed copy rendered in the
// conversation, chosen by HTTP status where one is available.
func UserMessage(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return MsgConnectivity
	}
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return MsgAuthRequired
	case apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusServiceUnavailable:
		return MsgServiceUnavailable
	case apiErr.StatusCode >= 500:
		return MsgServerError
	default:
		return MsgConnectivity
	}
}
