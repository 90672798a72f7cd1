package marketplace

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Every error returned by Client matches exactly one of these
// with errors.Is.
var (
	ErrUnauthorized = errors.New("authorization denied")
	ErrForbidden    = errors.New("permission denied")
	ErrValidation   = errors.New("request rejected")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network failure")
)

// Request rejections raised before any network call.
var (
	ErrMissingTarget    = Reject("a target item is required")
	ErrPaymentAmbiguous = Reject("choose either an item to offer or points to pay, not both")
	ErrNegativePoints   = Reject("points must be positive")
)

// APIError describes a failed call. Kind is one of the sentinel errors above.
// StatusCode is zero for rejections raised locally.
type APIError struct {
	Kind       error
	StatusCode int
	Method     string
	Path       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		if e.Detail == "" {
			return e.Kind.Error()
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	if e.Detail == "" {
		return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error { return e.Kind }

// Reject builds a local validation rejection carrying a display message.
func Reject(detail string) *APIError {
	return &APIError{Kind: ErrValidation, Detail: detail}
}

func kindForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusBadRequest, code == http.StatusConflict, code == http.StatusUnprocessableEntity:
		return ErrValidation
	case code >= 500:
		return ErrServer
	default:
		return ErrValidation
	}
}

// parseDetail extracts FastAPI's "detail" field, which is either a string or
// a list of {msg} objects.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, entry := range list {
			if msg := strings.TrimSpace(entry.Msg); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// Message renders err for display. Server-provided details are returned
// verbatim; otherwise a generic message for the error kind is used.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to do that."
	case errors.Is(err, ErrNotFound):
		return "That item no longer exists."
	case errors.Is(err, ErrValidation):
		return "The request was rejected."
	case errors.Is(err, ErrServer), errors.Is(err, ErrNetwork):
		return "Could not reach the marketplace. Please try again."
	default:
		return err.Error()
	}
}

// IsRetryable reports whether err is a transport or server-side failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}
