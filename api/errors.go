package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// NetworkErrorMessage is recorded when no response was received.
const NetworkErrorMessage = "Network error"

var (
	// ErrInvalidBaseURL indicates a missing or unparsable base URL.
	ErrInvalidBaseURL = errors.New("api: invalid base URL")

	// ErrNetwork marks transport failures.
	ErrNetwork = errors.New("api: network error")

	// ErrDecode indicates a response body that does not match the expected shape.
	ErrDecode = errors.New("api: decode response")
)

// messagePaths are tried in order against an error body.
var messagePaths = []string{
	"message",
	"error.message",
	"error",
	"msg",
	"detail",
	"errors.0.message",
}

// Error is a failed backend call.
type Error struct {
	// Status is the HTTP status, or 0 when no response was received.
	Status int

	// Message is the user-facing failure text.
	Message string

	// Cause is the transport or decode error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("api: %s: %v", strings.ToLower(e.Message), e.Cause)
		}
		return "api: " + strings.ToLower(e.Message)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns the text shown for this failure.
func (e *Error) UserMessage() string {
	return e.Message
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

func networkError(cause error) *Error {
	return &Error{Message: NetworkErrorMessage, Cause: errors.Join(ErrNetwork, cause)}
}

// statusError builds the error for a non-2xx response. The body message wins
// over fallback; an empty result is left for the cache to default.
func statusError(status int, body []byte, fallback string) *Error {
	msg := ExtractMessage(body)
	if msg == "" {
		msg = fallback
	}
	return &Error{Status: status, Message: msg}
}

// ExtractMessage returns the first non-empty string found at a known
// message path of a JSON error body.
func ExtractMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, r := range gjson.GetManyBytes(body, messagePaths...) {
		if r.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(r.Str); s != "" {
			return s
		}
	}
	return ""
}
