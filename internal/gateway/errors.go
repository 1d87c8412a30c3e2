package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized marks a 401 from the server. The credential has already
	// been cleared and the sign-in redirect triggered; callers should not
	// display it.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAuthRequired means no valid subject could be derived locally.
	ErrAuthRequired = errors.New("authentication required")
	ErrNoCredential = errors.New("gateway: auth response carried no credential")
	ErrDecode       = errors.New("gateway: decode response")
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
	err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

func (e *APIError) Unwrap() error { return e.err }

// IsDisplayable reports whether err should be shown to the user. Auth
// failures are already handled by the redirect.
func IsDisplayable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrUnauthorized) && !errors.Is(err, ErrAuthRequired)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// errorMessage extracts a human-readable message from a failure body.
// Looks at message, then detail, then error.message, then error.
func errorMessage(status int, body []byte) string {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err == nil {
		if s := textOf(env["message"]); s != "" {
			return s
		}
		if s := detailText(env["detail"]); s != "" {
			return s
		}
		if raw, ok := env["error"]; ok {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(raw, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			if s := textOf(raw); s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("HTTP status %d", status)
}

func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// detailText handles both a plain string and a list of validation items
// ({"loc": [...], "msg": "..."}).
func detailText(raw json.RawMessage) string {
	if s := textOf(raw); s != "" {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg != "" {
			msgs = append(msgs, it.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}
