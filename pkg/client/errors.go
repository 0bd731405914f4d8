package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// FieldError is one rejected field of a ValidationFailed response
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+" "+f.Message)
		}
		return fmt.Sprintf("[%d] %s: %s (%s)", e.Status, e.Code, e.Message, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("[%d] %s: %s", e.Status, e.Code, e.Message)
}

type errorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details"`
	Fields  []FieldError `json:"fields"`
}

// ParseError decodes the server's error body, falling back to the raw body
func ParseError(resp *resty.Response) error {
	status := resp.StatusCode()

	var body errorBody
	if err := jsonAPI.Unmarshal(resp.Body(), &body); err == nil && body.Code != "" {
		msg := body.Message
		if body.Details != "" {
			msg += ": " + body.Details
		}
		return &APIError{Status: status, Code: body.Code, Message: msg, Fields: body.Fields}
	}

	msg := strings.TrimSpace(string(resp.Body()))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Code: "unknown_error", Message: msg}
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsNotFound reports a 404
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsUnauthorized reports a 401
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

// IsForbidden reports a 403
func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden) }

// IsConflict reports a 409
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict) }

// IsRateLimited reports a 429
func IsRateLimited(err error) bool { return hasStatus(err, http.StatusTooManyRequests) }
