package icards

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed API call. Every terminal failure from the
// client carries exactly one kind, so callers can branch without parsing
// error strings.
type ErrorKind string

const (
	// KindUnauthorized maps HTTP 401. Never retried.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindForbidden maps HTTP 403. Never retried.
	KindForbidden ErrorKind = "forbidden"
	// KindNotFound maps HTTP 404. Never retried.
	KindNotFound ErrorKind = "not_found"
	// KindValidation maps HTTP 422. The upstream message is passed
	// through verbatim. Never retried.
	KindValidation ErrorKind = "validation"
	// KindUpstream maps HTTP 5xx. Retried with linear backoff.
	KindUpstream ErrorKind = "upstream"
	// KindNetwork covers connection and timeout failures. Retried with
	// the same backoff as KindUpstream.
	KindNetwork ErrorKind = "network"
	// KindRequest covers any other 4xx plus local request-building
	// failures. Never retried.
	KindRequest ErrorKind = "request"
)

// APIError is the typed failure returned by the request executor.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("icards API error (%s): status %d: %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("icards API error (%s): %s", e.Kind, e.Message)
}

// Retryable reports whether the retry loop may attempt the call again.
func (e *APIError) Retryable() bool {
	return e.Kind == KindUpstream || e.Kind == KindNetwork
}

// IsNotFound checks if the error indicates a not found response.
func (e *APIError) IsNotFound() bool {
	return e.Kind == KindNotFound
}

// IsUnauthorized checks if the error indicates an authentication or
// permission failure.
func (e *APIError) IsUnauthorized() bool {
	return e.Kind == KindUnauthorized || e.Kind == KindForbidden
}

// classifyStatus converts a non-2xx response into an APIError according
// to the fixed classification table.
func classifyStatus(status int, body string) *APIError {
	switch {
	case status == 401:
		return &APIError{Kind: KindUnauthorized, StatusCode: status, Message: "authentication required", Body: body}
	case status == 403:
		return &APIError{Kind: KindForbidden, StatusCode: status, Message: "access denied", Body: body}
	case status == 404:
		return &APIError{Kind: KindNotFound, StatusCode: status, Message: "resource not found", Body: body}
	case status == 422:
		return &APIError{Kind: KindValidation, StatusCode: status, Message: validationMessage(body), Body: body}
	case status >= 500:
		return &APIError{Kind: KindUpstream, StatusCode: status, Message: "server error", Body: body}
	default:
		return &APIError{Kind: KindRequest, StatusCode: status, Message: fmt.Sprintf("unexpected status %d", status), Body: body}
	}
}

// validationMessage extracts the upstream message from a 422 body so it
// can be surfaced verbatim. Falls back to the raw body.
func validationMessage(body string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if s := strings.TrimSpace(body); s != "" {
		return s
	}
	return "invalid request data"
}

// NotFoundError is the domain-level "not found by name" failure. It
// carries the names that do exist so a caller can recover without a
// second round trip.
type NotFoundError struct {
	Resource  string
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
