package kbclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrTimeout indicates a backend call exceeded its deadline.
	ErrTimeout = errors.New("knowledge base request timed out")

	// ErrInvalidResponse indicates a body that does not match the endpoint contract.
	ErrInvalidResponse = errors.New("invalid response from knowledge base")
)

// APIError is a non-2xx answer from the backend. Its text is what the user sees.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsAuthError returns true if the backend refused the credentials.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// errorBody covers the message fields backends commonly use.
type errorBody struct {
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
}

// checkHTTPErrors returns an *APIError if the response is not a success.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    extractMessage(body),
	}
}

// extractMessage pulls a human-readable message out of an error body.
func extractMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	if len(eb.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(eb.Detail, &detail); err == nil {
			return detail
		}
		return strings.TrimSpace(string(eb.Detail))
	}
	return eb.Error
}
