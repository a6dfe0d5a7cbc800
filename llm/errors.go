package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a failed request to the generation service.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	// Transient errors are worth retrying.
	Transient bool
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// RateLimitError reports that the service throttled the request.
type RateLimitError struct {
	Provider string
	Message  string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded: %s", e.Provider, e.Message)
}

// TokenLimitError reports a prompt or response exceeding the model's
// context. Retrying the same prompt cannot succeed.
type TokenLimitError struct {
	Provider string
	Message  string
}

func (e *TokenLimitError) Error() string {
	return fmt.Sprintf("%s token limit exceeded: %s", e.Provider, e.Message)
}

var tokenLimitHints = []string{"token", "context", "length", "too long", "too large"}

// classify turns a non-200 response into one of the error types.
func classify(provider string, status int, body string) error {
	message := strings.TrimSpace(body)
	lower := strings.ToLower(message)

	switch {
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Provider: provider, Message: message}
	case status == http.StatusRequestEntityTooLarge:
		return &TokenLimitError{Provider: provider, Message: message}
	case status == http.StatusBadRequest && containsAny(lower, tokenLimitHints):
		return &TokenLimitError{Provider: provider, Message: message}
	}

	transient := status >= 500 || status == http.StatusRequestTimeout
	return &APIError{Provider: provider, StatusCode: status, Message: message, Transient: transient}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Retryable reports whether `err` is a transient service failure.
func Retryable(err error) bool {
	var rateLimit *RateLimitError
	var tokenLimit *TokenLimitError
	var apiErr *APIError
	switch {
	case errors.As(err, &tokenLimit):
		return false
	case errors.As(err, &rateLimit):
		return true
	case errors.As(err, &apiErr):
		return apiErr.Transient
	}
	return false
}
