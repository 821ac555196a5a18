package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheExpired indicates the cached entry has expired
	ErrCacheExpired = errors.New("cache entry expired")

	// ErrRateLimited indicates rate limiting was encountered
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("timeout")

	// ErrMissingCredentials indicates a required credential was not configured
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidConfig indicates the configuration is unusable
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectivity indicates an upstream system could not be reached
	ErrConnectivity = errors.New("connectivity failure")

	// ErrLockHeld indicates another run holds the advisory lock
	ErrLockHeld = errors.New("another run is in progress")
)

// Process exit codes. Success and no-op runs exit zero; configuration and
// connectivity problems are distinguished from other runtime failures so
// cron wrappers can alert differently.
const (
	ExitOK      = 0
	ExitRuntime = 1
	ExitConfig  = 2
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrConnectivity) {
		return ExitConfig
	}
	return ExitRuntime
}

// APIError represents an error response from an upstream HTTP API
type APIError struct {
	Service    string
	URL        string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error for %s: status %d: %v", e.Service, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s API error for %s: %v", e.Service, e.URL, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError
func NewAPIError(service, url string, statusCode int, err error) *APIError {
	return &APIError{
		Service:    service,
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// RetryableError indicates an error that can be retried
type RetryableError struct {
	Err        error
	RetryAfter int // Seconds to wait before retry, 0 if unknown
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 502, 503, 504:
			return true
		}
		// Cloudflare-style upstream errors
		if apiErr.StatusCode >= 520 && apiErr.StatusCode <= 530 {
			return true
		}
	}

	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// =============================================================================
// LLM Errors
// =============================================================================

// LLM sentinel errors
var (
	// ErrLLMNotConfigured indicates LLM provider is not configured
	ErrLLMNotConfigured = errors.New("LLM provider not configured")

	// ErrLLMMissingAPIKey indicates API key is required but not provided
	ErrLLMMissingAPIKey = errors.New("LLM API key is required")

	// ErrLLMMissingBaseURL indicates base URL is required but not provided
	ErrLLMMissingBaseURL = errors.New("LLM base URL is required")

	// ErrLLMMissingModel indicates model is required but not provided
	ErrLLMMissingModel = errors.New("LLM model is required")

	// ErrLLMRequestFailed indicates the LLM request failed
	ErrLLMRequestFailed = errors.New("LLM request failed")

	// ErrLLMRateLimited indicates rate limit was exceeded
	ErrLLMRateLimited = errors.New("LLM rate limit exceeded")

	// ErrLLMAuthFailed indicates authentication failed
	ErrLLMAuthFailed = errors.New("LLM authentication failed")

	// ErrLLMMalformedReply indicates the completion did not contain the
	// expected JSON object
	ErrLLMMalformedReply = errors.New("LLM reply is not a JSON object")
)

// LLMError represents an LLM-specific error
type LLMError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// NewLLMError creates a new LLMError
func NewLLMError(provider string, statusCode int, message string, err error) *LLMError {
	return &LLMError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}
