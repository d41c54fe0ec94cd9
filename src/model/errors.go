package model

import "errors"

// Standard error codes returned in API responses. These map to HTTP status
// codes so handlers produce a consistent envelope.
const (
	// 400 Bad Request
	ErrCodeBadRequest = "BAD_REQUEST"       // Malformed request syntax
	ErrCodeValidation = "VALIDATION_FAILED" // Input validation failed

	// 401 Unauthorized
	ErrCodeUnauthorized = "UNAUTHORIZED" // Authentication required

	// 403 Forbidden
	ErrCodeForbidden = "FORBIDDEN" // Permission denied

	// 404 Not Found
	ErrCodeNotFound = "NOT_FOUND" // Resource not found

	// 405 Method Not Allowed
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // HTTP method not supported

	// 409 Conflict
	ErrCodeConflict = "CONFLICT" // Resource already exists

	// 429 Too Many Requests
	ErrCodeRateLimit = "RATE_LIMITED" // Rate limit exceeded

	// 500 Internal Server Error
	ErrCodeInternal = "SERVER_ERROR" // Server error

	// 503 Service Unavailable
	ErrCodeUnavailable = "UNAVAILABLE" // No schedule snapshot loaded yet
)

// ErrorCodeToHTTP maps error codes to HTTP status codes.
var ErrorCodeToHTTP = map[string]int{
	ErrCodeBadRequest:       400,
	ErrCodeValidation:       400,
	ErrCodeUnauthorized:     401,
	ErrCodeForbidden:        403,
	ErrCodeNotFound:         404,
	ErrCodeMethodNotAllowed: 405,
	ErrCodeConflict:         409,
	ErrCodeRateLimit:        429,
	ErrCodeInternal:         500,
	ErrCodeUnavailable:      503,
}

// HTTPStatusCode returns the HTTP status code for an error code.
func HTTPStatusCode(code string) int {
	if status, ok := ErrorCodeToHTTP[code]; ok {
		return status
	}
	return 500
}

// Domain-specific errors
var (
	// Query errors
	ErrEmptyQuery = errors.New("query text cannot be empty")

	// Provider errors
	ErrProviderNotFound    = errors.New("provider not found")
	ErrProviderDisabled    = errors.New("provider is disabled")
	ErrProviderUnavailable = errors.New("provider is unavailable")
	ErrProviderTimeout     = errors.New("provider request timed out")
	ErrNoProviders         = errors.New("no providers available")

	// Schedule errors
	ErrNoSnapshot = errors.New("no schedule snapshot loaded")
	ErrNotFound   = errors.New("not found")

	// Social errors
	ErrDuplicateFriend = errors.New("friend link already exists")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)
