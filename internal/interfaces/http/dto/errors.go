package dto

import "net/http"

// Transport-level error codes. Domain errors keep their own codes
// (NOT_FOUND, STOCK_LIMIT_REACHED, ...) and are listed in ErrorCodeHTTPStatus below.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeDuplicateRequest is used when an idempotency key was already used
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeServiceUnavailable is used when a dependency is down
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeDuplicateRequest:   http.StatusConflict,
	ErrCodeRequestTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	// Shared domain errors
	"ALREADY_EXISTS":       http.StatusConflict,
	"INVALID_INPUT":        http.StatusBadRequest,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"INVALID_STATE":        http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	"INVALID_SESSION":    http.StatusBadRequest,
	"INVALID_BARCODE":    http.StatusBadRequest,
	"INVALID_NAME":       http.StatusBadRequest,
	"INVALID_PRICE":      http.StatusBadRequest,
	"INVALID_QUANTITY":   http.StatusBadRequest,
	"INVALID_THRESHOLD":  http.StatusBadRequest,
	"INVALID_STATUS":     http.StatusBadRequest,
	"INVALID_PAYMENT":    http.StatusBadRequest,
	"INVALID_CUSTOMER":   http.StatusBadRequest,
	"INVALID_FREQUENCY":  http.StatusBadRequest,
	"INVALID_DATE_RANGE": http.StatusBadRequest,
	"INVALID_QUERY":      http.StatusBadRequest,
	"INVALID_IMAGE":      http.StatusBadRequest,

	// Business rule errors -> 422 Unprocessable Entity
	"STOCK_LIMIT_REACHED":   http.StatusUnprocessableEntity,
	"EMPTY_CART":            http.StatusUnprocessableEntity,
	"INSUFFICIENT_PAYMENT":  http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK":    http.StatusUnprocessableEntity,
	"INVALID_TERM":          http.StatusUnprocessableEntity,
	"INVALID_INTEREST_RATE": http.StatusUnprocessableEntity,
	"INVALID_DOWN_PAYMENT":  http.StatusUnprocessableEntity,

	// Write failures part way through a multi-step operation
	"CHECKOUT_FAILED":      http.StatusInternalServerError,
	"HIRE_PURCHASE_FAILED": http.StatusInternalServerError,

	// Optional features that are switched off
	"RECEIPTS_DISABLED": http.StatusNotImplemented,
	"STORAGE_DISABLED":  http.StatusNotImplemented,
	"WATCH_UNAVAILABLE": http.StatusNotImplemented,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
