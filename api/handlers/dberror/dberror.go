// Package dberror classifies storage-layer failures so HTTP handlers
// can map them to consistent responses across both backends.
package dberror

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/crewlytics/attrition/pkg/hr"
)

// ErrorType classifies database errors for appropriate handling.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeConnectivity indicates the database is unreachable.
	ErrorTypeConnectivity
	// ErrorTypeTimeout indicates the operation timed out.
	ErrorTypeTimeout
	// ErrorTypeAuth indicates authentication/authorization failure.
	ErrorTypeAuth
	// ErrorTypeNotFound indicates the requested record does not exist.
	ErrorTypeNotFound
	// ErrorTypeValidation indicates the input failed domain validation.
	ErrorTypeValidation
	// ErrorTypeIntegrity indicates a uniqueness or referential
	// integrity violation.
	ErrorTypeIntegrity
	// ErrorTypePartialSync indicates the primary write landed but a
	// follow-up step (audit append or the second backend) failed.
	ErrorTypePartialSync
)

// Classify determines the type of database error. Domain errors are
// checked first so wrapped driver errors keep their meaning.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	switch {
	case errors.Is(err, hr.ErrNotFound):
		return ErrorTypeNotFound
	case hr.IsValidation(err):
		return ErrorTypeValidation
	case hr.IsIntegrity(err):
		return ErrorTypeIntegrity
	case hr.IsPartialSync(err):
		return ErrorTypePartialSync
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeConnectivity
	}

	errStr := strings.ToLower(err.Error())

	connectivityPatterns := []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"no such host",
		"dial tcp",
		"dial unix",
		"eof",
		"broken pipe",
		"network is unreachable",
		"no route to host",
		"i/o timeout",
		"server selection error",
		"client is disconnected",
		"pool is closed",
		"conn closed",
	}
	for _, pattern := range connectivityPatterns {
		if strings.Contains(errStr, pattern) {
			return ErrorTypeConnectivity
		}
	}

	timeoutPatterns := []string{
		"timeout",
		"deadline exceeded",
		"context deadline",
		"timed out",
	}
	for _, pattern := range timeoutPatterns {
		if strings.Contains(errStr, pattern) {
			return ErrorTypeTimeout
		}
	}

	authPatterns := []string{
		"unauthorized",
		"authentication failed",
		"invalid credentials",
		"access denied",
		"permission denied",
		"password authentication failed",
	}
	for _, pattern := range authPatterns {
		if strings.Contains(errStr, pattern) {
			return ErrorTypeAuth
		}
	}

	return ErrorTypeUnknown
}

// HTTPStatus maps a classified error to the response status code.
func HTTPStatus(err error) int {
	switch Classify(err) {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeValidation, ErrorTypeIntegrity:
		return http.StatusBadRequest
	case ErrorTypePartialSync:
		return http.StatusBadGateway
	case ErrorTypeConnectivity, ErrorTypeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns a user-friendly error message based on the error type.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch Classify(err) {
	case ErrorTypeNotFound:
		return "Record not found."
	case ErrorTypeValidation:
		return err.Error()
	case ErrorTypeIntegrity:
		return "The change conflicts with existing records."
	case ErrorTypePartialSync:
		return "The update was recorded but a follow-up step failed. Check the sync status."
	case ErrorTypeConnectivity:
		return "Database temporarily unavailable. Please try again in a moment."
	case ErrorTypeTimeout:
		return "Request timed out. Please try again."
	case ErrorTypeAuth:
		return "Database authentication error. Please contact support."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// IsTransient returns true if the error is likely transient. Callers
// decide whether to surface it as retryable; nothing in this package
// retries on its own.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch Classify(err) {
	case ErrorTypeConnectivity, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}
