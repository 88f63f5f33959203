// Package errs defines the error kinds surfaced by the analysis pipeline and
// their mapping to HTTP statuses and user-facing messages.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an error.
type Kind string

const (
	Internal               Kind = "internal"
	InvalidURL             Kind = "invalid_url"
	InvalidInput           Kind = "invalid_input"
	FetchFailed            Kind = "fetch_failed"
	Unauthorized           Kind = "unauthorized"
	NotFound               Kind = "not_found"
	RateLimited            Kind = "rate_limited"
	SubscriptionRequired   Kind = "subscription_required"
	ProjectLimitReached    Kind = "project_limit_reached"
	UpstreamError          Kind = "upstream_error"
	UpstreamRateLimited    Kind = "upstream_rate_limited"
	UpstreamQuotaExhausted Kind = "upstream_quota_exhausted"
	PersistenceFailure     Kind = "persistence_failure"
	NotConfigured          Kind = "not_configured"
)

// Error is an error with a Kind. Message is internal detail and is never sent
// to clients; use UserMessage for that.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the status code returned to clients.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidURL, InvalidInput:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case SubscriptionRequired, ProjectLimitReached:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case RateLimited, UpstreamRateLimited:
		return http.StatusTooManyRequests
	case FetchFailed, UpstreamError:
		return http.StatusBadGateway
	case UpstreamQuotaExhausted, NotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the fixed client-facing message for a kind.
func UserMessage(kind Kind) string {
	switch kind {
	case InvalidURL:
		return "Invalid URL. Please enter a valid public http(s) address."
	case InvalidInput:
		return "Invalid request."
	case FetchFailed:
		return "The page could not be fetched. Please check the URL and try again."
	case Unauthorized:
		return "Authentication required."
	case NotFound:
		return "Not found."
	case RateLimited:
		return "Too many requests. Please wait a moment before analyzing again."
	case SubscriptionRequired:
		return "An active subscription is required for this feature."
	case ProjectLimitReached:
		return "Your plan's project limit has been reached. Upgrade to add more projects."
	case UpstreamRateLimited:
		return "Too many requests. Please wait a moment."
	case UpstreamQuotaExhausted, UpstreamError:
		return "Service temporarily unavailable."
	case NotConfigured:
		return "Analysis service is not configured."
	default:
		return "An error occurred during the analysis. Please try again."
	}
}
