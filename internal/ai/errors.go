package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidAPIKey        Kind = "invalid_api_key"
	KindRateLimitExceeded    Kind = "rate_limit_exceeded"
	KindInsufficientFunds    Kind = "insufficient_funds"
	KindInvalidRequestFormat Kind = "invalid_request_format"
	KindModelNotFound        Kind = "model_not_found"
	KindTokenLimitExceeded   Kind = "token_limit_exceeded"
	KindAPITimeout           Kind = "api_timeout"
	KindAPICallError         Kind = "api_call_error"
	KindEmptyResponse        Kind = "empty_response"
)

// Error carries the failure kind the pipeline branches on plus the detail
// that goes to the logs only.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ai: %s", e.Kind)
	}
	return fmt.Sprintf("ai: %s: %s", e.Kind, e.Message)
}

func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

func kindFromStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindInvalidAPIKey
	case http.StatusTooManyRequests:
		return KindRateLimitExceeded
	case http.StatusPaymentRequired:
		return KindInsufficientFunds
	case http.StatusBadRequest:
		return KindInvalidRequestFormat
	case http.StatusNotFound:
		return KindModelNotFound
	case http.StatusRequestEntityTooLarge:
		return KindTokenLimitExceeded
	case http.StatusServiceUnavailable:
		return KindAPITimeout
	default:
		return KindAPICallError
	}
}

// wrapTransportErr distinguishes cancellation from plain transport failure.
func wrapTransportErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindAPITimeout, Message: err.Error()}
	}
	return &Error{Kind: KindAPICallError, Message: err.Error()}
}
