package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited indicates rate limit exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrSessionInvalid indicates the visitor profile behind a session is gone
	// and the client has to register again
	ErrSessionInvalid = errors.New("session invalid, registration required")
)

// RateLimitPolicy names one of the stacked admission policies
type RateLimitPolicy string

const (
	PolicySessionDaily RateLimitPolicy = "session_daily"
	PolicyGlobalDaily  RateLimitPolicy = "global_daily"
	PolicyWindow       RateLimitPolicy = "window"
)

// RateLimitError reports which policy rejected a request.
type RateLimitError struct {
	Policy RateLimitPolicy
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s", e.Policy)
}

// Is makes errors.Is(err, ErrRateLimited) match any policy.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Message is the short explanation shown to the visitor.
func (e *RateLimitError) Message() string {
	switch e.Policy {
	case PolicySessionDaily:
		return "You have reached the maximum number of questions for today. Please come back tomorrow."
	case PolicyGlobalDaily:
		return "The assistant is very busy today. Please try again tomorrow."
	default:
		return "You are sending messages too quickly. Please wait a moment."
	}
}
