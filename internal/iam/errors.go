package iam

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when IAM answers a plain-text 404, or when
	// a stored team does not exist.
	ErrNotFound = errors.New("iam: not found")

	// ErrInvalidInput marks arguments that fail local validation.
	ErrInvalidInput = errors.New("iam: invalid input")

	// ErrInvalidToken indicates a session token failed validation.
	ErrInvalidToken = errors.New("iam: invalid token")
)

// GatewayError reports a malformed or unexpected response from the IAM
// service: a bad status, a foreign content type or an unparseable body.
type GatewayError struct {
	URL     string
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("failed to fetch %q from IAM: %s", e.URL, e.Message)
}
