package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// RejectedError is a request the vault answered with success=false.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string { return e.Message }
