package graph

import (
	"errors"
	"fmt"
)

// ErrNotConfigured indicates missing credentials or file locator.
var ErrNotConfigured = errors.New("graph source is not configured")

// StatusError is a non-success HTTP status from the token endpoint or Graph.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graph %s failed (%d)", e.Op, e.StatusCode)
}

// TransportError is a network-level failure talking to the token endpoint or Graph.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("graph %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
