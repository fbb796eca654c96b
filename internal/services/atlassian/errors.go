package atlassian

import (
	"fmt"
	"strings"
)

// ValidationError is returned when a client is constructed from a
// configuration that fails validation. It carries every message the
// configuration accumulated, not just the first.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Errors, "; "))
}

// ConnectionError indicates the gateway or the Atlassian service behind it
// could not be reached or rejected the request.
type ConnectionError struct {
	Service string
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s connection failed: %s: %v", e.Service, e.Message, e.Err)
	}
	return fmt.Sprintf("%s connection failed: %s", e.Service, e.Message)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates a gateway call exceeded its deadline.
type TimeoutError struct {
	Service string
	Message string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request timed out: %s", e.Service, e.Message)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
