package practicum

import "fmt"

// TransportError wraps any failure to complete the HTTP exchange: timeouts,
// refused connections, redirect loops, broken reads.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("practicum request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-200 response from the statuses endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("practicum responded with HTTP %d", e.Code)
}

// DecodeError reports a response body that is not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("practicum response is not valid JSON: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
