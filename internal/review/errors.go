package review

import "fmt"

// SchemaError reports a response or record whose shape violates the API
// contract.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "unexpected response shape: " + e.Reason
}

// UnknownStatusError reports a review status outside the known set.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown homework status %q", e.Status)
}
