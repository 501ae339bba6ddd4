package driver

import (
	"errors"
	"fmt"

	"github.com/agenthands/aurehal/internal/core/model"
)

// Operation names one of the referential queries.
type Operation string

const (
	OpFindChildren      Operation = "find_children"
	OpFindParents       Operation = "find_parents"
	OpDescribe          Operation = "describe"
	OpCountPublications Operation = "count_publications"
)

// ErrInvalidID is returned before any request when an id is not a numeric
// docid.
var ErrInvalidID = errors.New("identifier is not a numeric docid")

// TransportError is a network failure or a non-success HTTP status.
type TransportError struct {
	Operation  Operation
	ID         model.ID
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: referential returned HTTP %d: %v", e.Operation, e.ID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: request failed: %v", e.Operation, e.ID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError is a response body that does not match the expected schema.
type ParseError struct {
	Operation Operation
	ID        model.ID
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: unexpected response: %v", e.Operation, e.ID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Failure describes a referential error for API responses.
type Failure struct {
	Kind      string    `json:"kind"`
	Operation Operation `json:"operation"`
	ID        model.ID  `json:"id"`
}

// Classify extracts the failing operation and identifier from err.
func Classify(err error) (Failure, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return Failure{Kind: "transport", Operation: te.Operation, ID: te.ID}, true
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return Failure{Kind: "parse", Operation: pe.Operation, ID: pe.ID}, true
	}
	return Failure{}, false
}
