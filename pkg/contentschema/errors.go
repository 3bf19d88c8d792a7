package contentschema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrModelNotFound indicates a content model was not found
	ErrModelNotFound = errors.New("content model not found")

	// ErrFieldNotFound indicates a content field was not found
	ErrFieldNotFound = errors.New("content field not found")

	// ErrRelationNotFound indicates a relation was not found
	ErrRelationNotFound = errors.New("relation not found")

	// ErrRuleNotFound indicates a validation rule was not found
	ErrRuleNotFound = errors.New("validation rule not found")

	// ErrUnknownFieldType indicates a field type outside the taxonomy
	ErrUnknownFieldType = errors.New("unknown field type")

	// ErrUnknownRuleType indicates a rule type outside the taxonomy
	ErrUnknownRuleType = errors.New("unknown rule type")

	// ErrInvalidCardinality indicates a relation cardinality outside the declared set
	ErrInvalidCardinality = errors.New("invalid relation cardinality")

	// ErrInvalidOnDelete indicates a delete policy outside the declared set
	ErrInvalidOnDelete = errors.New("invalid on-delete action")
)

// SchemaError reports a field or rule settings payload that does not match
// the shape its type declares. Callers should correct the input and retry;
// the error is never transient.
type SchemaError struct {
	Tag    string // field or rule type the payload was validated against
	Key    string // offending settings key
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid settings for %s: key %q %s", e.Tag, e.Key, e.Reason)
}

// InvalidOrderError reports a reorder whose id sequence is not a permutation
// of the model's current field id set.
type InvalidOrderError struct {
	ModelID   uuid.UUID
	Missing   []uuid.UUID // current field ids absent from the sequence
	Duplicate []uuid.UUID // ids appearing more than once
	Unknown   []uuid.UUID // ids that belong to no field of the model
}

func (e *InvalidOrderError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %v", e.Missing))
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, fmt.Sprintf("duplicate %v", e.Duplicate))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown %v", e.Unknown))
	}
	return fmt.Sprintf("invalid field order for model %s: %s", e.ModelID, strings.Join(parts, "; "))
}

// ReferentialIntegrityError reports a model delete refused because a
// restrict-policy relation still references the model. It carries the
// blocking relation's identity so the caller can resolve it.
type ReferentialIntegrityError struct {
	ModelID      uuid.UUID
	RelationID   uuid.UUID
	RelationName string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("model %s is referenced by relation %q (%s) with on_delete=restrict",
		e.ModelID, e.RelationName, e.RelationID)
}

// ModelError represents an error related to model mutation operations
type ModelError struct {
	ModelID uuid.UUID
	Op      string
	Err     error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model operation %s failed for model %s: %v", e.Op, e.ModelID, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// RelationError represents an error related to relation operations
type RelationError struct {
	RelationID uuid.UUID
	Op         string
	Err        error
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("relation operation %s failed for relation %s: %v", e.Op, e.RelationID, e.Err)
}

func (e *RelationError) Unwrap() error {
	return e.Err
}
