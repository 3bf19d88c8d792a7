package contentschema

import "github.com/google/uuid"

// Request/Response DTOs

// FieldSpec is the in-flight draft of a field inside a create or update call.
// It is distinct from the persisted ContentField so a draft and a stored row
// are never confusable.
//
// ID is nil for a new field; the server assigns an identity on persist. A
// non-nil ID matching one of the model's current fields keeps that identity
// across a whole-list replacement, so validation rules bound by field id
// survive renames and reorders. A non-nil ID that matches nothing is treated
// as a client-proposed temporary id and replaced.
type FieldSpec struct {
	ID       *uuid.UUID
	Name     string
	Type     FieldType
	Required bool
	Settings map[string]interface{}
}

// CreateModelRequest contains parameters for creating a model together with
// its initial ordered field list. TenantID nil means the service resolves the
// tenant from the caller's context.
type CreateModelRequest struct {
	TenantID    *uuid.UUID
	Name        string
	Slug        string
	Description string
	Settings    map[string]interface{}
	Fields      []FieldSpec
}

// UpdateModelRequest contains a partial model patch plus the complete new
// ordered field list. Nil patch members leave the current value untouched;
// the field list always replaces the model's fields as a whole.
type UpdateModelRequest struct {
	ModelID     uuid.UUID
	Name        *string
	Slug        *string
	Description *string
	Settings    map[string]interface{}
	Fields      []FieldSpec
}

// CreateRelationRequest contains parameters for creating a relation
type CreateRelationRequest struct {
	Name          string
	SourceModelID uuid.UUID
	TargetModelID uuid.UUID
	Cardinality   Cardinality
	Required      bool
	OnDelete      OnDeleteAction
	Description   string
}

// UpdateRelationRequest contains a partial relation patch
type UpdateRelationRequest struct {
	RelationID  uuid.UUID
	Name        *string
	Description *string
	Cardinality *Cardinality
	Required    *bool
	OnDelete    *OnDeleteAction
}

// CreateValidationRuleRequest contains parameters for creating a validation
// rule. Exactly one of FieldID or FieldName identifies the target field. A
// FieldName matching a persisted field binds the rule to that field's
// identity; the name reference is kept only while no such field exists.
type CreateValidationRuleRequest struct {
	Name         string
	Description  string
	ModelID      uuid.UUID
	FieldID      *uuid.UUID
	FieldName    string
	Type         RuleType
	Settings     map[string]interface{}
	IsActive     bool
	ErrorMessage string
}

// UpdateValidationRuleRequest contains a partial rule patch
type UpdateValidationRuleRequest struct {
	RuleID       uuid.UUID
	Name         *string
	Description  *string
	Settings     map[string]interface{}
	IsActive     *bool
	ErrorMessage *string
}
