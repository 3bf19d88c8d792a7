package contentschema

import (
	"time"

	"github.com/google/uuid"
)

// Cardinality is the domain type for relation multiplicity.
type Cardinality string

// Relation cardinality constants (typed).
const (
	CardinalityOneToOne   Cardinality = "oneToOne"
	CardinalityOneToMany  Cardinality = "oneToMany"
	CardinalityManyToOne  Cardinality = "manyToOne"
	CardinalityManyToMany Cardinality = "manyToMany"
)

// Valid reports whether c is one of the declared cardinalities.
func (c Cardinality) Valid() bool {
	switch c {
	case CardinalityOneToOne, CardinalityOneToMany, CardinalityManyToOne, CardinalityManyToMany:
		return true
	}
	return false
}

// OnDeleteAction is the domain type for a relation's delete policy.
type OnDeleteAction string

// Delete policy constants (typed).
const (
	OnDeleteCascade  OnDeleteAction = "cascade"
	OnDeleteSetNull  OnDeleteAction = "setNull"
	OnDeleteRestrict OnDeleteAction = "restrict"
)

// Valid reports whether a is one of the declared delete policies.
func (a OnDeleteAction) Valid() bool {
	switch a {
	case OnDeleteCascade, OnDeleteSetNull, OnDeleteRestrict:
		return true
	}
	return false
}

// ContentModel is a named, tenant-scoped schema definition. A model owns an
// ordered list of ContentFields which is only ever replaced as a whole; the
// model row itself never carries the field list.
//
// Slug is nil when unset. A blank slug is normalized to nil before persisting
// so a unique-slug constraint never sees two models colliding on "".
type ContentModel struct {
	ID          uuid.UUID              `json:"id"`
	TenantID    *uuid.UUID             `json:"tenant_id,omitempty"`
	Name        string                 `json:"name"`
	Slug        *string                `json:"slug,omitempty"`
	Description string                 `json:"description,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ContentField is one typed, positioned attribute of a model. Within one
// model the order positions form a dense 0..N-1 sequence after every
// successful mutation.
type ContentField struct {
	ID            uuid.UUID              `json:"id"`
	ModelID       uuid.UUID              `json:"model_id"`
	Name          string                 `json:"name"`
	Type          FieldType              `json:"type"`
	Required      bool                   `json:"required"`
	Settings      map[string]interface{} `json:"settings,omitempty"`
	OrderPosition int                    `json:"order_position"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// Relation is a typed, directed association between two models. Source and
// target are pointers because a setNull model deletion nulls the referencing
// side instead of removing the relation.
type Relation struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	SourceModelID *uuid.UUID     `json:"source_model_id,omitempty"`
	TargetModelID *uuid.UUID     `json:"target_model_id,omitempty"`
	Cardinality   Cardinality    `json:"cardinality"`
	Required      bool           `json:"required"`
	OnDelete      OnDeleteAction `json:"on_delete"`
	Description   string         `json:"description,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// References reports whether the relation points at the given model from
// either side.
func (r *Relation) References(modelID uuid.UUID) bool {
	if r.SourceModelID != nil && *r.SourceModelID == modelID {
		return true
	}
	if r.TargetModelID != nil && *r.TargetModelID == modelID {
		return true
	}
	return false
}

// ValidationRule is a named constraint bound to a (model, field) pair. The
// rule's Settings shape is constrained by its Type the same way a field's
// settings are constrained by its FieldType.
//
// FieldID is nil while the rule targets a field that has not been persisted
// yet; FieldName carries the reference in that case.
type ValidationRule struct {
	ID           uuid.UUID              `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	ModelID      uuid.UUID              `json:"model_id"`
	FieldID      *uuid.UUID             `json:"field_id,omitempty"`
	FieldName    string                 `json:"field_name,omitempty"`
	Type         RuleType               `json:"type"`
	Settings     map[string]interface{} `json:"settings,omitempty"`
	IsActive     bool                   `json:"is_active"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
