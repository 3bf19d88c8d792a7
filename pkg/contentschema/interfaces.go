package contentschema

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for schema persistence. Implementations
// are provided for in-memory storage and PostgreSQL under repo/.
type Repository interface {
	// Model operations
	CreateModel(ctx context.Context, model *ContentModel) error
	GetModel(ctx context.Context, id uuid.UUID) (*ContentModel, error)
	UpdateModel(ctx context.Context, model *ContentModel) error
	DeleteModel(ctx context.Context, id uuid.UUID) error
	ListModels(ctx context.Context, tenantID *uuid.UUID) ([]*ContentModel, error)

	// Field operations. Fields are only written through whole-list
	// replacement or position renumbering; there is no single-field update.
	CreateField(ctx context.Context, field *ContentField) error
	ListFields(ctx context.Context, modelID uuid.UUID) ([]*ContentField, error)
	DeleteFieldsByModel(ctx context.Context, modelID uuid.UUID) error
	UpdateFieldPositions(ctx context.Context, modelID uuid.UUID, order []uuid.UUID) error

	// Relation operations
	CreateRelation(ctx context.Context, relation *Relation) error
	GetRelation(ctx context.Context, id uuid.UUID) (*Relation, error)
	UpdateRelation(ctx context.Context, relation *Relation) error
	DeleteRelation(ctx context.Context, id uuid.UUID) error
	ListRelations(ctx context.Context) ([]*Relation, error)
	ListRelationsByModel(ctx context.Context, modelID uuid.UUID) ([]*Relation, error)

	// Validation rule operations
	CreateValidationRule(ctx context.Context, rule *ValidationRule) error
	GetValidationRule(ctx context.Context, id uuid.UUID) (*ValidationRule, error)
	UpdateValidationRule(ctx context.Context, rule *ValidationRule) error
	DeleteValidationRule(ctx context.Context, id uuid.UUID) error
	ListValidationRules(ctx context.Context) ([]*ValidationRule, error)
	ListValidationRulesByModel(ctx context.Context, modelID uuid.UUID) ([]*ValidationRule, error)
	DeleteValidationRulesByModel(ctx context.Context, modelID uuid.UUID) error
	DeleteValidationRulesByField(ctx context.Context, fieldID uuid.UUID) error

	// InTransaction runs fn against a repository view whose writes commit or
	// roll back as a unit. Implementations without real transactions must
	// restore their pre-call state when fn returns an error.
	InTransaction(ctx context.Context, fn func(Repository) error) error
}

// TenantResolver supplies the caller's tenant when a request does not carry
// one explicitly. Returning (nil, nil) means the caller has no tenant
// membership and the entity stays unscoped.
type TenantResolver interface {
	ResolveTenant(ctx context.Context) (*uuid.UUID, error)
}

// EventSink defines the interface for schema lifecycle event handling. Sink
// failures are logged by the service and never fail the originating
// operation.
type EventSink interface {
	// ModelCreated is fired after a model and its fields are committed
	ModelCreated(ctx context.Context, model *ContentModel) error

	// ModelUpdated is fired after a model mutation commits
	ModelUpdated(ctx context.Context, model *ContentModel) error

	// ModelDeleted is fired after a model is removed
	ModelDeleted(ctx context.Context, modelID uuid.UUID) error

	// RelationCreated is fired when a relation is created
	RelationCreated(ctx context.Context, relation *Relation) error

	// RelationDeleted is fired when a relation is removed
	RelationDeleted(ctx context.Context, relationID uuid.UUID) error

	// RuleCreated is fired when a validation rule is created
	RuleCreated(ctx context.Context, rule *ValidationRule) error

	// RuleDeleted is fired when a validation rule is removed
	RuleDeleted(ctx context.Context, ruleID uuid.UUID) error
}
