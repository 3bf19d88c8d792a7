package contentschema

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the content-schema library. All
// mutations leave the store equal to either the pre-call or the intended
// post-call state; no failed call leaves a third, corrupted state behind.
type Service interface {
	// Model operations
	CreateModel(ctx context.Context, req CreateModelRequest) (*ContentModel, error)
	GetModel(ctx context.Context, id uuid.UUID) (*ContentModel, error)
	ListModels(ctx context.Context) ([]*ContentModel, error)
	UpdateModel(ctx context.Context, req UpdateModelRequest) (*ContentModel, error)
	DeleteModel(ctx context.Context, id uuid.UUID) error

	// Field operations
	ListFields(ctx context.Context, modelID uuid.UUID) ([]*ContentField, error)
	ReorderFields(ctx context.Context, modelID uuid.UUID, order []uuid.UUID) ([]*ContentField, error)

	// Relation operations
	CreateRelation(ctx context.Context, req CreateRelationRequest) (*Relation, error)
	GetRelation(ctx context.Context, id uuid.UUID) (*Relation, error)
	UpdateRelation(ctx context.Context, req UpdateRelationRequest) (*Relation, error)
	ListRelations(ctx context.Context) ([]*Relation, error)
	DeleteRelation(ctx context.Context, id uuid.UUID) error

	// Validation rule operations
	CreateValidationRule(ctx context.Context, req CreateValidationRuleRequest) (*ValidationRule, error)
	GetValidationRule(ctx context.Context, id uuid.UUID) (*ValidationRule, error)
	UpdateValidationRule(ctx context.Context, req UpdateValidationRuleRequest) (*ValidationRule, error)
	ListValidationRules(ctx context.Context) ([]*ValidationRule, error)
	ListValidationRulesByModel(ctx context.Context, modelID uuid.UUID) ([]*ValidationRule, error)
	DeleteValidationRule(ctx context.Context, id uuid.UUID) error
}
