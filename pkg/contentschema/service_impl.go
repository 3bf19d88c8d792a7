package contentschema

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// service implements the Service interface
type service struct {
	repository Repository
	tenants    TenantResolver
	events     EventSink
	log        *zap.Logger

	// locks serializes mutations per model id so two concurrent updates can
	// never interleave their delete/reinsert phases. Reads take no lock.
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithTenantResolver sets the tenant resolver used when a request carries no
// explicit tenant.
func WithTenantResolver(resolver TenantResolver) Option {
	return func(s *service) {
		s.tenants = resolver
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.events = sink
	}
}

// WithLogger sets the logger used for sink failures and other non-fatal
// conditions.
func WithLogger(log *zap.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		tenants: ContextTenantResolver{},
		log:     zap.NewNop(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// lockModel acquires the per-model mutation lock and returns its release
// function.
func (s *service) lockModel(id uuid.UUID) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// fireEvent logs a sink failure. Sink errors never fail the operation that
// produced the event.
func (s *service) fireEvent(event string, err error) {
	if err != nil {
		s.log.Warn("event sink failure", zap.String("event", event), zap.Error(err))
	}
}

// Model operations

func (s *service) CreateModel(ctx context.Context, req CreateModelRequest) (*ContentModel, error) {
	tenantID := req.TenantID
	if tenantID == nil && s.tenants != nil {
		resolved, err := s.tenants.ResolveTenant(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve tenant: %w", err)
		}
		tenantID = resolved
	}

	// Validate every field spec before the first write so a bad spec can
	// never leave a half-created model behind.
	if err := validateFieldSpecs(req.Fields); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	model := &ContentModel{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        req.Name,
		Slug:        NormalizeSlug(req.Slug),
		Description: req.Description,
		Settings:    req.Settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.repository.InTransaction(ctx, func(repo Repository) error {
		if err := repo.CreateModel(ctx, model); err != nil {
			return err
		}
		for i, spec := range req.Fields {
			field := buildField(model.ID, spec, i, nil, now)
			if err := repo.CreateField(ctx, field); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &ModelError{ModelID: model.ID, Op: "create", Err: err}
	}

	if s.events != nil {
		s.fireEvent("model.created", s.events.ModelCreated(ctx, model))
	}

	return model, nil
}

func (s *service) GetModel(ctx context.Context, id uuid.UUID) (*ContentModel, error) {
	return s.repository.GetModel(ctx, id)
}

func (s *service) ListModels(ctx context.Context) ([]*ContentModel, error) {
	var tenantID *uuid.UUID
	if s.tenants != nil {
		resolved, err := s.tenants.ResolveTenant(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve tenant: %w", err)
		}
		tenantID = resolved
	}
	return s.repository.ListModels(ctx, tenantID)
}

func (s *service) UpdateModel(ctx context.Context, req UpdateModelRequest) (*ContentModel, error) {
	unlock := s.lockModel(req.ModelID)
	defer unlock()

	model, err := s.repository.GetModel(ctx, req.ModelID)
	if err != nil {
		return nil, err
	}

	if err := validateFieldSpecs(req.Fields); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if req.Name != nil {
		model.Name = *req.Name
	}
	if req.Slug != nil {
		model.Slug = NormalizeSlug(*req.Slug)
	}
	if req.Description != nil {
		model.Description = *req.Description
	}
	if req.Settings != nil {
		model.Settings = req.Settings
	}
	model.UpdatedAt = now

	err = s.repository.InTransaction(ctx, func(repo Repository) error {
		current, err := repo.ListFields(ctx, req.ModelID)
		if err != nil {
			return err
		}
		currentIDs := make(map[uuid.UUID]*ContentField, len(current))
		for _, f := range current {
			currentIDs[f.ID] = f
		}

		if err := repo.UpdateModel(ctx, model); err != nil {
			return err
		}

		// Whole-list replacement: delete every field row, then reinsert the
		// new list with dense positions. Renames, type changes, reorders and
		// removals all fall out of this one pass.
		if err := repo.DeleteFieldsByModel(ctx, req.ModelID); err != nil {
			return err
		}

		kept := make(map[uuid.UUID]bool, len(req.Fields))
		for i, spec := range req.Fields {
			var existing *ContentField
			if spec.ID != nil {
				existing = currentIDs[*spec.ID]
			}
			field := buildField(req.ModelID, spec, i, existing, now)
			if err := repo.CreateField(ctx, field); err != nil {
				return err
			}
			kept[field.ID] = true
		}

		// Rules bound to fields that did not survive the replacement are
		// metadata, not content: cascade-delete them.
		for id := range currentIDs {
			if !kept[id] {
				if err := repo.DeleteValidationRulesByField(ctx, id); err != nil {
					return err
				}
			}
		}

		// Rules bound only by name follow the same policy: the replacement
		// defines the complete field set, so a rule naming a field outside
		// it is orphaned and goes with it.
		keptNames := make(map[string]bool, len(req.Fields))
		for _, spec := range req.Fields {
			keptNames[spec.Name] = true
		}
		rules, err := repo.ListValidationRulesByModel(ctx, req.ModelID)
		if err != nil {
			return err
		}
		for _, rule := range rules {
			if rule.FieldID == nil && rule.FieldName != "" && !keptNames[rule.FieldName] {
				if err := repo.DeleteValidationRule(ctx, rule.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, &ModelError{ModelID: req.ModelID, Op: "update", Err: err}
	}

	if s.events != nil {
		s.fireEvent("model.updated", s.events.ModelUpdated(ctx, model))
	}

	return model, nil
}

func (s *service) DeleteModel(ctx context.Context, id uuid.UUID) error {
	unlock := s.lockModel(id)
	defer unlock()

	if _, err := s.repository.GetModel(ctx, id); err != nil {
		return err
	}

	err := s.repository.InTransaction(ctx, func(repo Repository) error {
		// Listed inside the transaction so a relation attached between the
		// lookup and the delete cannot slip past the restrict check.
		relations, err := repo.ListRelationsByModel(ctx, id)
		if err != nil {
			return err
		}
		for _, rel := range relations {
			if rel.OnDelete == OnDeleteRestrict {
				return &ReferentialIntegrityError{
					ModelID:      id,
					RelationID:   rel.ID,
					RelationName: rel.Name,
				}
			}
		}

		for _, rel := range relations {
			switch rel.OnDelete {
			case OnDeleteCascade:
				if err := repo.DeleteRelation(ctx, rel.ID); err != nil {
					return err
				}
			case OnDeleteSetNull:
				if rel.SourceModelID != nil && *rel.SourceModelID == id {
					rel.SourceModelID = nil
				}
				if rel.TargetModelID != nil && *rel.TargetModelID == id {
					rel.TargetModelID = nil
				}
				rel.UpdatedAt = time.Now().UTC()
				if err := repo.UpdateRelation(ctx, rel); err != nil {
					return err
				}
			}
		}
		if err := repo.DeleteValidationRulesByModel(ctx, id); err != nil {
			return err
		}
		if err := repo.DeleteFieldsByModel(ctx, id); err != nil {
			return err
		}
		return repo.DeleteModel(ctx, id)
	})
	if err != nil {
		var refErr *ReferentialIntegrityError
		if errors.As(err, &refErr) {
			return refErr
		}
		return &ModelError{ModelID: id, Op: "delete", Err: err}
	}

	if s.events != nil {
		s.fireEvent("model.deleted", s.events.ModelDeleted(ctx, id))
	}

	return nil
}

// Field operations

func (s *service) ListFields(ctx context.Context, modelID uuid.UUID) ([]*ContentField, error) {
	if _, err := s.repository.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	return s.repository.ListFields(ctx, modelID)
}

func (s *service) ReorderFields(ctx context.Context, modelID uuid.UUID, order []uuid.UUID) ([]*ContentField, error) {
	unlock := s.lockModel(modelID)
	defer unlock()

	if _, err := s.repository.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	current, err := s.repository.ListFields(ctx, modelID)
	if err != nil {
		return nil, err
	}

	if err := checkPermutation(modelID, current, order); err != nil {
		return nil, err
	}

	err = s.repository.InTransaction(ctx, func(repo Repository) error {
		return repo.UpdateFieldPositions(ctx, modelID, order)
	})
	if err != nil {
		return nil, &ModelError{ModelID: modelID, Op: "reorder", Err: err}
	}

	return s.repository.ListFields(ctx, modelID)
}

// checkPermutation verifies that order is exactly a permutation of the given
// field set.
func checkPermutation(modelID uuid.UUID, current []*ContentField, order []uuid.UUID) error {
	currentIDs := make(map[uuid.UUID]bool, len(current))
	for _, f := range current {
		currentIDs[f.ID] = true
	}

	orderErr := &InvalidOrderError{ModelID: modelID}
	seen := make(map[uuid.UUID]bool, len(order))
	for _, id := range order {
		if !currentIDs[id] {
			orderErr.Unknown = append(orderErr.Unknown, id)
			continue
		}
		if seen[id] {
			orderErr.Duplicate = append(orderErr.Duplicate, id)
			continue
		}
		seen[id] = true
	}
	for _, f := range current {
		if !seen[f.ID] {
			orderErr.Missing = append(orderErr.Missing, f.ID)
		}
	}
	// A duplicate of a present id also leaves some id missing; report both.
	if len(orderErr.Missing) > 0 || len(orderErr.Duplicate) > 0 || len(orderErr.Unknown) > 0 {
		return orderErr
	}
	return nil
}

// Relation operations

func (s *service) CreateRelation(ctx context.Context, req CreateRelationRequest) (*Relation, error) {
	if !req.Cardinality.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCardinality, req.Cardinality)
	}
	if !req.OnDelete.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOnDelete, req.OnDelete)
	}

	// Both endpoints must resolve to existing models. Self-relations are
	// legal (e.g. "parent category").
	if _, err := s.repository.GetModel(ctx, req.SourceModelID); err != nil {
		return nil, fmt.Errorf("source model: %w", err)
	}
	if _, err := s.repository.GetModel(ctx, req.TargetModelID); err != nil {
		return nil, fmt.Errorf("target model: %w", err)
	}

	now := time.Now().UTC()
	source := req.SourceModelID
	target := req.TargetModelID
	relation := &Relation{
		ID:            uuid.New(),
		Name:          req.Name,
		SourceModelID: &source,
		TargetModelID: &target,
		Cardinality:   req.Cardinality,
		Required:      req.Required,
		OnDelete:      req.OnDelete,
		Description:   req.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repository.CreateRelation(ctx, relation); err != nil {
		return nil, &RelationError{RelationID: relation.ID, Op: "create", Err: err}
	}

	if s.events != nil {
		s.fireEvent("relation.created", s.events.RelationCreated(ctx, relation))
	}

	return relation, nil
}

func (s *service) GetRelation(ctx context.Context, id uuid.UUID) (*Relation, error) {
	return s.repository.GetRelation(ctx, id)
}

func (s *service) UpdateRelation(ctx context.Context, req UpdateRelationRequest) (*Relation, error) {
	relation, err := s.repository.GetRelation(ctx, req.RelationID)
	if err != nil {
		return nil, err
	}

	if req.Cardinality != nil {
		if !req.Cardinality.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCardinality, *req.Cardinality)
		}
		relation.Cardinality = *req.Cardinality
	}
	if req.OnDelete != nil {
		if !req.OnDelete.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOnDelete, *req.OnDelete)
		}
		relation.OnDelete = *req.OnDelete
	}
	if req.Name != nil {
		relation.Name = *req.Name
	}
	if req.Description != nil {
		relation.Description = *req.Description
	}
	if req.Required != nil {
		relation.Required = *req.Required
	}
	relation.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateRelation(ctx, relation); err != nil {
		return nil, &RelationError{RelationID: relation.ID, Op: "update", Err: err}
	}

	return relation, nil
}

func (s *service) ListRelations(ctx context.Context) ([]*Relation, error) {
	return s.repository.ListRelations(ctx)
}

func (s *service) DeleteRelation(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteRelation(ctx, id); err != nil {
		return err
	}
	if s.events != nil {
		s.fireEvent("relation.deleted", s.events.RelationDeleted(ctx, id))
	}
	return nil
}

// Validation rule operations

func (s *service) CreateValidationRule(ctx context.Context, req CreateValidationRuleRequest) (*ValidationRule, error) {
	if _, ok := ruleSettingSchemas[req.Type]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleType, req.Type)
	}
	if err := ValidateRuleSettings(req.Type, req.Settings); err != nil {
		return nil, err
	}
	if req.Type == RuleTypeCustom && req.ErrorMessage == "" {
		return nil, &SchemaError{Tag: string(RuleTypeCustom), Key: "errorMessage", Reason: "is required"}
	}

	if _, err := s.repository.GetModel(ctx, req.ModelID); err != nil {
		return nil, err
	}
	if req.FieldID == nil && req.FieldName == "" {
		return nil, fmt.Errorf("validation rule requires a field id or field name")
	}
	fields, err := s.repository.ListFields(ctx, req.ModelID)
	if err != nil {
		return nil, err
	}
	fieldID := req.FieldID
	if fieldID != nil {
		var found bool
		for _, f := range fields {
			if f.ID == *fieldID {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, *fieldID)
		}
	} else {
		// Bind by name to the persisted field when one exists so the rule
		// follows that field's identity through renames and reorders. The
		// name reference stays as-is only while no such field is persisted.
		for _, f := range fields {
			if f.Name == req.FieldName {
				id := f.ID
				fieldID = &id
				break
			}
		}
	}

	now := time.Now().UTC()
	rule := &ValidationRule{
		ID:           uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		ModelID:      req.ModelID,
		FieldID:      fieldID,
		FieldName:    req.FieldName,
		Type:         req.Type,
		Settings:     req.Settings,
		IsActive:     req.IsActive,
		ErrorMessage: req.ErrorMessage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repository.CreateValidationRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("create validation rule: %w", err)
	}

	if s.events != nil {
		s.fireEvent("rule.created", s.events.RuleCreated(ctx, rule))
	}

	return rule, nil
}

func (s *service) GetValidationRule(ctx context.Context, id uuid.UUID) (*ValidationRule, error) {
	return s.repository.GetValidationRule(ctx, id)
}

func (s *service) UpdateValidationRule(ctx context.Context, req UpdateValidationRuleRequest) (*ValidationRule, error) {
	rule, err := s.repository.GetValidationRule(ctx, req.RuleID)
	if err != nil {
		return nil, err
	}

	if req.Settings != nil {
		if err := ValidateRuleSettings(rule.Type, req.Settings); err != nil {
			return nil, err
		}
		rule.Settings = req.Settings
	}
	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.ErrorMessage != nil {
		rule.ErrorMessage = *req.ErrorMessage
	}
	if rule.Type == RuleTypeCustom && rule.ErrorMessage == "" {
		return nil, &SchemaError{Tag: string(RuleTypeCustom), Key: "errorMessage", Reason: "is required"}
	}
	rule.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateValidationRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("update validation rule: %w", err)
	}

	return rule, nil
}

func (s *service) ListValidationRules(ctx context.Context) ([]*ValidationRule, error) {
	return s.repository.ListValidationRules(ctx)
}

func (s *service) ListValidationRulesByModel(ctx context.Context, modelID uuid.UUID) ([]*ValidationRule, error) {
	if _, err := s.repository.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	return s.repository.ListValidationRulesByModel(ctx, modelID)
}

func (s *service) DeleteValidationRule(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteValidationRule(ctx, id); err != nil {
		return err
	}
	if s.events != nil {
		s.fireEvent("rule.deleted", s.events.RuleDeleted(ctx, id))
	}
	return nil
}

// Helpers

// validateFieldSpecs checks every spec's name, type and settings shape.
func validateFieldSpecs(specs []FieldSpec) error {
	for i, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if _, ok := fieldSettingSchemas[spec.Type]; !ok {
			return &SchemaError{Tag: string(spec.Type), Key: "type", Reason: "unknown field type"}
		}
		if err := ValidateFieldSettings(spec.Type, spec.Settings); err != nil {
			return err
		}
	}
	return nil
}

// buildField materializes a draft spec at the given position. When the spec
// carries the identity of an existing field, that identity (and creation
// time) is preserved across the replacement; otherwise a server id is
// assigned and any client-proposed id is discarded.
func buildField(modelID uuid.UUID, spec FieldSpec, position int, existing *ContentField, now time.Time) *ContentField {
	field := &ContentField{
		ID:            uuid.New(),
		ModelID:       modelID,
		Name:          spec.Name,
		Type:          spec.Type,
		Required:      spec.Required,
		Settings:      spec.Settings,
		OrderPosition: position,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if existing != nil {
		field.ID = existing.ID
		field.CreatedAt = existing.CreatedAt
	}
	return field
}
