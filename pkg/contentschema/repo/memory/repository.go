package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/flexcms/content-schema/pkg/contentschema"
)

// Repository implements contentschema.Repository using in-memory storage
type Repository struct {
	mu        sync.RWMutex
	models    map[uuid.UUID]*contentschema.ContentModel
	fields    map[uuid.UUID]*contentschema.ContentField
	relations map[uuid.UUID]*contentschema.Relation
	rules     map[uuid.UUID]*contentschema.ValidationRule

	// txMu serializes InTransaction calls so the snapshot/restore pair of
	// one logical transaction cannot interleave with another's.
	txMu sync.Mutex
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		models:    make(map[uuid.UUID]*contentschema.ContentModel),
		fields:    make(map[uuid.UUID]*contentschema.ContentField),
		relations: make(map[uuid.UUID]*contentschema.Relation),
		rules:     make(map[uuid.UUID]*contentschema.ValidationRule),
	}
}

// snapshot captures the current contents of every registry.
type snapshot struct {
	models    map[uuid.UUID]*contentschema.ContentModel
	fields    map[uuid.UUID]*contentschema.ContentField
	relations map[uuid.UUID]*contentschema.Relation
	rules     map[uuid.UUID]*contentschema.ValidationRule
}

// InTransaction runs fn and restores the pre-call state when it fails. This
// is the compensating-saga fallback for a store without real transactions:
// concurrent readers may observe intermediate state while fn runs, which is
// the documented degraded-consistency mode, but a failed fn never leaves a
// partial write behind.
func (r *Repository) InTransaction(ctx context.Context, fn func(contentschema.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	snap := r.takeSnapshot()
	if err := fn(r); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

func (r *Repository) takeSnapshot() snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := snapshot{
		models:    make(map[uuid.UUID]*contentschema.ContentModel, len(r.models)),
		fields:    make(map[uuid.UUID]*contentschema.ContentField, len(r.fields)),
		relations: make(map[uuid.UUID]*contentschema.Relation, len(r.relations)),
		rules:     make(map[uuid.UUID]*contentschema.ValidationRule, len(r.rules)),
	}
	// Settings maps are copied too: a struct copy alone would share them
	// with live state, and an in-place map write inside a failed callback
	// would survive the restore.
	for id, m := range r.models {
		c := *m
		c.Settings = copySettings(m.Settings)
		snap.models[id] = &c
	}
	for id, f := range r.fields {
		c := *f
		c.Settings = copySettings(f.Settings)
		snap.fields[id] = &c
	}
	for id, rel := range r.relations {
		c := *rel
		snap.relations[id] = &c
	}
	for id, rule := range r.rules {
		c := *rule
		c.Settings = copySettings(rule.Settings)
		snap.rules[id] = &c
	}
	return snap
}

func copySettings(settings map[string]interface{}) map[string]interface{} {
	if settings == nil {
		return nil
	}
	c := make(map[string]interface{}, len(settings))
	for k, v := range settings {
		c[k] = v
	}
	return c
}

func (r *Repository) restore(snap snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.models = snap.models
	r.fields = snap.fields
	r.relations = snap.relations
	r.rules = snap.rules
}

// Model operations

func (r *Repository) CreateModel(ctx context.Context, model *contentschema.ContentModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	modelCopy := *model
	r.models[model.ID] = &modelCopy

	return nil
}

func (r *Repository) GetModel(ctx context.Context, id uuid.UUID) (*contentschema.ContentModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	model, exists := r.models[id]
	if !exists {
		return nil, contentschema.ErrModelNotFound
	}

	modelCopy := *model
	return &modelCopy, nil
}

func (r *Repository) UpdateModel(ctx context.Context, model *contentschema.ContentModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[model.ID]; !exists {
		return contentschema.ErrModelNotFound
	}

	modelCopy := *model
	r.models[model.ID] = &modelCopy

	return nil
}

func (r *Repository) DeleteModel(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[id]; !exists {
		return contentschema.ErrModelNotFound
	}

	delete(r.models, id)
	return nil
}

func (r *Repository) ListModels(ctx context.Context, tenantID *uuid.UUID) ([]*contentschema.ContentModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*contentschema.ContentModel{}
	for _, model := range r.models {
		if !sameTenant(model.TenantID, tenantID) {
			continue
		}
		modelCopy := *model
		result = append(result, &modelCopy)
	}

	// Sort by created_at descending, newest first
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func sameTenant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Field operations

func (r *Repository) CreateField(ctx context.Context, field *contentschema.ContentField) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A field cannot exist without an owning model
	if _, exists := r.models[field.ModelID]; !exists {
		return contentschema.ErrModelNotFound
	}

	fieldCopy := *field
	r.fields[field.ID] = &fieldCopy

	return nil
}

func (r *Repository) ListFields(ctx context.Context, modelID uuid.UUID) ([]*contentschema.ContentField, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*contentschema.ContentField{}
	for _, field := range r.fields {
		if field.ModelID == modelID {
			fieldCopy := *field
			result = append(result, &fieldCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderPosition < result[j].OrderPosition
	})

	return result, nil
}

func (r *Repository) DeleteFieldsByModel(ctx context.Context, modelID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, field := range r.fields {
		if field.ModelID == modelID {
			delete(r.fields, id)
		}
	}
	return nil
}

func (r *Repository) UpdateFieldPositions(ctx context.Context, modelID uuid.UUID, order []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for position, id := range order {
		field, exists := r.fields[id]
		if !exists || field.ModelID != modelID {
			return contentschema.ErrFieldNotFound
		}
		field.OrderPosition = position
	}
	return nil
}

// Relation operations

func (r *Repository) CreateRelation(ctx context.Context, relation *contentschema.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	relationCopy := *relation
	r.relations[relation.ID] = &relationCopy

	return nil
}

func (r *Repository) GetRelation(ctx context.Context, id uuid.UUID) (*contentschema.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	relation, exists := r.relations[id]
	if !exists {
		return nil, contentschema.ErrRelationNotFound
	}

	relationCopy := *relation
	return &relationCopy, nil
}

func (r *Repository) UpdateRelation(ctx context.Context, relation *contentschema.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.relations[relation.ID]; !exists {
		return contentschema.ErrRelationNotFound
	}

	relationCopy := *relation
	r.relations[relation.ID] = &relationCopy

	return nil
}

func (r *Repository) DeleteRelation(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.relations[id]; !exists {
		return contentschema.ErrRelationNotFound
	}

	delete(r.relations, id)
	return nil
}

func (r *Repository) ListRelations(ctx context.Context) ([]*contentschema.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*contentschema.Relation{}
	for _, relation := range r.relations {
		relationCopy := *relation
		result = append(result, &relationCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *Repository) ListRelationsByModel(ctx context.Context, modelID uuid.UUID) ([]*contentschema.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*contentschema.Relation{}
	for _, relation := range r.relations {
		if relation.References(modelID) {
			relationCopy := *relation
			result = append(result, &relationCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Validation rule operations

func (r *Repository) CreateValidationRule(ctx context.Context, rule *contentschema.ValidationRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[rule.ModelID]; !exists {
		return contentschema.ErrModelNotFound
	}

	ruleCopy := *rule
	r.rules[rule.ID] = &ruleCopy

	return nil
}

func (r *Repository) GetValidationRule(ctx context.Context, id uuid.UUID) (*contentschema.ValidationRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, exists := r.rules[id]
	if !exists {
		return nil, contentschema.ErrRuleNotFound
	}

	ruleCopy := *rule
	return &ruleCopy, nil
}

func (r *Repository) UpdateValidationRule(ctx context.Context, rule *contentschema.ValidationRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.ID]; !exists {
		return contentschema.ErrRuleNotFound
	}

	ruleCopy := *rule
	r.rules[rule.ID] = &ruleCopy

	return nil
}

func (r *Repository) DeleteValidationRule(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[id]; !exists {
		return contentschema.ErrRuleNotFound
	}

	delete(r.rules, id)
	return nil
}

func (r *Repository) ListValidationRules(ctx context.Context) ([]*contentschema.ValidationRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*contentschema.ValidationRule{}
	for _, rule := range r.rules {
		ruleCopy := *rule
		result = append(result, &ruleCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *Repository) ListValidationRulesByModel(ctx context.Context, modelID uuid.UUID) ([]*contentschema.ValidationRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*contentschema.ValidationRule{}
	for _, rule := range r.rules {
		if rule.ModelID == modelID {
			ruleCopy := *rule
			result = append(result, &ruleCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *Repository) DeleteValidationRulesByModel(ctx context.Context, modelID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rule := range r.rules {
		if rule.ModelID == modelID {
			delete(r.rules, id)
		}
	}
	return nil
}

func (r *Repository) DeleteValidationRulesByField(ctx context.Context, fieldID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rule := range r.rules {
		if rule.FieldID != nil && *rule.FieldID == fieldID {
			delete(r.rules, id)
		}
	}
	return nil
}
