package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexcms/content-schema/pkg/contentschema"
	"github.com/flexcms/content-schema/pkg/contentschema/repo/memory"
)

func newModel(name string, tenantID *uuid.UUID) *contentschema.ContentModel {
	now := time.Now().UTC()
	return &contentschema.ContentModel{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newField(modelID uuid.UUID, name string, position int) *contentschema.ContentField {
	now := time.Now().UTC()
	return &contentschema.ContentField{
		ID:            uuid.New(),
		ModelID:       modelID,
		Name:          name,
		Type:          contentschema.FieldTypeText,
		OrderPosition: position,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestModelCRUD(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	model := newModel("Article", nil)
	require.NoError(t, repo.CreateModel(ctx, model))

	got, err := repo.GetModel(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, "Article", got.Name)

	// The repository stores copies; mutating the returned value must not
	// leak back into the store.
	got.Name = "Mutated"
	again, err := repo.GetModel(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, "Article", again.Name)

	model.Name = "Story"
	require.NoError(t, repo.UpdateModel(ctx, model))
	got, err = repo.GetModel(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, "Story", got.Name)

	require.NoError(t, repo.DeleteModel(ctx, model.ID))
	_, err = repo.GetModel(ctx, model.ID)
	assert.ErrorIs(t, err, contentschema.ErrModelNotFound)

	assert.ErrorIs(t, repo.DeleteModel(ctx, model.ID), contentschema.ErrModelNotFound)
}

func TestListModelsTenantFilter(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	tenant := uuid.New()
	require.NoError(t, repo.CreateModel(ctx, newModel("Scoped", &tenant)))
	require.NoError(t, repo.CreateModel(ctx, newModel("Unscoped", nil)))

	scoped, err := repo.ListModels(ctx, &tenant)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Scoped", scoped[0].Name)

	unscoped, err := repo.ListModels(ctx, nil)
	require.NoError(t, err)
	require.Len(t, unscoped, 1)
	assert.Equal(t, "Unscoped", unscoped[0].Name)
}

func TestFieldOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	model := newModel("Article", nil)
	require.NoError(t, repo.CreateModel(ctx, model))

	// A field cannot be created for a missing model.
	err := repo.CreateField(ctx, newField(uuid.New(), "orphan", 0))
	assert.ErrorIs(t, err, contentschema.ErrModelNotFound)

	f0 := newField(model.ID, "title", 0)
	f1 := newField(model.ID, "body", 1)
	require.NoError(t, repo.CreateField(ctx, f1))
	require.NoError(t, repo.CreateField(ctx, f0))

	// Listed in position order regardless of insertion order.
	fields, err := repo.ListFields(ctx, model.ID)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "title", fields[0].Name)
	assert.Equal(t, "body", fields[1].Name)

	require.NoError(t, repo.UpdateFieldPositions(ctx, model.ID, []uuid.UUID{f1.ID, f0.ID}))
	fields, err = repo.ListFields(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, "body", fields[0].Name)

	// Positions for a field of another model are refused.
	err = repo.UpdateFieldPositions(ctx, uuid.New(), []uuid.UUID{f0.ID})
	assert.ErrorIs(t, err, contentschema.ErrFieldNotFound)

	require.NoError(t, repo.DeleteFieldsByModel(ctx, model.ID))
	fields, err = repo.ListFields(ctx, model.ID)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestInTransactionRollback(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	model := newModel("Article", nil)
	require.NoError(t, repo.CreateModel(ctx, model))
	require.NoError(t, repo.CreateField(ctx, newField(model.ID, "title", 0)))

	boom := errors.New("boom")
	err := repo.InTransaction(ctx, func(tx contentschema.Repository) error {
		if err := tx.DeleteFieldsByModel(ctx, model.ID); err != nil {
			return err
		}
		if err := tx.CreateModel(ctx, newModel("Extra", nil)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Everything written inside the failed transaction is gone and
	// everything deleted inside it is back.
	fields, err := repo.ListFields(ctx, model.ID)
	require.NoError(t, err)
	assert.Len(t, fields, 1)

	models, err := repo.ListModels(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, models, 1)
}

func TestInTransactionRestoresSettingsMaps(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	model := newModel("Article", nil)
	model.Settings = map[string]interface{}{"color": "blue"}
	require.NoError(t, repo.CreateModel(ctx, model))

	// An in-place write to a returned Settings map reaches live state
	// (struct copies share the map); a failed transaction must undo it.
	boom := errors.New("boom")
	err := repo.InTransaction(ctx, func(tx contentschema.Repository) error {
		got, err := tx.GetModel(ctx, model.ID)
		if err != nil {
			return err
		}
		got.Settings["color"] = "red"
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := repo.GetModel(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, "blue", after.Settings["color"])
}

func TestInTransactionCommit(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	model := newModel("Article", nil)
	err := repo.InTransaction(ctx, func(tx contentschema.Repository) error {
		if err := tx.CreateModel(ctx, model); err != nil {
			return err
		}
		return tx.CreateField(ctx, newField(model.ID, "title", 0))
	})
	require.NoError(t, err)

	fields, err := repo.ListFields(ctx, model.ID)
	require.NoError(t, err)
	assert.Len(t, fields, 1)
}

func TestRelationOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	source := newModel("Author", nil)
	target := newModel("Article", nil)
	require.NoError(t, repo.CreateModel(ctx, source))
	require.NoError(t, repo.CreateModel(ctx, target))

	now := time.Now().UTC()
	rel := &contentschema.Relation{
		ID:            uuid.New(),
		Name:          "author-articles",
		SourceModelID: &source.ID,
		TargetModelID: &target.ID,
		Cardinality:   contentschema.CardinalityOneToMany,
		OnDelete:      contentschema.OnDeleteCascade,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repo.CreateRelation(ctx, rel))

	bySource, err := repo.ListRelationsByModel(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, bySource, 1)

	byTarget, err := repo.ListRelationsByModel(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, byTarget, 1)

	byOther, err := repo.ListRelationsByModel(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, byOther)

	rel.TargetModelID = nil
	require.NoError(t, repo.UpdateRelation(ctx, rel))
	got, err := repo.GetRelation(ctx, rel.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TargetModelID)

	require.NoError(t, repo.DeleteRelation(ctx, rel.ID))
	_, err = repo.GetRelation(ctx, rel.ID)
	assert.ErrorIs(t, err, contentschema.ErrRelationNotFound)
}

func TestValidationRuleOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	model := newModel("Article", nil)
	require.NoError(t, repo.CreateModel(ctx, model))
	field := newField(model.ID, "title", 0)
	require.NoError(t, repo.CreateField(ctx, field))

	now := time.Now().UTC()
	rule := &contentschema.ValidationRule{
		ID:        uuid.New(),
		Name:      "title required",
		ModelID:   model.ID,
		FieldID:   &field.ID,
		Type:      contentschema.RuleTypeRequired,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateValidationRule(ctx, rule))

	byModel, err := repo.ListValidationRulesByModel(ctx, model.ID)
	require.NoError(t, err)
	require.Len(t, byModel, 1)

	require.NoError(t, repo.DeleteValidationRulesByField(ctx, field.ID))
	byModel, err = repo.ListValidationRulesByModel(ctx, model.ID)
	require.NoError(t, err)
	assert.Empty(t, byModel)

	require.NoError(t, repo.CreateValidationRule(ctx, rule))
	require.NoError(t, repo.DeleteValidationRulesByModel(ctx, model.ID))
	all, err := repo.ListValidationRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
