package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flexcms/content-schema/pkg/contentschema"
)

// DBTX is an interface that allows us to use either a connection pool or a
// transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements contentschema.Repository using PostgreSQL
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL repository over an existing connection or
// transaction. InTransaction reuses the given handle as-is.
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// InTransaction runs fn against a repository bound to a single database
// transaction: commit when fn returns nil, rollback otherwise.
func (r *Repository) InTransaction(ctx context.Context, fn func(contentschema.Repository) error) error {
	if r.pool == nil {
		// Already running inside a transaction; join it.
		return fn(r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&Repository{db: tx})
	})
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "slug") {
				return fmt.Errorf("model slug already exists")
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Model operations

func (r *Repository) CreateModel(ctx context.Context, model *contentschema.ContentModel) error {
	query := `
		INSERT INTO content_model (
			id, tenant_id, name, slug, description, settings, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		model.ID, model.TenantID, model.Name, model.Slug,
		model.Description, model.Settings, model.CreatedAt, model.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create model", err)
	}

	return nil
}

func (r *Repository) GetModel(ctx context.Context, id uuid.UUID) (*contentschema.ContentModel, error) {
	query := `
		SELECT id, tenant_id, name, slug, description, settings, created_at, updated_at
		FROM content_model WHERE id = $1`

	var model contentschema.ContentModel
	err := r.db.QueryRow(ctx, query, id).Scan(
		&model.ID, &model.TenantID, &model.Name, &model.Slug,
		&model.Description, &model.Settings, &model.CreatedAt, &model.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contentschema.ErrModelNotFound
		}
		return nil, r.handlePostgresError("get model", err)
	}

	return &model, nil
}

func (r *Repository) UpdateModel(ctx context.Context, model *contentschema.ContentModel) error {
	query := `
		UPDATE content_model SET
			tenant_id = $2, name = $3, slug = $4, description = $5,
			settings = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		model.ID, model.TenantID, model.Name, model.Slug,
		model.Description, model.Settings, model.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("update model", err)
	}
	if tag.RowsAffected() == 0 {
		return contentschema.ErrModelNotFound
	}

	return nil
}

func (r *Repository) DeleteModel(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM content_model WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete model", err)
	}
	if tag.RowsAffected() == 0 {
		return contentschema.ErrModelNotFound
	}
	return nil
}

func (r *Repository) ListModels(ctx context.Context, tenantID *uuid.UUID) ([]*contentschema.ContentModel, error) {
	query := `
		SELECT id, tenant_id, name, slug, description, settings, created_at, updated_at
		FROM content_model
		WHERE tenant_id IS NOT DISTINCT FROM $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, r.handlePostgresError("list models", err)
	}
	defer rows.Close()

	models := []*contentschema.ContentModel{}
	for rows.Next() {
		var model contentschema.ContentModel
		if err := rows.Scan(
			&model.ID, &model.TenantID, &model.Name, &model.Slug,
			&model.Description, &model.Settings, &model.CreatedAt, &model.UpdatedAt); err != nil {
			return nil, r.handlePostgresError("scan model", err)
		}
		models = append(models, &model)
	}

	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate model rows", err)
	}

	return models, nil
}

// Field operations

func (r *Repository) CreateField(ctx context.Context, field *contentschema.ContentField) error {
	query := `
		INSERT INTO content_field (
			id, model_id, name, type, required, settings, order_position,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		field.ID, field.ModelID, field.Name, string(field.Type), field.Required,
		field.Settings, field.OrderPosition, field.CreatedAt, field.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create field", err)
	}

	return nil
}

func (r *Repository) ListFields(ctx context.Context, modelID uuid.UUID) ([]*contentschema.ContentField, error) {
	query := `
		SELECT id, model_id, name, type, required, settings, order_position,
		       created_at, updated_at
		FROM content_field WHERE model_id = $1
		ORDER BY order_position ASC`

	rows, err := r.db.Query(ctx, query, modelID)
	if err != nil {
		return nil, r.handlePostgresError("list fields", err)
	}
	defer rows.Close()

	fields := []*contentschema.ContentField{}
	for rows.Next() {
		var field contentschema.ContentField
		var fieldType string
		if err := rows.Scan(
			&field.ID, &field.ModelID, &field.Name, &fieldType, &field.Required,
			&field.Settings, &field.OrderPosition, &field.CreatedAt, &field.UpdatedAt); err != nil {
			return nil, r.handlePostgresError("scan field", err)
		}
		field.Type = contentschema.FieldType(fieldType)
		fields = append(fields, &field)
	}

	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate field rows", err)
	}

	return fields, nil
}

func (r *Repository) DeleteFieldsByModel(ctx context.Context, modelID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM content_field WHERE model_id = $1`, modelID)
	if err != nil {
		return r.handlePostgresError("delete fields", err)
	}
	return nil
}

func (r *Repository) UpdateFieldPositions(ctx context.Context, modelID uuid.UUID, order []uuid.UUID) error {
	query := `
		UPDATE content_field SET order_position = $3, updated_at = now()
		WHERE id = $1 AND model_id = $2`

	for position, id := range order {
		tag, err := r.db.Exec(ctx, query, id, modelID, position)
		if err != nil {
			return r.handlePostgresError("update field position", err)
		}
		if tag.RowsAffected() == 0 {
			return contentschema.ErrFieldNotFound
		}
	}
	return nil
}

// Relation operations

func (r *Repository) CreateRelation(ctx context.Context, relation *contentschema.Relation) error {
	query := `
		INSERT INTO model_relation (
			id, name, source_model_id, target_model_id, cardinality, required,
			on_delete, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		relation.ID, relation.Name, relation.SourceModelID, relation.TargetModelID,
		string(relation.Cardinality), relation.Required, string(relation.OnDelete),
		relation.Description, relation.CreatedAt, relation.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create relation", err)
	}

	return nil
}

func (r *Repository) GetRelation(ctx context.Context, id uuid.UUID) (*contentschema.Relation, error) {
	query := `
		SELECT id, name, source_model_id, target_model_id, cardinality, required,
		       on_delete, description, created_at, updated_at
		FROM model_relation WHERE id = $1`

	relation, err := scanRelation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contentschema.ErrRelationNotFound
		}
		return nil, r.handlePostgresError("get relation", err)
	}
	return relation, nil
}

func (r *Repository) UpdateRelation(ctx context.Context, relation *contentschema.Relation) error {
	query := `
		UPDATE model_relation SET
			name = $2, source_model_id = $3, target_model_id = $4,
			cardinality = $5, required = $6, on_delete = $7, description = $8,
			updated_at = $9
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		relation.ID, relation.Name, relation.SourceModelID, relation.TargetModelID,
		string(relation.Cardinality), relation.Required, string(relation.OnDelete),
		relation.Description, relation.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("update relation", err)
	}
	if tag.RowsAffected() == 0 {
		return contentschema.ErrRelationNotFound
	}

	return nil
}

func (r *Repository) DeleteRelation(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM model_relation WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete relation", err)
	}
	if tag.RowsAffected() == 0 {
		return contentschema.ErrRelationNotFound
	}
	return nil
}

func (r *Repository) ListRelations(ctx context.Context) ([]*contentschema.Relation, error) {
	query := `
		SELECT id, name, source_model_id, target_model_id, cardinality, required,
		       on_delete, description, created_at, updated_at
		FROM model_relation
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list relations", err)
	}
	defer rows.Close()

	return collectRelations(rows)
}

func (r *Repository) ListRelationsByModel(ctx context.Context, modelID uuid.UUID) ([]*contentschema.Relation, error) {
	query := `
		SELECT id, name, source_model_id, target_model_id, cardinality, required,
		       on_delete, description, created_at, updated_at
		FROM model_relation
		WHERE source_model_id = $1 OR target_model_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, modelID)
	if err != nil {
		return nil, r.handlePostgresError("list relations by model", err)
	}
	defer rows.Close()

	return collectRelations(rows)
}

func scanRelation(row pgx.Row) (*contentschema.Relation, error) {
	var relation contentschema.Relation
	var cardinality, onDelete string
	err := row.Scan(
		&relation.ID, &relation.Name, &relation.SourceModelID, &relation.TargetModelID,
		&cardinality, &relation.Required, &onDelete, &relation.Description,
		&relation.CreatedAt, &relation.UpdatedAt)
	if err != nil {
		return nil, err
	}
	relation.Cardinality = contentschema.Cardinality(cardinality)
	relation.OnDelete = contentschema.OnDeleteAction(onDelete)
	return &relation, nil
}

func collectRelations(rows pgx.Rows) ([]*contentschema.Relation, error) {
	relations := []*contentschema.Relation{}
	for rows.Next() {
		relation, err := scanRelation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		relations = append(relations, relation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relation rows: %w", err)
	}
	return relations, nil
}

// Validation rule operations

func (r *Repository) CreateValidationRule(ctx context.Context, rule *contentschema.ValidationRule) error {
	query := `
		INSERT INTO validation_rule (
			id, name, description, model_id, field_id, field_name, type,
			settings, is_active, error_message, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		rule.ID, rule.Name, rule.Description, rule.ModelID, rule.FieldID,
		rule.FieldName, string(rule.Type), rule.Settings, rule.IsActive,
		rule.ErrorMessage, rule.CreatedAt, rule.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create validation rule", err)
	}

	return nil
}

func (r *Repository) GetValidationRule(ctx context.Context, id uuid.UUID) (*contentschema.ValidationRule, error) {
	query := `
		SELECT id, name, description, model_id, field_id, field_name, type,
		       settings, is_active, error_message, created_at, updated_at
		FROM validation_rule WHERE id = $1`

	rule, err := scanRule(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contentschema.ErrRuleNotFound
		}
		return nil, r.handlePostgresError("get validation rule", err)
	}
	return rule, nil
}

func (r *Repository) UpdateValidationRule(ctx context.Context, rule *contentschema.ValidationRule) error {
	query := `
		UPDATE validation_rule SET
			name = $2, description = $3, field_id = $4, field_name = $5,
			settings = $6, is_active = $7, error_message = $8, updated_at = $9
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		rule.ID, rule.Name, rule.Description, rule.FieldID, rule.FieldName,
		rule.Settings, rule.IsActive, rule.ErrorMessage, rule.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("update validation rule", err)
	}
	if tag.RowsAffected() == 0 {
		return contentschema.ErrRuleNotFound
	}

	return nil
}

func (r *Repository) DeleteValidationRule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM validation_rule WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete validation rule", err)
	}
	if tag.RowsAffected() == 0 {
		return contentschema.ErrRuleNotFound
	}
	return nil
}

func (r *Repository) ListValidationRules(ctx context.Context) ([]*contentschema.ValidationRule, error) {
	query := `
		SELECT id, name, description, model_id, field_id, field_name, type,
		       settings, is_active, error_message, created_at, updated_at
		FROM validation_rule
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list validation rules", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

func (r *Repository) ListValidationRulesByModel(ctx context.Context, modelID uuid.UUID) ([]*contentschema.ValidationRule, error) {
	query := `
		SELECT id, name, description, model_id, field_id, field_name, type,
		       settings, is_active, error_message, created_at, updated_at
		FROM validation_rule WHERE model_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, modelID)
	if err != nil {
		return nil, r.handlePostgresError("list validation rules by model", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

func (r *Repository) DeleteValidationRulesByModel(ctx context.Context, modelID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM validation_rule WHERE model_id = $1`, modelID)
	if err != nil {
		return r.handlePostgresError("delete validation rules by model", err)
	}
	return nil
}

func (r *Repository) DeleteValidationRulesByField(ctx context.Context, fieldID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM validation_rule WHERE field_id = $1`, fieldID)
	if err != nil {
		return r.handlePostgresError("delete validation rules by field", err)
	}
	return nil
}

func scanRule(row pgx.Row) (*contentschema.ValidationRule, error) {
	var rule contentschema.ValidationRule
	var ruleType string
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Description, &rule.ModelID, &rule.FieldID,
		&rule.FieldName, &ruleType, &rule.Settings, &rule.IsActive,
		&rule.ErrorMessage, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rule.Type = contentschema.RuleType(ruleType)
	return &rule, nil
}

func collectRules(rows pgx.Rows) ([]*contentschema.ValidationRule, error) {
	rules := []*contentschema.ValidationRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan validation rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation rule rows: %w", err)
	}
	return rules, nil
}
