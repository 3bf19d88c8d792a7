package contentschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexcms/content-schema/pkg/contentschema"
)

func TestParseFieldType(t *testing.T) {
	ft, err := contentschema.ParseFieldType("richtext")
	require.NoError(t, err)
	assert.Equal(t, contentschema.FieldTypeRichText, ft)

	_, err = contentschema.ParseFieldType("hologram")
	assert.ErrorIs(t, err, contentschema.ErrUnknownFieldType)
}

func TestParseRuleType(t *testing.T) {
	rt, err := contentschema.ParseRuleType("minLength")
	require.NoError(t, err)
	assert.Equal(t, contentschema.RuleTypeMinLength, rt)

	_, err = contentschema.ParseRuleType("telepathy")
	assert.ErrorIs(t, err, contentschema.ErrUnknownRuleType)
}

func TestValidateFieldSettings(t *testing.T) {
	modelID := "6a1f0a89-2b4e-4f3c-9a7d-8e5b1c2d3e4f"

	tests := []struct {
		name      string
		fieldType contentschema.FieldType
		settings  map[string]interface{}
		wantErr   bool
	}{
		{
			name:      "text with length bounds",
			fieldType: contentschema.FieldTypeText,
			settings:  map[string]interface{}{"minLength": float64(1), "maxLength": float64(80)},
		},
		{
			name:      "text with non-numeric bound",
			fieldType: contentschema.FieldTypeText,
			settings:  map[string]interface{}{"maxLength": "eighty"},
			wantErr:   true,
		},
		{
			name:      "unknown key passes through",
			fieldType: contentschema.FieldTypeText,
			settings:  map[string]interface{}{"uiHint": "monospace"},
		},
		{
			name:      "number must not carry options",
			fieldType: contentschema.FieldTypeNumber,
			settings: map[string]interface{}{
				"options": []interface{}{map[string]interface{}{"label": "A", "value": "a"}},
			},
			wantErr: true,
		},
		{
			name:      "number with bounds",
			fieldType: contentschema.FieldTypeNumber,
			settings:  map[string]interface{}{"min": 0, "max": int64(10), "step": 0.5},
		},
		{
			name:      "array requires options",
			fieldType: contentschema.FieldTypeArray,
			settings:  map[string]interface{}{"multiple": true},
			wantErr:   true,
		},
		{
			name:      "array with valid options",
			fieldType: contentschema.FieldTypeArray,
			settings: map[string]interface{}{
				"options": []interface{}{
					map[string]interface{}{"label": "Draft", "value": "draft"},
					map[string]interface{}{"label": "Published", "value": "published"},
				},
			},
		},
		{
			name:      "array option with empty value",
			fieldType: contentschema.FieldTypeArray,
			settings: map[string]interface{}{
				"options": []interface{}{map[string]interface{}{"label": "Draft", "value": ""}},
			},
			wantErr: true,
		},
		{
			name:      "relation requires relationModel",
			fieldType: contentschema.FieldTypeRelation,
			settings:  map[string]interface{}{},
			wantErr:   true,
		},
		{
			name:      "relation with model id",
			fieldType: contentschema.FieldTypeRelation,
			settings:  map[string]interface{}{"relationModel": modelID},
		},
		{
			name:      "relation with malformed model id",
			fieldType: contentschema.FieldTypeRelation,
			settings:  map[string]interface{}{"relationModel": "not-a-uuid"},
			wantErr:   true,
		},
		{
			name:      "boolean with no settings",
			fieldType: contentschema.FieldTypeBoolean,
			settings:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := contentschema.ValidateFieldSettings(tt.fieldType, tt.settings)
			if tt.wantErr {
				var schemaErr *contentschema.SchemaError
				require.Error(t, err)
				assert.ErrorAs(t, err, &schemaErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRuleSettings(t *testing.T) {
	tests := []struct {
		name     string
		ruleType contentschema.RuleType
		settings map[string]interface{}
		wantErr  bool
	}{
		{
			name:     "minLength with value",
			ruleType: contentschema.RuleTypeMinLength,
			settings: map[string]interface{}{"minLength": float64(3)},
		},
		{
			name:     "minLength without value",
			ruleType: contentschema.RuleTypeMinLength,
			settings: map[string]interface{}{},
			wantErr:  true,
		},
		{
			name:     "pattern with compilable expression",
			ruleType: contentschema.RuleTypePattern,
			settings: map[string]interface{}{"pattern": "^[a-z0-9-]+$"},
		},
		{
			name:     "pattern with broken expression",
			ruleType: contentschema.RuleTypePattern,
			settings: map[string]interface{}{"pattern": "(["},
			wantErr:  true,
		},
		{
			name:     "enum with string values",
			ruleType: contentschema.RuleTypeEnum,
			settings: map[string]interface{}{"values": []interface{}{"red", "green"}},
		},
		{
			name:     "enum with mixed values",
			ruleType: contentschema.RuleTypeEnum,
			settings: map[string]interface{}{"values": []interface{}{"red", float64(3)}},
			wantErr:  true,
		},
		{
			name:     "required rule with another rule's key",
			ruleType: contentschema.RuleTypeRequired,
			settings: map[string]interface{}{"minLength": float64(3)},
			wantErr:  true,
		},
		{
			name:     "required rule with unknown key passes",
			ruleType: contentschema.RuleTypeRequired,
			settings: map[string]interface{}{"displayGroup": "basics"},
		},
		{
			name:     "custom with function body",
			ruleType: contentschema.RuleTypeCustom,
			settings: map[string]interface{}{"customFunction": "value => value.length > 0"},
		},
		{
			name:     "custom without function body",
			ruleType: contentschema.RuleTypeCustom,
			settings: map[string]interface{}{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := contentschema.ValidateRuleSettings(tt.ruleType, tt.settings)
			if tt.wantErr {
				var schemaErr *contentschema.SchemaError
				require.Error(t, err)
				assert.ErrorAs(t, err, &schemaErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeSlug(t *testing.T) {
	assert.Nil(t, contentschema.NormalizeSlug(""))
	assert.Nil(t, contentschema.NormalizeSlug("   "))

	got := contentschema.NormalizeSlug("  blog-posts  ")
	require.NotNil(t, got)
	assert.Equal(t, "blog-posts", *got)

	// Idempotent: normalizing an already-normalized slug changes nothing.
	again := contentschema.NormalizeSlug(*got)
	require.NotNil(t, again)
	assert.Equal(t, *got, *again)
}
