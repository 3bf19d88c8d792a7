package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flexcms/content-schema/pkg/contentschema"
	"github.com/flexcms/content-schema/pkg/contentschema/api"
	"github.com/flexcms/content-schema/pkg/contentschema/repo/memory"
)

func setupHandler(t *testing.T) http.Handler {
	svc, err := contentschema.New(
		contentschema.WithRepository(memory.New()),
	)
	require.NoError(t, err)

	return api.NewSchemaHandler(svc, zap.NewNop()).Routes()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func createArticleModel(t *testing.T, handler http.Handler) api.ModelResponse {
	rec := doJSON(t, handler, http.MethodPost, "/models", api.CreateModelRequest{
		Name: "Article",
		Slug: "article",
		Fields: []api.FieldSpecRequest{
			{Name: "title", Type: "text", Required: true},
			{Name: "body", Type: "richtext"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.ModelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateModelEndpoint(t *testing.T) {
	handler := setupHandler(t)

	resp := createArticleModel(t, handler)
	assert.Equal(t, "Article", resp.Name)
	require.NotNil(t, resp.Slug)
	assert.Equal(t, "article", *resp.Slug)
	require.Len(t, resp.Fields, 2)
	assert.Equal(t, "title", resp.Fields[0].Name)
	assert.Equal(t, 0, resp.Fields[0].OrderPosition)
	assert.Equal(t, 1, resp.Fields[1].OrderPosition)
}

func TestCreateModelEndpointRejectsBadSettings(t *testing.T) {
	handler := setupHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/models", api.CreateModelRequest{
		Name: "Broken",
		Fields: []api.FieldSpecRequest{
			{Name: "count", Type: "number", Settings: map[string]interface{}{
				"options": []interface{}{map[string]interface{}{"label": "A", "value": "a"}},
			}},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestCreateModelEndpointRejectsBadBody(t *testing.T) {
	handler := setupHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/models", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetModelEndpoint(t *testing.T) {
	handler := setupHandler(t)
	created := createArticleModel(t, handler)

	rec := doJSON(t, handler, http.MethodGet, "/models/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ModelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created.ID, resp.ID)
	assert.Len(t, resp.Fields, 2)

	rec = doJSON(t, handler, http.MethodGet, "/models/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/models/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateModelEndpoint(t *testing.T) {
	handler := setupHandler(t)
	created := createArticleModel(t, handler)

	newName := "Story"
	rec := doJSON(t, handler, http.MethodPut, "/models/"+created.ID, api.UpdateModelRequest{
		Name: &newName,
		Fields: []api.FieldSpecRequest{
			{ID: created.Fields[0].ID.String(), Name: "headline", Type: "text"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.ModelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Story", resp.Name)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, created.Fields[0].ID, resp.Fields[0].ID)
	assert.Equal(t, "headline", resp.Fields[0].Name)
}

func TestReorderFieldsEndpoint(t *testing.T) {
	handler := setupHandler(t)
	created := createArticleModel(t, handler)

	rec := doJSON(t, handler, http.MethodPut, "/models/"+created.ID+"/fields/order",
		api.ReorderFieldsRequest{
			Order: []string{created.Fields[1].ID.String(), created.Fields[0].ID.String()},
		})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fields []*contentschema.ContentField
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	require.Len(t, fields, 2)
	assert.Equal(t, "body", fields[0].Name)

	// Not a permutation of the current field set
	rec = doJSON(t, handler, http.MethodPut, "/models/"+created.ID+"/fields/order",
		api.ReorderFieldsRequest{
			Order: []string{created.Fields[0].ID.String()},
		})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeleteModelEndpointRestrict(t *testing.T) {
	handler := setupHandler(t)
	author := createArticleModel(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/models", api.CreateModelRequest{Name: "Article"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var article api.ModelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &article))

	rec = doJSON(t, handler, http.MethodPost, "/relations", api.CreateRelationRequest{
		Name:          "author-articles",
		SourceModelID: author.ID,
		TargetModelID: article.ID,
		Cardinality:   "oneToMany",
		OnDelete:      "restrict",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rel contentschema.Relation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rel))

	// Restricted by the relation
	rec = doJSON(t, handler, http.MethodDelete, "/models/"+author.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/relations/"+rel.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/models/"+author.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/models/"+author.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationRuleEndpoints(t *testing.T) {
	handler := setupHandler(t)
	model := createArticleModel(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/validation-rules", api.CreateValidationRuleRequest{
		Name:      "title length",
		ModelID:   model.ID,
		FieldID:   model.Fields[0].ID.String(),
		Type:      "minLength",
		Settings:  map[string]interface{}{"minLength": 3},
		IsActive:  true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rule contentschema.ValidationRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))

	rec = doJSON(t, handler, http.MethodGet, "/validation-rules?model_id="+model.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rules []*contentschema.ValidationRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	require.Len(t, rules, 1)
	assert.Equal(t, rule.ID, rules[0].ID)

	// Unknown rule type is rejected
	rec = doJSON(t, handler, http.MethodPost, "/validation-rules", api.CreateValidationRuleRequest{
		Name:      "bad",
		ModelID:   model.ID,
		FieldName: "title",
		Type:      "telepathy",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/validation-rules/"+rule.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/validation-rules/"+rule.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
