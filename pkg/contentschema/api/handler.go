package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flexcms/content-schema/pkg/contentschema"
)

// SchemaHandler handles HTTP requests for content models, relations, and
// validation rules.
type SchemaHandler struct {
	service contentschema.Service
	log     *zap.Logger
}

// NewSchemaHandler creates a new schema handler
func NewSchemaHandler(service contentschema.Service, log *zap.Logger) *SchemaHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SchemaHandler{service: service, log: log}
}

// Routes returns the routes for the schema engine
func (h *SchemaHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/models", func(r chi.Router) {
		r.Post("/", h.CreateModel)
		r.Get("/", h.ListModels)
		r.Route("/{modelID}", func(r chi.Router) {
			r.Get("/", h.GetModel)
			r.Put("/", h.UpdateModel)
			r.Delete("/", h.DeleteModel)
			r.Get("/fields", h.ListFields)
			r.Put("/fields/order", h.ReorderFields)
		})
	})

	r.Route("/relations", func(r chi.Router) {
		r.Post("/", h.CreateRelation)
		r.Get("/", h.ListRelations)
		r.Get("/{relationID}", h.GetRelation)
		r.Put("/{relationID}", h.UpdateRelation)
		r.Delete("/{relationID}", h.DeleteRelation)
	})

	r.Route("/validation-rules", func(r chi.Router) {
		r.Post("/", h.CreateValidationRule)
		r.Get("/", h.ListValidationRules)
		r.Get("/{ruleID}", h.GetValidationRule)
		r.Put("/{ruleID}", h.UpdateValidationRule)
		r.Delete("/{ruleID}", h.DeleteValidationRule)
	})

	return r
}

// FieldSpecRequest is the wire form of one field inside a model create or
// update call.
type FieldSpecRequest struct {
	ID       string                 `json:"id,omitempty"`
	Name     string                 `json:"name"`
	Type     string                 `json:"type"`
	Required bool                   `json:"required"`
	Settings map[string]interface{} `json:"settings,omitempty"`
}

// CreateModelRequest is the request body for creating a model
type CreateModelRequest struct {
	TenantID    string                 `json:"tenant_id,omitempty"`
	Name        string                 `json:"name"`
	Slug        string                 `json:"slug,omitempty"`
	Description string                 `json:"description,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
	Fields      []FieldSpecRequest     `json:"fields"`
}

// UpdateModelRequest is the request body for updating a model. Absent patch
// members leave the stored value untouched; the field list always replaces
// the model's fields as a whole.
type UpdateModelRequest struct {
	Name        *string                `json:"name,omitempty"`
	Slug        *string                `json:"slug,omitempty"`
	Description *string                `json:"description,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
	Fields      []FieldSpecRequest     `json:"fields"`
}

// ReorderFieldsRequest is the request body for reordering a model's fields
type ReorderFieldsRequest struct {
	Order []string `json:"order"`
}

// CreateRelationRequest is the request body for creating a relation
type CreateRelationRequest struct {
	Name          string `json:"name"`
	SourceModelID string `json:"source_model_id"`
	TargetModelID string `json:"target_model_id"`
	Cardinality   string `json:"cardinality"`
	Required      bool   `json:"required"`
	OnDelete      string `json:"on_delete"`
	Description   string `json:"description,omitempty"`
}

// UpdateRelationRequest is the request body for patching a relation. Absent
// members leave the stored value untouched.
type UpdateRelationRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Cardinality *string `json:"cardinality,omitempty"`
	Required    *bool   `json:"required,omitempty"`
	OnDelete    *string `json:"on_delete,omitempty"`
}

// CreateValidationRuleRequest is the request body for creating a rule
type CreateValidationRuleRequest struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	ModelID      string                 `json:"model_id"`
	FieldID      string                 `json:"field_id,omitempty"`
	FieldName    string                 `json:"field_name,omitempty"`
	Type         string                 `json:"type"`
	Settings     map[string]interface{} `json:"settings,omitempty"`
	IsActive     bool                   `json:"is_active"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// UpdateValidationRuleRequest is the request body for patching a rule.
type UpdateValidationRuleRequest struct {
	Name         *string                `json:"name,omitempty"`
	Description  *string                `json:"description,omitempty"`
	Settings     map[string]interface{} `json:"settings,omitempty"`
	IsActive     *bool                  `json:"is_active,omitempty"`
	ErrorMessage *string                `json:"error_message,omitempty"`
}

// ModelResponse is the response body for a model, with its ordered fields
// attached.
type ModelResponse struct {
	ID          string                       `json:"id"`
	TenantID    string                       `json:"tenant_id,omitempty"`
	Name        string                       `json:"name"`
	Slug        *string                      `json:"slug"`
	Description string                       `json:"description,omitempty"`
	Settings    map[string]interface{}       `json:"settings,omitempty"`
	Fields      []*contentschema.ContentField `json:"fields,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

func modelResponse(model *contentschema.ContentModel, fields []*contentschema.ContentField) ModelResponse {
	resp := ModelResponse{
		ID:          model.ID.String(),
		Name:        model.Name,
		Slug:        model.Slug,
		Description: model.Description,
		Settings:    model.Settings,
		Fields:      fields,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	if model.TenantID != nil {
		resp.TenantID = model.TenantID.String()
	}
	return resp
}

// Model handlers

func (h *SchemaHandler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var req CreateModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	createReq := contentschema.CreateModelRequest{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Settings:    req.Settings,
	}
	if req.TenantID != "" {
		tenantID, err := uuid.Parse(req.TenantID)
		if err != nil {
			http.Error(w, "Invalid tenant ID", http.StatusBadRequest)
			return
		}
		createReq.TenantID = &tenantID
	}

	specs, err := fieldSpecs(req.Fields)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	createReq.Fields = specs

	model, err := h.service.CreateModel(r.Context(), createReq)
	if err != nil {
		h.writeError(w, r, "create model", err)
		return
	}

	fields, err := h.service.ListFields(r.Context(), model.ID)
	if err != nil {
		h.writeError(w, r, "list fields", err)
		return
	}

	h.log.Info("model created", zap.String("model_id", model.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, modelResponse(model, fields))
}

func (h *SchemaHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "modelID")
	if !ok {
		return
	}

	model, err := h.service.GetModel(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get model", err)
		return
	}
	fields, err := h.service.ListFields(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "list fields", err)
		return
	}

	render.JSON(w, r, modelResponse(model, fields))
}

func (h *SchemaHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.service.ListModels(r.Context())
	if err != nil {
		h.writeError(w, r, "list models", err)
		return
	}

	resp := make([]ModelResponse, 0, len(models))
	for _, model := range models {
		resp = append(resp, modelResponse(model, nil))
	}
	render.JSON(w, r, resp)
}

func (h *SchemaHandler) UpdateModel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "modelID")
	if !ok {
		return
	}

	var req UpdateModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	specs, err := fieldSpecs(req.Fields)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	model, err := h.service.UpdateModel(r.Context(), contentschema.UpdateModelRequest{
		ModelID:     id,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Settings:    req.Settings,
		Fields:      specs,
	})
	if err != nil {
		h.writeError(w, r, "update model", err)
		return
	}

	fields, err := h.service.ListFields(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "list fields", err)
		return
	}

	h.log.Info("model updated", zap.String("model_id", id.String()))
	render.JSON(w, r, modelResponse(model, fields))
}

func (h *SchemaHandler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "modelID")
	if !ok {
		return
	}

	if err := h.service.DeleteModel(r.Context(), id); err != nil {
		h.writeError(w, r, "delete model", err)
		return
	}

	h.log.Info("model deleted", zap.String("model_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// Field handlers

func (h *SchemaHandler) ListFields(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "modelID")
	if !ok {
		return
	}

	fields, err := h.service.ListFields(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "list fields", err)
		return
	}
	render.JSON(w, r, fields)
}

func (h *SchemaHandler) ReorderFields(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "modelID")
	if !ok {
		return
	}

	var req ReorderFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order := make([]uuid.UUID, 0, len(req.Order))
	for _, s := range req.Order {
		fieldID, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "Invalid field ID in order", http.StatusBadRequest)
			return
		}
		order = append(order, fieldID)
	}

	fields, err := h.service.ReorderFields(r.Context(), id, order)
	if err != nil {
		h.writeError(w, r, "reorder fields", err)
		return
	}
	render.JSON(w, r, fields)
}

// Relation handlers

func (h *SchemaHandler) CreateRelation(w http.ResponseWriter, r *http.Request) {
	var req CreateRelationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sourceID, err := uuid.Parse(req.SourceModelID)
	if err != nil {
		http.Error(w, "Invalid source model ID", http.StatusBadRequest)
		return
	}
	targetID, err := uuid.Parse(req.TargetModelID)
	if err != nil {
		http.Error(w, "Invalid target model ID", http.StatusBadRequest)
		return
	}

	relation, err := h.service.CreateRelation(r.Context(), contentschema.CreateRelationRequest{
		Name:          req.Name,
		SourceModelID: sourceID,
		TargetModelID: targetID,
		Cardinality:   contentschema.Cardinality(req.Cardinality),
		Required:      req.Required,
		OnDelete:      contentschema.OnDeleteAction(req.OnDelete),
		Description:   req.Description,
	})
	if err != nil {
		h.writeError(w, r, "create relation", err)
		return
	}

	h.log.Info("relation created", zap.String("relation_id", relation.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, relation)
}

func (h *SchemaHandler) GetRelation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "relationID")
	if !ok {
		return
	}

	relation, err := h.service.GetRelation(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get relation", err)
		return
	}
	render.JSON(w, r, relation)
}

func (h *SchemaHandler) ListRelations(w http.ResponseWriter, r *http.Request) {
	relations, err := h.service.ListRelations(r.Context())
	if err != nil {
		h.writeError(w, r, "list relations", err)
		return
	}
	render.JSON(w, r, relations)
}

func (h *SchemaHandler) UpdateRelation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "relationID")
	if !ok {
		return
	}

	var req UpdateRelationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updateReq := contentschema.UpdateRelationRequest{
		RelationID:  id,
		Name:        req.Name,
		Description: req.Description,
		Required:    req.Required,
	}
	if req.Cardinality != nil {
		c := contentschema.Cardinality(*req.Cardinality)
		updateReq.Cardinality = &c
	}
	if req.OnDelete != nil {
		a := contentschema.OnDeleteAction(*req.OnDelete)
		updateReq.OnDelete = &a
	}

	relation, err := h.service.UpdateRelation(r.Context(), updateReq)
	if err != nil {
		h.writeError(w, r, "update relation", err)
		return
	}
	render.JSON(w, r, relation)
}

func (h *SchemaHandler) DeleteRelation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "relationID")
	if !ok {
		return
	}

	if err := h.service.DeleteRelation(r.Context(), id); err != nil {
		h.writeError(w, r, "delete relation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Validation rule handlers

func (h *SchemaHandler) CreateValidationRule(w http.ResponseWriter, r *http.Request) {
	var req CreateValidationRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	modelID, err := uuid.Parse(req.ModelID)
	if err != nil {
		http.Error(w, "Invalid model ID", http.StatusBadRequest)
		return
	}

	createReq := contentschema.CreateValidationRuleRequest{
		Name:         req.Name,
		Description:  req.Description,
		ModelID:      modelID,
		FieldName:    req.FieldName,
		Type:         contentschema.RuleType(req.Type),
		Settings:     req.Settings,
		IsActive:     req.IsActive,
		ErrorMessage: req.ErrorMessage,
	}
	if req.FieldID != "" {
		fieldID, err := uuid.Parse(req.FieldID)
		if err != nil {
			http.Error(w, "Invalid field ID", http.StatusBadRequest)
			return
		}
		createReq.FieldID = &fieldID
	}

	rule, err := h.service.CreateValidationRule(r.Context(), createReq)
	if err != nil {
		h.writeError(w, r, "create validation rule", err)
		return
	}

	h.log.Info("validation rule created", zap.String("rule_id", rule.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rule)
}

func (h *SchemaHandler) ListValidationRules(w http.ResponseWriter, r *http.Request) {
	// Optional ?model_id= filter
	if s := r.URL.Query().Get("model_id"); s != "" {
		modelID, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "Invalid model ID", http.StatusBadRequest)
			return
		}
		rules, err := h.service.ListValidationRulesByModel(r.Context(), modelID)
		if err != nil {
			h.writeError(w, r, "list validation rules", err)
			return
		}
		render.JSON(w, r, rules)
		return
	}

	rules, err := h.service.ListValidationRules(r.Context())
	if err != nil {
		h.writeError(w, r, "list validation rules", err)
		return
	}
	render.JSON(w, r, rules)
}

func (h *SchemaHandler) GetValidationRule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "ruleID")
	if !ok {
		return
	}

	rule, err := h.service.GetValidationRule(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get validation rule", err)
		return
	}
	render.JSON(w, r, rule)
}

func (h *SchemaHandler) UpdateValidationRule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "ruleID")
	if !ok {
		return
	}

	var req UpdateValidationRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rule, err := h.service.UpdateValidationRule(r.Context(), contentschema.UpdateValidationRuleRequest{
		RuleID:       id,
		Name:         req.Name,
		Description:  req.Description,
		Settings:     req.Settings,
		IsActive:     req.IsActive,
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		h.writeError(w, r, "update validation rule", err)
		return
	}
	render.JSON(w, r, rule)
}

func (h *SchemaHandler) DeleteValidationRule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "ruleID")
	if !ok {
		return
	}

	if err := h.service.DeleteValidationRule(r.Context(), id); err != nil {
		h.writeError(w, r, "delete validation rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helpers

func (h *SchemaHandler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, param)
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Invalid "+param, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func fieldSpecs(reqs []FieldSpecRequest) ([]contentschema.FieldSpec, error) {
	specs := make([]contentschema.FieldSpec, 0, len(reqs))
	for _, fr := range reqs {
		spec := contentschema.FieldSpec{
			Name:     fr.Name,
			Type:     contentschema.FieldType(fr.Type),
			Required: fr.Required,
			Settings: fr.Settings,
		}
		if fr.ID != "" {
			id, err := uuid.Parse(fr.ID)
			if err != nil {
				return nil, errors.New("invalid field ID")
			}
			spec.ID = &id
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// writeError maps engine errors onto HTTP statuses. Schema and ordering
// violations are the caller's to fix; referential refusals are conflicts.
func (h *SchemaHandler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var schemaErr *contentschema.SchemaError
	var orderErr *contentschema.InvalidOrderError
	var refErr *contentschema.ReferentialIntegrityError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &orderErr),
		errors.Is(err, contentschema.ErrUnknownFieldType),
		errors.Is(err, contentschema.ErrUnknownRuleType),
		errors.Is(err, contentschema.ErrInvalidCardinality),
		errors.Is(err, contentschema.ErrInvalidOnDelete):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &refErr):
		status = http.StatusConflict
	case errors.Is(err, contentschema.ErrModelNotFound),
		errors.Is(err, contentschema.ErrFieldNotFound),
		errors.Is(err, contentschema.ErrRelationNotFound),
		errors.Is(err, contentschema.ErrRuleNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("op", op), zap.Error(err))
	} else {
		h.log.Warn("request rejected", zap.String("op", op), zap.Error(err))
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}
