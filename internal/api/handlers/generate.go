package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gundersenerik/dice/internal/auth"
	"github.com/gundersenerik/dice/internal/generation"
	"github.com/gundersenerik/dice/internal/models"
)

// GenerationService is the slice of the generation package this
// handler needs.
type GenerationService interface {
	Generate(ctx context.Context, user *models.User, req generation.GenerateRequest) ([]generation.ModelOutcome, error)
}

type GenerateHandler struct {
	svc GenerationService
}

func NewGenerateHandler(svc GenerationService) *GenerateHandler {
	return &GenerateHandler{svc: svc}
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req generation.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TemplateID == "" {
		writeError(w, http.StatusBadRequest, "templateId required")
		return
	}
	if req.Variables == nil {
		req.Variables = map[string]string{}
	}

	outcomes, err := h.svc.Generate(r.Context(), user, req)
	if err != nil {
		h.writeGenerateError(w, req, err)
		return
	}

	// A single resolved model keeps the flat response shape; a fan-out
	// returns one entry per model so partial failures stay visible.
	if len(outcomes) == 1 {
		o := outcomes[0]
		if o.Err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "Generation failed",
				"message": o.Err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, o.Result)
		return
	}

	results := make([]any, 0, len(outcomes))
	anySuccess := false
	for _, o := range outcomes {
		if o.Err != nil {
			results = append(results, map[string]string{
				"model":   o.Model,
				"error":   "Generation failed",
				"message": o.Err.Error(),
			})
			continue
		}
		anySuccess = true
		results = append(results, o.Result)
	}

	status := http.StatusOK
	if !anySuccess {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]any{"results": results})
}

func (h *GenerateHandler) writeGenerateError(w http.ResponseWriter, req generation.GenerateRequest, err error) {
	var (
		missing *generation.MissingVariablesError
		unknown *generation.UnknownModelError
	)
	switch {
	case errors.Is(err, generation.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "Template not found: "+req.TemplateID)
	case errors.Is(err, generation.ErrNoModelConfigured):
		writeError(w, http.StatusBadRequest, "No model specified in request or prompt config")
	case errors.As(err, &unknown):
		writeError(w, http.StatusBadRequest, unknown.Error())
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, missing.Error())
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Generation failed",
			"message": err.Error(),
		})
	}
}
