package handlers

import (
	"net/http"

	"github.com/gundersenerik/dice/internal/llm"
)

type ModelsHandler struct{}

func NewModelsHandler() *ModelsHandler {
	return &ModelsHandler{}
}

func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":      llm.All(),
		"by_provider": llm.ByProvider(),
	})
}
