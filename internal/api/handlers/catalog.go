package handlers

import (
	"net/http"

	"github.com/gundersenerik/dice/internal/catalog"
)

type CatalogHandler struct{}

func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

func (h *CatalogHandler) Brands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"brands": catalog.Brands()})
}

func (h *CatalogHandler) CommunicationTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"communication_types": catalog.CommunicationTypes()})
}
