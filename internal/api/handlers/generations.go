package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gundersenerik/dice/internal/auth"
	"github.com/gundersenerik/dice/internal/generation"
	"github.com/gundersenerik/dice/internal/models"
)

type HistoryService interface {
	GetForUser(ctx context.Context, user *models.User, id uuid.UUID) (*models.Generation, error)
	History(ctx context.Context, user *models.User, limit, offset int) ([]models.Generation, error)
}

type GenerationsHandler struct {
	svc HistoryService
}

func NewGenerationsHandler(svc HistoryService) *GenerationsHandler {
	return &GenerationsHandler{svc: svc}
}

func (h *GenerationsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	generations, err := h.svc.History(r.Context(), user, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch generations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"generations": generations,
		"count":       len(generations),
	})
}

func (h *GenerationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid generation ID")
		return
	}

	g, err := h.svc.GetForUser(r.Context(), user, id)
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrGenerationNotFound):
			writeError(w, http.StatusNotFound, "Generation not found")
		case errors.Is(err, generation.ErrNotOwner):
			writeError(w, http.StatusForbidden, "unauthorized")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to fetch generation")
		}
		return
	}

	writeJSON(w, http.StatusOK, g)
}
