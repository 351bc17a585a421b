package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/gundersenerik/dice/internal/auth"
	"github.com/gundersenerik/dice/internal/generation"
	"github.com/gundersenerik/dice/internal/models"
)

type RatingService interface {
	SubmitRating(ctx context.Context, user *models.User, req generation.RatingRequest) (*generation.RatingConfirmation, error)
}

type RateHandler struct {
	svc RatingService
}

func NewRateHandler(svc RatingService) *RateHandler {
	return &RateHandler{svc: svc}
}

type rateRequest struct {
	GenerationID string `json:"generationId"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment,omitempty"`
}

func (h *RateHandler) Rate(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	generationID, err := uuid.Parse(req.GenerationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "generationId must be a UUID")
		return
	}

	conf, err := h.svc.SubmitRating(r.Context(), user, generation.RatingRequest{
		GenerationID: generationID,
		Rating:       req.Rating,
		Comment:      req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrInvalidRating):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, generation.ErrGenerationNotFound):
			writeError(w, http.StatusNotFound, "Generation not found")
		case errors.Is(err, generation.ErrNotOwner):
			writeError(w, http.StatusForbidden, "unauthorized")
		case errors.Is(err, generation.ErrAlreadyRated):
			writeError(w, http.StatusBadRequest, "Generation already rated")
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "Failed to save rating",
				"message": err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"generationId": conf.GenerationID,
		"rating":       conf.Rating,
	})
}
