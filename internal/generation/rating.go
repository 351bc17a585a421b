package generation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gundersenerik/dice/internal/models"
)

type RatingRequest struct {
	GenerationID uuid.UUID `json:"generationId"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
}

type RatingConfirmation struct {
	GenerationID uuid.UUID `json:"generationId"`
	Rating       int       `json:"rating"`
}

// SubmitRating records a one-time quality rating for a completed
// generation and forwards it to the tracing service as a user-rating
// score. Score forwarding is best-effort; the stored rating is the
// source of truth.
func (s *Service) SubmitRating(ctx context.Context, user *models.User, req RatingRequest) (*RatingConfirmation, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	g, err := s.store.GetByID(ctx, req.GenerationID)
	if err != nil {
		return nil, err
	}
	if g.UserID != user.ID {
		return nil, ErrNotOwner
	}
	if g.Rating != nil {
		return nil, ErrAlreadyRated
	}

	var comment *string
	if req.Comment != "" {
		comment = &req.Comment
	}

	rated, err := s.store.Rate(ctx, req.GenerationID, req.Rating, comment)
	if err != nil {
		return nil, &PersistenceError{Op: "rate", Err: err}
	}
	if !rated {
		// Lost a race with another submission; first writer wins.
		return nil, ErrAlreadyRated
	}

	if g.TraceID != nil && *g.TraceID != "" {
		if err := s.scores.ForwardRating(*g.TraceID, req.Rating, req.Comment); err != nil {
			slog.Error("failed to forward rating score",
				"generation_id", req.GenerationID, "trace_id", *g.TraceID, "error", err)
		}
	}

	return &RatingConfirmation{GenerationID: req.GenerationID, Rating: req.Rating}, nil
}
