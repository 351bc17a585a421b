package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gundersenerik/dice/internal/cache"
	"github.com/gundersenerik/dice/internal/langfuse"
)

type TemplateLister interface {
	ListPrompts(ctx context.Context) ([]langfuse.PromptTemplate, error)
}

type TemplatesHandler struct {
	lister TemplateLister
	cache  *cache.Cache
	ttl    time.Duration
}

// NewTemplatesHandler serves the production template catalog. cache
// may be nil when Redis is unavailable; listings then always hit the
// prompt service.
func NewTemplatesHandler(lister TemplateLister, c *cache.Cache, ttl time.Duration) *TemplatesHandler {
	return &TemplatesHandler{lister: lister, cache: c, ttl: ttl}
}

// templateView is what callers see. Prompt bodies never leave the
// server.
type templateView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Version   int      `json:"version"`
	Variables []string `json:"variables"`
	Models    []string `json:"models,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

const templateCacheKey = "templates:production"

func (h *TemplatesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		var cached []templateView
		if err := h.cache.Get(ctx, templateCacheKey, &cached); err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"templates": cached})
			return
		}
	}

	templates, err := h.lister.ListPrompts(ctx)
	if err != nil {
		slog.Error("failed to list templates", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch templates")
		return
	}

	views := make([]templateView, 0, len(templates))
	for _, t := range templates {
		views = append(views, templateView{
			ID:        t.ID,
			Name:      t.Name,
			Version:   t.Version,
			Variables: t.Variables,
			Models:    t.Config.ModelList(),
			Tags:      t.Tags,
		})
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, templateCacheKey, views, h.ttl); err != nil {
			slog.Warn("failed to cache templates", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"templates": views})
}
