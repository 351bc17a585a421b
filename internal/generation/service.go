package generation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gundersenerik/dice/internal/gateway"
	"github.com/gundersenerik/dice/internal/langfuse"
	"github.com/gundersenerik/dice/internal/llm"
	"github.com/gundersenerik/dice/internal/models"
	"github.com/gundersenerik/dice/internal/prompt"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	Create(ctx context.Context, p CreateParams) (*models.Generation, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, p CompleteParams) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Generation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Generation, error)
	Rate(ctx context.Context, id uuid.UUID, rating int, comment *string) (bool, error)
}

// Gateway issues one model call through the external gateway.
type Gateway interface {
	Complete(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// TemplateSource resolves production prompt templates.
type TemplateSource interface {
	GetPrompt(ctx context.Context, name string) (*langfuse.PromptTemplate, error)
}

// Tracer records traces, spans and scores. All of it is best-effort
// telemetry; implementations must not block generation outcomes.
type Tracer interface {
	OpenTrace(t langfuse.Trace)
	RecordGeneration(g langfuse.Generation)
	AddScore(s langfuse.Score)
	Flush(ctx context.Context) error
}

// ScoreForwarder hands a user rating off for delivery to the tracing
// service.
type ScoreForwarder interface {
	ForwardRating(traceID string, rating int, comment string) error
}

type Service struct {
	store     Store
	gateway   Gateway
	templates TemplateSource
	tracer    Tracer
	scores    ScoreForwarder
}

func NewService(store Store, gw Gateway, templates TemplateSource, tracer Tracer, scores ScoreForwarder) *Service {
	return &Service{
		store:     store,
		gateway:   gw,
		templates: templates,
		tracer:    tracer,
		scores:    scores,
	}
}

type GenerateRequest struct {
	TemplateID string            `json:"templateId"`
	Variables  map[string]string `json:"variables"`
	// Optional; overrides the template's configured models.
	Model string `json:"model,omitempty"`
}

type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

type Result struct {
	ID       uuid.UUID  `json:"id"`
	Content  string     `json:"content"`
	Model    string     `json:"model"`
	Provider string     `json:"provider"`
	Tokens   TokenUsage `json:"tokens"`
	Cost     float64    `json:"cost"`
	Duration int64      `json:"duration"`
	TraceID  string     `json:"traceId"`
}

// ModelOutcome is the per-model result of a fan-out. Exactly one of
// Result and Err is set.
type ModelOutcome struct {
	Model  string
	Result *Result
	Err    error
}

// Generate resolves the template, validates the request, then runs one
// gateway call per target model, strictly in order and one at a time.
// Validation failures return an error before any side effect; once the
// loop starts, each model gets its own outcome and one model's failure
// never aborts the rest.
func (s *Service) Generate(ctx context.Context, user *models.User, req GenerateRequest) ([]ModelOutcome, error) {
	tpl, err := s.templates.GetPrompt(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, langfuse.ErrPromptNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	targets := prompt.SelectModels(req.Model, tpl.Config.ModelList())
	if len(targets) == 0 {
		return nil, ErrNoModelConfigured
	}

	configs := make(map[string]llm.ModelConfig, len(targets))
	for _, id := range targets {
		m, ok := llm.Lookup(id)
		if !ok {
			return nil, &UnknownModelError{Model: id}
		}
		configs[id] = m
	}

	if missing := prompt.Missing(tpl.Variables, req.Variables); len(missing) > 0 {
		return nil, &MissingVariablesError{Variables: missing}
	}

	compiled := prompt.Compile(tpl.Prompt, req.Variables)

	outcomes := make([]ModelOutcome, 0, len(targets))
	for _, modelID := range targets {
		outcome := s.generateOne(ctx, user, tpl, compiled, req.Variables, configs[modelID])
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// generateOne runs the full lifecycle for a single model: pending
// record, trace, gateway call, accounting, terminal record update.
func (s *Service) generateOne(ctx context.Context, user *models.User, tpl *langfuse.PromptTemplate,
	compiled string, vars map[string]string, model llm.ModelConfig) ModelOutcome {

	start := time.Now()

	// The trace id exists before anything else so a crash mid-call
	// still leaves a matchable trace on the persisted record.
	traceID := uuid.NewString()

	rec, err := s.store.Create(ctx, CreateParams{
		UserID:          user.ID,
		UserEmail:       user.Email,
		TemplateID:      tpl.ID,
		TemplateName:    tpl.Name,
		TemplateVersion: tpl.Version,
		Variables:       vars,
		CompiledPrompt:  compiled,
		Model:           model.ID,
		Provider:        model.Provider,
		TraceID:         traceID,
	})
	if err != nil {
		// No record to mark failed; report and move on to the next model.
		return ModelOutcome{Model: model.ID, Err: &PersistenceError{Op: "create", Err: err}}
	}

	s.tracer.OpenTrace(langfuse.Trace{
		ID:        traceID,
		Name:      "content-generation",
		UserID:    user.ID.String(),
		SessionID: user.Email,
		Metadata: map[string]string{
			"templateId":      tpl.ID,
			"templateVersion": strconv.Itoa(tpl.Version),
			"model":           model.ID,
			"provider":        model.Provider,
			"generationId":    rec.ID.String(),
		},
		Tags: []string{"dice", "generation", model.Provider},
	})

	resp, gwErr := s.gateway.Complete(ctx, gateway.Request{
		Model:     model.ID,
		Prompt:    compiled,
		MaxTokens: model.MaxTokens,
		UserID:    user.ID.String(),
		SessionID: user.Email,
		TraceID:   traceID,
		Metadata: map[string]string{
			"template_id":      tpl.ID,
			"template_version": strconv.Itoa(tpl.Version),
			"generation_id":    rec.ID.String(),
		},
	})
	if gwErr != nil {
		s.tracer.RecordGeneration(langfuse.Generation{
			TraceID:       traceID,
			Name:          "llm-generation",
			Model:         model.ID,
			Input:         compiled,
			StartTime:     start,
			EndTime:       time.Now(),
			Level:         "ERROR",
			StatusMessage: gwErr.Error(),
		})
		s.flush(ctx)

		if err := s.store.MarkFailed(ctx, rec.ID, gwErr.Error()); err != nil {
			slog.Error("failed to mark generation failed",
				"generation_id", rec.ID, "error", err)
		}
		return ModelOutcome{Model: model.ID, Err: &GatewayError{Model: model.ID, Err: gwErr}}
	}

	cost := llm.Cost(model.ID, resp.InputTokens, resp.OutputTokens)
	duration := time.Since(start).Milliseconds()

	s.tracer.RecordGeneration(langfuse.Generation{
		TraceID:         traceID,
		Name:            "llm-generation",
		Model:           model.ID,
		ModelParameters: map[string]any{"max_tokens": model.MaxTokens},
		Input:           compiled,
		Output:          resp.Content,
		Usage: &langfuse.Usage{
			Input:  resp.InputTokens,
			Output: resp.OutputTokens,
			Total:  resp.TotalTokens,
		},
		StartTime:     start,
		EndTime:       time.Now(),
		Level:         "DEFAULT",
		StatusMessage: "Success",
	})
	s.flush(ctx)

	if err := s.store.MarkCompleted(ctx, rec.ID, CompleteParams{
		Content:          resp.Content,
		InputTokens:      resp.InputTokens,
		OutputTokens:     resp.OutputTokens,
		TotalTokens:      resp.TotalTokens,
		CostUSD:          cost,
		DurationMs:       duration,
		GatewayRequestID: resp.RequestID,
	}); err != nil {
		// The model already produced billable output; surface the
		// result and leave the bookkeeping gap in the logs.
		slog.Error("failed to mark generation completed",
			"generation_id", rec.ID, "error", err)
	}

	return ModelOutcome{
		Model: model.ID,
		Result: &Result{
			ID:       rec.ID,
			Content:  resp.Content,
			Model:    model.ID,
			Provider: model.Provider,
			Tokens: TokenUsage{
				Input:  resp.InputTokens,
				Output: resp.OutputTokens,
				Total:  resp.TotalTokens,
			},
			Cost:     cost,
			Duration: duration,
			TraceID:  traceID,
		},
	}
}

// GetForUser returns one of the caller's generation records.
func (s *Service) GetForUser(ctx context.Context, user *models.User, id uuid.UUID) (*models.Generation, error) {
	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.UserID != user.ID {
		return nil, ErrNotOwner
	}
	return g, nil
}

// History lists the caller's generations, newest first.
func (s *Service) History(ctx context.Context, user *models.User, limit, offset int) ([]models.Generation, error) {
	return s.store.ListByUser(ctx, user.ID, limit, offset)
}

func (s *Service) flush(ctx context.Context) {
	if err := s.tracer.Flush(ctx); err != nil {
		slog.Error("langfuse flush failed", "error", err)
	}
}
