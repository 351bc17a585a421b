package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gundersenerik/dice/internal/gateway"
	"github.com/gundersenerik/dice/internal/langfuse"
	"github.com/gundersenerik/dice/internal/models"
)

type fakeStore struct {
	records    map[uuid.UUID]*models.Generation
	order      []uuid.UUID
	createErr  error
	rateCalls  int
	failCreate map[string]bool // model -> fail insert
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[uuid.UUID]*models.Generation)}
}

func (f *fakeStore) Create(ctx context.Context, p CreateParams) (*models.Generation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.failCreate[p.Model] {
		return nil, errors.New("insert refused")
	}
	traceID := p.TraceID
	g := &models.Generation{
		ID:              uuid.New(),
		UserID:          p.UserID,
		UserEmail:       p.UserEmail,
		TemplateID:      p.TemplateID,
		TemplateName:    p.TemplateName,
		TemplateVersion: p.TemplateVersion,
		Variables:       p.Variables,
		CompiledPrompt:  p.CompiledPrompt,
		Model:           p.Model,
		Provider:        p.Provider,
		Status:          models.StatusPending,
		TraceID:         &traceID,
		CreatedAt:       time.Now(),
	}
	f.records[g.ID] = g
	f.order = append(f.order, g.ID)
	return g, nil
}

func (f *fakeStore) MarkCompleted(ctx context.Context, id uuid.UUID, p CompleteParams) error {
	g, ok := f.records[id]
	if !ok || g.Status != models.StatusPending {
		return ErrGenerationNotFound
	}
	g.Status = models.StatusCompleted
	g.Content = &p.Content
	g.InputTokens = &p.InputTokens
	g.OutputTokens = &p.OutputTokens
	g.TotalTokens = &p.TotalTokens
	g.CostUSD = &p.CostUSD
	g.DurationMs = &p.DurationMs
	g.GatewayRequestID = &p.GatewayRequestID
	return nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	g, ok := f.records[id]
	if !ok || g.Status != models.StatusPending {
		return ErrGenerationNotFound
	}
	g.Status = models.StatusFailed
	g.ErrorMessage = &message
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	g, ok := f.records[id]
	if !ok {
		return nil, ErrGenerationNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Generation, error) {
	var out []models.Generation
	for i := len(f.order) - 1; i >= 0; i-- {
		g := f.records[f.order[i]]
		if g.UserID == userID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeStore) Rate(ctx context.Context, id uuid.UUID, rating int, comment *string) (bool, error) {
	f.rateCalls++
	g, ok := f.records[id]
	if !ok {
		return false, nil
	}
	if g.Rating != nil {
		return false, nil
	}
	g.Rating = &rating
	g.RatingComment = comment
	now := time.Now()
	g.RatedAt = &now
	return true, nil
}

type fakeGateway struct {
	calls    []string
	failFor  map[string]error
	response func(model string) *gateway.Response
}

func (f *fakeGateway) Complete(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	f.calls = append(f.calls, req.Model)
	if err := f.failFor[req.Model]; err != nil {
		return nil, err
	}
	if f.response != nil {
		return f.response(req.Model), nil
	}
	return &gateway.Response{
		RequestID:    "req-" + req.Model,
		Content:      "content from " + req.Model,
		InputTokens:  100,
		OutputTokens: 50,
		TotalTokens:  150,
	}, nil
}

type fakeTemplates struct {
	templates map[string]*langfuse.PromptTemplate
}

func (f *fakeTemplates) GetPrompt(ctx context.Context, name string) (*langfuse.PromptTemplate, error) {
	tpl, ok := f.templates[name]
	if !ok {
		return nil, langfuse.ErrPromptNotFound
	}
	return tpl, nil
}

type fakeTracer struct {
	traces      []langfuse.Trace
	generations []langfuse.Generation
	scores      []langfuse.Score
	flushErr    error
}

func (f *fakeTracer) OpenTrace(t langfuse.Trace)               { f.traces = append(f.traces, t) }
func (f *fakeTracer) RecordGeneration(g langfuse.Generation)   { f.generations = append(f.generations, g) }
func (f *fakeTracer) AddScore(s langfuse.Score)                { f.scores = append(f.scores, s) }
func (f *fakeTracer) Flush(ctx context.Context) error          { return f.flushErr }

type fakeScores struct {
	forwarded []langfuse.Score
	err       error
}

func (f *fakeScores) ForwardRating(traceID string, rating int, comment string) error {
	if f.err != nil {
		return f.err
	}
	f.forwarded = append(f.forwarded, langfuse.Score{
		TraceID: traceID, Name: "user-rating", Value: float64(rating), Comment: comment,
	})
	return nil
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "erik@example.com"}
}

func sportsTemplate() *langfuse.PromptTemplate {
	return &langfuse.PromptTemplate{
		ID:        "subject-line-sports",
		Name:      "subject-line-sports",
		Version:   3,
		Variables: []string{"topic", "brand"},
		Prompt:    "Write a subject line about {{topic}} for {{brand}}",
		Config:    &langfuse.PromptConfig{Models: []string{"gpt-4o", "claude-sonnet-4-20250514"}},
	}
}

type fixture struct {
	svc       *Service
	store     *fakeStore
	gw        *fakeGateway
	templates *fakeTemplates
	tracer    *fakeTracer
	scores    *fakeScores
}

func newFixture() *fixture {
	f := &fixture{
		store:     newFakeStore(),
		gw:        &fakeGateway{failFor: map[string]error{}},
		templates: &fakeTemplates{templates: map[string]*langfuse.PromptTemplate{"subject-line-sports": sportsTemplate()}},
		tracer:    &fakeTracer{},
		scores:    &fakeScores{},
	}
	f.svc = NewService(f.store, f.gw, f.templates, f.tracer, f.scores)
	return f
}

func TestGenerateExplicitModel(t *testing.T) {
	f := newFixture()
	user := testUser()

	outcomes, err := f.svc.Generate(context.Background(), user, GenerateRequest{
		TemplateID: "subject-line-sports",
		Variables:  map[string]string{"topic": "Champions League final", "brand": "VG"},
		Model:      "gpt-4",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1 (explicit model wins)", len(outcomes))
	}

	res := outcomes[0].Result
	if res == nil {
		t.Fatalf("outcome error: %v", outcomes[0].Err)
	}
	if res.Model != "gpt-4" || res.Provider != "openai" {
		t.Errorf("model/provider = %s/%s", res.Model, res.Provider)
	}
	// gpt-4: 0.03 in, 0.06 out per 1K; 100 in + 50 out
	wantCost := 0.1*0.03 + 0.05*0.06
	if res.Cost != wantCost {
		t.Errorf("cost = %v, want %v", res.Cost, wantCost)
	}
	if res.Tokens != (TokenUsage{Input: 100, Output: 50, Total: 150}) {
		t.Errorf("tokens = %+v", res.Tokens)
	}

	rec := f.store.records[res.ID]
	if rec.Status != models.StatusCompleted {
		t.Errorf("record status = %s, want completed", rec.Status)
	}
	if rec.CompiledPrompt != "Write a subject line about Champions League final for VG" {
		t.Errorf("compiled prompt = %q", rec.CompiledPrompt)
	}
	if *rec.GatewayRequestID != "req-gpt-4" {
		t.Errorf("gateway request id = %q", *rec.GatewayRequestID)
	}

	if len(f.tracer.traces) != 1 || f.tracer.traces[0].ID != res.TraceID {
		t.Errorf("expected one trace keyed by %s", res.TraceID)
	}
	if len(f.tracer.generations) != 1 || f.tracer.generations[0].Usage.Total != 150 {
		t.Error("expected one generation span with usage")
	}
}

func TestGenerateFanOut(t *testing.T) {
	f := newFixture()

	outcomes, err := f.svc.Generate(context.Background(), testUser(), GenerateRequest{
		TemplateID: "subject-line-sports",
		Variables:  map[string]string{"topic": "padel", "brand": "Aftonbladet"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}

	// Strictly sequential, in configured order.
	wantOrder := []string{"gpt-4o", "claude-sonnet-4-20250514"}
	for i, want := range wantOrder {
		if f.gw.calls[i] != want {
			t.Errorf("call %d = %s, want %s", i, f.gw.calls[i], want)
		}
		if outcomes[i].Model != want {
			t.Errorf("outcome %d model = %s, want %s", i, outcomes[i].Model, want)
		}
		if outcomes[i].Result == nil {
			t.Errorf("outcome %d failed: %v", i, outcomes[i].Err)
		}
	}

	if len(f.store.order) != 2 {
		t.Errorf("created %d records, want 2", len(f.store.order))
	}
	for _, id := range f.store.order {
		if f.store.records[id].Status != models.StatusCompleted {
			t.Errorf("record %s status = %s", id, f.store.records[id].Status)
		}
	}
}

func TestGenerateFailureIsolation(t *testing.T) {
	f := newFixture()
	f.gw.failFor["gpt-4o"] = errors.New("upstream exploded")

	outcomes, err := f.svc.Generate(context.Background(), testUser(), GenerateRequest{
		TemplateID: "subject-line-sports",
		Variables:  map[string]string{"topic": "padel", "brand": "VG"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2 (failure must not abort the loop)", len(outcomes))
	}

	var gwErr *GatewayError
	if !errors.As(outcomes[0].Err, &gwErr) {
		t.Fatalf("outcome 0 err = %v, want GatewayError", outcomes[0].Err)
	}
	if outcomes[1].Result == nil {
		t.Errorf("outcome 1 should have succeeded: %v", outcomes[1].Err)
	}

	// First record failed with the captured message, no completed fields.
	first := f.store.records[f.store.order[0]]
	if first.Status != models.StatusFailed {
		t.Errorf("first record status = %s, want failed", first.Status)
	}
	if first.ErrorMessage == nil || !strings.Contains(*first.ErrorMessage, "upstream exploded") {
		t.Errorf("error message = %v", first.ErrorMessage)
	}
	if first.Content != nil || first.CostUSD != nil || first.TotalTokens != nil {
		t.Error("failed record must not carry completion fields")
	}

	second := f.store.records[f.store.order[1]]
	if second.Status != models.StatusCompleted {
		t.Errorf("second record status = %s, want completed", second.Status)
	}
}

func TestGenerateCreateFailureSkipsModel(t *testing.T) {
	f := newFixture()
	f.store.failCreate = map[string]bool{"gpt-4o": true}

	outcomes, err := f.svc.Generate(context.Background(), testUser(), GenerateRequest{
		TemplateID: "subject-line-sports",
		Variables:  map[string]string{"topic": "padel", "brand": "VG"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var pErr *PersistenceError
	if !errors.As(outcomes[0].Err, &pErr) {
		t.Fatalf("outcome 0 err = %v, want PersistenceError", outcomes[0].Err)
	}
	// No gateway call was made for the model whose record never existed.
	for _, m := range f.gw.calls {
		if m == "gpt-4o" {
			t.Error("gateway called for model with failed record creation")
		}
	}
	if outcomes[1].Result == nil {
		t.Errorf("outcome 1 should have succeeded: %v", outcomes[1].Err)
	}
}

func TestGenerateMissingVariables(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Generate(context.Background(), testUser(), GenerateRequest{
		TemplateID: "subject-line-sports",
		Variables:  map[string]string{"topic": "Champions League final"},
	})

	var missing *MissingVariablesError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingVariablesError", err)
	}
	if len(missing.Variables) != 1 || missing.Variables[0] != "brand" {
		t.Errorf("missing = %v, want [brand]", missing.Variables)
	}
	if !strings.Contains(err.Error(), "brand") {
		t.Errorf("error message %q should name the missing variable", err.Error())
	}
	if len(f.store.order) != 0 {
		t.Error("validation must reject before any side effect")
	}
}

func TestGenerateMissingVariablesListsAll(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Generate(context.Background(), testUser(), GenerateRequest{
		TemplateID: "subject-line-sports",
		Variables:  map[string]string{},
	})

	var missing *MissingVariablesError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v", err)
	}
	if len(missing.Variables) != 2 {
		t.Errorf("missing = %v, want both topic and brand", missing.Variables)
	}
}

func TestGenerateTemplateNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Generate(context.Background(), testUser(), GenerateRequest{
		TemplateID: "no-such-template",
		Variables:  map[string]string{},
	})
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestGenerateNoModelConfigured(t *testing.T) {
	f := newFixture()
	f.templates.templates["bare"] = &langfuse.PromptTemplate{
		ID: "bare", Name: "bare", Version: 1, Prompt: "no vars here",
	}

	_, err := f.svc.Generate(context.Background(), testUser(), GenerateRequest{
		TemplateID: "bare",
		Variables:  map[string]string{},
	})
	if !errors.Is(err, ErrNoModelConfigured) {
		t.Errorf("err = %v, want ErrNoModelConfigured", err)
	}
}

func TestGenerateUnknownModel(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Generate(context.Background(), testUser(), GenerateRequest{
		TemplateID: "subject-line-sports",
		Variables:  map[string]string{"topic": "padel", "brand": "VG"},
		Model:      "made-up-model",
	})

	var unknown *UnknownModelError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownModelError", err)
	}
	if unknown.Model != "made-up-model" {
		t.Errorf("model = %s", unknown.Model)
	}
	if len(f.store.order) != 0 {
		t.Error("no records should be created for an unknown model")
	}
}

func TestGenerateTracingFailureDoesNotFailCall(t *testing.T) {
	f := newFixture()
	f.tracer.flushErr = fmt.Errorf("langfuse down")

	outcomes, err := f.svc.Generate(context.Background(), testUser(), GenerateRequest{
		TemplateID: "subject-line-sports",
		Variables:  map[string]string{"topic": "padel", "brand": "VG"},
		Model:      "gpt-4o",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if outcomes[0].Result == nil {
		t.Errorf("telemetry failure must not fail the generation: %v", outcomes[0].Err)
	}
}
