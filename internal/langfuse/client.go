package langfuse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	SecretKey string
	PublicKey string
	BaseURL   string
}

// Client buffers observability events and ships them in batches to the
// Langfuse ingestion API. Buffering means opening a trace or span can
// never fail a caller synchronously; delivery happens on Flush.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu     sync.Mutex
	events []event
}

type event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Body      any       `json:"body"`
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://cloud.langfuse.com"
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

var (
	defaultMu   sync.Mutex
	defaultCfg  Config
	defaultOnce sync.Once
	defaultC    *Client
)

// Configure sets the config the process-wide default client is built
// from. Must be called before the first Default call.
func Configure(cfg Config) {
	defaultMu.Lock()
	defaultCfg = cfg
	defaultMu.Unlock()
}

// Default returns the process-wide client, creating it on first use.
func Default() *Client {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		defaultC = NewClient(defaultCfg)
	})
	return defaultC
}

type Trace struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	UserID    string            `json:"userId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
}

type Usage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

type Generation struct {
	ID              string         `json:"id"`
	TraceID         string         `json:"traceId"`
	Name            string         `json:"name"`
	Model           string         `json:"model,omitempty"`
	ModelParameters map[string]any `json:"modelParameters,omitempty"`
	Input           any            `json:"input,omitempty"`
	Output          any            `json:"output,omitempty"`
	Usage           *Usage         `json:"usage,omitempty"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         time.Time      `json:"endTime,omitzero"`
	Level           string         `json:"level,omitempty"`
	StatusMessage   string         `json:"statusMessage,omitempty"`
}

type Score struct {
	TraceID string  `json:"traceId"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Comment string  `json:"comment,omitempty"`
}

// OpenTrace buffers a trace-create event.
func (c *Client) OpenTrace(t Trace) {
	c.buffer("trace-create", t)
}

// RecordGeneration buffers a generation observation for a trace.
func (c *Client) RecordGeneration(g Generation) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	c.buffer("generation-create", g)
}

// AddScore buffers a score event for a trace.
func (c *Client) AddScore(s Score) {
	c.buffer("score-create", s)
}

func (c *Client) buffer(eventType string, body any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Body:      body,
	})
}

// Flush drains the event buffer to the batch ingestion endpoint.
// Telemetry is best-effort: on failure the batch is dropped and the
// error returned for the caller to log, never to propagate.
func (c *Client) Flush(ctx context.Context) error {
	c.mu.Lock()
	batch := c.events
	c.events = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string]any{"batch": batch})
	if err != nil {
		return fmt.Errorf("marshal ingestion batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/public/ingestion", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create ingestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.PublicKey, c.cfg.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post ingestion batch: %w", err)
	}
	defer resp.Body.Close()

	// 207 means partial success; individual failures are not retried.
	if resp.StatusCode >= 400 {
		return fmt.Errorf("ingestion returned status %d", resp.StatusCode)
	}
	return nil
}

// Pending reports the number of buffered, unflushed events.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}
