// Package gateway talks to the Portkey model gateway, which fronts all
// providers behind one OpenAI-compatible chat completions API.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gundersenerik/dice/internal/config"
	"github.com/gundersenerik/dice/internal/llm"
)

type Client struct {
	cfg config.GatewayConfig
}

func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{cfg: cfg}
}

type Request struct {
	Model     string
	Prompt    string
	MaxTokens int

	// Attribution forwarded to the gateway as metadata.
	UserID    string
	SessionID string
	TraceID   string
	Metadata  map[string]string
}

type Response struct {
	RequestID    string
	Content      string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Complete issues one chat completion through the gateway. The model
// must be known to the registry so the call can be routed with the
// provider's virtual key.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	model, ok := llm.Lookup(req.Model)
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", req.Model)
	}

	virtualKey := c.cfg.VirtualKeys[model.Provider]
	if virtualKey == "" {
		return nil, fmt.Errorf("no virtual key configured for provider: %s", model.Provider)
	}

	client := c.newProviderClient(virtualKey, req)

	oReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens: req.MaxTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			slog.Debug("retrying gateway call", "model", req.Model, "attempt", attempt)
		}

		resp, err := client.CreateChatCompletion(ctx, oReq)
		if err != nil {
			lastErr = err
			continue
		}

		content := ""
		if len(resp.Choices) > 0 {
			content = resp.Choices[0].Message.Content
		}

		return &Response{
			RequestID:    resp.ID,
			Content:      content,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}, nil
	}

	return nil, fmt.Errorf("gateway call for %s: %w", req.Model, lastErr)
}

// newProviderClient builds a per-call client carrying the Portkey auth,
// routing, and attribution headers. Clients are per call because the
// metadata header varies with every generation.
func (c *Client) newProviderClient(virtualKey string, req Request) *openai.Client {
	metadata := map[string]string{
		"_user":      req.UserID,
		"session_id": req.SessionID,
		"trace_id":   req.TraceID,
	}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadataJSON, _ := json.Marshal(metadata)

	cfg := openai.DefaultConfig("")
	cfg.BaseURL = c.cfg.BaseURL
	cfg.HTTPClient = &http.Client{
		Timeout: c.cfg.Timeout,
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"x-portkey-api-key":     c.cfg.APIKey,
				"x-portkey-virtual-key": virtualKey,
				"x-portkey-metadata":    string(metadataJSON),
			},
		},
	}
	return openai.NewClientWithConfig(cfg)
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	for k, v := range t.headers {
		cloned.Header.Set(k, v)
	}
	return t.base.RoundTrip(cloned)
}
