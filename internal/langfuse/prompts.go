package langfuse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gundersenerik/dice/internal/prompt"
)

// ErrPromptNotFound is returned when no production-labeled prompt
// exists under the requested name.
var ErrPromptNotFound = errors.New("prompt not found")

// productionLabel is the only label this service ever reads; drafts
// and older versions stay invisible.
const productionLabel = "production"

// PromptConfig is the admin-set config field on a Langfuse prompt.
// It controls model selection for generations using that prompt.
type PromptConfig struct {
	// Single model to use for this prompt.
	Model string `json:"model,omitempty"`
	// Multiple models for A/B testing; one generation per model.
	Models []string `json:"models,omitempty"`
	// Free-text note for admins.
	Description string `json:"description,omitempty"`
}

// ModelList resolves the configured target models. The multi-model
// list takes priority over the single model. Nil means the prompt has
// no model configured.
func (c *PromptConfig) ModelList() []string {
	if c == nil {
		return nil
	}
	if len(c.Models) > 0 {
		return c.Models
	}
	if c.Model != "" {
		return []string{c.Model}
	}
	return nil
}

type PromptTemplate struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Version   int           `json:"version"`
	Variables []string      `json:"variables"`
	Prompt    string        `json:"prompt"`
	Config    *PromptConfig `json:"config,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
}

type promptResponse struct {
	Name    string          `json:"name"`
	Version int             `json:"version"`
	Type    string          `json:"type"`
	Prompt  json.RawMessage `json:"prompt"`
	Config  json.RawMessage `json:"config"`
	Tags    []string        `json:"tags"`
}

type promptListResponse struct {
	Data []struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	} `json:"data"`
}

// GetPrompt fetches a single production-labeled text prompt by name.
func (c *Client) GetPrompt(ctx context.Context, name string) (*PromptTemplate, error) {
	endpoint := fmt.Sprintf("%s/api/public/v2/prompts/%s?label=%s",
		c.cfg.BaseURL, url.PathEscape(name), productionLabel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create prompt request: %w", err)
	}
	req.SetBasicAuth(c.cfg.PublicKey, c.cfg.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch prompt %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPromptNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch prompt %s: status %d", name, resp.StatusCode)
	}

	var pr promptResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode prompt %s: %w", name, err)
	}

	return buildTemplate(name, pr)
}

// ListPrompts fetches every production-labeled text prompt. A prompt
// whose detail fetch fails is skipped with a log line rather than
// failing the whole listing.
func (c *Client) ListPrompts(ctx context.Context) ([]PromptTemplate, error) {
	endpoint := fmt.Sprintf("%s/api/public/v2/prompts?label=%s&limit=100",
		c.cfg.BaseURL, productionLabel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create prompt list request: %w", err)
	}
	req.SetBasicAuth(c.cfg.PublicKey, c.cfg.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list prompts: status %d", resp.StatusCode)
	}

	var list promptListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode prompt list: %w", err)
	}

	templates := make([]PromptTemplate, 0, len(list.Data))
	for _, meta := range list.Data {
		tpl, err := c.GetPrompt(ctx, meta.Name)
		if err != nil {
			slog.Error("failed to fetch prompt", "name", meta.Name, "error", err)
			continue
		}
		templates = append(templates, *tpl)
	}
	return templates, nil
}

func buildTemplate(id string, pr promptResponse) (*PromptTemplate, error) {
	// Only text prompts carry a plain string body; chat prompts are an
	// array of messages and are not used by this service.
	var body string
	if err := json.Unmarshal(pr.Prompt, &body); err != nil {
		return nil, fmt.Errorf("prompt %s is not a text prompt: %w", id, err)
	}

	tpl := &PromptTemplate{
		ID:        id,
		Name:      pr.Name,
		Version:   pr.Version,
		Variables: prompt.ExtractVariables(body),
		Prompt:    body,
		Tags:      pr.Tags,
	}

	if len(pr.Config) > 0 && string(pr.Config) != "null" {
		var cfg PromptConfig
		if err := json.Unmarshal(pr.Config, &cfg); err == nil {
			if cfg.Model != "" || len(cfg.Models) > 0 || cfg.Description != "" {
				tpl.Config = &cfg
			}
		}
	}

	return tpl, nil
}
