package models

import (
	"time"

	"github.com/google/uuid"
)

type GenerationStatus string

const (
	StatusPending   GenerationStatus = "pending"
	StatusCompleted GenerationStatus = "completed"
	StatusFailed    GenerationStatus = "failed"
)

// Generation is one persisted attempt to compile a template and invoke
// a model. Completion fields stay null until the attempt reaches a
// terminal status; rating fields are written at most once.
type Generation struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	UserID          uuid.UUID         `json:"user_id" db:"user_id"`
	UserEmail       string            `json:"user_email" db:"user_email"`
	TemplateID      string            `json:"template_id" db:"template_id"`
	TemplateName    string            `json:"template_name" db:"template_name"`
	TemplateVersion int               `json:"template_version" db:"template_version"`
	Variables       map[string]string `json:"user_variables" db:"user_variables"`
	CompiledPrompt  string            `json:"compiled_prompt" db:"compiled_prompt"`
	Model           string            `json:"model" db:"model"`
	Provider        string            `json:"provider" db:"provider"`
	Status          GenerationStatus  `json:"status" db:"status"`

	Content      *string  `json:"generated_content,omitempty" db:"generated_content"`
	InputTokens  *int     `json:"input_tokens,omitempty" db:"input_tokens"`
	OutputTokens *int     `json:"output_tokens,omitempty" db:"output_tokens"`
	TotalTokens  *int     `json:"total_tokens,omitempty" db:"total_tokens"`
	CostUSD      *float64 `json:"cost_usd,omitempty" db:"cost_usd"`
	DurationMs   *int64   `json:"duration_ms,omitempty" db:"duration_ms"`

	Rating        *int       `json:"rating,omitempty" db:"rating"`
	RatingComment *string    `json:"rating_comment,omitempty" db:"rating_comment"`
	RatedAt       *time.Time `json:"rated_at,omitempty" db:"rated_at"`

	TraceID          *string `json:"langfuse_trace_id,omitempty" db:"langfuse_trace_id"`
	GatewayRequestID *string `json:"portkey_request_id,omitempty" db:"portkey_request_id"`
	ErrorMessage     *string `json:"error_message,omitempty" db:"error_message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
