package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gundersenerik/dice/internal/models"
)

// DBStore persists generation records in Postgres. Status transitions
// are guarded in SQL so a record can never move backwards out of a
// terminal state, and a rating can never be overwritten.
type DBStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *DBStore {
	return &DBStore{db: db}
}

type CreateParams struct {
	UserID          uuid.UUID
	UserEmail       string
	TemplateID      string
	TemplateName    string
	TemplateVersion int
	Variables       map[string]string
	CompiledPrompt  string
	Model           string
	Provider        string
	TraceID         string
}

const generationColumns = `id, user_id, user_email, template_id, template_name, template_version,
	user_variables, compiled_prompt, model, provider, status,
	generated_content, input_tokens, output_tokens, total_tokens, cost_usd, duration_ms,
	rating, rating_comment, rated_at, langfuse_trace_id, portkey_request_id, error_message,
	created_at, updated_at`

func (s *DBStore) Create(ctx context.Context, p CreateParams) (*models.Generation, error) {
	varsJSON, err := json.Marshal(p.Variables)
	if err != nil {
		return nil, fmt.Errorf("marshal variables: %w", err)
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO generations
		   (user_id, user_email, template_id, template_name, template_version,
		    user_variables, compiled_prompt, model, provider, status, langfuse_trace_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10)
		 RETURNING `+generationColumns,
		p.UserID, p.UserEmail, p.TemplateID, p.TemplateName, p.TemplateVersion,
		varsJSON, p.CompiledPrompt, p.Model, p.Provider, p.TraceID,
	)

	g, err := scanGeneration(row)
	if err != nil {
		return nil, fmt.Errorf("insert generation: %w", err)
	}
	return g, nil
}

type CompleteParams struct {
	Content          string
	InputTokens      int
	OutputTokens     int
	TotalTokens      int
	CostUSD          float64
	DurationMs       int64
	GatewayRequestID string
}

func (s *DBStore) MarkCompleted(ctx context.Context, id uuid.UUID, p CompleteParams) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE generations SET
		   generated_content = $2, input_tokens = $3, output_tokens = $4, total_tokens = $5,
		   cost_usd = $6, duration_ms = $7, portkey_request_id = $8,
		   status = 'completed', updated_at = now()
		 WHERE id = $1 AND status = 'pending'`,
		id, p.Content, p.InputTokens, p.OutputTokens, p.TotalTokens,
		p.CostUSD, p.DurationMs, p.GatewayRequestID,
	)
	if err != nil {
		return fmt.Errorf("mark generation completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark generation completed: %w", ErrGenerationNotFound)
	}
	return nil
}

func (s *DBStore) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE generations SET status = 'failed', error_message = $2, updated_at = now()
		 WHERE id = $1 AND status = 'pending'`,
		id, message,
	)
	if err != nil {
		return fmt.Errorf("mark generation failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark generation failed: %w", ErrGenerationNotFound)
	}
	return nil
}

func (s *DBStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+generationColumns+` FROM generations WHERE id = $1`, id)

	g, err := scanGeneration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGenerationNotFound
		}
		return nil, fmt.Errorf("get generation: %w", err)
	}
	return g, nil
}

func (s *DBStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Generation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+generationColumns+` FROM generations
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var generations []models.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		generations = append(generations, *g)
	}
	return generations, rows.Err()
}

// Rate writes the rating exactly once. The rating IS NULL predicate
// makes the first writer win under concurrent submissions.
func (s *DBStore) Rate(ctx context.Context, id uuid.UUID, rating int, comment *string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE generations SET rating = $2, rating_comment = $3, rated_at = now(), updated_at = now()
		 WHERE id = $1 AND rating IS NULL`,
		id, rating, comment,
	)
	if err != nil {
		return false, fmt.Errorf("rate generation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FailStalePending marks generations abandoned mid-flight (e.g. by a
// crash) as failed so nothing stays pending forever.
func (s *DBStore) FailStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE generations SET status = 'failed',
		   error_message = 'abandoned before completion', updated_at = now()
		 WHERE status = 'pending' AND created_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("sweep stale generations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanGeneration(row pgx.Row) (*models.Generation, error) {
	var g models.Generation
	var varsJSON []byte

	err := row.Scan(
		&g.ID, &g.UserID, &g.UserEmail, &g.TemplateID, &g.TemplateName, &g.TemplateVersion,
		&varsJSON, &g.CompiledPrompt, &g.Model, &g.Provider, &g.Status,
		&g.Content, &g.InputTokens, &g.OutputTokens, &g.TotalTokens, &g.CostUSD, &g.DurationMs,
		&g.Rating, &g.RatingComment, &g.RatedAt, &g.TraceID, &g.GatewayRequestID, &g.ErrorMessage,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(varsJSON) > 0 {
		if err := json.Unmarshal(varsJSON, &g.Variables); err != nil {
			return nil, fmt.Errorf("unmarshal variables: %w", err)
		}
	}
	return &g, nil
}
