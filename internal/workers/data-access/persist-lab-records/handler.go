// internal/workers/data-access/persist-lab-records/handler.go
package persistlabrecords

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"promptlab-workers/internal/common/logger"
	"promptlab-workers/internal/models"

	"github.com/google/uuid"
)

const (
	TaskType = "persist-lab-records"
)

var (
	ErrInsertFailed   = errors.New("DATABASE_INSERT_FAILED")
	ErrUpdateFailed   = errors.New("DATABASE_UPDATE_FAILED")
	ErrRecordNotFound = errors.New("RECORD_NOT_FOUND")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// CreateRun inserts a pending run and returns its generated id.
func (h *Handler) CreateRun(ctx context.Context, run *models.LabRun) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	id := uuid.New().String()
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO lab_runs (id, template_slug, template_version, task_type, source_task_id, model_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, run.TemplateSlug, run.TemplateVersion, string(run.TaskType),
		run.SourceTaskID, run.ModelName, string(models.RunStatusPending), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	return id, nil
}

// MarkRunDone transitions a run to done with its refined output.
func (h *Handler) MarkRunDone(ctx context.Context, runID, refinedPrompt string) error {
	return h.updateRun(ctx, runID, `
		UPDATE lab_runs SET status = $2, raw_refined_prompt = $3 WHERE id = $1`,
		runID, string(models.RunStatusDone), refinedPrompt)
}

// MarkRunError transitions a run to error with the failure code.
func (h *Handler) MarkRunError(ctx context.Context, runID, errorMessage string) error {
	return h.updateRun(ctx, runID, `
		UPDATE lab_runs SET status = $2, error_message = $3 WHERE id = $1`,
		runID, string(models.RunStatusError), errorMessage)
}

// AnnotateScoreFailure notes a post-refinement scoring failure on a done
// run without touching its status.
func (h *Handler) AnnotateScoreFailure(ctx context.Context, runID, note string) error {
	return h.updateRun(ctx, runID, `
		UPDATE lab_runs SET error_message = $2 WHERE id = $1`,
		runID, note)
}

func (h *Handler) updateRun(ctx context.Context, runID, query string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	res, err := h.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: lab_run %s", ErrRecordNotFound, runID)
	}
	return nil
}

// CreateScore inserts the score row for a done run. At most one score
// exists per run; retries are the caller's concern.
func (h *Handler) CreateScore(ctx context.Context, score *models.LabScore) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	metricsJSON, err := json.Marshal(score.Metrics)
	if err != nil {
		return "", fmt.Errorf("%w: encode metrics: %v", ErrInsertFailed, err)
	}

	id := uuid.New().String()
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO lab_scores (id, lab_run_id, structure_score, contract_score, domain_score, overall_score, metrics_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, score.LabRunID, score.Structure, score.Contract, score.Domain,
		score.Overall, string(metricsJSON), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	return id, nil
}
