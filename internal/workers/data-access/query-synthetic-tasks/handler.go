// internal/workers/data-access/query-synthetic-tasks/handler.go
package querysynthetictasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"promptlab-workers/internal/common/logger"
	"promptlab-workers/internal/models"
)

const (
	TaskType = "query-synthetic-tasks"
)

var (
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
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

// FindRecent returns up to limit synthetic task rows, most recent
// first. A short result is not an error.
func (h *Handler) FindRecent(ctx context.Context, limit int) ([]models.SyntheticTaskRow, error) {
	if limit < 1 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, category, input_text, template_slug, template_version
		FROM synthetic_tasks
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrQueryTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var out []models.SyntheticTaskRow
	for rows.Next() {
		var row models.SyntheticTaskRow
		var slug, version sql.NullString
		if err := rows.Scan(&row.ID, &row.Category, &row.InputText, &slug, &version); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrQueryExecutionFailed, err)
		}
		row.TemplateSlug = slug.String
		row.TemplateVersion = version.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	h.logger.Debug("synthetic tasks fetched", map[string]interface{}{
		"requested": limit,
		"returned":  len(out),
	})
	return out, nil
}
