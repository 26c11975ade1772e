// internal/workers/data-access/persist-lab-records/handler_test.go
package persistlabrecords

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"promptlab-workers/internal/common/logger"
	"promptlab-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func newTestHandler(t *testing.T, db *sql.DB) *Handler {
	return NewHandler(LoadConfig(), db, logger.NewTestLogger(t))
}

func TestHandler_CreateRun(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO lab_runs").
		WithArgs(sqlmock.AnyArg(), "coding_debug", "v2", "synthetic", "task-1",
			"gpt-4.1", "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newTestHandler(t, db)
	id, err := h.CreateRun(context.Background(), &models.LabRun{
		TemplateSlug:    "coding_debug",
		TemplateVersion: "v2",
		TaskType:        models.TaskTypeSynthetic,
		SourceTaskID:    "task-1",
		ModelName:       "gpt-4.1",
	})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_CreateRun_InsertFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO lab_runs").
		WillReturnError(errors.New("connection lost"))

	h := newTestHandler(t, db)
	id, err := h.CreateRun(context.Background(), &models.LabRun{})

	assert.Empty(t, id)
	assert.ErrorIs(t, err, ErrInsertFailed)
}

func TestHandler_MarkRunDone(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("UPDATE lab_runs SET status").
		WithArgs("run-1", "done", "refined output").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newTestHandler(t, db)
	err := h.MarkRunDone(context.Background(), "run-1", "refined output")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_MarkRunError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("UPDATE lab_runs SET status").
		WithArgs("run-1", "error", "REFINE_TIMEOUT").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newTestHandler(t, db)
	err := h.MarkRunError(context.Background(), "run-1", "REFINE_TIMEOUT")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_UpdateRun_MissingRow(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("UPDATE lab_runs SET status").
		WithArgs("gone", "done", "text").
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := newTestHandler(t, db)
	err := h.MarkRunDone(context.Background(), "gone", "text")

	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestHandler_AnnotateScoreFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("UPDATE lab_runs SET error_message").
		WithArgs("run-1", "SCORE_FAILED: boom").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newTestHandler(t, db)
	err := h.AnnotateScoreFailure(context.Background(), "run-1", "SCORE_FAILED: boom")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_CreateScore(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO lab_scores").
		WithArgs(sqlmock.AnyArg(), "run-1", 0.8, 0.5, 0.4, 0.62, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newTestHandler(t, db)
	id, err := h.CreateScore(context.Background(), &models.LabScore{
		LabRunID:  "run-1",
		Structure: 0.8,
		Contract:  0.5,
		Domain:    0.4,
		Overall:   0.62,
		Metrics:   models.ScoreMetrics{Structure: 0.8},
	})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_CreateScore_InsertFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO lab_scores").
		WillReturnError(errors.New("disk full"))

	h := newTestHandler(t, db)
	id, err := h.CreateScore(context.Background(), &models.LabScore{LabRunID: "run-1"})

	assert.Empty(t, id)
	assert.ErrorIs(t, err, ErrInsertFailed)
}
