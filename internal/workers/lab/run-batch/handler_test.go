// internal/workers/lab/run-batch/handler_test.go
package runbatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"promptlab-workers/internal/common/genai"
	"promptlab-workers/internal/common/logger"
	"promptlab-workers/internal/models"
	scorerefinement "promptlab-workers/internal/workers/scoring/score-refinement"
	"promptlab-workers/pkg/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *Config {
	return &Config{
		MaxBatchSize: 10,
		EvalPlan:     models.PlanPro,
		EvalVariant:  models.VariantControl,
	}
}

type fakeSynthetic struct {
	rows []models.SyntheticTaskRow
	err  error
}

func (f *fakeSynthetic) FindRecent(ctx context.Context, limit int) ([]models.SyntheticTaskRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > len(f.rows) {
		limit = len(f.rows)
	}
	return f.rows[:limit], nil
}

type fakeSamples struct {
	rows []models.CuratedSampleRow
	err  error
}

func (f *fakeSamples) FindRecent(ctx context.Context, limit int) ([]models.CuratedSampleRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > len(f.rows) {
		limit = len(f.rows)
	}
	return f.rows[:limit], nil
}

// fakeStore records every persistence call in memory.
type fakeStore struct {
	runs        []*models.LabRun
	done        map[string]string
	failed      map[string]string
	annotations map[string]string
	scores      []*models.LabScore
	scoreErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		done:        map[string]string{},
		failed:      map[string]string{},
		annotations: map[string]string{},
	}
}

func (f *fakeStore) CreateRun(ctx context.Context, run *models.LabRun) (string, error) {
	f.runs = append(f.runs, run)
	return fmt.Sprintf("run-%d", len(f.runs)), nil
}

func (f *fakeStore) MarkRunDone(ctx context.Context, runID, refinedPrompt string) error {
	f.done[runID] = refinedPrompt
	return nil
}

func (f *fakeStore) MarkRunError(ctx context.Context, runID, errorMessage string) error {
	f.failed[runID] = errorMessage
	return nil
}

func (f *fakeStore) AnnotateScoreFailure(ctx context.Context, runID, note string) error {
	f.annotations[runID] = note
	return nil
}

func (f *fakeStore) CreateScore(ctx context.Context, score *models.LabScore) (string, error) {
	if f.scoreErr != nil {
		return "", f.scoreErr
	}
	f.scores = append(f.scores, score)
	return fmt.Sprintf("score-%d", len(f.scores)), nil
}

// fakeRefiner fails any task whose input text carries the failure marker.
type fakeRefiner struct {
	failOn  string
	failErr error
	reqs    []*genai.RefineRequest
}

func (f *fakeRefiner) Refine(ctx context.Context, req *genai.RefineRequest) (*genai.RefineResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.failOn != "" && req.Text == f.failOn {
		if f.failErr != nil {
			return nil, f.failErr
		}
		return nil, genai.ErrRefineFailed
	}
	return &genai.RefineResponse{
		RefinedText: "You are an assistant. Goal: handle this.\nOutput: respond with the result.\n" + req.Text,
	}, nil
}

func newTestHandler(t *testing.T, synthetic SyntheticSource, samples SampleSource, store RunStore, refiner Refiner) *Handler {
	log := logger.NewTestLogger(t)
	return NewHandler(
		createTestConfig(),
		templates.NewRegistry(),
		synthetic,
		samples,
		store,
		refiner,
		scorerefinement.NewHandler(log),
		nil,
		log,
	)
}

func threeTasks() (*fakeSynthetic, *fakeSamples) {
	synthetic := &fakeSynthetic{rows: []models.SyntheticTaskRow{
		{ID: "syn-1", Category: "coding", InputText: "fix my failing test", TemplateSlug: "coding_tests", TemplateVersion: "v1"},
		{ID: "syn-2", Category: "writing", InputText: "broken refinement input"},
	}}
	samples := &fakeSamples{rows: []models.CuratedSampleRow{
		{ID: "smp-1", Category: "planning", InputText: "plan my launch"},
	}}
	return synthetic, samples
}

func TestHandler_Execute_PartialFailure(t *testing.T) {
	synthetic, samples := threeTasks()
	store := newFakeStore()
	refiner := &fakeRefiner{failOn: "broken refinement input"}

	h := newTestHandler(t, synthetic, samples, store, refiner)
	out, err := h.Execute(context.Background(), &Input{Limit: 3})
	require.NoError(t, err)

	// One failed refinement does not take down the batch.
	assert.Equal(t, 3, out.RunsCreated)
	assert.Equal(t, 2, out.ScoresCreated)

	assert.Len(t, store.done, 2)
	require.Len(t, store.failed, 1)
	assert.Equal(t, "REFINE_FAILED", store.failed["run-2"])
	assert.Len(t, store.scores, 2)
}

func TestHandler_Execute_TimeoutCode(t *testing.T) {
	synthetic, samples := threeTasks()
	store := newFakeStore()
	refiner := &fakeRefiner{failOn: "broken refinement input", failErr: genai.ErrRefineTimeout}

	h := newTestHandler(t, synthetic, samples, store, refiner)
	_, err := h.Execute(context.Background(), &Input{Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, "REFINE_TIMEOUT", store.failed["run-2"])
}

func TestHandler_Execute_CeilingRejection(t *testing.T) {
	tests := []struct {
		name  string
		limit int
	}{
		{"over ceiling", 11},
		{"zero", 0},
		{"negative", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synthetic, samples := threeTasks()
			store := newFakeStore()
			refiner := &fakeRefiner{}

			h := newTestHandler(t, synthetic, samples, store, refiner)
			out, err := h.Execute(context.Background(), &Input{Limit: tt.limit})

			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrBatchLimitExceeded)
			// Nothing was attempted.
			assert.Empty(t, store.runs)
			assert.Empty(t, refiner.reqs)
		})
	}
}

func TestHandler_Execute_SourceFailureAbortsBatch(t *testing.T) {
	store := newFakeStore()

	h := newTestHandler(t,
		&fakeSynthetic{err: errors.New("connection refused")},
		&fakeSamples{},
		store,
		&fakeRefiner{},
	)
	out, err := h.Execute(context.Background(), &Input{Limit: 4})

	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrTaskSourceFailed)
	assert.Empty(t, store.runs)
}

func TestHandler_Execute_ShortSourcesShrinkBatch(t *testing.T) {
	synthetic := &fakeSynthetic{rows: []models.SyntheticTaskRow{
		{ID: "syn-1", Category: "coding", InputText: "implement the parser"},
	}}
	store := newFakeStore()

	h := newTestHandler(t, synthetic, &fakeSamples{}, store, &fakeRefiner{})
	out, err := h.Execute(context.Background(), &Input{Limit: 6})
	require.NoError(t, err)

	assert.Equal(t, 1, out.RunsCreated)
	assert.Equal(t, 1, out.ScoresCreated)
}

func TestHandler_Execute_DryRun(t *testing.T) {
	synthetic, samples := threeTasks()
	store := newFakeStore()
	refiner := &fakeRefiner{}

	h := newTestHandler(t, synthetic, samples, store, refiner)
	out, err := h.Execute(context.Background(), &Input{Limit: 3, DryRun: true})
	require.NoError(t, err)

	// The pipeline ran in full but nothing touched the store.
	assert.Equal(t, 3, out.RunsCreated)
	assert.Equal(t, 3, out.ScoresCreated)
	assert.Len(t, refiner.reqs, 3)
	assert.Empty(t, store.runs)
	assert.Empty(t, store.done)
	assert.Empty(t, store.scores)
}

func TestHandler_Execute_ScorePersistFailureAnnotates(t *testing.T) {
	synthetic, samples := threeTasks()
	store := newFakeStore()
	store.scoreErr = errors.New("disk full")

	h := newTestHandler(t, synthetic, samples, store, &fakeRefiner{})
	out, err := h.Execute(context.Background(), &Input{Limit: 3})
	require.NoError(t, err)

	// Runs stay done; the failure is recorded next to them.
	assert.Equal(t, 3, out.RunsCreated)
	assert.Zero(t, out.ScoresCreated)
	assert.Len(t, store.done, 3)
	assert.Len(t, store.annotations, 3)
	for _, note := range store.annotations {
		assert.Contains(t, note, "SCORE_PERSIST_FAILED")
	}
}

func TestHandler_Execute_TemplateResolution(t *testing.T) {
	synthetic := &fakeSynthetic{rows: []models.SyntheticTaskRow{
		{ID: "syn-1", Category: "coding", InputText: "a", TemplateSlug: "coding_debug_v3"},
		{ID: "syn-2", Category: "writing", InputText: "b"},
		{ID: "syn-3", Category: "unmapped", InputText: "c"},
	}}
	store := newFakeStore()
	refiner := &fakeRefiner{}

	h := newTestHandler(t, synthetic, &fakeSamples{}, store, refiner)
	_, err := h.Execute(context.Background(), &Input{Limit: 5})
	require.NoError(t, err)

	require.Len(t, refiner.reqs, 3)
	assert.Equal(t, "coding_debug", refiner.reqs[0].TemplateID)
	assert.Equal(t, "writing_blog_post", refiner.reqs[1].TemplateID)
	assert.Equal(t, templates.DefaultTemplateID, refiner.reqs[2].TemplateID)
}

func TestHandler_Execute_ModelRouting(t *testing.T) {
	synthetic := &fakeSynthetic{rows: []models.SyntheticTaskRow{
		{ID: "syn-1", Category: "coding", InputText: "a", TemplateSlug: "coding_debug"},
		{ID: "syn-2", Category: "writing", InputText: "b"},
	}}
	refiner := &fakeRefiner{}

	h := newTestHandler(t, synthetic, &fakeSamples{}, newFakeStore(), refiner)
	_, err := h.Execute(context.Background(), &Input{Limit: 3})
	require.NoError(t, err)

	require.Len(t, refiner.reqs, 2)
	assert.Equal(t, "gpt-4.1", refiner.reqs[0].ModelName)
	assert.Equal(t, "gpt-4.1-mini", refiner.reqs[1].ModelName)

	// Explicit override pins every run to one model.
	refiner.reqs = nil
	_, err = h.Execute(context.Background(), &Input{Limit: 3, ModelName: "o4-mini"})
	require.NoError(t, err)
	for _, req := range refiner.reqs {
		assert.Equal(t, "o4-mini", req.ModelName)
	}
}

func TestHandler_Execute_EvalPolicyOnEveryRequest(t *testing.T) {
	synthetic, samples := threeTasks()
	refiner := &fakeRefiner{}

	h := newTestHandler(t, synthetic, samples, newFakeStore(), refiner)
	_, err := h.Execute(context.Background(), &Input{Limit: 3})
	require.NoError(t, err)

	for _, req := range refiner.reqs {
		assert.Equal(t, "pro", req.UserPlan)
		assert.Equal(t, "control", req.ABTestVariant)
	}
}
