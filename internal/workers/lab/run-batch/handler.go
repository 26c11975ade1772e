// internal/workers/lab/run-batch/handler.go
package runbatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "promptlab-workers/internal/common/errors"
	"promptlab-workers/internal/common/genai"
	"promptlab-workers/internal/common/logger"
	"promptlab-workers/internal/common/observability"
	"promptlab-workers/internal/models"
	routemodel "promptlab-workers/internal/workers/refine/route-model"
	scorerefinement "promptlab-workers/internal/workers/scoring/score-refinement"
	"promptlab-workers/pkg/templates"
)

const TaskType = "run-batch"

var (
	ErrBatchLimitExceeded = errors.New("BATCH_LIMIT_EXCEEDED")
	ErrTaskSourceFailed   = errors.New("TASK_SOURCE_FAILED")
)

// SyntheticSource supplies synthetic evaluation tasks.
type SyntheticSource interface {
	FindRecent(ctx context.Context, limit int) ([]models.SyntheticTaskRow, error)
}

// SampleSource supplies curated real-traffic samples.
type SampleSource interface {
	FindRecent(ctx context.Context, limit int) ([]models.CuratedSampleRow, error)
}

// RunStore persists runs and scores. The runner is its only writer.
type RunStore interface {
	CreateRun(ctx context.Context, run *models.LabRun) (string, error)
	MarkRunDone(ctx context.Context, runID, refinedPrompt string) error
	MarkRunError(ctx context.Context, runID, errorMessage string) error
	AnnotateScoreFailure(ctx context.Context, runID, note string) error
	CreateScore(ctx context.Context, score *models.LabScore) (string, error)
}

// Refiner is the GenAI collaborator the runner blocks on per task.
type Refiner interface {
	Refine(ctx context.Context, req *genai.RefineRequest) (*genai.RefineResponse, error)
}

// Scorer evaluates one (raw, refined) pair.
type Scorer interface {
	Execute(ctx context.Context, input *scorerefinement.Input) (*scorerefinement.Output, error)
}

type Handler struct {
	config    *Config
	registry  *templates.Registry
	synthetic SyntheticSource
	samples   SampleSource
	store     RunStore
	refiner   Refiner
	scorer    Scorer
	metrics   *observability.Observability
	logger    logger.Logger
}

func NewHandler(
	config *Config,
	registry *templates.Registry,
	synthetic SyntheticSource,
	samples SampleSource,
	store RunStore,
	refiner Refiner,
	scorer Scorer,
	metrics *observability.Observability,
	log logger.Logger,
) *Handler {
	return &Handler{
		config:    config,
		registry:  registry,
		synthetic: synthetic,
		samples:   samples,
		store:     store,
		refiner:   refiner,
		scorer:    scorer,
		metrics:   metrics,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute runs one evaluation batch. Tasks are processed sequentially
// and failures are isolated per task: a refine failure becomes an error
// run, a scoring failure annotates a done run, and the batch keeps
// going. Only the ceiling check and a source read failure abort the
// whole batch.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Limit < 1 || input.Limit > h.config.MaxBatchSize {
		return nil, fmt.Errorf("%w: limit %d outside [1, %d]",
			ErrBatchLimitExceeded, input.Limit, h.config.MaxBatchSize)
	}

	tasks, err := h.selectTasks(ctx, input.Limit)
	if err != nil {
		return nil, err
	}

	h.logger.Info("batch started", map[string]interface{}{
		"limit":    input.Limit,
		"selected": len(tasks),
		"dryRun":   input.DryRun,
	})

	out := &Output{}
	for _, task := range tasks {
		started := time.Now()
		status := h.processTask(ctx, input, task, out)
		if h.metrics != nil {
			h.metrics.RecordRun(ctx, status)
			h.metrics.RecordRunDuration(ctx, time.Since(started), status)
		}
	}

	h.logger.Info("batch finished", map[string]interface{}{
		"runsCreated":   out.RunsCreated,
		"scoresCreated": out.ScoresCreated,
	})
	return out, nil
}

// selectTasks draws half the batch (rounded up) from the synthetic
// store and the remainder from curated samples. A source returning
// fewer rows than asked just shrinks the batch.
func (h *Handler) selectTasks(ctx context.Context, limit int) ([]models.LabTask, error) {
	syntheticWant := (limit + 1) / 2

	syntheticRows, err := h.synthetic.FindRecent(ctx, syntheticWant)
	if err != nil {
		return nil, fmt.Errorf("%w: synthetic tasks: %v", ErrTaskSourceFailed, err)
	}

	sampleRows, err := h.samples.FindRecent(ctx, limit-syntheticWant)
	if err != nil {
		return nil, fmt.Errorf("%w: curated samples: %v", ErrTaskSourceFailed, err)
	}

	tasks := make([]models.LabTask, 0, len(syntheticRows)+len(sampleRows))
	for _, row := range syntheticRows {
		tasks = append(tasks, models.NormalizeSynthetic(row))
	}
	for _, row := range sampleRows {
		tasks = append(tasks, models.NormalizeSample(row))
	}
	return tasks, nil
}

// processTask takes one task through refine, persist and score. It
// returns the run's terminal status for metrics and never returns an
// error; everything is handled in place.
func (h *Handler) processTask(ctx context.Context, input *Input, task models.LabTask, out *Output) string {
	desc := h.resolveTemplate(task)

	run := &models.LabRun{
		TemplateSlug:    desc.ID,
		TemplateVersion: task.TemplateVersion,
		TaskType:        task.Type,
		SourceTaskID:    task.ID,
		ModelName:       h.resolveModel(input, task, desc),
		Status:          models.RunStatusPending,
	}

	runID, err := h.createRun(ctx, input.DryRun, run)
	if err != nil {
		h.taskLog(task, desc).WithError(err).Error("run creation failed", nil)
		return string(models.RunStatusError)
	}
	out.RunsCreated++

	refined, err := h.refiner.Refine(ctx, &genai.RefineRequest{
		Text:          task.InputText,
		TemplateID:    desc.ID,
		Category:      string(desc.Category),
		UserPlan:      string(h.config.EvalPlan),
		ABTestVariant: string(h.config.EvalVariant),
		ModelName:     run.ModelName,
	})
	if err != nil {
		h.taskLog(task, desc).WithError(err).Error("refinement failed", nil)
		h.finishRun(ctx, input.DryRun, runID, "", errorCode(err))
		return string(models.RunStatusError)
	}

	h.finishRun(ctx, input.DryRun, runID, refined.RefinedText, "")

	score, err := h.scorer.Execute(ctx, &scorerefinement.Input{
		Category:        string(desc.Category),
		TemplateSlug:    desc.ID,
		TemplateVersion: task.TemplateVersion,
		RawText:         task.InputText,
		RefinedText:     refined.RefinedText,
	})
	if err != nil {
		h.taskLog(task, desc).WithError(err).Error("scoring failed", nil)
		h.annotate(ctx, input.DryRun, runID, annotation(apperrors.ErrCodeScoreFailed, err))
		return string(models.RunStatusDone)
	}

	if !input.DryRun {
		_, err = h.store.CreateScore(ctx, &models.LabScore{
			LabRunID:  runID,
			Structure: score.StructureScore,
			Contract:  score.ContractScore,
			Domain:    score.DomainScore,
			Overall:   score.OverallScore,
			Metrics:   score.Metrics,
		})
		if err != nil {
			h.taskLog(task, desc).WithError(err).Error("score persistence failed", nil)
			h.annotate(ctx, false, runID, annotation(apperrors.ErrCodeScorePersistFailed, err))
			return string(models.RunStatusDone)
		}
	}
	out.ScoresCreated++

	if h.metrics != nil {
		h.metrics.RecordOverallScore(ctx, string(desc.Category), score.OverallScore)
	}
	return string(models.RunStatusDone)
}

// resolveTemplate walks slug, then category default, then the generic
// template. Versioned slugs resolve through their base id.
func (h *Handler) resolveTemplate(task models.LabTask) templates.Descriptor {
	if task.TemplateSlug != "" {
		if desc, ok := h.registry.ResolveSlug(task.TemplateSlug); ok {
			return desc
		}
	}
	if desc, ok := h.registry.CategoryDefault(task.Category); ok {
		return desc
	}
	return h.registry.Default()
}

func (h *Handler) resolveModel(input *Input, task models.LabTask, desc templates.Descriptor) string {
	if input.ModelName != "" {
		return input.ModelName
	}
	domain := routemodel.InferDomain(task.Category, desc.ID)
	return routemodel.Resolve(domain, h.config.EvalPlan, h.config.EvalVariant)
}

func (h *Handler) createRun(ctx context.Context, dryRun bool, run *models.LabRun) (string, error) {
	if dryRun {
		return fmt.Sprintf("dry-run-%s-%s", run.TaskType, run.SourceTaskID), nil
	}
	return h.store.CreateRun(ctx, run)
}

// finishRun moves a pending run to its terminal state. A missing row is
// already that task's failure; it is logged by the store caller and the
// batch moves on.
func (h *Handler) finishRun(ctx context.Context, dryRun bool, runID, refined, errCode string) {
	if dryRun {
		return
	}
	var err error
	if errCode != "" {
		err = h.store.MarkRunError(ctx, runID, errCode)
	} else {
		err = h.store.MarkRunDone(ctx, runID, refined)
	}
	if err != nil {
		h.logger.WithError(err).Error("run update failed", map[string]interface{}{
			"runId": runID,
		})
	}
}

func (h *Handler) annotate(ctx context.Context, dryRun bool, runID, note string) {
	if dryRun {
		return
	}
	if err := h.store.AnnotateScoreFailure(ctx, runID, note); err != nil {
		h.logger.WithError(err).Error("score-failure annotation failed", map[string]interface{}{
			"runId": runID,
		})
	}
}

func (h *Handler) taskLog(task models.LabTask, desc templates.Descriptor) logger.Logger {
	return h.logger.WithFields(map[string]interface{}{
		"taskId":     task.ID,
		"taskType":   string(task.Type),
		"templateId": desc.ID,
	})
}

// errorCode classifies a refinement failure for the run record.
func errorCode(err error) string {
	if errors.Is(err, genai.ErrRefineTimeout) {
		return string(apperrors.ErrCodeRefineTimeout)
	}
	return string(apperrors.ErrCodeRefineFailed)
}

func annotation(code apperrors.ErrorCode, err error) string {
	se := apperrors.Wrap(code, "post-refinement step failed", err)
	return string(se.Code) + ": " + se.Details
}
