package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/clausewise/backend/internal/inference"
	"github.com/clausewise/backend/internal/models"
)

type AnalyzeDocumentArgs struct {
	JobID uuid.UUID `json:"job_id"`
}

func (AnalyzeDocumentArgs) Kind() string { return "analyze_document" }

// JobService is the contract the worker drives jobs through: start, report
// results, or report failure. Implemented by the jobs service.
type JobService interface {
	StartJob(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error)
	CompleteJob(ctx context.Context, jobID uuid.UUID, summary string, clauses []models.RiskClause, score float64) error
	FailJob(ctx context.Context, jobID uuid.UUID, reason string) error
	Document(ctx context.Context, id uuid.UUID) (*models.Document, error)
	CatalogModel(ctx context.Context, name string) (*models.Model, error)
}

type AnalyzeWorker struct {
	river.WorkerDefaults[AnalyzeDocumentArgs]
	jobs      JobService
	engine    inference.Engine
	validator *inference.ResultValidator
	log       *slog.Logger
}

func NewAnalyzeWorker(jobs JobService, engine inference.Engine, validator *inference.ResultValidator, log *slog.Logger) *AnalyzeWorker {
	if log == nil {
		log = slog.Default()
	}
	return &AnalyzeWorker{jobs: jobs, engine: engine, validator: validator, log: log}
}

func (w *AnalyzeWorker) Timeout(*river.Job[AnalyzeDocumentArgs]) time.Duration {
	return 60 * time.Second
}

func (w *AnalyzeWorker) Work(ctx context.Context, job *river.Job[AnalyzeDocumentArgs]) error {
	jobID := job.Args.JobID

	j, err := w.jobs.StartJob(ctx, jobID)
	if err != nil {
		var it *models.InvalidTransitionError
		if errors.As(err, &it) {
			if it.From == models.JobStatusRunning {
				// Redelivery after a crash mid-analysis. The queue entry is
				// consumed here, so this is the last chance to terminate the
				// job.
				return w.failJob(ctx, jobID, "analysis interrupted, not restarted")
			}
			// Job already terminal; its fields are immutable, nothing to do.
			w.log.Warn("skipping analyze job", "job_id", jobID, "error", err)
			return nil
		}
		return fmt.Errorf("start job %s: %w", jobID, err)
	}

	doc, err := w.jobs.Document(ctx, j.DocumentID)
	if err != nil {
		return w.failJob(ctx, jobID, fmt.Sprintf("load document: %v", err))
	}
	mdl, err := w.jobs.CatalogModel(ctx, j.ModelName)
	if err != nil {
		return w.failJob(ctx, jobID, fmt.Sprintf("load model: %v", err))
	}

	raw, err := w.engine.Analyze(ctx, doc, mdl, j.SummaryDepth)
	if err != nil {
		return w.failJob(ctx, jobID, fmt.Sprintf("analysis failed: %v", err))
	}

	res, err := w.validator.Parse(raw)
	if err != nil {
		return w.failJob(ctx, jobID, fmt.Sprintf("engine returned malformed result: %v", err))
	}

	if err := w.jobs.CompleteJob(ctx, jobID, res.Summary, res.RiskClauses, res.RiskScore); err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	return nil
}

// failJob records the failure on the job itself. The charge stays; refunds
// are an explicit admin decision.
func (w *AnalyzeWorker) failJob(ctx context.Context, jobID uuid.UUID, reason string) error {
	if err := w.jobs.FailJob(ctx, jobID, reason); err != nil {
		return fmt.Errorf("job failed (%s) and could not be marked failed: %w", reason, err)
	}
	w.log.Warn("analysis job failed", "job_id", jobID, "reason", reason)
	return nil
}
