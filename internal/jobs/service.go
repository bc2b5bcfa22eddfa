package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clausewise/backend/internal/execution"
	"github.com/clausewise/backend/internal/models"
)

var (
	// ErrModelInactive is returned when enqueueing against a model that is
	// disabled in the catalog.
	ErrModelInactive = errors.New("model is not active")
	// ErrNotOwner is returned when the requesting account does not own the
	// document.
	ErrNotOwner = errors.New("document belongs to a different account")
	// ErrInvalidDepth is returned for an unknown summary depth.
	ErrInvalidDepth = errors.New("unknown summary depth")
)

// Ledger debits the wallet within the surrounding transaction. The enqueue
// charge and the job row commit together or not at all.
type Ledger interface {
	Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount decimal.Decimal, note string) (*models.Transaction, error)
}

// JobStore is the persistence interface for jobs.
type JobStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, j *models.AnalysisJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.AnalysisJob, error)
	UpdateStateTx(ctx context.Context, tx pgx.Tx, j *models.AnalysisJob) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.AnalysisJob, error)
}

type DocumentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
}

type CatalogStore interface {
	GetByName(ctx context.Context, name string) (*models.Model, error)
}

// InsertAnalyzeTxFunc enqueues the river analyze job within the given
// transaction. Provided by main as a closure over river.Client.InsertTx.
type InsertAnalyzeTxFunc func(ctx context.Context, tx pgx.Tx, args execution.AnalyzeDocumentArgs) error

type Service struct {
	repo          JobStore
	docs          DocumentStore
	catalog       CatalogStore
	ledger        Ledger
	insertAnalyze InsertAnalyzeTxFunc
	now           func() time.Time
}

func NewService(repo JobStore, docs DocumentStore, catalog CatalogStore, ledger Ledger, insertAnalyze InsertAnalyzeTxFunc) *Service {
	return &Service{
		repo:          repo,
		docs:          docs,
		catalog:       catalog,
		ledger:        ledger,
		insertAnalyze: insertAnalyze,
		now:           time.Now,
	}
}

var _ execution.JobService = (*Service)(nil)

// Enqueue charges the wallet and creates the job atomically: the debit, the
// QUEUED job row, and the river insert share one transaction. On
// insufficient funds the error surfaces unchanged and no job exists.
func (s *Service) Enqueue(ctx context.Context, accountID, documentID uuid.UUID, modelName, depth string) (*models.AnalysisJob, error) {
	if !models.ValidDepth(depth) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDepth, depth)
	}
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, err)
	}
	if doc.OwnerID != accountID {
		return nil, ErrNotOwner
	}
	mdl, err := s.catalog.GetByName(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", modelName, err)
	}
	if !mdl.Active {
		return nil, fmt.Errorf("%w: %q", ErrModelInactive, modelName)
	}

	// Integer pages × integer price: exact, no rounding.
	cost := decimal.NewFromInt(int64(doc.PageCount) * int64(mdl.PricePerPage))

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	note := fmt.Sprintf("analysis: %s (%s)", doc.Filename, mdl.Name)
	if _, err := s.ledger.Debit(ctx, tx, accountID, cost, note); err != nil {
		return nil, err
	}

	job := &models.AnalysisJob{
		ID:           uuid.New(),
		DocumentID:   doc.ID,
		AccountID:    accountID,
		ModelName:    mdl.Name,
		Status:       models.JobStatusQueued,
		SummaryDepth: depth,
		UsedCredits:  cost,
	}
	if err := s.repo.CreateTx(ctx, tx, job); err != nil {
		return nil, err
	}
	if err := s.insertAnalyze(ctx, tx, execution.AnalyzeDocumentArgs{JobID: job.ID}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return job, nil
}

// StartJob moves the job QUEUED → RUNNING under the job row lock.
func (s *Service) StartJob(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error) {
	var started *models.AnalysisJob
	err := s.transition(ctx, jobID, func(j *models.AnalysisJob) error {
		if err := j.Start(s.now()); err != nil {
			return err
		}
		started = j
		return nil
	})
	return started, err
}

// CompleteJob moves the job RUNNING → DONE and attaches results.
func (s *Service) CompleteJob(ctx context.Context, jobID uuid.UUID, summary string, clauses []models.RiskClause, score float64) error {
	return s.transition(ctx, jobID, func(j *models.AnalysisJob) error {
		return j.FinishOK(summary, clauses, score, s.now())
	})
}

// FailJob moves the job RUNNING → ERROR. No refund is issued here.
func (s *Service) FailJob(ctx context.Context, jobID uuid.UUID, reason string) error {
	return s.transition(ctx, jobID, func(j *models.AnalysisJob) error {
		return j.FinishError(reason, s.now())
	})
}

// transition loads the job under FOR UPDATE, applies the state change, and
// persists it. The row lock serializes transitions per job, so the legality
// checks in the model are race-free.
func (s *Service) transition(ctx context.Context, jobID uuid.UUID, apply func(*models.AnalysisJob) error) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	job, err := s.repo.GetByIDForUpdate(ctx, tx, jobID)
	if err != nil {
		return err
	}
	if err := apply(job); err != nil {
		return err
	}
	if err := s.repo.UpdateStateTx(ctx, tx, job); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error) {
	return s.repo.GetByID(ctx, jobID)
}

func (s *Service) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.AnalysisJob, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// Document and CatalogModel expose the stores to the analyze worker.
func (s *Service) Document(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return s.docs.GetByID(ctx, id)
}

func (s *Service) CatalogModel(ctx context.Context, name string) (*models.Model, error) {
	return s.catalog.GetByName(ctx, name)
}
