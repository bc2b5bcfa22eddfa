package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clausewise/backend/internal/models"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// CreateTx inserts the job inside the caller's transaction, so the debit and
// the job row commit or roll back together.
func (r *JobRepo) CreateTx(ctx context.Context, tx pgx.Tx, j *models.AnalysisJob) error {
	return tx.QueryRow(ctx, `
		INSERT INTO analysis_jobs (id, document_id, account_id, model_name, status, summary_depth, used_credits)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric)
		RETURNING created_at, updated_at
	`, j.ID, j.DocumentID, j.AccountID, j.ModelName, j.Status, j.SummaryDepth, j.UsedCredits.String()).Scan(&j.CreatedAt, &j.UpdatedAt)
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	j, err := scanJob(r.pool.QueryRow(ctx, jobSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	j.RiskClauses, err = r.listClauses(ctx, id)
	return j, err
}

// GetByIDForUpdate locks the job row. Lifecycle transitions hold this lock so
// at most one transition per job is in flight.
func (r *JobRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.AnalysisJob, error) {
	return scanJob(tx.QueryRow(ctx, jobSelect+` WHERE id = $1 FOR UPDATE`, id))
}

// UpdateStateTx persists the fields a lifecycle transition may change.
func (r *JobRepo) UpdateStateTx(ctx context.Context, tx pgx.Tx, j *models.AnalysisJob) error {
	_, err := tx.Exec(ctx, `
		UPDATE analysis_jobs
		SET status = $2, summary_text = $3, risk_score = $4, started_at = $5, finished_at = $6, updated_at = now()
		WHERE id = $1
	`, j.ID, j.Status, j.SummaryText, j.RiskScore, j.StartedAt, j.FinishedAt)
	if err != nil {
		return err
	}
	for i, c := range j.RiskClauses {
		if _, err := tx.Exec(ctx, `
			INSERT INTO risk_clauses (job_id, position, clause_text, risk_level, explanation)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (job_id, position) DO NOTHING
		`, j.ID, i, c.ClauseText, c.RiskLevel, c.Explanation); err != nil {
			return err
		}
	}
	return nil
}

func (r *JobRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.AnalysisJob, error) {
	rows, err := r.pool.Query(ctx, jobSelect+` WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.AnalysisJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

func (r *JobRepo) listClauses(ctx context.Context, jobID uuid.UUID) ([]models.RiskClause, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT clause_text, risk_level, explanation
		FROM risk_clauses WHERE job_id = $1 ORDER BY position ASC
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.RiskClause
	for rows.Next() {
		var c models.RiskClause
		if err := rows.Scan(&c.ClauseText, &c.RiskLevel, &c.Explanation); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

const jobSelect = `
	SELECT id, document_id, account_id, model_name, status, summary_depth,
		used_credits::text, summary_text, risk_score, started_at, finished_at, created_at, updated_at
	FROM analysis_jobs`

func scanJob(row pgx.Row) (*models.AnalysisJob, error) {
	var j models.AnalysisJob
	var credits string
	err := row.Scan(&j.ID, &j.DocumentID, &j.AccountID, &j.ModelName, &j.Status, &j.SummaryDepth,
		&credits, &j.SummaryText, &j.RiskScore, &j.StartedAt, &j.FinishedAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if j.UsedCredits, err = decimal.NewFromString(credits); err != nil {
		return nil, err
	}
	return &j, nil
}
