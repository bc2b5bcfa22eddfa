package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Job lifecycle states. Queued is the only initial state; Done and Error are
// terminal.
const (
	JobStatusQueued  = "QUEUED"
	JobStatusRunning = "RUNNING"
	JobStatusDone    = "DONE"
	JobStatusError   = "ERROR"
)

// Summary depth options.
const (
	DepthBrief    = "BRIEF"
	DepthBullet   = "BULLET"
	DepthDetailed = "DETAILED"
)

// Risk levels for flagged clauses.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// ErrScoreOutOfRange is returned by FinishOK when the aggregate risk score is
// outside [0, 1]. The job does not clamp; the caller must fix its input.
var ErrScoreOutOfRange = errors.New("risk score out of range [0, 1]")

// InvalidTransitionError reports a lifecycle call that is illegal from the
// job's current state. The job is left unchanged.
type InvalidTransitionError struct {
	From string
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s not allowed from %s", e.Op, e.From)
}

// RiskClause is one flagged contract clause, owned by the job that produced
// it. Immutable once attached.
type RiskClause struct {
	ClauseText  string `json:"clause_text"`
	RiskLevel   string `json:"risk_level"`
	Explanation string `json:"explanation,omitempty"`
}

// AnalysisJob is one billable analysis request tracked through its lifecycle.
// UsedCredits is fixed at enqueue time and never recomputed.
type AnalysisJob struct {
	ID           uuid.UUID       `json:"id"`
	DocumentID   uuid.UUID       `json:"document_id"`
	AccountID    uuid.UUID       `json:"account_id"`
	ModelName    string          `json:"model"`
	Status       string          `json:"status"`
	SummaryDepth string          `json:"summary_depth"`
	UsedCredits  decimal.Decimal `json:"used_credits"`
	SummaryText  *string         `json:"summary_text,omitempty"`
	RiskScore    *float64        `json:"risk_score,omitempty"`
	RiskClauses  []RiskClause    `json:"risk_clauses,omitempty"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ValidDepth reports whether d is a known summary depth.
func ValidDepth(d string) bool {
	return d == DepthBrief || d == DepthBullet || d == DepthDetailed
}

// Start moves the job QUEUED → RUNNING and stamps startedAt.
func (j *AnalysisJob) Start(now time.Time) error {
	if j.Status != JobStatusQueued {
		return &InvalidTransitionError{From: j.Status, Op: "start"}
	}
	j.Status = JobStatusRunning
	j.StartedAt = &now
	return nil
}

// FinishOK moves the job RUNNING → DONE and attaches the analysis results.
// The score must already be in [0, 1]; nothing is mutated on failure.
func (j *AnalysisJob) FinishOK(summary string, clauses []RiskClause, score float64, now time.Time) error {
	if j.Status != JobStatusRunning {
		return &InvalidTransitionError{From: j.Status, Op: "finish_ok"}
	}
	if score < 0 || score > 1 {
		return fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}
	j.Status = JobStatusDone
	j.SummaryText = &summary
	j.RiskClauses = clauses
	j.RiskScore = &score
	j.FinishedAt = &now
	return nil
}

// FinishError moves the job RUNNING → ERROR. The charge stays on the ledger;
// any refund is an explicit follow-up credit, never a side effect here.
func (j *AnalysisJob) FinishError(msg string, now time.Time) error {
	if j.Status != JobStatusRunning {
		return &InvalidTransitionError{From: j.Status, Op: "finish_error"}
	}
	text := "Error: " + msg
	j.Status = JobStatusError
	j.SummaryText = &text
	j.FinishedAt = &now
	return nil
}

// Terminal reports whether the job has reached DONE or ERROR.
func (j *AnalysisJob) Terminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusError
}
