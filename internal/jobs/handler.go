package jobs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clausewise/backend/internal/ledger"
	"github.com/clausewise/backend/internal/middleware"
	"github.com/clausewise/backend/internal/models"
)

type Handler struct {
	Svc    *Service
	Logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Svc: svc, Logger: logger}
}

type enqueueRequest struct {
	DocumentID   string `json:"document_id"`
	Model        string `json:"model"`
	SummaryDepth string `json:"summary_depth"`
}

// Enqueue handles POST /api/v1/jobs. Insufficient funds map to 402 with the
// balance and requested amount in the body.
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		http.Error(w, `{"error":"invalid document_id"}`, http.StatusBadRequest)
		return
	}
	depth := req.SummaryDepth
	if depth == "" {
		depth = models.DepthBullet
	}

	job, err := h.Svc.Enqueue(r.Context(), acc.ID, docID, req.Model, depth)
	if err != nil {
		var insufficient *ledger.InsufficientFundsError
		switch {
		case errors.As(err, &insufficient):
			writeJSON(w, http.StatusPaymentRequired, map[string]string{
				"error":     "insufficient funds",
				"balance":   insufficient.Balance.String(),
				"requested": insufficient.Requested.String(),
			})
		case errors.Is(err, ErrNotOwner):
			http.Error(w, `{"error":"document belongs to a different account"}`, http.StatusForbidden)
		case errors.Is(err, ErrInvalidDepth), errors.Is(err, ErrModelInactive):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, pgx.ErrNoRows):
			http.Error(w, `{"error":"document or model not found"}`, http.StatusNotFound)
		default:
			h.Logger.Error("enqueue job", "account_id", acc.ID, "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// Get handles GET /api/v1/jobs/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid job id"}`, http.StatusBadRequest)
		return
	}
	job, err := h.Svc.GetJob(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"job not found"}`, http.StatusNotFound)
		return
	}
	if job.AccountID != acc.ID && !acc.IsAdmin() {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// List handles GET /api/v1/jobs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	jobsList, err := h.Svc.ListByAccount(r.Context(), acc.ID)
	if err != nil {
		h.Logger.Error("list jobs", "account_id", acc.ID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, jobsList)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
