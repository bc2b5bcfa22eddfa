package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clausewise/backend/internal/middleware"
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Handler serves the wallet endpoints.
type Handler struct {
	Pool   TxBeginner
	Svc    *Service
	Logger *slog.Logger
}

func NewHandler(pool TxBeginner, svc *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Pool: pool, Svc: svc, Logger: logger}
}

type walletResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
	Integrity string `json:"integrity"`
}

type creditRequest struct {
	Amount string `json:"amount"`
	Note   string `json:"note"`
}

type transactionResponse struct {
	ID           string `json:"id"`
	Seq          int64  `json:"seq"`
	Kind         string `json:"kind"`
	Amount       string `json:"amount"`
	Note         string `json:"note,omitempty"`
	BalanceAfter string `json:"balance_after"`
	CreatedAt    string `json:"created_at"`
}

// GetWallet handles GET /api/v1/wallet.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	balance, err := h.Svc.Balance(r.Context(), acc.ID)
	if err != nil {
		h.Logger.Error("get balance", "account_id", acc.ID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	// The cached balance must equal the transaction sum. A mismatch means
	// corrupted accounting, which no handler may paper over.
	if err := h.Svc.VerifyBalance(r.Context(), acc.ID); err != nil {
		h.Logger.Error("wallet integrity check failed", "account_id", acc.ID, "error", err)
		http.Error(w, `{"error":"wallet integrity check failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{
		AccountID: acc.ID.String(),
		Balance:   balance.String(),
		Integrity: "ok",
	})
}

// ListTransactions handles GET /api/v1/wallet/transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	entries, err := h.Svc.History(r.Context(), acc.ID)
	if err != nil {
		h.Logger.Error("list transactions", "account_id", acc.ID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	out := make([]transactionResponse, 0, len(entries))
	for _, t := range entries {
		out = append(out, transactionResponse{
			ID:           t.ID.String(),
			Seq:          t.Seq,
			Kind:         t.Kind,
			Amount:       t.Amount.String(),
			Note:         t.Note,
			BalanceAfter: t.BalanceAfter.String(),
			CreatedAt:    t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Credit handles POST /api/v1/wallet/credit (self top-up).
func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	h.credit(w, r, acc.ID, "topup")
}

// CreditOther handles POST /api/v1/accounts/{id}/credit. Routed behind
// RequireAdmin; no further policy lives here.
func (h *Handler) CreditOther(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid account id"}`, http.StatusBadRequest)
		return
	}
	h.credit(w, r, targetID, "admin_topup")
}

func (h *Handler) credit(w http.ResponseWriter, r *http.Request, accountID uuid.UUID, defaultNote string) {
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, `{"error":"invalid amount"}`, http.StatusBadRequest)
		return
	}
	note := req.Note
	if note == "" {
		note = defaultNote
	}

	tx, err := h.Pool.Begin(r.Context())
	if err != nil {
		h.Logger.Error("begin credit tx", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	defer tx.Rollback(r.Context())

	entry, err := h.Svc.Credit(r.Context(), tx, accountID, amount, note)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			http.Error(w, `{"error":"amount must be positive"}`, http.StatusBadRequest)
			return
		}
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"account not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("credit", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		h.Logger.Error("commit credit", "account_id", accountID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{
		ID:           entry.ID.String(),
		Seq:          entry.Seq,
		Kind:         entry.Kind,
		Amount:       entry.Amount.String(),
		Note:         entry.Note,
		BalanceAfter: entry.BalanceAfter.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
