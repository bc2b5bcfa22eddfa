package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/clausewise/backend/internal/models"
)

// Store lists catalog entries for the handler.
type Store interface {
	ListActive(ctx context.Context) ([]*models.Model, error)
}

type Handler struct {
	Repo   Store
	Logger *slog.Logger
}

func NewHandler(repo Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Repo: repo, Logger: logger}
}

// List handles GET /api/v1/models.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.ListActive(r.Context())
	if err != nil {
		h.Logger.Error("list models", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}
