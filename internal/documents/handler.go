package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clausewise/backend/internal/extract"
	"github.com/clausewise/backend/internal/middleware"
	"github.com/clausewise/backend/internal/models"
)

// maxUploadBytes caps multipart uploads at 20 MiB.
const maxUploadBytes = 20 << 20

// Store is the document persistence interface for the handler.
type Store interface {
	Create(ctx context.Context, d *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Document, error)
}

type Handler struct {
	Repo      Store
	Extractor *extract.Service
	Logger    *slog.Logger
}

func NewHandler(repo Store, extractor *extract.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Repo: repo, Extractor: extractor, Logger: logger}
}

type createDocumentRequest struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Create handles POST /api/v1/documents. JSON bodies carry extracted text;
// multipart bodies carry a PDF whose page count comes from the file itself
// (text travels in the optional "text" form field).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var doc *models.Document
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		doc, err = h.fromMultipart(r, acc.ID)
	} else {
		doc, err = h.fromJSON(r, acc.ID)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.Repo.Create(r.Context(), doc); err != nil {
		h.Logger.Error("create document", "owner_id", acc.ID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) fromJSON(r *http.Request, ownerID uuid.UUID) (*models.Document, error) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errBadRequest("invalid JSON")
	}
	if req.Filename == "" || strings.TrimSpace(req.Text) == "" {
		return nil, errBadRequest("filename and text are required")
	}
	pages := h.Extractor.EstimatePages(req.Text)
	if pages < 1 {
		return nil, errBadRequest("text is empty")
	}
	lang := req.Language
	if lang == "" {
		lang = h.Extractor.DetectLanguage(req.Text)
	}
	return &models.Document{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Filename:  req.Filename,
		Text:      req.Text,
		PageCount: pages,
		Language:  lang,
	}, nil
}

func (h *Handler) fromMultipart(r *http.Request, ownerID uuid.UUID) (*models.Document, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errBadRequest("invalid multipart body")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errBadRequest("file field is required")
	}
	defer file.Close()

	if !extract.IsPDF(header.Filename) {
		return nil, errBadRequest("only PDF uploads are supported")
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, errBadRequest("cannot read upload")
	}
	pages, err := h.Extractor.PDFPageCount(bytes.NewReader(data))
	if err != nil {
		return nil, errBadRequest("unreadable PDF")
	}

	text := r.FormValue("text")
	lang := r.FormValue("language")
	if lang == "" {
		lang = h.Extractor.DetectLanguage(text)
	}
	return &models.Document{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Filename:  header.Filename,
		Text:      text,
		PageCount: pages,
		Language:  lang,
	}, nil
}

// Get handles GET /api/v1/documents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid document id"}`, http.StatusBadRequest)
		return
	}
	doc, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
		return
	}
	if doc.OwnerID != acc.ID && !acc.IsAdmin() {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// List handles GET /api/v1/documents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	docs, err := h.Repo.ListByOwner(r.Context(), acc.ID)
	if err != nil {
		h.Logger.Error("list documents", "owner_id", acc.ID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

type requestError string

func (e requestError) Error() string { return string(e) }

func errBadRequest(msg string) error { return requestError(msg) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
