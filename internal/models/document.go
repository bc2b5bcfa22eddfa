package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is the output of the extraction collaborator: text already pulled
// out of the uploaded file, page count fixed for billing. Immutable once
// stored.
type Document struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Filename   string    `json:"filename"`
	Text       string    `json:"-"`
	PageCount  int       `json:"page_count"`
	Language   string    `json:"language"`
	UploadedAt time.Time `json:"uploaded_at"`
}
