package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clausewise/backend/internal/models"
)

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

func (r *DocumentRepo) Create(ctx context.Context, d *models.Document) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO documents (id, owner_id, filename, text, page_count, language)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING uploaded_at
	`, d.ID, d.OwnerID, d.Filename, d.Text, d.PageCount, d.Language).Scan(&d.UploadedAt)
}

func (r *DocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var d models.Document
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, filename, text, page_count, language, uploaded_at
		FROM documents WHERE id = $1
	`, id).Scan(&d.ID, &d.OwnerID, &d.Filename, &d.Text, &d.PageCount, &d.Language, &d.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, filename, text, page_count, language, uploaded_at
		FROM documents WHERE owner_id = $1 ORDER BY uploaded_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Filename, &d.Text, &d.PageCount, &d.Language, &d.UploadedAt); err != nil {
			return nil, err
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}
