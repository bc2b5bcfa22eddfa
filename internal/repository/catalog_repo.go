package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clausewise/backend/internal/models"
)

type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

// Seed upserts the default model catalog. Prices are per page, in credits.
func (r *CatalogRepo) Seed(ctx context.Context) error {
	defaults := []models.Model{
		{Name: "legal-analyzer-ru", PricePerPage: 3, Active: true},
		{Name: "legal-analyzer-en", PricePerPage: 3, Active: true},
		{Name: "quick-scan", PricePerPage: 1, Active: true},
	}
	for _, m := range defaults {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO catalog_models (name, price_per_page, active)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
		`, m.Name, m.PricePerPage, m.Active)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *CatalogRepo) GetByName(ctx context.Context, name string) (*models.Model, error) {
	var m models.Model
	err := r.pool.QueryRow(ctx, `
		SELECT name, price_per_page, active FROM catalog_models WHERE name = $1
	`, name).Scan(&m.Name, &m.PricePerPage, &m.Active)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CatalogRepo) ListActive(ctx context.Context) ([]*models.Model, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, price_per_page, active FROM catalog_models WHERE active ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Model
	for rows.Next() {
		var m models.Model
		if err := rows.Scan(&m.Name, &m.PricePerPage, &m.Active); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
