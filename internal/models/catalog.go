package models

// Model is a catalog entry: static pricing metadata for one analysis model.
// Not mutated by jobs.
type Model struct {
	Name         string `json:"name"`
	PricePerPage int    `json:"price_per_page"`
	Active       bool   `json:"active"`
}
