package models

// HealthCheckResponse returns the health check response
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// Pagination describes a page of results
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPagination computes page bookkeeping from a total count.
func NewPagination(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage: page,
		TotalPages:  pages,
		PerPage:     limit,
		Total:       total,
		HasNext:     page < pages,
		HasPrev:     page > 1,
	}
}
