package shared

import "math"

// Page requests a window of a listing.
type Page struct {
	Number  int
	PerPage int
}

// Normalize applies defaults and caps the page size.
func (p Page) Normalize(defaultSize, maxSize int) Page {
	if p.PerPage <= 0 {
		p.PerPage = defaultSize
	}
	if maxSize > 0 && p.PerPage > maxSize {
		p.PerPage = maxSize
	}
	if p.Number <= 0 {
		p.Number = 1
	}
	return p
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.PerPage
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
