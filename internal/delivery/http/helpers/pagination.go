package helpers

import (
	"fmt"
	"net/http"
	"strconv"

	"eventcertificates/internal/domain"
)

// ParsePagination reads the page and page_size query parameters.
// Missing values take defaults and page_size is capped; malformed values are an error.
func ParsePagination(r *http.Request) (domain.PaginationParams, error) {
	var p domain.PaginationParams
	q := r.URL.Query()
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"page", &p.Page},
		{"page_size", &p.PageSize},
	} {
		s := q.Get(f.name)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return domain.PaginationParams{}, fmt.Errorf("%s must be a positive integer", f.name)
		}
		*f.dst = v
	}
	return p.Normalized(), nil
}

// PaginationMeta accompanies every paginated list response.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPaginationMeta describes page p of a list holding total rows.
func NewPaginationMeta(p domain.PaginationParams, total int) PaginationMeta {
	pages := p.TotalPages(total)
	return PaginationMeta{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Page < pages,
	}
}
