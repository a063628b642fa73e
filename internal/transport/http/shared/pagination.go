package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// ParsePagination reads page and per_page, falling back to defaults on
// missing or invalid values.
func ParsePagination(r *http.Request, defaultPerPage, maxPerPage int) Pagination {
	page := 1
	perPage := defaultPerPage
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			perPage = v
		}
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}
