package common

import (
	"net/http"
	"strconv"
)

// Pagination is the metadata block attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination reads the page and limit query parameters, falling back to
// page 1 and the caller's default page size. Callers enforce their own upper
// bound on the page size where the listing warrants one.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	return queryInt(r, "page", 1), queryInt(r, "limit", defaultPerPage)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
