package models

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// ListParams captures the common list-query surface: column filters,
// free-text search, sorting and pagination.
type ListParams struct {
	Filters  map[string]string
	Search   string
	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

// ParseListParams reads list parameters off the request query string.
func ParseListParams(r *http.Request, filterKeys ...string) ListParams {
	q := r.URL.Query()
	p := ListParams{
		Filters:  map[string]string{},
		Search:   q.Get("search"),
		SortBy:   q.Get("sort_by"),
		SortDesc: q.Get("sort_dir") == "desc",
		Page:     1,
		PageSize: 50,
	}
	for _, key := range filterKeys {
		if v := q.Get(key); v != "" {
			p.Filters[key] = v
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		p.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil && size > 0 && size <= 200 {
		p.PageSize = size
	}
	return p
}

// Apply adds the filters, sorting and pagination to a query. searchColumns
// are ORed together for the free-text search.
func (p ListParams) Apply(query *gorm.DB, searchColumns ...string) *gorm.DB {
	for column, value := range p.Filters {
		query = query.Where(column+" = ?", value)
	}
	if p.Search != "" && len(searchColumns) > 0 {
		clauses := make([]string, len(searchColumns))
		args := make([]interface{}, len(searchColumns))
		for i, col := range searchColumns {
			clauses[i] = col + " LIKE ?"
			args[i] = "%" + p.Search + "%"
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}
	if p.SortBy != "" {
		dir := "asc"
		if p.SortDesc {
			dir = "desc"
		}
		query = query.Order(fmt.Sprintf("%s %s", p.SortBy, dir))
	}
	return query.Offset((p.Page - 1) * p.PageSize).Limit(p.PageSize)
}
