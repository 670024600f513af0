package table

import (
	"strings"

	"society/admin-service/internal/store"
)

// PageRange returns the inclusive zero based row range of page.
func PageRange(page, pageSize int) (start, end int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	start = (page - 1) * pageSize
	end = start + pageSize - 1
	return start, end
}

func TotalPages(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return (total + pageSize - 1) / pageSize
}

// BuildRequest translates a table config and its state into one paginated
// fetch. scope carries extra equality filters such as the tenant.
func BuildRequest(cfg Config, state State, scope ...store.Eq) store.SelectRequest {
	start, end := PageRange(state.Page, cfg.pageSize())
	req := store.SelectRequest{
		Collection: cfg.Collection,
		Select:     cfg.Select,
		Range:      &store.Range{From: start, To: end},
		Count:      store.CountExact,
	}
	req.Filters = append(req.Filters, cfg.Filters...)
	req.Filters = append(req.Filters, scope...)

	term := strings.TrimSpace(state.Search)
	if term != "" && cfg.SearchEnabled() {
		req.Search = &store.Search{
			Fields: append([]string(nil), cfg.SearchFields...),
			Term:   term,
		}
	}
	if cfg.OrderBy.Column != "" {
		req.Order = &store.Order{Column: cfg.OrderBy.Column, Ascending: cfg.OrderBy.Ascending}
	}
	return req
}
