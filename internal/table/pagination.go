package table

import "fmt"

const windowSize = 5

type Pagination struct {
	Page         int    `json:"page"`
	PageSize     int    `json:"page_size"`
	Total        int    `json:"total"`
	TotalPages   int    `json:"total_pages"`
	Window       []int  `json:"window"`
	From         int    `json:"from"`
	To           int    `json:"to"`
	Label        string `json:"label"`
	PrevDisabled bool   `json:"prev_disabled"`
	NextDisabled bool   `json:"next_disabled"`
}

func NewPagination(page, pageSize, total int) Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	p := Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: TotalPages(total, pageSize),
	}
	if total > 0 {
		p.From = (page-1)*pageSize + 1
		p.To = min(page*pageSize, total)
		if p.From > total {
			p.From, p.To = 0, 0
		}
	}
	p.Label = fmt.Sprintf("Showing %d to %d of %d entries", p.From, p.To, p.Total)
	p.Window = pageWindow(page, p.TotalPages)
	p.PrevDisabled = page <= 1
	p.NextDisabled = page >= p.TotalPages
	return p
}

// pageWindow returns up to five page numbers centered on page, shifted to
// stay within 1..totalPages.
func pageWindow(page, totalPages int) []int {
	if totalPages <= 0 {
		return []int{}
	}
	start := max(1, page-windowSize/2)
	end := min(totalPages, start+windowSize-1)
	start = max(1, end-windowSize+1)
	window := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		window = append(window, i)
	}
	return window
}
