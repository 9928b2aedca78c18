package dto

// ── pagination ──

// PaginationRequest common paging parameters
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage page number with default
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize page size with default
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset row offset
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── spreadsheet import ──

// ImportResult outcome of an xlsx import
type ImportResult struct {
	Total   int              `json:"total"`
	Success int              `json:"success"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError a rejected row (1-based, header is row 1)
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// AddError records a rejected row.
func (r *ImportResult) AddError(row int, reason string) {
	r.Failed++
	r.Errors = append(r.Errors, ImportRowError{Row: row, Reason: reason})
}
