package model

import "math"

// SearchFilter is compound customers filter
type SearchFilter struct {
	Query            string
	Status           CustomerStatus
	ComplianceStatus ComplianceStatus
	Country          string
	Page             int
	Limit            int
}

// Skip returns number of records preceding requested page
func (f SearchFilter) Skip() int64 {
	if f.Page < 1 {
		return 0
	}
	return int64(f.Page-1) * int64(f.Limit)
}

// Pagination is page metadata of search result
type Pagination struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalItems      int64 `json:"totalItems"`
	ItemsPerPage    int   `json:"itemsPerPage"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// NewPagination calculates page metadata
func NewPagination(total int64, page, limit int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}

	return Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalItems:      total,
		ItemsPerPage:    limit,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// CustomerPage is single page of search result
type CustomerPage struct {
	Items      []*CustomerListItem
	Pagination Pagination
}
