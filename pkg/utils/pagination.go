package utils

import "math"

// PaginationParams holds pagination request parameters
type PaginationParams struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// PaginationMeta holds pagination response metadata
type PaginationMeta struct {
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

// GetPaginationParams clamps limit and offset to sane bounds.
// Default limit is 20, max 100.
func GetPaginationParams(limit, offset int) PaginationParams {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return PaginationParams{Limit: limit, Offset: offset}
}

// CalculateMeta generates pagination metadata
func CalculateMeta(totalCount int64, limit, offset int) PaginationMeta {
	totalPages := 1
	if limit > 0 {
		totalPages = int(math.Ceil(float64(totalCount) / float64(limit)))
	}
	if totalPages < 1 {
		totalPages = 1
	}
	return PaginationMeta{
		Limit:      limit,
		Offset:     offset,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
