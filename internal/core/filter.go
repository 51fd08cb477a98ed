package core

import "time"

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Pagination bounds. Limit requests above MaxPageSize are clamped rather
// than rejected.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type (
	SortField string
	SortOrder string

	// TransactionFilter narrows a user's transaction listing. All supplied
	// filters combine with AND; zero values impose no constraint.
	TransactionFilter struct {
		Page       int
		Limit      int
		Search     string
		CategoryID string
		Type       TransactionType
		DateFrom   *time.Time
		DateTo     *time.Time
		SortBy     SortField
		SortOrder  SortOrder
	}
)

// Normalize fills defaults and clamps out-of-range paging values so both
// store implementations see identical parameters.
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.SortBy != SortByAmount {
		f.SortBy = SortByDate
	}
	if f.SortOrder != SortAsc {
		f.SortOrder = SortDesc
	}
}

// Offset returns the number of rows to skip for the requested page.
func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
