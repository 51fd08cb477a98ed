package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/core"
)

const dateOnlyLayout = "2006-01-02"

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t.UTC(), true, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, core.ErrInvalidDate
}

// parseFilter reads listing parameters from the query string.
func parseFilter(r *http.Request) (core.TransactionFilter, error) {
	q := r.URL.Query()
	var f core.TransactionFilter

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, fmt.Errorf("%w: page must be a positive integer", core.ErrValidation)
		}
		f.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, fmt.Errorf("%w: limit must be a positive integer", core.ErrValidation)
		}
		f.Limit = n
	}

	f.Search = q.Get("search")
	f.CategoryID = q.Get("categoryId")

	if v := q.Get("type"); v != "" {
		t := core.TransactionType(v)
		if !t.IsValid() {
			return f, core.ErrInvalidType
		}
		f.Type = t
	}

	if v := q.Get("dateFrom"); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			return f, err
		}
		f.DateFrom = &t
	}
	if v := q.Get("dateTo"); v != "" {
		t, dateOnly, err := parseDate(v)
		if err != nil {
			return f, err
		}
		if dateOnly {
			// A bare upper-bound date means the whole day.
			t = t.AddDate(0, 0, 1).Add(-time.Second)
		}
		f.DateTo = &t
	}

	if v := q.Get("sortBy"); v != "" {
		switch core.SortField(v) {
		case core.SortByDate, core.SortByAmount:
			f.SortBy = core.SortField(v)
		default:
			return f, fmt.Errorf("%w: sortBy must be date or amount", core.ErrValidation)
		}
	}
	if v := q.Get("sortOrder"); v != "" {
		switch core.SortOrder(v) {
		case core.SortAsc, core.SortDesc:
			f.SortOrder = core.SortOrder(v)
		default:
			return f, fmt.Errorf("%w: sortOrder must be asc or desc", core.ErrValidation)
		}
	}

	return f, nil
}

type transactionPayload struct {
	CategoryID  *string     `json:"categoryId"`
	Amount      *core.Money `json:"amount"`
	Description *string     `json:"description"`
	Type        *string     `json:"type"`
	Date        *string     `json:"date"`
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", core.ErrValidation, err)
	}
	return nil
}

// toTransaction builds a full transaction from a create payload.
func (p transactionPayload) toTransaction() (core.Transaction, error) {
	var t core.Transaction
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Type != nil {
		t.Type = core.TransactionType(*p.Type)
	}
	if p.Date == nil {
		return t, core.ErrInvalidDate
	}
	date, _, err := parseDate(*p.Date)
	if err != nil {
		return t, err
	}
	t.Date = date
	return t, nil
}

// toPatch builds a partial update from an update payload.
func (p transactionPayload) toPatch() (core.TransactionPatch, error) {
	var patch core.TransactionPatch
	patch.CategoryID = p.CategoryID
	patch.Amount = p.Amount
	patch.Description = p.Description
	if p.Type != nil {
		t := core.TransactionType(*p.Type)
		if !t.IsValid() {
			return patch, core.ErrInvalidType
		}
		patch.Type = &t
	}
	if p.Date != nil {
		date, _, err := parseDate(*p.Date)
		if err != nil {
			return patch, err
		}
		patch.Date = &date
	}
	return patch, nil
}
