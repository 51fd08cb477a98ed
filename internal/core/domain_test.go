package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		ID:          "t1",
		UserID:      "u1",
		CategoryID:  "c1",
		Amount:      Money{Cents: 1000},
		Description: "groceries",
		Type:        Expense,
		Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -500} }, ErrInvalidAmount},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
		{"no category", func(tx *Transaction) { tx.CategoryID = "" }, ErrUnknownCategory},
	}
	for _, tc := range cases {
		tx := validTransaction()
		tc.mutate(&tx)
		err := tx.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !IsValidation(err) {
			t.Fatalf("%s: expected a validation error, got %v", tc.name, err)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	good := Category{Name: "Food", Icon: "utensils", Color: "#FF6B6B", Type: Expense}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		c    Category
		want error
	}{
		{"empty name", Category{Name: " ", Type: Expense}, ErrEmptyName},
		{"bad type", Category{Name: "Food", Type: "other"}, ErrInvalidType},
		{"bad color", Category{Name: "Food", Type: Expense, Color: "red"}, ErrInvalidColor},
		{"short hex", Category{Name: "Food", Type: Expense, Color: "#FFF"}, ErrInvalidColor},
	}
	for _, tc := range cases {
		if err := tc.c.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestRolePermissions(t *testing.T) {
	if !RoleAdmin.CanWrite() || !RoleUser.CanWrite() {
		t.Fatalf("admin and user roles must be writable")
	}
	if RoleReadOnly.CanWrite() {
		t.Fatalf("read-only role must not be writable")
	}
	if Role("owner").IsValid() {
		t.Fatalf("unknown role accepted")
	}
}

func TestFilterNormalize(t *testing.T) {
	var f TransactionFilter
	f.Normalize()
	if f.Page != 1 || f.Limit != DefaultPageSize || f.SortBy != SortByDate || f.SortOrder != SortDesc {
		t.Fatalf("unexpected defaults: %+v", f)
	}

	f = TransactionFilter{Page: 3, Limit: 500, SortBy: SortByAmount, SortOrder: SortAsc}
	f.Normalize()
	if f.Limit != MaxPageSize {
		t.Fatalf("expected limit clamped to %d, got %d", MaxPageSize, f.Limit)
	}
	if f.Offset() != 200 {
		t.Fatalf("expected offset 200, got %d", f.Offset())
	}
}
