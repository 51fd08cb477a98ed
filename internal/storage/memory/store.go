// Package memory implements the persistence ports in process memory. It
// backs tests and local development, and must agree with the SQLite store
// on filtering, ordering and pagination semantics.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

type Store struct {
	mu           sync.RWMutex
	users        map[string]core.User
	categories   map[string]core.Category
	transactions map[string]core.Transaction
	audit        []core.AuditEntry
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]core.User),
		categories:   make(map[string]core.Category),
		transactions: make(map[string]core.Transaction),
	}
}

// NewSeededStore returns a store preloaded with the default categories,
// mirroring what the SQLite migrations seed.
func NewSeededStore() *Store {
	s := NewStore()
	defaults := []core.Category{
		{Name: "Food & Dining", Icon: "utensils", Color: "#ef4444", Type: core.Expense},
		{Name: "Transportation", Icon: "car", Color: "#f97316", Type: core.Expense},
		{Name: "Entertainment", Icon: "film", Color: "#8b5cf6", Type: core.Expense},
		{Name: "Shopping", Icon: "shopping-bag", Color: "#ec4899", Type: core.Expense},
		{Name: "Utilities", Icon: "bolt", Color: "#06b6d4", Type: core.Expense},
		{Name: "Healthcare", Icon: "heart", Color: "#10b981", Type: core.Expense},
		{Name: "Education", Icon: "graduation-cap", Color: "#3b82f6", Type: core.Expense},
		{Name: "Salary", Icon: "dollar-sign", Color: "#22c55e", Type: core.Income},
		{Name: "Freelance", Icon: "laptop", Color: "#84cc16", Type: core.Income},
		{Name: "Investment", Icon: "chart-line", Color: "#f59e0b", Type: core.Income},
		{Name: "Other", Icon: "ellipsis-h", Color: "#6b7280", Type: core.Expense},
	}
	for _, c := range defaults {
		c.ID = uuid.NewString()
		c.CreatedAt = time.Now().UTC()
		s.categories[c.ID] = c
	}
	return s
}

func (s *Store) Close() error { return nil }

// --- users ---

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return core.User{}, core.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id string, role core.Role) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// --- categories ---

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return core.Category{}, core.ErrDuplicate
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) CategoryByID(_ context.Context, id string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	categories := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

// --- transactions ---

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) TransactionByID(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, userID, id string, p core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
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
		t.Type = *p.Type
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.transactions[id] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, f core.TransactionFilter) ([]core.TransactionWithCategory, int, error) {
	f.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []core.Transaction
	needle := strings.ToLower(f.Search)
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(t.Description), needle) {
			continue
		}
		if f.CategoryID != "" && t.CategoryID != f.CategoryID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.DateFrom != nil && t.Date.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && t.Date.After(*f.DateTo) {
			continue
		}
		matched = append(matched, t)
	}

	asc := f.SortOrder == core.SortAsc
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less, equal bool
		if f.SortBy == core.SortByAmount {
			less, equal = a.Amount.Cents < b.Amount.Cents, a.Amount.Cents == b.Amount.Cents
		} else {
			less, equal = a.Date.Before(b.Date), a.Date.Equal(b.Date)
		}
		if !equal {
			if asc {
				return less
			}
			return !less
		}
		// Ties break on creation time then id regardless of direction,
		// matching the SQL ORDER BY.
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	total := len(matched)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}

	items := make([]core.TransactionWithCategory, 0, end-start)
	for _, t := range matched[start:end] {
		items = append(items, core.TransactionWithCategory{
			Transaction: t,
			Category:    s.categories[t.CategoryID],
		})
	}
	return items, total, nil
}

func (s *Store) TransactionsByUser(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var txs []core.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			txs = append(txs, t)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.Before(txs[j].CreatedAt)
		}
		return txs[i].ID < txs[j].ID
	})
	return txs, nil
}

// --- audit ---

func (s *Store) AppendAudit(_ context.Context, e core.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	s.audit = append(s.audit, e)
	return nil
}

// AuditEntries returns a copy of the recorded audit log.
func (s *Store) AuditEntries() []core.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}
