package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithConfig(t, Config{
		Addr:           ":0",
		AuthRateLimit:  1000,
		WriteRateLimit: 1000,
	})
}

func newTestServerWithConfig(t *testing.T, cfg Config) *Server {
	t.Helper()

	store := memory.NewSeededStore()
	tokens := auth.NewManager("test-secret-0123456789abcdef", time.Hour)
	snapshots := cache.NewLRUCache[core.AnalyticsData](64, time.Minute)

	authService := services.NewAuthService(store, tokens, nil)
	categoryService := services.NewCategoryService(store, nil)
	analyticsService := services.NewAnalyticsService(analytics.NewAggregator(store, store), snapshots, nil)
	transactionService := services.NewTransactionService(store, nil, analyticsService, nil)

	srv := NewServer(cfg, authService, transactionService, categoryService, analyticsService, tokens, nil)
	t.Cleanup(func() {
		srv.authLimiter.Stop()
		srv.writeLimiter.Stop()
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func register(t *testing.T, srv *Server, username, email, role string) sessionResponse {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "s3cret-pass",
		"name":     username,
		"role":     role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: got status %d, body %s", username, rec.Code, rec.Body.String())
	}
	return decodeBody[sessionResponse](t, rec)
}

func findCategory(t *testing.T, srv *Server, token string, typ core.TransactionType) core.Category {
	t.Helper()
	rec := doJSON(t, srv, http.MethodGet, "/api/categories", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list categories: got status %d", rec.Code)
	}
	for _, c := range decodeBody[[]core.Category](t, rec) {
		if c.Type == typ {
			return c
		}
	}
	t.Fatalf("no seeded category of type %s", typ)
	return core.Category{}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got status %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestRegisterLoginMe(t *testing.T) {
	srv := newTestServer(t)

	session := register(t, srv, "mario", "mario@example.com", "")
	if session.Token == "" {
		t.Fatal("register returned empty token")
	}
	if session.User.Role != core.RoleUser {
		t.Errorf("default role = %s, want %s", session.User.Role, core.RoleUser)
	}

	// Email matching is case-insensitive at login.
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "MARIO@example.com",
		"password": "s3cret-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got status %d, body %s", rec.Code, rec.Body.String())
	}
	login := decodeBody[sessionResponse](t, rec)
	if login.User.ID != session.User.ID {
		t.Errorf("login user ID = %s, want %s", login.User.ID, session.User.ID)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "mario@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got status %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/auth/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: got status %d", rec.Code)
	}
	me := decodeBody[core.User](t, rec)
	if me.ID != session.User.ID {
		t.Errorf("me ID = %s, want %s", me.ID, session.User.ID)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me without token: got status %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	session := register(t, srv, "mario", "mario@example.com", "")
	expense := findCategory(t, srv, session.Token, core.Expense)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", session.Token, map[string]string{
		"categoryId":  expense.ID,
		"amount":      "10",
		"description": "groceries",
		"type":        "expense",
		"date":        "2024-06-10",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got status %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[core.Transaction](t, rec)
	if created.Amount.String() != "10.00" {
		t.Errorf("amount = %s, want 10.00", created.Amount.String())
	}
	if created.UserID != session.User.ID {
		t.Errorf("userId = %s, want %s", created.UserID, session.User.ID)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/"+created.ID, session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got status %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/transactions/"+created.ID, session.Token, map[string]string{
		"description": "weekly groceries",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got status %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[core.Transaction](t, rec)
	if updated.Description != "weekly groceries" {
		t.Errorf("description = %q, want %q", updated.Description, "weekly groceries")
	}
	if updated.Amount.String() != "10.00" {
		t.Errorf("amount after partial update = %s, want 10.00", updated.Amount.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions", session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got status %d", rec.Code)
	}
	page := decodeBody[transactionPage](t, rec)
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("list: got %d items, total %d, want 1 and 1", len(page.Items), page.Total)
	}
	if page.Items[0].Category.ID != expense.ID {
		t.Errorf("joined category = %s, want %s", page.Items[0].Category.ID, expense.ID)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, session.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got status %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/"+created.ID, session.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: got status %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)
	session := register(t, srv, "mario", "mario@example.com", "")
	expense := findCategory(t, srv, session.Token, core.Expense)

	base := func() map[string]string {
		return map[string]string{
			"categoryId":  expense.ID,
			"amount":      "25.50",
			"description": "cinema",
			"type":        "expense",
			"date":        "2024-06-10",
		}
	}

	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"zero amount", func(m map[string]string) { m["amount"] = "0" }},
		{"negative amount", func(m map[string]string) { m["amount"] = "-5" }},
		{"empty description", func(m map[string]string) { m["description"] = "" }},
		{"bad type", func(m map[string]string) { m["type"] = "transfer" }},
		{"missing date", func(m map[string]string) { delete(m, "date") }},
		{"unknown category", func(m map[string]string) { m["categoryId"] = "nope" }},
		{"type mismatch", func(m map[string]string) { m["type"] = "income" }},
		{"unknown field", func(m map[string]string) { m["extra"] = "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := base()
			tt.mutate(body)
			rec := doJSON(t, srv, http.MethodPost, "/api/transactions", session.Token, body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("got status %d, want %d, body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

func TestCrossUserAccessLooksMissing(t *testing.T) {
	srv := newTestServer(t)
	owner := register(t, srv, "mario", "mario@example.com", "")
	other := register(t, srv, "luigi", "luigi@example.com", "")
	expense := findCategory(t, srv, owner.Token, core.Expense)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", owner.Token, map[string]string{
		"categoryId":  expense.ID,
		"amount":      "15",
		"description": "lunch",
		"type":        "expense",
		"date":        "2024-06-10",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got status %d", rec.Code)
	}
	created := decodeBody[core.Transaction](t, rec)

	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions/"+created.ID, other.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign get: got status %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := doJSON(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, other.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign delete: got status %d, want %d", rec.Code, http.StatusNotFound)
	}
	// Still visible to the owner.
	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions/"+created.ID, owner.Token, nil); rec.Code != http.StatusOK {
		t.Errorf("owner get: got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReadOnlyRoleCannotWrite(t *testing.T) {
	srv := newTestServer(t)
	session := register(t, srv, "viewer", "viewer@example.com", "read-only")
	expense := findCategory(t, srv, session.Token, core.Expense)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", session.Token, map[string]string{
		"categoryId":  expense.ID,
		"amount":      "10",
		"description": "nope",
		"type":        "expense",
		"date":        "2024-06-10",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("create as read-only: got status %d, want %d", rec.Code, http.StatusForbidden)
	}

	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions", session.Token, nil); rec.Code != http.StatusOK {
		t.Errorf("list as read-only: got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCategoryCreationIsAdminOnly(t *testing.T) {
	srv := newTestServer(t)
	user := register(t, srv, "mario", "mario@example.com", "")
	admin := register(t, srv, "boss", "boss@example.com", "admin")

	body := map[string]string{
		"name":  "Subscriptions",
		"icon":  "repeat",
		"color": "#123abc",
		"type":  "expense",
	}
	if rec := doJSON(t, srv, http.MethodPost, "/api/categories", user.Token, body); rec.Code != http.StatusForbidden {
		t.Errorf("create as user: got status %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", admin.Token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create as admin: got status %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[core.Category](t, rec)
	if created.ID == "" {
		t.Error("created category has empty ID")
	}

	bad := map[string]string{"name": "Bad", "color": "red", "type": "expense"}
	if rec := doJSON(t, srv, http.MethodPost, "/api/categories", admin.Token, bad); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid color: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestListPaginationAndFilters(t *testing.T) {
	srv := newTestServer(t)
	session := register(t, srv, "mario", "mario@example.com", "")
	expense := findCategory(t, srv, session.Token, core.Expense)

	for i := 1; i <= 3; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/transactions", session.Token, map[string]string{
			"categoryId":  expense.ID,
			"amount":      fmt.Sprintf("%d.00", i*10),
			"description": fmt.Sprintf("purchase %d", i),
			"type":        "expense",
			"date":        fmt.Sprintf("2024-06-%02d", i),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d: got status %d", i, rec.Code)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions?limit=2&page=2", session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("page 2: got status %d", rec.Code)
	}
	page := decodeBody[transactionPage](t, rec)
	if page.Total != 3 || len(page.Items) != 1 {
		t.Errorf("page 2: got %d items, total %d, want 1 and 3", len(page.Items), page.Total)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?search=PURCHASE+2", session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: got status %d", rec.Code)
	}
	page = decodeBody[transactionPage](t, rec)
	if page.Total != 1 {
		t.Errorf("case-insensitive search: got total %d, want 1", page.Total)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?dateFrom=2024-06-02&dateTo=2024-06-03", session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("date range: got status %d", rec.Code)
	}
	page = decodeBody[transactionPage](t, rec)
	if page.Total != 2 {
		t.Errorf("inclusive date range: got total %d, want 2", page.Total)
	}

	for _, q := range []string{"page=0", "page=abc", "limit=-1", "sortBy=color", "sortOrder=sideways", "type=transfer"} {
		rec := doJSON(t, srv, http.MethodGet, "/api/transactions?"+q, session.Token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got status %d, want %d", q, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.now = func() time.Time {
		return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	}

	session := register(t, srv, "mario", "mario@example.com", "")
	income := findCategory(t, srv, session.Token, core.Income)
	expense := findCategory(t, srv, session.Token, core.Expense)

	for _, body := range []map[string]string{
		{"categoryId": income.ID, "amount": "1000", "description": "salary", "type": "income", "date": "2024-06-01"},
		{"categoryId": expense.ID, "amount": "200", "description": "groceries", "type": "expense", "date": "2024-06-05"},
	} {
		rec := doJSON(t, srv, http.MethodPost, "/api/transactions", session.Token, body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: got status %d, body %s", rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/analytics", session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analytics: got status %d, body %s", rec.Code, rec.Body.String())
	}
	data := decodeBody[core.AnalyticsData](t, rec)

	if data.TotalBalance.Cents != 80000 {
		t.Errorf("totalBalance = %d cents, want 80000", data.TotalBalance.Cents)
	}
	if data.MonthlyIncome.Cents != 100000 {
		t.Errorf("monthlyIncome = %d cents, want 100000", data.MonthlyIncome.Cents)
	}
	if data.SavingsRate != 80.0 {
		t.Errorf("savingsRate = %v, want 80", data.SavingsRate)
	}
	if len(data.MonthlyTrends) != 6 {
		t.Errorf("monthlyTrends has %d entries, want 6", len(data.MonthlyTrends))
	}
	if len(data.CategoryBreakdown) != 1 || data.CategoryBreakdown[0].Percentage != 100.0 {
		t.Errorf("categoryBreakdown = %+v, want one entry at 100%%", data.CategoryBreakdown)
	}
}

func TestAdminUserManagement(t *testing.T) {
	srv := newTestServer(t)
	admin := register(t, srv, "boss", "boss@example.com", "admin")
	user := register(t, srv, "mario", "mario@example.com", "")

	if rec := doJSON(t, srv, http.MethodGet, "/api/admin/users", user.Token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("list users as user: got status %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/admin/users", admin.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list users: got status %d", rec.Code)
	}
	if users := decodeBody[[]core.User](t, rec); len(users) != 2 {
		t.Errorf("listed %d users, want 2", len(users))
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/admin/users/"+user.User.ID+"/role", admin.Token, map[string]string{"role": "read-only"})
	if rec.Code != http.StatusOK {
		t.Fatalf("change role: got status %d, body %s", rec.Code, rec.Body.String())
	}
	if updated := decodeBody[core.User](t, rec); updated.Role != core.RoleReadOnly {
		t.Errorf("role = %s, want %s", updated.Role, core.RoleReadOnly)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/admin/users/"+user.User.ID+"/role", admin.Token, map[string]string{"role": "owner"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid role: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAuthRateLimit(t *testing.T) {
	srv := newTestServerWithConfig(t, Config{
		Addr:           ":0",
		AuthRateLimit:  2,
		WriteRateLimit: 1000,
	})

	body := map[string]string{"email": "nobody@example.com", "password": "whatever"}
	for i := 0; i < 2; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: got status %d, want %d", i+1, rec.Code, http.StatusUnauthorized)
		}
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt: got status %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}
