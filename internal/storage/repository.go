// Package storage implements the persistence ports on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout keeps timestamps lexicographically sortable in TEXT columns.
const timeLayout = time.RFC3339

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// storeErr maps driver failures onto the domain error taxonomy.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return core.ErrDuplicate
	}
	return fmt.Errorf("%w: %s: %v", core.ErrStoreUnavailable, op, err)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, name, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Name, string(u.Role),
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	if err != nil {
		return core.User{}, storeErr("create user", err)
	}
	return u, nil
}

const userColumns = `id, username, email, password_hash, name, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var u core.User
	var role, createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &role, &createdAt, &updatedAt)
	if err != nil {
		return core.User{}, err
	}
	u.Role = core.Role(role)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return core.User{}, storeErr("user by id", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return core.User{}, storeErr("user by email", err)
	}
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

func (r *SQLiteRepository) UpdateUserRole(ctx context.Context, id string, role core.Role) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), formatTime(time.Now()), id)
	if err != nil {
		return core.User{}, storeErr("update user role", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.User{}, core.ErrNotFound
	}
	return r.UserByID(ctx, id)
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// --- categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, icon, color, type, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Icon, c.Color, string(c.Type), formatTime(c.CreatedAt))
	if err != nil {
		return core.Category{}, storeErr("create category", err)
	}
	return c, nil
}

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	var typ, createdAt string
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &typ, &createdAt); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func (r *SQLiteRepository) CategoryByID(ctx context.Context, id string) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT id, name, icon, color, type, created_at FROM categories WHERE id = ?`, id))
	if err != nil {
		return core.Category{}, storeErr("category by id", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, color, type, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, storeErr("scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list categories", err)
	}
	return categories, nil
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, category_id, amount_cents, description, type, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.CategoryID, t.Amount.Cents, t.Description, string(t.Type),
		formatTime(t.Date), formatTime(t.CreatedAt))
	if err != nil {
		return core.Transaction{}, storeErr("create transaction", err)
	}
	return t, nil
}

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var typ, date, createdAt string
	err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Amount.Cents, &t.Description, &typ, &date, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Date = parseTime(date)
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

const txColumns = `id, user_id, category_id, amount_cents, description, type, date, created_at`

func (r *SQLiteRepository) TransactionByID(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Transaction{}, storeErr("transaction by id", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID, id string, p core.TransactionPatch) (core.Transaction, error) {
	t, err := r.TransactionByID(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
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

	_, err = r.db.ExecContext(ctx,
		`UPDATE transactions SET category_id = ?, amount_cents = ?, description = ?, type = ?, date = ?
		 WHERE id = ? AND user_id = ?`,
		t.CategoryID, t.Amount.Cents, t.Description, string(t.Type), formatTime(t.Date), id, userID)
	if err != nil {
		return core.Transaction{}, storeErr("update transaction", err)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return storeErr("delete transaction", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.TransactionWithCategory, int, error) {
	f.Normalize()

	where := []string{"t.user_id = ?"}
	args := []any{userID}

	if f.Search != "" {
		where = append(where, "instr(lower(t.description), lower(?)) > 0")
		args = append(args, f.Search)
	}
	if f.CategoryID != "" {
		where = append(where, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, string(f.Type))
	}
	if f.DateFrom != nil {
		where = append(where, "t.date >= ?")
		args = append(args, formatTime(*f.DateFrom))
	}
	if f.DateTo != nil {
		where = append(where, "t.date <= ?")
		args = append(args, formatTime(*f.DateTo))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, storeErr("count transactions", err)
	}

	sortCol := "t.date"
	if f.SortBy == core.SortByAmount {
		sortCol = "t.amount_cents"
	}
	direction := "DESC"
	if f.SortOrder == core.SortAsc {
		direction = "ASC"
	}

	query := `SELECT t.id, t.user_id, t.category_id, t.amount_cents, t.description, t.type, t.date, t.created_at,
		c.id, c.name, c.icon, c.color, c.type, c.created_at
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE ` + whereClause + `
		ORDER BY ` + sortCol + ` ` + direction + `, t.created_at ASC, t.id ASC
		LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, storeErr("list transactions", err)
	}
	defer rows.Close()

	items := make([]core.TransactionWithCategory, 0, f.Limit)
	for rows.Next() {
		var item core.TransactionWithCategory
		var typ, date, createdAt string
		var catID, catName, catIcon, catColor, catType, catCreated sql.NullString
		err := rows.Scan(
			&item.ID, &item.UserID, &item.CategoryID, &item.Amount.Cents,
			&item.Description, &typ, &date, &createdAt,
			&catID, &catName, &catIcon, &catColor, &catType, &catCreated)
		if err != nil {
			return nil, 0, storeErr("scan transaction", err)
		}
		item.Type = core.TransactionType(typ)
		item.Date = parseTime(date)
		item.CreatedAt = parseTime(createdAt)
		if catID.Valid {
			item.Category = core.Category{
				ID:        catID.String,
				Name:      catName.String,
				Icon:      catIcon.String,
				Color:     catColor.String,
				Type:      core.TransactionType(catType.String),
				CreatedAt: parseTime(catCreated.String),
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr("list transactions", err)
	}
	return items, total, nil
}

func (r *SQLiteRepository) TransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at ASC, id ASC`,
		userID)
	if err != nil {
		return nil, storeErr("transactions by user", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, storeErr("scan transaction", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("transactions by user", err)
	}
	return txs, nil
}

// --- audit ---

func (r *SQLiteRepository) AppendAudit(ctx context.Context, e core.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, transaction_id, user_id, action, occurred_at, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.TransactionID, e.UserID, e.Action, formatTime(e.OccurredAt), formatTime(e.RecordedAt))
	if err != nil {
		return storeErr("append audit", err)
	}
	return nil
}
