package core

import "context"

// Ports for the persistence layer. The SQLite repository and the in-memory
// store both satisfy Store; services depend only on these interfaces.
type (
	UserStore interface {
		CreateUser(ctx context.Context, u User) (User, error)
		UserByID(ctx context.Context, id string) (User, error)
		UserByEmail(ctx context.Context, email string) (User, error)
		ListUsers(ctx context.Context) ([]User, error)
		UpdateUserRole(ctx context.Context, id string, role Role) (User, error)
		DeleteUser(ctx context.Context, id string) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c Category) (Category, error)
		CategoryByID(ctx context.Context, id string) (Category, error)
		ListCategories(ctx context.Context) ([]Category, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t Transaction) (Transaction, error)
		// TransactionByID scopes the lookup to userID so one user can never
		// observe another user's records, not even as a 403.
		TransactionByID(ctx context.Context, userID, id string) (Transaction, error)
		UpdateTransaction(ctx context.Context, userID, id string, p TransactionPatch) (Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
		// ListTransactions applies the filter and returns one page plus the
		// total match count before pagination.
		ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]TransactionWithCategory, int, error)
		// TransactionsByUser returns every transaction for analytics, newest
		// first by economic date.
		TransactionsByUser(ctx context.Context, userID string) ([]Transaction, error)
	}

	AuditStore interface {
		AppendAudit(ctx context.Context, e AuditEntry) error
	}

	Store interface {
		UserStore
		CategoryStore
		TransactionStore
		AuditStore
		Close() error
	}
)
