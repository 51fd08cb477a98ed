package core

import (
	"regexp"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleReadOnly Role = "read-only"
)

type (
	TransactionType string

	Role string

	User struct {
		ID           string    `json:"id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		Name         string    `json:"name"`
		Role         Role      `json:"role"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	Category struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Icon      string          `json:"icon"`
		Color     string          `json:"color"`
		Type      TransactionType `json:"type"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// Transaction is a single dated income or expense record owned by one
	// user. Date is the economic date, distinct from CreatedAt.
	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		CategoryID  string          `json:"categoryId"`
		Amount      Money           `json:"amount"`
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
		Date        time.Time       `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	TransactionWithCategory struct {
		Transaction
		Category Category `json:"category"`
	}

	// AuditEntry records a transaction mutation observed by the audit
	// worker. Entries are append-only.
	AuditEntry struct {
		ID            string    `json:"id"`
		TransactionID string    `json:"transactionId"`
		UserID        string    `json:"userId"`
		Action        string    `json:"action"`
		OccurredAt    time.Time `json:"occurredAt"`
		RecordedAt    time.Time `json:"recordedAt"`
	}

	// TransactionPatch carries a partial update; nil fields are untouched.
	TransactionPatch struct {
		CategoryID  *string
		Amount      *Money
		Description *string
		Type        *TransactionType
		Date        *time.Time
	}
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsValid reports whether the transaction type is one of the two known kinds.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// IsValid reports whether the role is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleReadOnly:
		return true
	default:
		return false
	}
}

// CanWrite reports whether the role may mutate transactions.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleUser
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrUnknownCategory
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.IsValid() {
		return ErrInvalidType
	}
	if c.Color != "" && !hexColorPattern.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" || strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
