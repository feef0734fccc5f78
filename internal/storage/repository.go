// Package storage implements the SQLite-backed data store for accounts,
// users and expenses. Referential integrity is enforced at the database
// level: deleting an account cascades to its users and expenses, and
// deleting a user cascades to that user's expenses.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendbot/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// DSN builds the sqlite connection string for the given database path.
// Foreign key enforcement is per-connection in SQLite, so it has to be
// part of the DSN to cover every pooled connection.
func DSN(dbPath string) string {
	return "file:" + dbPath +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_time_format=sqlite"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := DSN(dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
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

// GetOrCreateUser returns the user with the given chat id, creating the
// record on first contact.
func (r *SQLiteRepository) GetOrCreateUser(ctx context.Context, chatID int64) (*core.User, error) {
	user, err := r.UserByChatID(ctx, chatID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	// ON CONFLICT covers the race with a concurrent first message
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (tg_id) VALUES (?) ON CONFLICT(tg_id) DO NOTHING`, chatID)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "chat_id", chatID)
	return r.UserByChatID(ctx, chatID)
}

// UserByChatID returns the user keyed by external chat identity, or
// core.ErrNotFound.
func (r *SQLiteRepository) UserByChatID(ctx context.Context, chatID int64) (*core.User, error) {
	var (
		user      core.User
		accountID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tg_id, account_id FROM users WHERE tg_id = ?`, chatID).
		Scan(&user.ID, &user.ChatID, &accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", chatID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if accountID.Valid {
		user.AccountID = &accountID.Int64
	}
	return &user, nil
}

// CreateAccount inserts a new account. A code collision surfaces as
// core.ErrCodeTaken so the caller can retry with a fresh code.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, code, password string) (*core.Account, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (code, password, created_at) VALUES (?, ?, ?)`,
		code, password, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("account code %q: %w", code, core.ErrCodeTaken)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("account insert id: %w", err)
	}

	return &core.Account{ID: id, Code: code, Password: password, CreatedAt: now}, nil
}

// AccountByCode returns the account with the given public code, or
// core.ErrNotFound.
func (r *SQLiteRepository) AccountByCode(ctx context.Context, code string) (*core.Account, error) {
	return r.queryAccount(ctx, `SELECT id, code, password, created_at FROM accounts WHERE code = ?`, code)
}

// AccountByID returns the account with the given id, or core.ErrNotFound.
func (r *SQLiteRepository) AccountByID(ctx context.Context, id int64) (*core.Account, error) {
	return r.queryAccount(ctx, `SELECT id, code, password, created_at FROM accounts WHERE id = ?`, id)
}

func (r *SQLiteRepository) queryAccount(ctx context.Context, query string, arg any) (*core.Account, error) {
	var account core.Account
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&account.ID, &account.Code, &account.Password, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &account, nil
}

// SetUserAccount updates the user's account reference. A nil accountID
// detaches the user (personal mode). Existing expense rows are never
// touched: their account attribution is fixed at creation time.
func (r *SQLiteRepository) SetUserAccount(ctx context.Context, userID int64, accountID *int64) error {
	var value sql.NullInt64
	if accountID != nil {
		value = sql.NullInt64{Int64: *accountID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET account_id = ? WHERE id = ?`, value, userID)
	if err != nil {
		return fmt.Errorf("set user account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set user account rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", userID, core.ErrNotFound)
	}
	return nil
}

// DeleteAccount removes the account; users and expenses referencing it
// go with it via ON DELETE CASCADE.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// CreateExpense persists an expense and fills in its id.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	var accountID sql.NullInt64
	if e.AccountID != nil {
		accountID = sql.NullInt64{Int64: *e.AccountID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount, currency, category, comment, created_at, user_id, account_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Amount, e.Currency, e.Category, e.Comment, e.CreatedAt, e.UserID, accountID)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("expense insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"amount", e.Amount.String(),
		"currency", e.Currency,
		"category", e.Category)

	return nil
}

// ListRecentExpenses returns the user's own expenses, newest first,
// capped at limit.
func (r *SQLiteRepository) ListRecentExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, currency, category, comment, created_at, user_id, account_id
		 FROM expenses
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e         core.Expense
			accountID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Amount, &e.Currency, &e.Category, &e.Comment,
			&e.CreatedAt, &e.UserID, &accountID); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if accountID.Valid {
			e.AccountID = &accountID.Int64
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// SumByCategory aggregates expenses per category since the given time.
// A connected user sees the pooled expenses of everyone on the account;
// a personal user sees only their own unattributed rows.
func (r *SQLiteRepository) SumByCategory(ctx context.Context, user *core.User, since time.Time) ([]core.CategoryTotal, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if user.AccountID != nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT category, SUM(amount) AS total
			 FROM expenses
			 WHERE account_id = ? AND created_at >= ?
			 GROUP BY category
			 ORDER BY total DESC`, *user.AccountID, since)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT category, SUM(amount) AS total
			 FROM expenses
			 WHERE account_id IS NULL AND user_id = ? AND created_at >= ?
			 GROUP BY category
			 ORDER BY total DESC`, user.ID, since)
	}
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
