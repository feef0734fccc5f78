package services

import (
	"context"
	"time"

	"spendbot/internal/core"
)

// Store is the data-store contract the services operate against,
// implemented by storage.SQLiteRepository.
type Store interface {
	GetOrCreateUser(ctx context.Context, chatID int64) (*core.User, error)
	UserByChatID(ctx context.Context, chatID int64) (*core.User, error)
	CreateAccount(ctx context.Context, code, password string) (*core.Account, error)
	AccountByCode(ctx context.Context, code string) (*core.Account, error)
	AccountByID(ctx context.Context, id int64) (*core.Account, error)
	SetUserAccount(ctx context.Context, userID int64, accountID *int64) error
	CreateExpense(ctx context.Context, e *core.Expense) error
	ListRecentExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error)
	SumByCategory(ctx context.Context, user *core.User, since time.Time) ([]core.CategoryTotal, error)
}
