// Package services implements the expense ledger and the account
// sharing operations on top of the data store.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendbot/internal/core"
)

// DefaultRecentLimit caps the "last expenses" listing.
const DefaultRecentLimit = 3

// LedgerService records expenses and produces report aggregates.
type LedgerService struct {
	store Store
}

func NewLedgerService(store Store) *LedgerService {
	return &LedgerService{store: store}
}

// AddExpense persists one expense for the user with the given chat id.
// The user's current account id is copied onto the expense so the
// record keeps its attribution regardless of later account changes.
// A missing user record is an invariant violation (users are created on
// first contact) and surfaces as core.ErrNotFound.
func (s *LedgerService) AddExpense(ctx context.Context, chatID int64, amount decimal.Decimal, currency, category, comment string) (*core.Expense, error) {
	user, err := s.store.UserByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	expense := core.Expense{
		UserID:    user.ID,
		AccountID: user.AccountID,
		Amount:    amount,
		Currency:  currency,
		Category:  strings.TrimSpace(category),
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateExpense(ctx, &expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

// ListRecent returns the user's most recent expenses, newest first.
// A non-positive limit falls back to DefaultRecentLimit.
func (s *LedgerService) ListRecent(ctx context.Context, chatID int64, limit int) ([]core.Expense, error) {
	user, err := s.store.UserByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.store.ListRecentExpenses(ctx, user.ID, limit)
}

// AggregateByCategory sums expenses per category over a trailing window
// of windowDays. Scope follows the user's current account: pooled
// across the whole account when connected, strictly personal rows
// otherwise. windowDays of core.AllTimeDays or more covers the entire
// history.
func (s *LedgerService) AggregateByCategory(ctx context.Context, chatID int64, windowDays int) ([]core.CategoryTotal, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("report window must be positive, got %d", windowDays)
	}
	if windowDays > core.AllTimeDays {
		windowDays = core.AllTimeDays
	}

	user, err := s.store.UserByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	since := time.Now().UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)
	return s.store.SumByCategory(ctx, user, since)
}
