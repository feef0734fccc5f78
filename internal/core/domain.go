package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AllTimeDays is the report window sentinel meaning "entire history".
// Any window of this many days or more is treated as unbounded.
const AllTimeDays = 10000

type (
	// Account is a shared expense pool. Anyone holding the code and
	// password pair can join it and contribute expenses.
	Account struct {
		ID        int64
		Code      string
		Password  string
		CreatedAt time.Time
	}

	// User is one chat identity. AccountID is nil while the user tracks
	// expenses in personal mode.
	User struct {
		ID        int64
		ChatID    int64
		AccountID *int64
	}

	// Expense is a single immutable spending record. AccountID is copied
	// from the owning user at creation time, so the record keeps its
	// attribution even after the user leaves the account.
	Expense struct {
		ID        int64
		UserID    int64
		AccountID *int64
		Amount    decimal.Decimal
		Currency  string
		Category  string
		Comment   string
		CreatedAt time.Time
	}

	// CategoryTotal is one slice of an aggregated report.
	CategoryTotal struct {
		Category string
		Total    decimal.Decimal
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConnected       = errors.New("not connected to an account")
	ErrCodeTaken          = errors.New("account code already taken")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyCurrency      = errors.New("empty currency")
)

func (e Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Currency) == "" {
		return ErrEmptyCurrency
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Connected reports whether the user is attached to a shared account.
func (u User) Connected() bool {
	return u.AccountID != nil
}
