package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spendbot/internal/core"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	nextID   int64
	users    map[int64]*core.User // keyed by chat id
	accounts map[int64]*core.Account
	expenses []core.Expense

	createExpenseErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*core.User),
		accounts: make(map[int64]*core.Account),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) GetOrCreateUser(_ context.Context, chatID int64) (*core.User, error) {
	if u, ok := f.users[chatID]; ok {
		copied := *u
		return &copied, nil
	}
	u := &core.User{ID: f.id(), ChatID: chatID}
	f.users[chatID] = u
	copied := *u
	return &copied, nil
}

func (f *fakeStore) UserByChatID(_ context.Context, chatID int64) (*core.User, error) {
	u, ok := f.users[chatID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", chatID, core.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) CreateAccount(_ context.Context, code, password string) (*core.Account, error) {
	for _, a := range f.accounts {
		if a.Code == code {
			return nil, fmt.Errorf("account code %q: %w", code, core.ErrCodeTaken)
		}
	}
	a := &core.Account{ID: f.id(), Code: code, Password: password, CreatedAt: time.Now().UTC()}
	f.accounts[a.ID] = a
	copied := *a
	return &copied, nil
}

func (f *fakeStore) AccountByCode(_ context.Context, code string) (*core.Account, error) {
	for _, a := range f.accounts {
		if a.Code == code {
			copied := *a
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("account: %w", core.ErrNotFound)
}

func (f *fakeStore) AccountByID(_ context.Context, id int64) (*core.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account: %w", core.ErrNotFound)
	}
	copied := *a
	return &copied, nil
}

func (f *fakeStore) SetUserAccount(_ context.Context, userID int64, accountID *int64) error {
	for _, u := range f.users {
		if u.ID == userID {
			if accountID == nil {
				u.AccountID = nil
			} else {
				id := *accountID
				u.AccountID = &id
			}
			return nil
		}
	}
	return fmt.Errorf("user %d: %w", userID, core.ErrNotFound)
}

func (f *fakeStore) CreateExpense(_ context.Context, e *core.Expense) error {
	if f.createExpenseErr != nil {
		return f.createExpenseErr
	}
	if err := e.Validate(); err != nil {
		return err
	}
	e.ID = f.id()
	f.expenses = append(f.expenses, *e)
	return nil
}

func (f *fakeStore) ListRecentExpenses(_ context.Context, userID int64, limit int) ([]core.Expense, error) {
	var own []core.Expense
	for _, e := range f.expenses {
		if e.UserID == userID {
			own = append(own, e)
		}
	}
	sort.Slice(own, func(i, j int) bool { return own[i].CreatedAt.After(own[j].CreatedAt) })
	if len(own) > limit {
		own = own[:limit]
	}
	return own, nil
}

func (f *fakeStore) SumByCategory(_ context.Context, user *core.User, since time.Time) ([]core.CategoryTotal, error) {
	sums := make(map[string]core.CategoryTotal)
	var order []string
	for _, e := range f.expenses {
		if e.CreatedAt.Before(since) {
			continue
		}
		if user.AccountID != nil {
			if e.AccountID == nil || *e.AccountID != *user.AccountID {
				continue
			}
		} else if e.AccountID != nil || e.UserID != user.ID {
			continue
		}
		ct, ok := sums[e.Category]
		if !ok {
			ct = core.CategoryTotal{Category: e.Category}
			order = append(order, e.Category)
		}
		ct.Total = ct.Total.Add(e.Amount)
		sums[e.Category] = ct
	}

	totals := make([]core.CategoryTotal, 0, len(order))
	for _, category := range order {
		totals = append(totals, sums[category])
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Total.GreaterThan(totals[j].Total) })
	return totals, nil
}
