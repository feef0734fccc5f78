package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"spendbot/internal/core"
)

// fakeBackend implements every dispatcher dependency in memory so the
// state machine can be walked without Telegram or a database.
type fakeBackend struct {
	users map[int64]*core.User

	expenses []core.Expense
	addErr   error

	account  *core.Account
	joinErr  error
	leaveErr error
	credsErr error

	totals     []core.CategoryTotal
	aggErr     error
	lastWindow int

	renderErr error
	lastLabel string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{users: make(map[int64]*core.User)}
}

func (f *fakeBackend) GetOrCreateUser(_ context.Context, chatID int64) (*core.User, error) {
	if u, ok := f.users[chatID]; ok {
		return u, nil
	}
	u := &core.User{ID: int64(len(f.users) + 1), ChatID: chatID}
	f.users[chatID] = u
	return u, nil
}

func (f *fakeBackend) AddExpense(_ context.Context, chatID int64, amount decimal.Decimal, currency, category, comment string) (*core.Expense, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	e := core.Expense{
		ID:       int64(len(f.expenses) + 1),
		UserID:   f.users[chatID].ID,
		Amount:   amount,
		Currency: currency,
		Category: category,
		Comment:  comment,
	}
	f.expenses = append(f.expenses, e)
	return &e, nil
}

func (f *fakeBackend) ListRecent(_ context.Context, _ int64, _ int) ([]core.Expense, error) {
	return f.expenses, nil
}

func (f *fakeBackend) AggregateByCategory(_ context.Context, _ int64, windowDays int) ([]core.CategoryTotal, error) {
	f.lastWindow = windowDays
	if f.aggErr != nil {
		return nil, f.aggErr
	}
	return f.totals, nil
}

func (f *fakeBackend) CreateAccount(_ context.Context, _ int64) (*core.Account, error) {
	if f.account == nil {
		f.account = &core.Account{ID: 1, Code: "AB12CD", Password: "xY9zQ1"}
	}
	return f.account, nil
}

func (f *fakeBackend) JoinAccount(_ context.Context, _ int64, _, _ string) error {
	return f.joinErr
}

func (f *fakeBackend) LeaveAccount(_ context.Context, _ int64) error {
	return f.leaveErr
}

func (f *fakeBackend) Credentials(_ context.Context, _ int64) (*core.Account, error) {
	if f.credsErr != nil {
		return nil, f.credsErr
	}
	return f.account, nil
}

func (f *fakeBackend) Fact(_ context.Context, n int64) string {
	return fmt.Sprintf("%d is a number", n)
}

func (f *fakeBackend) Render(_ []core.CategoryTotal, periodLabel string) ([]byte, error) {
	f.lastLabel = periodLabel
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return []byte("png-bytes"), nil
}

func newTestDispatcher(backend *fakeBackend) *Dispatcher {
	return NewDispatcher(backend, backend, backend, backend, backend, "RUB")
}

func send(t *testing.T, d *Dispatcher, chatID int64, text string) []Reply {
	t.Helper()
	replies, err := d.Handle(context.Background(), chatID, text)
	if err != nil {
		t.Fatalf("Handle(%q) returned error: %v", text, err)
	}
	return replies
}

func firstText(t *testing.T, replies []Reply) string {
	t.Helper()
	if len(replies) == 0 {
		t.Fatal("expected at least one reply")
	}
	return replies[0].Text
}

func TestDispatcher_StartShowsMenu(t *testing.T) {
	d := newTestDispatcher(newFakeBackend())

	replies := send(t, d, 1, "/start")
	if len(replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(replies))
	}
	if replies[0].Text != msgGreeting {
		t.Errorf("expected greeting, got %q", replies[0].Text)
	}
	if len(replies[0].Keyboard) == 0 {
		t.Error("expected the menu keyboard")
	}
}

func TestDispatcher_AddExpenseFlow(t *testing.T) {
	backend := newFakeBackend()
	d := newTestDispatcher(backend)

	if got := firstText(t, send(t, d, 1, "/add")); got != msgAmountPrompt {
		t.Fatalf("expected amount prompt, got %q", got)
	}
	if got := firstText(t, send(t, d, 1, "not a number")); got != msgAmountInvalid {
		t.Fatalf("expected invalid amount message, got %q", got)
	}
	// Invalid input did not advance the state; a valid amount still works.
	if got := firstText(t, send(t, d, 1, "1 234,56")); got != msgCategoryPrompt {
		t.Fatalf("expected category prompt, got %q", got)
	}
	if got := firstText(t, send(t, d, 1, "Food")); got != msgCommentPrompt {
		t.Fatalf("expected comment prompt, got %q", got)
	}

	replies := send(t, d, 1, "groceries")
	if len(replies) != 2 {
		t.Fatalf("expected saved message plus greeting, got %d replies", len(replies))
	}
	if !strings.Contains(replies[0].Text, "1234 is a number") {
		t.Errorf("expected the number fact in %q", replies[0].Text)
	}

	if len(backend.expenses) != 1 {
		t.Fatalf("expected 1 stored expense, got %d", len(backend.expenses))
	}
	e := backend.expenses[0]
	if !e.Amount.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("amount = %s, want 1234.56", e.Amount)
	}
	if e.Currency != "RUB" {
		t.Errorf("currency = %q, want RUB", e.Currency)
	}
	if e.Category != "Food" || e.Comment != "groceries" {
		t.Errorf("category/comment = %q/%q", e.Category, e.Comment)
	}
}

func TestDispatcher_SkipLeavesCommentEmpty(t *testing.T) {
	backend := newFakeBackend()
	d := newTestDispatcher(backend)

	send(t, d, 1, "/add")
	send(t, d, 1, "50")
	send(t, d, 1, "Transport")
	send(t, d, 1, btnSkip)

	if len(backend.expenses) != 1 {
		t.Fatalf("expected 1 stored expense, got %d", len(backend.expenses))
	}
	if backend.expenses[0].Comment != "" {
		t.Errorf("comment = %q, want empty", backend.expenses[0].Comment)
	}
}

func TestDispatcher_Cancel(t *testing.T) {
	t.Run("cancels an active dialog", func(t *testing.T) {
		backend := newFakeBackend()
		d := newTestDispatcher(backend)

		send(t, d, 1, "/add")
		replies := send(t, d, 1, btnCancel)
		if firstText(t, replies) != msgGreeting {
			t.Fatalf("expected greeting after cancel, got %q", replies[0].Text)
		}
		// Back in the menu: free text is no longer an amount.
		if got := firstText(t, send(t, d, 1, "100")); got != msgNotUnderstood {
			t.Errorf("expected not-understood after cancel, got %q", got)
		}
		if len(backend.expenses) != 0 {
			t.Errorf("cancelled dialog stored %d expenses", len(backend.expenses))
		}
	})

	t.Run("ignored from the menu", func(t *testing.T) {
		d := newTestDispatcher(newFakeBackend())
		if replies := send(t, d, 1, "/cancel"); len(replies) != 0 {
			t.Errorf("expected no replies, got %d", len(replies))
		}
	})
}

func TestDispatcher_MenuButtonInterruptsDialog(t *testing.T) {
	d := newTestDispatcher(newFakeBackend())

	send(t, d, 1, "/add")
	if got := firstText(t, send(t, d, 1, btnReport)); got != msgReportPrompt {
		t.Errorf("expected report prompt, got %q", got)
	}
}

func TestDispatcher_ReportFlow(t *testing.T) {
	t.Run("numbered window", func(t *testing.T) {
		backend := newFakeBackend()
		backend.totals = []core.CategoryTotal{{Category: "Food", Total: decimal.NewFromInt(100)}}
		d := newTestDispatcher(backend)

		send(t, d, 1, "/report")
		replies := send(t, d, 1, "7 days")

		if len(replies) != 3 {
			t.Fatalf("expected wait, photo and greeting, got %d replies", len(replies))
		}
		if replies[0].Text != msgReportWait {
			t.Errorf("first reply = %q, want wait message", replies[0].Text)
		}
		if replies[1].Photo == nil || replies[1].PhotoCaption != msgReportCaption {
			t.Error("expected a captioned photo reply")
		}
		if backend.lastWindow != 7 {
			t.Errorf("window = %d, want 7", backend.lastWindow)
		}
		if backend.lastLabel != "for the last 7 days" {
			t.Errorf("label = %q", backend.lastLabel)
		}
	})

	t.Run("all time", func(t *testing.T) {
		backend := newFakeBackend()
		d := newTestDispatcher(backend)

		send(t, d, 1, "/report")
		send(t, d, 1, btnAllTime)

		if backend.lastWindow != core.AllTimeDays {
			t.Errorf("window = %d, want %d", backend.lastWindow, core.AllTimeDays)
		}
		if backend.lastLabel != "for all time" {
			t.Errorf("label = %q", backend.lastLabel)
		}
	})

	t.Run("unparseable window re-prompts", func(t *testing.T) {
		d := newTestDispatcher(newFakeBackend())

		send(t, d, 1, "/report")
		if got := firstText(t, send(t, d, 1, "soon")); got != msgReportInvalid {
			t.Fatalf("expected invalid-window message, got %q", got)
		}
		// Still in the report dialog.
		replies := send(t, d, 1, "30 days")
		if len(replies) != 3 {
			t.Errorf("expected a report after retry, got %d replies", len(replies))
		}
	})

	t.Run("render failure falls back to text", func(t *testing.T) {
		backend := newFakeBackend()
		backend.renderErr = errors.New("no fonts")
		d := newTestDispatcher(backend)

		send(t, d, 1, "/report")
		replies := send(t, d, 1, "1 day")

		if len(replies) != 3 || replies[1].Text != msgReportFailed {
			t.Errorf("expected report-failed text, got %+v", replies)
		}
	})
}

func TestDispatcher_Settings(t *testing.T) {
	t.Run("create account", func(t *testing.T) {
		d := newTestDispatcher(newFakeBackend())

		send(t, d, 1, "/settings")
		replies := send(t, d, 1, btnNewAccount)
		if !strings.Contains(replies[0].Text, "AB12CD") || !strings.Contains(replies[0].Text, "xY9zQ1") {
			t.Errorf("expected code and password in %q", replies[0].Text)
		}
	})

	t.Run("leave when not connected", func(t *testing.T) {
		backend := newFakeBackend()
		backend.leaveErr = core.ErrNotConnected
		d := newTestDispatcher(backend)

		send(t, d, 1, "/settings")
		if got := firstText(t, send(t, d, 1, btnLeave)); got != msgNotConnected {
			t.Fatalf("expected not-connected message, got %q", got)
		}
		// Still in settings.
		if got := firstText(t, send(t, d, 1, "huh")); got != msgSettingsUnknown {
			t.Errorf("expected unknown-option message, got %q", got)
		}
	})

	t.Run("leave connected account", func(t *testing.T) {
		d := newTestDispatcher(newFakeBackend())

		send(t, d, 1, "/settings")
		if got := firstText(t, send(t, d, 1, btnLeave)); got != msgLeftAccount {
			t.Errorf("expected left-account message, got %q", got)
		}
	})

	t.Run("credentials", func(t *testing.T) {
		backend := newFakeBackend()
		backend.account = &core.Account{ID: 1, Code: "ZZ99XX", Password: "aB3cD4"}
		d := newTestDispatcher(backend)

		send(t, d, 1, "/settings")
		replies := send(t, d, 1, btnCredentials)
		if len(replies) != 3 {
			t.Fatalf("expected intro, credentials and greeting, got %d replies", len(replies))
		}
		if replies[1].Text != "ZZ99XX aB3cD4" {
			t.Errorf("credentials reply = %q", replies[1].Text)
		}
	})

	t.Run("back to menu", func(t *testing.T) {
		d := newTestDispatcher(newFakeBackend())

		send(t, d, 1, "/settings")
		if got := firstText(t, send(t, d, 1, btnBack)); got != msgGreeting {
			t.Errorf("expected greeting, got %q", got)
		}
	})
}

func TestDispatcher_JoinFlow(t *testing.T) {
	backend := newFakeBackend()
	d := newTestDispatcher(backend)

	send(t, d, 1, "/settings")
	if got := firstText(t, send(t, d, 1, btnJoinAccount)); got != msgJoinPrompt {
		t.Fatalf("expected join prompt, got %q", got)
	}

	if got := firstText(t, send(t, d, 1, "justonething")); got != msgJoinBadFormat {
		t.Fatalf("expected bad-format message, got %q", got)
	}

	backend.joinErr = core.ErrInvalidCredentials
	if got := firstText(t, send(t, d, 1, "AB12CD wrong1")); got != msgJoinWrongPassword {
		t.Fatalf("expected wrong-password message, got %q", got)
	}

	backend.joinErr = core.ErrNotFound
	if got := firstText(t, send(t, d, 1, "NOPE00 xY9zQ1")); got != msgJoinNotFound {
		t.Fatalf("expected not-found message, got %q", got)
	}

	// Failures kept the user in the join dialog; a correct retry succeeds.
	backend.joinErr = nil
	replies := send(t, d, 1, "AB12CD xY9zQ1")
	if firstText(t, replies) != msgJoinSuccess {
		t.Fatalf("expected join success, got %q", replies[0].Text)
	}
}

func TestDispatcher_LastExpenses(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		d := newTestDispatcher(newFakeBackend())
		if got := firstText(t, send(t, d, 1, "/last")); got != msgNoExpenses {
			t.Errorf("expected no-expenses message, got %q", got)
		}
	})

	t.Run("lists stored expenses", func(t *testing.T) {
		backend := newFakeBackend()
		d := newTestDispatcher(backend)

		send(t, d, 1, "/add")
		send(t, d, 1, "75,50")
		send(t, d, 1, "Fun")
		send(t, d, 1, "cinema")

		text := firstText(t, send(t, d, 1, btnLast))
		for _, want := range []string{"75.50", "RUB", "Fun", "cinema"} {
			if !strings.Contains(text, want) {
				t.Errorf("listing %q missing %q", text, want)
			}
		}
	})
}

func TestDispatcher_UnknownTextInMenu(t *testing.T) {
	d := newTestDispatcher(newFakeBackend())

	replies := send(t, d, 1, "what can you do")
	if len(replies) != 2 {
		t.Fatalf("expected not-understood plus greeting, got %d replies", len(replies))
	}
	if replies[0].Text != msgNotUnderstood || replies[1].Text != msgGreeting {
		t.Errorf("replies = %q, %q", replies[0].Text, replies[1].Text)
	}
}

func TestDispatcher_InternalErrorOnSave(t *testing.T) {
	backend := newFakeBackend()
	backend.addErr = errors.New("disk full")
	d := newTestDispatcher(backend)

	send(t, d, 1, "/add")
	send(t, d, 1, "10")
	send(t, d, 1, "Food")

	replies, err := d.Handle(context.Background(), 1, "oops")
	if err == nil {
		t.Fatal("expected an error from Handle")
	}
	if firstText(t, replies) != msgInternalError {
		t.Errorf("expected internal-error reply, got %q", replies[0].Text)
	}
}
