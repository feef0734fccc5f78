// Package bot implements the conversation state machine. The
// Dispatcher is transport-free: it maps (user, text) to replies and
// state transitions, and the Telegram runner in this package is only a
// thin edge that moves messages in and out.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"spendbot/internal/core"
)

// Ledger records expenses and produces aggregates, keyed by external
// chat id. Implemented by services.LedgerService.
type Ledger interface {
	AddExpense(ctx context.Context, chatID int64, amount decimal.Decimal, currency, category, comment string) (*core.Expense, error)
	ListRecent(ctx context.Context, chatID int64, limit int) ([]core.Expense, error)
	AggregateByCategory(ctx context.Context, chatID int64, windowDays int) ([]core.CategoryTotal, error)
}

// Sharing manages shared accounts. Implemented by services.SharingService.
type Sharing interface {
	CreateAccount(ctx context.Context, chatID int64) (*core.Account, error)
	JoinAccount(ctx context.Context, chatID int64, code, password string) error
	LeaveAccount(ctx context.Context, chatID int64) error
	Credentials(ctx context.Context, chatID int64) (*core.Account, error)
}

// Users creates user records on first contact. Implemented by
// storage.SQLiteRepository.
type Users interface {
	GetOrCreateUser(ctx context.Context, chatID int64) (*core.User, error)
}

// FactProvider decorates saved expenses with a number fact. Always
// returns something usable; failures degrade inside the provider.
type FactProvider interface {
	Fact(ctx context.Context, n int64) string
}

// ChartRenderer turns category totals into a report image.
type ChartRenderer interface {
	Render(totals []core.CategoryTotal, periodLabel string) ([]byte, error)
}

// Reply is one outbound message. Either Text or Photo is set. A nil
// Keyboard leaves the user's current keyboard in place.
type Reply struct {
	Text         string
	Keyboard     [][]string
	Photo        []byte
	PhotoCaption string
}

type Dispatcher struct {
	sessions *SessionStore
	users    Users
	ledger   Ledger
	sharing  Sharing
	facts    FactProvider
	charts   ChartRenderer

	defaultCurrency string
}

func NewDispatcher(users Users, ledger Ledger, sharing Sharing, facts FactProvider, charts ChartRenderer, defaultCurrency string) *Dispatcher {
	return &Dispatcher{
		sessions:        NewSessionStore(),
		users:           users,
		ledger:          ledger,
		sharing:         sharing,
		facts:           facts,
		charts:          charts,
		defaultCurrency: defaultCurrency,
	}
}

// Handle processes one inbound message for the given user and returns
// the replies to send. Recoverable problems come back as user-facing
// replies; the error is non-nil only for unexpected internal failures
// (the replies still say something sensible in that case).
func (d *Dispatcher) Handle(ctx context.Context, chatID int64, text string) ([]Reply, error) {
	text = strings.TrimSpace(text)

	// Users exist from the first message on. This keeps the ledger's
	// resolve-by-chat-id precondition true for every later step.
	if _, err := d.users.GetOrCreateUser(ctx, chatID); err != nil {
		return []Reply{{Text: msgInternalError}}, fmt.Errorf("ensure user: %w", err)
	}

	session := d.sessions.Get(chatID)

	if cmd, ok := parseCommand(text); ok {
		return d.handleCommand(ctx, chatID, session, cmd)
	}
	if text == btnCancel {
		return d.cancel(chatID, session), nil
	}

	// Menu triggers act from any state, same as their slash commands:
	// tapping a stale keyboard button mid-dialog restarts that flow.
	switch text {
	case btnAddExpense:
		return d.startAddExpense(chatID), nil
	case btnReport:
		return d.startReport(chatID), nil
	case btnSettings:
		return d.openSettings(chatID), nil
	case btnLast:
		return d.listRecent(ctx, chatID)
	}

	switch session.State {
	case StateAwaitingAmount:
		return d.handleAmount(chatID, session, text), nil
	case StateAwaitingCurrency:
		return d.handleCurrency(chatID, session, text), nil
	case StateAwaitingCategory:
		return d.handleCategory(chatID, session, text), nil
	case StateAwaitingComment:
		return d.handleComment(ctx, chatID, session, text)
	case StateAwaitingReportWindow:
		return d.handleReportWindow(ctx, chatID, text)
	case StateSettingsMenu:
		return d.handleSettings(ctx, chatID, text)
	case StateAwaitingJoinCredentials:
		return d.handleJoin(ctx, chatID, text)
	default:
		return []Reply{{Text: msgNotUnderstood}, d.greeting(chatID)}, nil
	}
}

func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(strings.TrimPrefix(fields[0], "/")), true
}

func (d *Dispatcher) handleCommand(ctx context.Context, chatID int64, session Session, cmd string) ([]Reply, error) {
	switch cmd {
	case cmdStart:
		return []Reply{d.greeting(chatID)}, nil
	case cmdCancel:
		return d.cancel(chatID, session), nil
	case cmdAdd:
		return d.startAddExpense(chatID), nil
	case cmdReport:
		return d.startReport(chatID), nil
	case cmdLast:
		return d.listRecent(ctx, chatID)
	case cmdSettings:
		return d.openSettings(chatID), nil
	default:
		return []Reply{{Text: msgNotUnderstood}, d.greeting(chatID)}, nil
	}
}

// greeting resets the user to the menu and re-displays the main
// keyboard. Idempotent: repeating /start just shows it again.
func (d *Dispatcher) greeting(chatID int64) Reply {
	d.sessions.Reset(chatID)
	return Reply{Text: msgGreeting, Keyboard: menuKeyboard}
}

// cancel is honored only from input-collecting states; elsewhere it is
// silently ignored.
func (d *Dispatcher) cancel(chatID int64, session Session) []Reply {
	if !session.State.AcceptsCancel() {
		return nil
	}
	slog.Debug("Dialog cancelled", "chat_id", chatID, "state", session.State.String())
	return []Reply{d.greeting(chatID)}
}

func (d *Dispatcher) startAddExpense(chatID int64) []Reply {
	d.sessions.Set(chatID, Session{State: StateAwaitingAmount})
	return []Reply{{Text: msgAmountPrompt, Keyboard: cancelKeyboard}}
}

func (d *Dispatcher) startReport(chatID int64) []Reply {
	d.sessions.Set(chatID, Session{State: StateAwaitingReportWindow})
	return []Reply{{Text: msgReportPrompt, Keyboard: reportKeyboard}}
}

func (d *Dispatcher) openSettings(chatID int64) []Reply {
	d.sessions.Set(chatID, Session{State: StateSettingsMenu})
	return []Reply{{Text: msgSettingsPrompt, Keyboard: settingsKeyboard}}
}

func (d *Dispatcher) handleAmount(chatID int64, session Session, text string) []Reply {
	amount, err := core.ParseAmount(text)
	if err != nil {
		return []Reply{{Text: msgAmountInvalid}}
	}

	session.Draft.Amount = amount
	session.Draft.Currency = d.defaultCurrency // currency selection is bypassed
	session.State = StateAwaitingCategory
	d.sessions.Set(chatID, session)

	return []Reply{{Text: msgCategoryPrompt, Keyboard: categoryKeyboard}}
}

func (d *Dispatcher) handleCurrency(chatID int64, session Session, text string) []Reply {
	currency := strings.ToUpper(strings.ReplaceAll(text, " ", ""))
	if len(currency) != 3 {
		return []Reply{{Text: msgCurrencyInvalid}}
	}

	session.Draft.Currency = currency
	session.State = StateAwaitingCategory
	d.sessions.Set(chatID, session)

	return []Reply{{Text: msgCategoryPrompt, Keyboard: categoryKeyboard}}
}

func (d *Dispatcher) handleCategory(chatID int64, session Session, text string) []Reply {
	session.Draft.Category = text
	session.State = StateAwaitingComment
	d.sessions.Set(chatID, session)

	return []Reply{{Text: msgCommentPrompt, Keyboard: commentKeyboard}}
}

func (d *Dispatcher) handleComment(ctx context.Context, chatID int64, session Session, text string) ([]Reply, error) {
	comment := text
	if strings.EqualFold(comment, btnSkip) {
		comment = ""
	}

	draft := session.Draft
	expense, err := d.ledger.AddExpense(ctx, chatID, draft.Amount, draft.Currency, draft.Category, comment)
	if err != nil {
		return []Reply{{Text: msgInternalError}, d.greeting(chatID)}, fmt.Errorf("add expense: %w", err)
	}

	// Persistence first, decoration second: the fact lookup cannot fail
	// the save and degrades to a fallback string on its own.
	fact := d.facts.Fact(ctx, expense.Amount.IntPart())

	return []Reply{
		{Text: fmt.Sprintf(msgExpenseSaved, fact)},
		d.greeting(chatID),
	}, nil
}

func (d *Dispatcher) handleReportWindow(ctx context.Context, chatID int64, text string) ([]Reply, error) {
	days, label, ok := parseReportWindow(text)
	if !ok {
		return []Reply{{Text: msgReportInvalid}}, nil
	}

	replies := []Reply{{Text: msgReportWait}}

	totals, err := d.ledger.AggregateByCategory(ctx, chatID, days)
	if err != nil {
		return append(replies, Reply{Text: msgReportFailed}, d.greeting(chatID)),
			fmt.Errorf("aggregate report: %w", err)
	}

	img, err := d.charts.Render(totals, label)
	if err != nil {
		// Chart trouble must not read as a ledger failure. The numbers
		// are fine, only the picture is not.
		slog.WarnContext(ctx, "Report render failed", "chat_id", chatID, "error", err)
		return append(replies, Reply{Text: msgReportFailed}, d.greeting(chatID)), nil
	}

	return append(replies,
		Reply{Photo: img, PhotoCaption: msgReportCaption},
		d.greeting(chatID),
	), nil
}

func parseReportWindow(text string) (days int, label string, ok bool) {
	if text == btnAllTime {
		return core.AllTimeDays, "for all time", true
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, "", false
	}
	days, err := strconv.Atoi(fields[0])
	if err != nil || days <= 0 {
		return 0, "", false
	}
	if days >= core.AllTimeDays {
		return core.AllTimeDays, "for all time", true
	}
	return days, fmt.Sprintf("for the last %d days", days), true
}

func (d *Dispatcher) handleSettings(ctx context.Context, chatID int64, text string) ([]Reply, error) {
	switch text {
	case btnJoinAccount:
		d.sessions.Set(chatID, Session{State: StateAwaitingJoinCredentials})
		return []Reply{{Text: msgJoinPrompt, Keyboard: cancelKeyboard}}, nil

	case btnNewAccount:
		account, err := d.sharing.CreateAccount(ctx, chatID)
		if err != nil {
			return []Reply{{Text: msgInternalError}, d.greeting(chatID)}, fmt.Errorf("create account: %w", err)
		}
		return []Reply{
			{Text: fmt.Sprintf(msgAccountCreated, account.Code, account.Password)},
			d.greeting(chatID),
		}, nil

	case btnLeave:
		err := d.sharing.LeaveAccount(ctx, chatID)
		if errors.Is(err, core.ErrNotConnected) {
			return []Reply{{Text: msgNotConnected}}, nil
		}
		if err != nil {
			return []Reply{{Text: msgInternalError}, d.greeting(chatID)}, fmt.Errorf("leave account: %w", err)
		}
		return []Reply{{Text: msgLeftAccount}, d.greeting(chatID)}, nil

	case btnCredentials:
		account, err := d.sharing.Credentials(ctx, chatID)
		if errors.Is(err, core.ErrNotConnected) {
			return []Reply{{Text: msgNotConnected}, d.greeting(chatID)}, nil
		}
		if err != nil {
			return []Reply{{Text: msgInternalError}, d.greeting(chatID)}, fmt.Errorf("account credentials: %w", err)
		}
		return []Reply{
			{Text: msgCredentialsSend},
			{Text: fmt.Sprintf("%s %s", account.Code, account.Password)},
			d.greeting(chatID),
		}, nil

	case btnBack:
		return []Reply{d.greeting(chatID)}, nil

	default:
		return []Reply{{Text: msgSettingsUnknown}}, nil
	}
}

// handleJoin resolves the join-failure ambiguity explicitly: failures
// re-prompt and keep the user in this state, so the keyboard's Cancel
// stays the way out.
func (d *Dispatcher) handleJoin(ctx context.Context, chatID int64, text string) ([]Reply, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return []Reply{{Text: msgJoinBadFormat}}, nil
	}

	err := d.sharing.JoinAccount(ctx, chatID, fields[0], fields[1])
	switch {
	case err == nil:
		return []Reply{{Text: msgJoinSuccess}, d.greeting(chatID)}, nil
	case errors.Is(err, core.ErrNotFound):
		return []Reply{{Text: msgJoinNotFound}}, nil
	case errors.Is(err, core.ErrInvalidCredentials):
		return []Reply{{Text: msgJoinWrongPassword}}, nil
	default:
		return []Reply{{Text: msgInternalError}, d.greeting(chatID)}, fmt.Errorf("join account: %w", err)
	}
}

func (d *Dispatcher) listRecent(ctx context.Context, chatID int64) ([]Reply, error) {
	expenses, err := d.ledger.ListRecent(ctx, chatID, 0)
	if err != nil {
		return []Reply{{Text: msgInternalError}, d.greeting(chatID)}, fmt.Errorf("list recent: %w", err)
	}
	if len(expenses) == 0 {
		return []Reply{{Text: msgNoExpenses}, d.greeting(chatID)}, nil
	}

	var b strings.Builder
	b.WriteString(msgRecentHeader)
	b.WriteString("\n")
	for _, e := range expenses {
		comment := e.Comment
		if comment == "" {
			comment = "-"
		}
		fmt.Fprintf(&b, "\n%s %s - %s\n %s\n %s\n",
			e.Amount.StringFixed(2), e.Currency, e.Category,
			e.CreatedAt.Format("02.01.2006 15:04"), comment)
	}

	return []Reply{{Text: strings.TrimSpace(b.String())}, d.greeting(chatID)}, nil
}
