package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"spendbot/internal/core"
)

const (
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	credentialLength = 6

	// createAttempts bounds regeneration when a random code collides
	// with an existing account.
	createAttempts = 5
)

// SharingService manages shared accounts: creation, joining by
// code+password, leaving and credential lookup.
type SharingService struct {
	store    Store
	generate func() (code, password string)
}

func NewSharingService(store Store) *SharingService {
	return &SharingService{
		store:    store,
		generate: generateCredentials,
	}
}

func generateCredentials() (string, string) {
	return randomText(codeAlphabet, credentialLength),
		randomText(passwordAlphabet, credentialLength)
}

func randomText(alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// CreateAccount creates a fresh account with generated credentials and
// attaches the requesting user to it. Code collisions are retried with
// new credentials a bounded number of times.
func (s *SharingService) CreateAccount(ctx context.Context, chatID int64) (*core.Account, error) {
	user, err := s.store.GetOrCreateUser(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	var account *core.Account
	for attempt := 1; ; attempt++ {
		code, password := s.generate()
		account, err = s.store.CreateAccount(ctx, code, password)
		if err == nil {
			break
		}
		if !errors.Is(err, core.ErrCodeTaken) {
			return nil, err
		}
		slog.WarnContext(ctx, "Account code collision, regenerating",
			"chat_id", chatID, "attempt", attempt)
		if attempt >= createAttempts {
			return nil, fmt.Errorf("generate unique account code after %d attempts: %w", attempt, err)
		}
	}

	if err := s.store.SetUserAccount(ctx, user.ID, &account.ID); err != nil {
		return nil, fmt.Errorf("attach user to new account: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "chat_id", chatID, "account_id", account.ID)
	return account, nil
}

// JoinAccount attaches the user to the account matching code and
// password exactly. Unknown code yields core.ErrNotFound, a password
// mismatch core.ErrInvalidCredentials.
func (s *SharingService) JoinAccount(ctx context.Context, chatID int64, code, password string) error {
	user, err := s.store.GetOrCreateUser(ctx, chatID)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	account, err := s.store.AccountByCode(ctx, code)
	if err != nil {
		return err
	}
	if account.Password != password {
		return fmt.Errorf("account %q: %w", code, core.ErrInvalidCredentials)
	}

	if err := s.store.SetUserAccount(ctx, user.ID, &account.ID); err != nil {
		return fmt.Errorf("attach user to account: %w", err)
	}

	slog.InfoContext(ctx, "User joined account", "chat_id", chatID, "account_id", account.ID)
	return nil
}

// LeaveAccount detaches the user from their current account. Expenses
// already recorded keep their original account attribution.
func (s *SharingService) LeaveAccount(ctx context.Context, chatID int64) error {
	user, err := s.store.GetOrCreateUser(ctx, chatID)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	if !user.Connected() {
		return core.ErrNotConnected
	}

	if err := s.store.SetUserAccount(ctx, user.ID, nil); err != nil {
		return fmt.Errorf("detach user: %w", err)
	}

	slog.InfoContext(ctx, "User left account", "chat_id", chatID)
	return nil
}

// Credentials returns the code and password of the user's current
// account, or core.ErrNotConnected.
func (s *SharingService) Credentials(ctx context.Context, chatID int64) (*core.Account, error) {
	user, err := s.store.GetOrCreateUser(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if !user.Connected() {
		return nil, core.ErrNotConnected
	}

	account, err := s.store.AccountByID(ctx, *user.AccountID)
	if err != nil {
		return nil, err
	}
	return account, nil
}
