package bank

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/security"
)

// Admin operations assert the caller's role inside the service even though
// the boundary gates its menus by role as well.

// CreateAccount inserts a new active account with a fresh identifier, salt
// and digest. The generate-check-insert sequence runs entirely under the
// table lock, so concurrent creates cannot collide on an identifier.
func (s *Service) CreateAccount(ctx context.Context, session *domain.Session, name string, role domain.Role, initialBalance decimal.Decimal, secret string) (domain.Account, error) {
	if !session.IsAdmin() {
		return domain.Account{}, fmt.Errorf("CreateAccount: %w", domain.ErrNotAdmin)
	}

	trimmed, err := trimName(name)
	if err != nil {
		return domain.Account{}, fmt.Errorf("CreateAccount: %w", err)
	}
	if !role.IsValid() {
		return domain.Account{}, fmt.Errorf("CreateAccount: %w", domain.ErrInvalidRole)
	}
	if err := domain.ValidateInitialBalance(initialBalance); err != nil {
		return domain.Account{}, fmt.Errorf("CreateAccount: %w", err)
	}

	salt, err := security.GenerateSalt(s.saltBytes)
	if err != nil {
		return domain.Account{}, fmt.Errorf("CreateAccount: %w", err)
	}

	acc := domain.Account{
		Name:    trimmed,
		Role:    role,
		Balance: domain.Normalize(initialBalance),
		Digest:  security.Hash(secret, salt),
		Salt:    salt,
		Active:  true,
	}

	s.table.Lock()
	acc.ID, err = s.generateAccountID()
	if err != nil {
		s.table.Unlock()
		return domain.Account{}, fmt.Errorf("CreateAccount: %w", err)
	}
	s.accounts[acc.ID] = &acc
	s.table.Unlock()

	if err := s.store.SaveAccounts(ctx, s.snapshotAll()); err != nil {
		s.table.Lock()
		delete(s.accounts, acc.ID)
		s.table.Unlock()
		return domain.Account{}, fmt.Errorf("CreateAccount: %w", err)
	}

	record := domain.Transaction{
		Timestamp:    time.Now().UTC(),
		AccountID:    acc.ID,
		Type:         domain.TxAccountCreate,
		Amount:       decimal.Zero,
		BalanceAfter: acc.Balance,
		Details:      "Account created",
	}
	if err := s.store.AppendTransaction(ctx, record); err != nil {
		return domain.Account{}, fmt.Errorf("CreateAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account created",
		"session_id", session.ID,
		"account_id", acc.ID,
		"role", acc.Role,
		"balance", acc.Balance.StringFixed(2),
	)
	return acc, nil
}

// DeactivateAccount permanently disables an account. There is no return
// path; the record stays in the table with its final balance.
func (s *Service) DeactivateAccount(ctx context.Context, session *domain.Session, accountID string) error {
	if !session.IsAdmin() {
		return fmt.Errorf("DeactivateAccount: %w", domain.ErrNotAdmin)
	}

	s.table.Lock()
	acc, ok := s.accounts[accountID]
	if !ok {
		s.table.Unlock()
		return fmt.Errorf("DeactivateAccount: %w", domain.ErrUnknownAccount)
	}
	acc.Active = false
	balance := acc.Balance
	s.table.Unlock()

	if err := s.store.SaveAccounts(ctx, s.snapshotAll()); err != nil {
		s.table.Lock()
		acc.Active = true
		s.table.Unlock()
		return fmt.Errorf("DeactivateAccount: %w", err)
	}

	record := domain.Transaction{
		Timestamp:    time.Now().UTC(),
		AccountID:    accountID,
		Type:         domain.TxAccountDelete,
		Amount:       decimal.Zero,
		BalanceAfter: balance,
		Details:      "Account deactivated",
	}
	if err := s.store.AppendTransaction(ctx, record); err != nil {
		return fmt.Errorf("DeactivateAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account deactivated",
		"session_id", session.ID,
		"account_id", accountID,
	)
	return nil
}

// ChangeCredential re-salts and re-digests an account's secret.
func (s *Service) ChangeCredential(ctx context.Context, session *domain.Session, accountID, newSecret string) error {
	if !session.IsAdmin() {
		return fmt.Errorf("ChangeCredential: %w", domain.ErrNotAdmin)
	}

	salt, err := security.GenerateSalt(s.saltBytes)
	if err != nil {
		return fmt.Errorf("ChangeCredential: %w", err)
	}
	digest := security.Hash(newSecret, salt)

	s.table.Lock()
	acc, ok := s.accounts[accountID]
	if !ok {
		s.table.Unlock()
		return fmt.Errorf("ChangeCredential: %w", domain.ErrUnknownAccount)
	}
	oldSalt, oldDigest := acc.Salt, acc.Digest
	acc.Salt, acc.Digest = salt, digest
	s.table.Unlock()

	if err := s.store.SaveAccounts(ctx, s.snapshotAll()); err != nil {
		s.table.Lock()
		acc.Salt, acc.Digest = oldSalt, oldDigest
		s.table.Unlock()
		return fmt.Errorf("ChangeCredential: %w", err)
	}

	logging.FromContext(ctx).Info("credential changed",
		"session_id", session.ID,
		"account_id", accountID,
	)
	return nil
}

// ListAccounts returns a copy of the full table, ordered by identifier.
func (s *Service) ListAccounts(_ context.Context, session *domain.Session) ([]domain.Account, error) {
	if !session.IsAdmin() {
		return nil, fmt.Errorf("ListAccounts: %w", domain.ErrNotAdmin)
	}

	accounts := s.snapshotAll()
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// generateAccountID draws random six-digit identifiers until one is unused.
// Caller must hold the table lock across generate, check, and insert.
func (s *Service) generateAccountID() (string, error) {
	for {
		n, err := rand.Int(rand.Reader, big.NewInt(900000))
		if err != nil {
			return "", fmt.Errorf("generateAccountID: %w", err)
		}
		id := fmt.Sprintf("%06d", 100000+n.Int64())
		if _, taken := s.accounts[id]; !taken {
			return id, nil
		}
	}
}
