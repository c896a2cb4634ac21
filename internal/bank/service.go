// Package bank is the account ledger service: it owns the in-memory account
// table as a write-through cache of the durable store and executes every
// mutation under the per-account lock discipline.
package bank

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/locker"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/security"
)

type ledgerStore interface {
	LoadAccounts(ctx context.Context) ([]domain.Account, error)
	SaveAccounts(ctx context.Context, accounts []domain.Account) error
	AppendTransaction(ctx context.Context, record domain.Transaction) error
	LoadLastN(ctx context.Context, accountID string, n int) ([]domain.Transaction, error)
}

type Service struct {
	store     ledgerStore
	locks     *locker.Registry
	saltBytes int

	// table guards the account map and every account field. Per-account
	// locks serialize the logical read-modify-persist sequence; table is
	// held only for the instants memory is read or written.
	table    sync.RWMutex
	accounts map[string]*domain.Account
}

func NewService(ctx context.Context, st ledgerStore, saltBytes int) (*Service, error) {
	loaded, err := st.LoadAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewService: %w", err)
	}

	accounts := make(map[string]*domain.Account, len(loaded))
	for i := range loaded {
		a := loaded[i]
		accounts[a.ID] = &a
	}

	return &Service{
		store:     st,
		locks:     locker.NewRegistry(),
		saltBytes: saltBytes,
		accounts:  accounts,
	}, nil
}

// Authenticate verifies credentials against the cached table. Unknown,
// inactive, and wrong-credential cases are indistinguishable to the caller;
// each logs a warning for the operator. Success appends a LOGIN record.
func (s *Service) Authenticate(ctx context.Context, accountID, secret string) (*domain.Session, error) {
	log := logging.FromContext(ctx)

	acc, ok := s.snapshot(accountID)
	if !ok || !acc.Active {
		log.Warn("authentication failed", "account_id", accountID, "reason", "unknown or inactive account")
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrAuthentication)
	}

	if security.Hash(secret, acc.Salt) != acc.Digest {
		log.Warn("authentication failed", "account_id", accountID, "reason", "credential mismatch")
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrAuthentication)
	}

	record := domain.Transaction{
		Timestamp:    time.Now().UTC(),
		AccountID:    acc.ID,
		Type:         domain.TxLogin,
		Amount:       decimal.Zero,
		BalanceAfter: acc.Balance,
		Details:      "Successful login",
	}
	if err := s.store.AppendTransaction(ctx, record); err != nil {
		return nil, fmt.Errorf("Authenticate: %w", err)
	}

	session := &domain.Session{
		ID:        uuid.New(),
		AccountID: acc.ID,
		Role:      acc.Role,
		Name:      acc.Name,
	}

	log.Info("login", "session_id", session.ID, "account_id", acc.ID, "role", acc.Role)
	return session, nil
}

// Balance is a lock-free read of the cached balance. Staleness is bounded by
// the duration of any in-flight mutation on the account.
func (s *Service) Balance(_ context.Context, session *domain.Session) (decimal.Decimal, error) {
	acc, ok := s.snapshot(session.AccountID)
	if !ok {
		return decimal.Zero, fmt.Errorf("Balance: %w", domain.ErrUnknownAccount)
	}
	return acc.Balance, nil
}

// LastN returns up to the n most recent records for the session's account,
// oldest of the window first.
func (s *Service) LastN(ctx context.Context, session *domain.Session, n int) ([]domain.Transaction, error) {
	if n <= 0 {
		return nil, fmt.Errorf("LastN: %w", domain.ErrInvalidHistoryCount)
	}
	records, err := s.store.LoadLastN(ctx, session.AccountID, n)
	if err != nil {
		return nil, fmt.Errorf("LastN: %w", err)
	}
	if records == nil {
		records = []domain.Transaction{}
	}
	return records, nil
}

// snapshot returns a copy of one account under the table read lock.
func (s *Service) snapshot(accountID string) (domain.Account, bool) {
	s.table.RLock()
	defer s.table.RUnlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return domain.Account{}, false
	}
	return *acc, true
}

// snapshotAll copies the full table for a save.
func (s *Service) snapshotAll() []domain.Account {
	s.table.RLock()
	defer s.table.RUnlock()

	out := make([]domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, *acc)
	}
	return out
}

func trimName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", domain.ErrNameRequired
	}
	return trimmed, nil
}
