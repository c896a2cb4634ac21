package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
)

// Transfer moves amount from the session's account to another. Both account
// locks are taken in identifier order regardless of direction, so two
// opposing transfers between the same pair cannot deadlock. Both balances
// change only after all validation has passed, under both locks, and revert
// together if the save fails.
func (s *Service) Transfer(ctx context.Context, session *domain.Session, toAccountID string, amount decimal.Decimal) error {
	fromAccountID := session.AccountID
	if fromAccountID == toAccountID {
		return fmt.Errorf("Transfer: %w", domain.ErrSelfTransfer)
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}
	amt := domain.Normalize(amount)

	first, second := fromAccountID, toAccountID
	if second < first {
		first, second = second, first
	}

	lkFirst := s.locks.For(first)
	lkFirst.Lock()
	defer lkFirst.Unlock()

	lkSecond := s.locks.For(second)
	lkSecond.Lock()
	defer lkSecond.Unlock() // LIFO defers release in reverse acquisition order

	src, ok := s.snapshot(fromAccountID)
	if !ok {
		return fmt.Errorf("Transfer: source: %w", domain.ErrUnknownAccount)
	}
	dst, ok := s.snapshot(toAccountID)
	if !ok {
		return fmt.Errorf("Transfer: destination: %w", domain.ErrUnknownAccount)
	}
	if !src.Active {
		return fmt.Errorf("Transfer: source: %w", domain.ErrInactiveAccount)
	}
	if !dst.Active {
		return fmt.Errorf("Transfer: destination: %w", domain.ErrInactiveAccount)
	}
	if src.Balance.LessThan(amt) {
		logging.FromContext(ctx).Warn("insufficient funds",
			"session_id", session.ID, "account_id", src.ID, "amount", amt.StringFixed(2))
		return fmt.Errorf("Transfer: %w", domain.ErrInsufficientFunds)
	}

	srcAfter := src.Balance.Sub(amt)
	dstAfter := dst.Balance.Add(amt)

	s.setBalance(src.ID, srcAfter)
	s.setBalance(dst.ID, dstAfter)

	if err := s.store.SaveAccounts(ctx, s.snapshotAll()); err != nil {
		s.setBalance(src.ID, src.Balance)
		s.setBalance(dst.ID, dst.Balance)
		return fmt.Errorf("Transfer: %w", err)
	}

	now := time.Now().UTC()
	out := domain.Transaction{
		Timestamp:    now,
		AccountID:    src.ID,
		Type:         domain.TxTransferOut,
		Amount:       amt,
		BalanceAfter: srcAfter,
		Details:      "Transfer to " + dst.ID,
		Counterparty: dst.ID,
	}
	if err := s.store.AppendTransaction(ctx, out); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}

	in := domain.Transaction{
		Timestamp:    now,
		AccountID:    dst.ID,
		Type:         domain.TxTransferIn,
		Amount:       amt,
		BalanceAfter: dstAfter,
		Details:      "Transfer from " + src.ID,
		Counterparty: src.ID,
	}
	if err := s.store.AppendTransaction(ctx, in); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}

	logging.FromContext(ctx).Info("transfer",
		"session_id", session.ID,
		"from", src.ID,
		"to", dst.ID,
		"amount", amt.StringFixed(2),
	)
	return nil
}
