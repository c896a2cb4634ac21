package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
)

// Deposit credits the session's account. The mutate-persist-log sequence
// completes before the account lock is released.
func (s *Service) Deposit(ctx context.Context, session *domain.Session, amount decimal.Decimal) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return fmt.Errorf("Deposit: %w", err)
	}
	amt := domain.Normalize(amount)

	lk := s.locks.For(session.AccountID)
	lk.Lock()
	defer lk.Unlock()

	acc, ok := s.snapshot(session.AccountID)
	if !ok {
		return fmt.Errorf("Deposit: %w", domain.ErrUnknownAccount)
	}
	if !acc.Active {
		return fmt.Errorf("Deposit: %w", domain.ErrInactiveAccount)
	}

	newBalance := acc.Balance.Add(amt)
	if err := s.commitBalance(ctx, acc.ID, acc.Balance, newBalance); err != nil {
		return fmt.Errorf("Deposit: %w", err)
	}

	record := domain.Transaction{
		Timestamp:    time.Now().UTC(),
		AccountID:    acc.ID,
		Type:         domain.TxDeposit,
		Amount:       amt,
		BalanceAfter: newBalance,
		Details:      "Cash deposit",
	}
	if err := s.store.AppendTransaction(ctx, record); err != nil {
		return fmt.Errorf("Deposit: %w", err)
	}

	logging.FromContext(ctx).Info("deposit",
		"session_id", session.ID,
		"account_id", acc.ID,
		"amount", amt.StringFixed(2),
		"balance", newBalance.StringFixed(2),
	)
	return nil
}

// Withdraw debits the session's account, failing without side effects when
// the balance does not cover the amount.
func (s *Service) Withdraw(ctx context.Context, session *domain.Session, amount decimal.Decimal) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return fmt.Errorf("Withdraw: %w", err)
	}
	amt := domain.Normalize(amount)

	lk := s.locks.For(session.AccountID)
	lk.Lock()
	defer lk.Unlock()

	acc, ok := s.snapshot(session.AccountID)
	if !ok {
		return fmt.Errorf("Withdraw: %w", domain.ErrUnknownAccount)
	}
	if !acc.Active {
		return fmt.Errorf("Withdraw: %w", domain.ErrInactiveAccount)
	}
	if acc.Balance.LessThan(amt) {
		logging.FromContext(ctx).Warn("insufficient funds",
			"session_id", session.ID, "account_id", acc.ID, "amount", amt.StringFixed(2))
		return fmt.Errorf("Withdraw: %w", domain.ErrInsufficientFunds)
	}

	newBalance := acc.Balance.Sub(amt)
	if err := s.commitBalance(ctx, acc.ID, acc.Balance, newBalance); err != nil {
		return fmt.Errorf("Withdraw: %w", err)
	}

	record := domain.Transaction{
		Timestamp:    time.Now().UTC(),
		AccountID:    acc.ID,
		Type:         domain.TxWithdraw,
		Amount:       amt,
		BalanceAfter: newBalance,
		Details:      "Cash withdrawal",
	}
	if err := s.store.AppendTransaction(ctx, record); err != nil {
		return fmt.Errorf("Withdraw: %w", err)
	}

	logging.FromContext(ctx).Info("withdraw",
		"session_id", session.ID,
		"account_id", acc.ID,
		"amount", amt.StringFixed(2),
		"balance", newBalance.StringFixed(2),
	)
	return nil
}

// commitBalance applies one balance change in memory, persists the full
// table, and reverts the in-memory change if the save fails. Caller must
// hold the account's lock.
func (s *Service) commitBalance(ctx context.Context, accountID string, oldBalance, newBalance decimal.Decimal) error {
	s.setBalance(accountID, newBalance)

	if err := s.store.SaveAccounts(ctx, s.snapshotAll()); err != nil {
		s.setBalance(accountID, oldBalance)
		return fmt.Errorf("commitBalance: %w", err)
	}
	return nil
}

func (s *Service) setBalance(accountID string, balance decimal.Decimal) {
	s.table.Lock()
	defer s.table.Unlock()

	if acc, ok := s.accounts[accountID]; ok {
		acc.Balance = balance
	}
}
