// Package postgres implements the ledger store contract on PostgreSQL.
// SaveAccounts runs as a single transaction so the full-table replace is
// all-or-nothing, matching the file store's rename semantics.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/store"
)

const accountColumns = `account_id, name, role, balance, digest, salt, active`

const transactionColumns = `ts, account_id, type, amount, balance_after, details, counterparty`

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ` + accountColumns + ` FROM accounts ORDER BY account_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("LoadAccounts: %w: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("LoadAccounts: scan: %w: %w", domain.ErrPersistence, err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadAccounts: rows: %w: %w", domain.ErrPersistence, err)
	}
	return accounts, nil
}

func (s *Store) SaveAccounts(ctx context.Context, accounts []domain.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SaveAccounts: begin: %w: %w", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("SaveAccounts: clear: %w: %w", domain.ErrPersistence, err)
	}

	for _, a := range accounts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, a.Name, string(a.Role), a.Balance.StringFixed(2), a.Digest, a.Salt, a.Active,
		)
		if err != nil {
			return fmt.Errorf("SaveAccounts: insert %s: %w: %w", a.ID, domain.ErrPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("SaveAccounts: commit: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Store) AppendTransaction(ctx context.Context, record domain.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.Timestamp.UTC(), record.AccountID, string(record.Type),
		record.Amount.StringFixed(2), record.BalanceAfter.StringFixed(2),
		record.Details, record.Counterparty,
	)
	if err != nil {
		return fmt.Errorf("AppendTransaction: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Store) LoadLastN(ctx context.Context, accountID string, n int) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY id DESC LIMIT $2`,
		accountID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("LoadLastN: %w: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	newestFirst := make([]domain.Transaction, 0, n)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("LoadLastN: scan: %w: %w", domain.ErrPersistence, err)
		}
		newestFirst = append(newestFirst, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadLastN: rows: %w: %w", domain.ErrPersistence, err)
	}

	// contract wants oldest-first
	out := make([]domain.Transaction, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		out = append(out, newestFirst[i])
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (domain.Account, error) {
	var (
		a       domain.Account
		role    string
		balance string
	)
	if err := s.Scan(&a.ID, &a.Name, &role, &balance, &a.Digest, &a.Salt, &a.Active); err != nil {
		return domain.Account{}, err
	}
	bal, err := decimal.NewFromString(balance)
	if err != nil {
		return domain.Account{}, fmt.Errorf("scanAccount: balance %q: %w", balance, err)
	}
	a.Role = domain.Role(role)
	a.Balance = domain.Normalize(bal)
	return a, nil
}

func scanTransaction(s scanner) (domain.Transaction, error) {
	var (
		t            domain.Transaction
		ts           time.Time
		typ          string
		amount       sql.NullString
		balanceAfter sql.NullString
	)
	if err := s.Scan(&ts, &t.AccountID, &typ, &amount, &balanceAfter, &t.Details, &t.Counterparty); err != nil {
		return domain.Transaction{}, err
	}
	t.Timestamp = ts.UTC()
	t.Type = domain.TransactionType(typ)

	var err error
	if t.Amount, err = nullDecimal(amount); err != nil {
		return domain.Transaction{}, fmt.Errorf("scanTransaction: amount: %w", err)
	}
	if t.BalanceAfter, err = nullDecimal(balanceAfter); err != nil {
		return domain.Transaction{}, fmt.Errorf("scanTransaction: balance_after: %w", err)
	}
	return t, nil
}

func nullDecimal(v sql.NullString) (decimal.Decimal, error) {
	if !v.Valid || v.String == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v.String)
}
