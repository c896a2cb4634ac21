// Package store defines the durable-persistence contract for the account
// table and the append-only transaction log. Each call is a transactional
// unit: it either fully succeeds or leaves prior durable state untouched.
package store

import (
	"context"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

type Store interface {
	// LoadAccounts returns the full table as of the last successful save,
	// or an empty slice on first run.
	LoadAccounts(ctx context.Context) ([]domain.Account, error)

	// SaveAccounts atomically replaces the full persisted table. A partial
	// write is never observable.
	SaveAccounts(ctx context.Context, accounts []domain.Account) error

	// AppendTransaction durably appends one record to the end of the log.
	// Prior records are never rewritten or removed.
	AppendTransaction(ctx context.Context, record domain.Transaction) error

	// LoadLastN returns the most recent n records for an account,
	// oldest-first. Empty, never nil, when there is no history.
	LoadLastN(ctx context.Context, accountID string, n int) ([]domain.Transaction, error)
}
