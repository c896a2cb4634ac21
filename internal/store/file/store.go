// Package file persists the ledger as two CSV files: the full account table,
// rewritten atomically on every save, and an append-only transaction log.
package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/store"
)

var (
	accountHeader     = []string{"accountId", "name", "role", "balance", "digest", "salt", "active"}
	transactionHeader = []string{"timestamp", "accountId", "type", "amount", "balanceAfter", "details", "counterparty"}
)

type Store struct {
	accountsPath     string
	transactionsPath string

	// One mutex across all calls: every save is total and atomic with
	// respect to every other save and append.
	mu sync.Mutex
}

var _ store.Store = (*Store)(nil)

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("NewStore: %w: %w", domain.ErrPersistence, err)
	}

	s := &Store{
		accountsPath:     filepath.Join(dataDir, "accounts.csv"),
		transactionsPath: filepath.Join(dataDir, "transactions.csv"),
	}

	if err := ensureFile(s.accountsPath, accountHeader); err != nil {
		return nil, fmt.Errorf("NewStore: %w", err)
	}
	if err := ensureFile(s.transactionsPath, transactionHeader); err != nil {
		return nil, fmt.Errorf("NewStore: %w", err)
	}
	return s, nil
}

func ensureFile(path string, header []string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("ensureFile: %w: %w", domain.ErrPersistence, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ensureFile: %w: %w", domain.ErrPersistence, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("ensureFile: %w: %w", domain.ErrPersistence, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("ensureFile: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Store) LoadAccounts(_ context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := readAll(s.accountsPath)
	if err != nil {
		return nil, fmt.Errorf("LoadAccounts: %w", err)
	}

	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		a, err := parseAccount(row)
		if err != nil {
			return nil, fmt.Errorf("LoadAccounts: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// SaveAccounts writes the full table to a temp file in the same directory
// and renames it over the target, so a crash mid-write never leaves a
// partial table visible.
func (s *Store) SaveAccounts(_ context.Context, accounts []domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.accountsPath), "accounts-*.csv")
	if err != nil {
		return fmt.Errorf("SaveAccounts: %w: %w", domain.ErrPersistence, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(accountHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("SaveAccounts: %w: %w", domain.ErrPersistence, err)
	}
	for _, a := range accounts {
		row := []string{
			a.ID,
			a.Name,
			string(a.Role),
			a.Balance.StringFixed(2),
			a.Digest,
			a.Salt,
			strconv.FormatBool(a.Active),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("SaveAccounts: %w: %w", domain.ErrPersistence, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("SaveAccounts: %w: %w", domain.ErrPersistence, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("SaveAccounts: sync: %w: %w", domain.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("SaveAccounts: close: %w: %w", domain.ErrPersistence, err)
	}

	if err := os.Rename(tmp.Name(), s.accountsPath); err != nil {
		return fmt.Errorf("SaveAccounts: rename: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Store) AppendTransaction(_ context.Context, tx domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.transactionsPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("AppendTransaction: %w: %w", domain.ErrPersistence, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := []string{
		tx.Timestamp.UTC().Format(time.RFC3339Nano),
		tx.AccountID,
		string(tx.Type),
		tx.Amount.StringFixed(2),
		tx.BalanceAfter.StringFixed(2),
		tx.Details,
		tx.Counterparty,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("AppendTransaction: %w: %w", domain.ErrPersistence, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("AppendTransaction: %w: %w", domain.ErrPersistence, err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("AppendTransaction: sync: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// LoadLastN scans the whole log and keeps the trailing n records for the
// account. The log is chronological by construction, so no re-sorting.
func (s *Store) LoadLastN(_ context.Context, accountID string, n int) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := readAll(s.transactionsPath)
	if err != nil {
		return nil, fmt.Errorf("LoadLastN: %w", err)
	}

	matched := make([]domain.Transaction, 0)
	for _, row := range rows {
		if row[1] != accountID {
			continue
		}
		tx, err := parseTransaction(row)
		if err != nil {
			return nil, fmt.Errorf("LoadLastN: %w", err)
		}
		matched = append(matched, tx)
	}

	if len(matched) > n {
		matched = matched[len(matched)-n:]
	}
	return matched, nil
}

func readAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("readAll: %w: %w", domain.ErrPersistence, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 7

	var rows [][]string
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("readAll: %w: %w", domain.ErrPersistence, err)
		}
		if first {
			first = false
			continue // header
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseAccount(row []string) (domain.Account, error) {
	balance, err := decimal.NewFromString(row[3])
	if err != nil {
		return domain.Account{}, fmt.Errorf("parseAccount: balance %q: %w: %w", row[3], domain.ErrPersistence, err)
	}
	active, err := strconv.ParseBool(row[6])
	if err != nil {
		return domain.Account{}, fmt.Errorf("parseAccount: active %q: %w: %w", row[6], domain.ErrPersistence, err)
	}
	return domain.Account{
		ID:      row[0],
		Name:    row[1],
		Role:    domain.Role(row[2]),
		Balance: domain.Normalize(balance),
		Digest:  row[4],
		Salt:    row[5],
		Active:  active,
	}, nil
}

func parseTransaction(row []string) (domain.Transaction, error) {
	ts, err := time.Parse(time.RFC3339Nano, row[0])
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parseTransaction: timestamp %q: %w: %w", row[0], domain.ErrPersistence, err)
	}
	amount, err := parseOptionalDecimal(row[3])
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parseTransaction: amount: %w", err)
	}
	balanceAfter, err := parseOptionalDecimal(row[4])
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parseTransaction: balanceAfter: %w", err)
	}
	return domain.Transaction{
		Timestamp:    ts,
		AccountID:    row[1],
		Type:         domain.TransactionType(row[2]),
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Details:      row[5],
		Counterparty: row[6],
	}, nil
}

// Empty monetary fields denote "not applicable" and read back as zero.
func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parseOptionalDecimal: %q: %w: %w", s, domain.ErrPersistence, err)
	}
	return d, nil
}
