package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/security"
	"github.com/josh-kwaku/bank-ledger/internal/store"
)

// Account builds an active account whose digest matches the given secret.
func Account(t *testing.T, id, name string, role domain.Role, balance, secret string) domain.Account {
	t.Helper()

	salt, err := security.GenerateSalt(8)
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	bal, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("parse balance %q: %v", balance, err)
	}

	return domain.Account{
		ID:      id,
		Name:    name,
		Role:    role,
		Balance: domain.Normalize(bal),
		Digest:  security.Hash(secret, salt),
		Salt:    salt,
		Active:  true,
	}
}

// SeedAccounts persists a starting table into a store.
func SeedAccounts(t *testing.T, st store.Store, accounts ...domain.Account) {
	t.Helper()
	if err := st.SaveAccounts(context.Background(), accounts); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}
}

// Money parses a fixed-point literal for assertions.
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}
