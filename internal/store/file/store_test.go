package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return st
}

func money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestLoadAccounts_FirstRunIsEmpty(t *testing.T) {
	st := newTestStore(t)

	accounts, err := st.LoadAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestSaveAccounts_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	in := []domain.Account{
		{
			ID:      "100001",
			Name:    "Alice Doe",
			Role:    domain.RoleUser,
			Balance: money(t, "500.00"),
			Digest:  "feedface",
			Salt:    "abcd1234",
			Active:  true,
		},
		{
			ID:      "100002",
			Name:    `Bob "The Builder" Roe, Jr.`, // delimiter and quotes must survive
			Role:    domain.RoleAdmin,
			Balance: money(t, "0.00"),
			Digest:  "deadbeef",
			Salt:    "4321dcba",
			Active:  false,
		},
	}

	require.NoError(t, st.SaveAccounts(ctx, in))

	out, err := st.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i := range in {
		assert.Equal(t, in[i].ID, out[i].ID)
		assert.Equal(t, in[i].Name, out[i].Name)
		assert.Equal(t, in[i].Role, out[i].Role)
		assert.True(t, in[i].Balance.Equal(out[i].Balance), "balance %s != %s", in[i].Balance, out[i].Balance)
		assert.Equal(t, in[i].Digest, out[i].Digest)
		assert.Equal(t, in[i].Salt, out[i].Salt)
		assert.Equal(t, in[i].Active, out[i].Active)
	}
}

func TestSaveAccounts_ReplacesFullTable(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveAccounts(ctx, []domain.Account{
		{ID: "100001", Name: "A", Role: domain.RoleUser, Balance: money(t, "1.00"), Active: true},
		{ID: "100002", Name: "B", Role: domain.RoleUser, Balance: money(t, "2.00"), Active: true},
	}))
	require.NoError(t, st.SaveAccounts(ctx, []domain.Account{
		{ID: "100003", Name: "C", Role: domain.RoleUser, Balance: money(t, "3.00"), Active: true},
	}))

	out, err := st.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "100003", out[0].ID)
}

func TestSaveAccounts_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, st.SaveAccounts(context.Background(), []domain.Account{
		{ID: "100001", Name: "A", Role: domain.RoleUser, Balance: money(t, "1.00"), Active: true},
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Contains(t, []string{"accounts.csv", "transactions.csv"}, filepath.Base(e.Name()))
	}
}

func TestAppendTransaction_LastNWindow(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, typ := range []domain.TransactionType{domain.TxLogin, domain.TxDeposit, domain.TxWithdraw} {
		require.NoError(t, st.AppendTransaction(ctx, domain.Transaction{
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			AccountID:    "100001",
			Type:         typ,
			Amount:       money(t, "10.00"),
			BalanceAfter: money(t, "510.00"),
			Details:      "entry",
		}))
	}
	// a different account's record must not leak into the window
	require.NoError(t, st.AppendTransaction(ctx, domain.Transaction{
		Timestamp: base.Add(time.Hour),
		AccountID: "100002",
		Type:      domain.TxDeposit,
		Amount:    money(t, "1.00"),
	}))

	got, err := st.LoadLastN(ctx, "100001", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// oldest of the returned window first
	assert.Equal(t, domain.TxDeposit, got[0].Type)
	assert.Equal(t, domain.TxWithdraw, got[1].Type)
}

func TestLoadLastN_NoHistory(t *testing.T) {
	st := newTestStore(t)

	got, err := st.LoadLastN(context.Background(), "100001", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAppendTransaction_RoundTripFreeText(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	in := domain.Transaction{
		Timestamp:    time.Date(2025, 3, 1, 9, 30, 0, 123456789, time.UTC),
		AccountID:    "100001",
		Type:         domain.TxTransferOut,
		Amount:       money(t, "1.00"),
		BalanceAfter: money(t, "504.00"),
		Details:      `Transfer, with "quotes" and, commas`,
		Counterparty: "100002",
	}
	require.NoError(t, st.AppendTransaction(ctx, in))

	got, err := st.LoadLastN(ctx, "100001", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, in.Timestamp, got[0].Timestamp)
	assert.Equal(t, in.Details, got[0].Details)
	assert.Equal(t, in.Counterparty, got[0].Counterparty)
	assert.True(t, in.Amount.Equal(got[0].Amount))
	assert.True(t, in.BalanceAfter.Equal(got[0].BalanceAfter))
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, st.SaveAccounts(ctx, []domain.Account{
		{ID: "100001", Name: "A", Role: domain.RoleUser, Balance: money(t, "500.00"), Active: true},
	}))
	require.NoError(t, st.AppendTransaction(ctx, domain.Transaction{
		Timestamp: time.Now().UTC(), AccountID: "100001", Type: domain.TxDeposit,
		Amount: money(t, "10.00"), BalanceAfter: money(t, "510.00"),
	}))

	reopened, err := NewStore(dir)
	require.NoError(t, err)

	accounts, err := reopened.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "500.00", accounts[0].Balance.StringFixed(2))

	history, err := reopened.LoadLastN(ctx, "100001", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
