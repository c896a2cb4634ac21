package bank

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/testutil"
)

func adminService(t *testing.T, extra ...domain.Account) (*Service, *domain.Session) {
	t.Helper()
	accounts := append([]domain.Account{
		testutil.Account(t, "999999", "Branch Admin", domain.RoleAdmin, "0.00", "0000"),
	}, extra...)
	svc := newTestService(t, accounts...)
	return svc, login(t, svc, "999999", "0000")
}

func TestCreateAccount_HappyPath(t *testing.T) {
	svc, admin := adminService(t)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, admin, "  Carol Poe  ", domain.RoleUser, testutil.Money(t, "250.00"), "3333")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), acc.ID)
	assert.Equal(t, "Carol Poe", acc.Name)
	assert.Equal(t, domain.RoleUser, acc.Role)
	assert.True(t, acc.Active)
	assert.Equal(t, "250.00", acc.Balance.StringFixed(2))

	// the fresh credential authenticates
	session, err := svc.Authenticate(ctx, acc.ID, "3333")
	require.NoError(t, err)

	records, err := svc.LastN(ctx, session, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.TxAccountCreate, records[0].Type)
	assert.Equal(t, "250.00", records[0].BalanceAfter.StringFixed(2))
	assert.Equal(t, domain.TxLogin, records[1].Type)
}

func TestCreateAccount_ZeroInitialBalance(t *testing.T) {
	svc, admin := adminService(t)

	acc, err := svc.CreateAccount(context.Background(), admin, "Dave Moe", domain.RoleUser, decimal.Zero, "4444")
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
}

func TestCreateAccount_RequiresAdmin(t *testing.T) {
	svc, _ := adminService(t,
		testutil.Account(t, "100001", "Alice Doe", domain.RoleUser, "500.00", "1111"),
	)
	user := login(t, svc, "100001", "1111")

	_, err := svc.CreateAccount(context.Background(), user, "Eve Foe", domain.RoleUser, decimal.Zero, "5555")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAdmin))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreateAccount_Validation(t *testing.T) {
	svc, admin := adminService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		holder  string
		role    domain.Role
		balance string
		want    error
	}{
		{"blank name", "   ", domain.RoleUser, "0.00", domain.ErrNameRequired},
		{"unknown role", "Carol Poe", domain.Role("SUPERUSER"), "0.00", domain.ErrInvalidRole},
		{"negative balance", "Carol Poe", domain.RoleUser, "-1.00", domain.ErrInvalidAmount},
		{"sub-cent balance", "Carol Poe", domain.RoleUser, "1.005", domain.ErrInvalidAmount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAccount(ctx, admin, tc.holder, tc.role, testutil.Money(t, tc.balance), "3333")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want))
		})
	}
}

func TestCreateAccount_DistinctIdentifiers(t *testing.T) {
	svc, admin := adminService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for range 10 {
		acc, err := svc.CreateAccount(ctx, admin, "Holder", domain.RoleUser, decimal.Zero, "1234")
		require.NoError(t, err)
		assert.False(t, seen[acc.ID], "duplicate identifier %s", acc.ID)
		seen[acc.ID] = true
	}
}

func TestDeactivateAccount_BlocksAuthentication(t *testing.T) {
	svc, admin := adminService(t,
		testutil.Account(t, "100001", "Alice Doe", domain.RoleUser, "500.00", "1111"),
	)
	ctx := context.Background()

	require.NoError(t, svc.DeactivateAccount(ctx, admin, "100001"))

	// correct credential, deactivated account
	_, err := svc.Authenticate(ctx, "100001", "1111")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthentication))

	// the final balance is recorded with the deactivation entry
	records, err := svc.store.LoadLastN(ctx, "100001", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.TxAccountDelete, records[0].Type)
	assert.Equal(t, "500.00", records[0].BalanceAfter.StringFixed(2))
}

func TestDeactivateAccount_Unknown(t *testing.T) {
	svc, admin := adminService(t)

	err := svc.DeactivateAccount(context.Background(), admin, "424242")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownAccount))
}

func TestDeactivateAccount_RequiresAdmin(t *testing.T) {
	svc, _ := adminService(t,
		testutil.Account(t, "100001", "Alice Doe", domain.RoleUser, "500.00", "1111"),
		testutil.Account(t, "100002", "Bob Roe", domain.RoleUser, "500.00", "2222"),
	)
	user := login(t, svc, "100001", "1111")

	err := svc.DeactivateAccount(context.Background(), user, "100002")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAdmin))
}

func TestDeactivateAccount_PersistenceFailureReverts(t *testing.T) {
	svc, fs := newFailingService(t,
		testutil.Account(t, "999999", "Branch Admin", domain.RoleAdmin, "0.00", "0000"),
		testutil.Account(t, "100001", "Alice Doe", domain.RoleUser, "500.00", "1111"),
	)
	ctx := context.Background()
	admin := login(t, svc, "999999", "0000")

	fs.failSave = true
	err := svc.DeactivateAccount(ctx, admin, "100001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPersistence))

	// the account still authenticates
	fs.failSave = false
	_, err = svc.Authenticate(ctx, "100001", "1111")
	require.NoError(t, err)
}

func TestChangeCredential(t *testing.T) {
	svc, admin := adminService(t,
		testutil.Account(t, "100001", "Alice Doe", domain.RoleUser, "500.00", "1111"),
	)
	ctx := context.Background()

	require.NoError(t, svc.ChangeCredential(ctx, admin, "100001", "8888"))

	_, err := svc.Authenticate(ctx, "100001", "1111")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthentication))

	_, err = svc.Authenticate(ctx, "100001", "8888")
	require.NoError(t, err)
}

func TestChangeCredential_Unknown(t *testing.T) {
	svc, admin := adminService(t)

	err := svc.ChangeCredential(context.Background(), admin, "424242", "8888")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownAccount))
}

func TestListAccounts(t *testing.T) {
	svc, admin := adminService(t,
		testutil.Account(t, "100002", "Bob Roe", domain.RoleUser, "500.00", "2222"),
		testutil.Account(t, "100001", "Alice Doe", domain.RoleUser, "500.00", "1111"),
	)

	accounts, err := svc.ListAccounts(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "100001", accounts[0].ID)
	assert.Equal(t, "100002", accounts[1].ID)
	assert.Equal(t, "999999", accounts[2].ID)
}

func TestListAccounts_RequiresAdmin(t *testing.T) {
	svc, _ := adminService(t,
		testutil.Account(t, "100001", "Alice Doe", domain.RoleUser, "500.00", "1111"),
	)
	user := login(t, svc, "100001", "1111")

	_, err := svc.ListAccounts(context.Background(), user)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAdmin))
}
