// loadgen hammers one service instance with concurrent deposits, withdrawals
// and opposing transfers between two accounts, then verifies that money was
// conserved. Useful for shaking out lock-ordering regressions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/bank"
	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/security"
	filestore "github.com/josh-kwaku/bank-ledger/internal/store/file"
)

func main() {
	workers := flag.Int("workers", 8, "goroutines per direction")
	ops := flag.Int("ops", 50, "operations per goroutine")
	flag.Parse()

	logging.Init("bank-ledger-loadgen", "warn", "development")
	ctx := context.Background()

	if err := run(ctx, *workers, *ops); err != nil {
		slog.Error("loadgen failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, workers, ops int) error {
	dir, err := os.MkdirTemp("", "bank-loadgen-*")
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := filestore.NewStore(dir)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	start := decimal.RequireFromString("10000.00")
	accounts := make([]domain.Account, 0, 2)
	for _, id := range []string{"100001", "100002"} {
		salt, err := security.GenerateSalt(8)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		accounts = append(accounts, domain.Account{
			ID:      id,
			Name:    "Load " + id,
			Role:    domain.RoleUser,
			Balance: start,
			Digest:  security.Hash("1234", salt),
			Salt:    salt,
			Active:  true,
		})
	}
	if err := st.SaveAccounts(ctx, accounts); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	svc, err := bank.NewService(ctx, st, 8)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	a, err := svc.Authenticate(ctx, "100001", "1234")
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	b, err := svc.Authenticate(ctx, "100002", "1234")
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	one := decimal.RequireFromString("1.00")

	// transfers conserve money; only successful deposits and withdrawals
	// move the expected total
	var deposits, withdrawals atomic.Int64

	var wg sync.WaitGroup
	for range workers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range ops {
				if err := svc.Transfer(ctx, a, b.AccountID, one); err != nil {
					slog.Warn("transfer a->b", "error", err)
				}
				if err := svc.Deposit(ctx, a, one); err != nil {
					slog.Warn("deposit a", "error", err)
				} else {
					deposits.Add(1)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range ops {
				if err := svc.Transfer(ctx, b, a.AccountID, one); err != nil {
					slog.Warn("transfer b->a", "error", err)
				}
				if err := svc.Withdraw(ctx, b, one); err != nil {
					slog.Warn("withdraw b", "error", err)
				} else {
					withdrawals.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	balA, err := svc.Balance(ctx, a)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	balB, err := svc.Balance(ctx, b)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	expected := start.Add(start).
		Add(one.Mul(decimal.NewFromInt(deposits.Load()))).
		Sub(one.Mul(decimal.NewFromInt(withdrawals.Load())))

	fmt.Printf("final balances: %s=%s %s=%s total=%s (expected %s)\n",
		a.AccountID, balA.StringFixed(2),
		b.AccountID, balB.StringFixed(2),
		balA.Add(balB).StringFixed(2), expected.StringFixed(2))

	if !balA.Add(balB).Equal(expected) {
		return fmt.Errorf("run: money not conserved")
	}
	return nil
}
