package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/bank"
	"github.com/josh-kwaku/bank-ledger/internal/config"
	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/security"
	"github.com/josh-kwaku/bank-ledger/internal/store"
	filestore "github.com/josh-kwaku/bank-ledger/internal/store/file"
	pgstore "github.com/josh-kwaku/bank-ledger/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("bank-ledger", cfg.LogLevel, cfg.AppEnv)
	ctx := context.Background()

	st, cleanup, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := seedIfEmpty(ctx, st, cfg.SaltBytes); err != nil {
		slog.Error("failed to seed accounts", "error", err)
		os.Exit(1)
	}

	svc, err := bank.NewService(ctx, st, cfg.SaltBytes)
	if err != nil {
		slog.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	runMenu(ctx, svc, cfg.HistoryDefault)
	slog.Info("shut down cleanly")
}

func openStore(cfg *config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		st, err := filestore.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("openStore: %w", err)
		}
		return st, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("openStore: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("openStore: ping: %w", err)
	}
	return pgstore.NewStore(db), func() { db.Close() }, nil
}

// First run gets two sample customer accounts and one admin so the menu is
// usable out of the box.
func seedIfEmpty(ctx context.Context, st store.Store, saltBytes int) error {
	existing, err := st.LoadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("seedIfEmpty: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	seeds := []struct {
		id, name, secret, balance string
		role                      domain.Role
	}{
		{"100001", "Alice Doe", "1111", "500.00", domain.RoleUser},
		{"100002", "Bob Roe", "2222", "500.00", domain.RoleUser},
		{"999999", "Branch Admin", "0000", "0.00", domain.RoleAdmin},
	}

	accounts := make([]domain.Account, 0, len(seeds))
	for _, s := range seeds {
		salt, err := security.GenerateSalt(saltBytes)
		if err != nil {
			return fmt.Errorf("seedIfEmpty: %w", err)
		}
		balance, err := decimal.NewFromString(s.balance)
		if err != nil {
			return fmt.Errorf("seedIfEmpty: %w", err)
		}
		accounts = append(accounts, domain.Account{
			ID:      s.id,
			Name:    s.name,
			Role:    s.role,
			Balance: domain.Normalize(balance),
			Digest:  security.Hash(s.secret, salt),
			Salt:    salt,
			Active:  true,
		})
	}

	if err := st.SaveAccounts(ctx, accounts); err != nil {
		return fmt.Errorf("seedIfEmpty: %w", err)
	}
	slog.Info("seeded sample accounts", "count", len(accounts))
	return nil
}

func runMenu(ctx context.Context, svc *bank.Service, historyDefault int) {
	in := bufio.NewScanner(os.Stdin)
	fmt.Println("=== Bank Ledger ===")

	for {
		accountID := prompt(in, "\nAccount number (or 'exit'): ")
		if accountID == "" || strings.EqualFold(accountID, "exit") {
			fmt.Println("Goodbye!")
			return
		}
		secret := prompt(in, "PIN: ")

		session, err := svc.Authenticate(ctx, accountID, secret)
		if err != nil {
			fmt.Println("Login failed:", errMessage(err))
			continue
		}
		fmt.Printf("Hello, %s!\n", session.Name)

		if session.IsAdmin() {
			adminMenu(ctx, svc, in, session)
		} else {
			userMenu(ctx, svc, in, session, historyDefault)
		}
	}
}

func userMenu(ctx context.Context, svc *bank.Service, in *bufio.Scanner, session *domain.Session, historyDefault int) {
	for {
		fmt.Println("\n1) Balance  2) Deposit  3) Withdraw  4) Transfer  5) History  6) Logout")
		switch prompt(in, "> ") {
		case "1":
			balance, err := svc.Balance(ctx, session)
			if err != nil {
				fmt.Println("Error:", errMessage(err))
				continue
			}
			fmt.Println("Balance:", balance.StringFixed(2))
		case "2":
			amount, ok := promptAmount(in, "Amount: ")
			if !ok {
				continue
			}
			report(svc.Deposit(ctx, session, amount), "Deposited.")
		case "3":
			amount, ok := promptAmount(in, "Amount: ")
			if !ok {
				continue
			}
			report(svc.Withdraw(ctx, session, amount), "Withdrawn.")
		case "4":
			to := prompt(in, "To account: ")
			amount, ok := promptAmount(in, "Amount: ")
			if !ok {
				continue
			}
			report(svc.Transfer(ctx, session, to, amount), "Transferred.")
		case "5":
			printHistory(ctx, svc, session, historyDefault)
		case "6":
			return
		default:
			fmt.Println("Unknown option.")
		}
	}
}

func adminMenu(ctx context.Context, svc *bank.Service, in *bufio.Scanner, session *domain.Session) {
	for {
		fmt.Println("\n1) List accounts  2) Create account  3) Deactivate account  4) Change PIN  5) Logout")
		switch prompt(in, "> ") {
		case "1":
			accounts, err := svc.ListAccounts(ctx, session)
			if err != nil {
				fmt.Println("Error:", errMessage(err))
				continue
			}
			for _, a := range accounts {
				fmt.Printf("%s  %-20s %-5s %10s  active=%t\n",
					a.ID, a.Name, a.Role, a.Balance.StringFixed(2), a.Active)
			}
		case "2":
			name := prompt(in, "Name: ")
			role := domain.Role(strings.ToUpper(prompt(in, "Role (USER/ADMIN): ")))
			balance, ok := promptAmount(in, "Initial balance: ")
			if !ok {
				continue
			}
			secret := prompt(in, "PIN: ")
			acc, err := svc.CreateAccount(ctx, session, name, role, balance, secret)
			if err != nil {
				fmt.Println("Error:", errMessage(err))
				continue
			}
			fmt.Println("Created account", acc.ID)
		case "3":
			id := prompt(in, "Account number: ")
			report(svc.DeactivateAccount(ctx, session, id), "Deactivated.")
		case "4":
			id := prompt(in, "Account number: ")
			secret := prompt(in, "New PIN: ")
			report(svc.ChangeCredential(ctx, session, id, secret), "Changed.")
		case "5":
			return
		default:
			fmt.Println("Unknown option.")
		}
	}
}

func printHistory(ctx context.Context, svc *bank.Service, session *domain.Session, n int) {
	records, err := svc.LastN(ctx, session, n)
	if err != nil {
		fmt.Println("Error:", errMessage(err))
		return
	}
	if len(records) == 0 {
		fmt.Println("No transactions yet.")
		return
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-14s %10s  balance=%s",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Type,
			r.Amount.StringFixed(2), r.BalanceAfter.StringFixed(2))
		if r.Counterparty != "" {
			line += "  with=" + r.Counterparty
		}
		fmt.Println(line)
	}
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func promptAmount(in *bufio.Scanner, label string) (decimal.Decimal, bool) {
	raw := prompt(in, label)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		fmt.Println("Not a number:", strconv.Quote(raw))
		return decimal.Zero, false
	}
	return amount, true
}

func report(err error, okMsg string) {
	if err != nil {
		fmt.Println("Error:", errMessage(err))
		return
	}
	fmt.Println(okMsg)
}

// errMessage strips the internal call-path prefix, leaving the sentinel text.
func errMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return domain.ErrAuthentication.Error()
	case errors.Is(err, domain.ErrInsufficientFunds):
		return domain.ErrInsufficientFunds.Error()
	case errors.Is(err, domain.ErrPersistence):
		return domain.ErrPersistence.Error()
	default:
		return err.Error()
	}
}
