package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxLogin          TransactionType = "LOGIN"
	TxBalanceInquiry TransactionType = "BALANCE_INQUIRY"
	TxDeposit        TransactionType = "DEPOSIT"
	TxWithdraw       TransactionType = "WITHDRAW"
	TxTransferIn     TransactionType = "TRANSFER_IN"
	TxTransferOut    TransactionType = "TRANSFER_OUT"
	TxAccountCreate  TransactionType = "ACCOUNT_CREATE"
	TxAccountDelete  TransactionType = "ACCOUNT_DELETE"
)

// Transaction is one immutable history record. Amount is zero for
// non-monetary events (LOGIN, ACCOUNT_CREATE, ACCOUNT_DELETE); Counterparty
// is set only for transfers. Append order is the authoritative chronological
// order for an account.
type Transaction struct {
	Timestamp    time.Time
	AccountID    string
	Type         TransactionType
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	Details      string
	Counterparty string
}
