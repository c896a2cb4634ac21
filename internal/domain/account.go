package domain

import (
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is a ledger entry holder. Balance always carries exactly two
// fractional digits; an inactive account accepts no authentication and no
// further mutation.
type Account struct {
	ID      string
	Name    string
	Role    Role
	Balance decimal.Decimal
	Digest  string
	Salt    string
	Active  bool
}
