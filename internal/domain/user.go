package domain

import "github.com/shopspring/decimal"

// StartingBalance is credited to every freshly registered account.
var StartingBalance = decimal.NewFromInt(100000)

// Credential is a stored account row. Only the store mutates Balance;
// the market-data plane reads it (login) or creates it (register).
type Credential struct {
	ID           int64
	Username     string
	PasswordHash string
	Balance      decimal.Decimal
}
