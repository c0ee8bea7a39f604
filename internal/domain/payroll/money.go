package payroll

import "github.com/shopspring/decimal"

// roundPeso rounds to the whole currency unit, half up. Amounts in this domain
// are never negative at the point of rounding, so decimal's half-away-from-zero
// behaves as half up. Every pipeline stage that produces money passes through
// here; changing the policy in one place keeps the balance invariant intact.
func roundPeso(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}
