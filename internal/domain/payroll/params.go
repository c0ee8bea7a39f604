package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TaxBracket is one row of the progressive income-tax table: tax is
// taxable*Rate - Deduction for the bracket with the highest Threshold not
// exceeding the taxable income.
type TaxBracket struct {
	Threshold decimal.Decimal `json:"threshold"`
	Rate      decimal.Decimal `json:"rate"`
	Deduction decimal.Decimal `json:"deduction"`
}

// FamilyAllowanceTier pays Amount per dependent while the imponible income
// stays at or below IncomeLimit. Tiers are ordered by ascending limit.
type FamilyAllowanceTier struct {
	IncomeLimit decimal.Decimal `json:"incomeLimit"`
	Amount      decimal.Decimal `json:"amount"`
}

// Parameters is the legal parameter table for one validity window. A record
// applies from ValidFrom until superseded by a later one. Values are data, not
// code, so each legal period can swap the tables without a deploy.
type Parameters struct {
	ID             string                `json:"id"`
	ValidFrom      time.Time             `json:"validFrom"`
	MinimumWage    decimal.Decimal       `json:"minimumWage"`
	UFValue        decimal.Decimal       `json:"ufValue"`
	MaxImponibleUF decimal.Decimal       `json:"maxImponibleUf"`
	MaxCesantiaUF  decimal.Decimal       `json:"maxCesantiaUf"`
	FamilyTiers    []FamilyAllowanceTier `json:"familyAllowanceTiers"`
	TaxBrackets    []TaxBracket          `json:"taxBrackets"`
}

// SelectParameters picks the most recent record whose ValidFrom does not fall
// after the first day of (year, month). Callers pass the full history so a
// single batch can span legal periods without global state.
func SelectParameters(records []Parameters, year int, month time.Month) (Parameters, error) {
	periodStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	var selected *Parameters
	for i := range records {
		record := &records[i]
		if record.ValidFrom.After(periodStart) {
			continue
		}
		if selected == nil || record.ValidFrom.After(selected.ValidFrom) {
			selected = record
		}
	}
	if selected == nil {
		return Parameters{}, fmt.Errorf("%w: period %s", ErrNoParametersForPeriod, formatPeriod(year, month))
	}
	return *selected, nil
}

// familyAllowanceAmount returns the per-dependent amount of the first tier
// whose limit covers the income, zero when income exceeds every tier.
func (p Parameters) familyAllowanceAmount(income decimal.Decimal) decimal.Decimal {
	for _, tier := range p.FamilyTiers {
		if income.LessThanOrEqual(tier.IncomeLimit) {
			return tier.Amount
		}
	}
	return decimal.Zero
}

// taxBracketFor returns the bracket with the highest threshold at or below the
// taxable income. Brackets are ordered ascending; the first row is expected to
// carry a zero threshold (the exempt tranche).
func (p Parameters) taxBracketFor(taxable decimal.Decimal) TaxBracket {
	var bracket TaxBracket
	for _, candidate := range p.TaxBrackets {
		if candidate.Threshold.GreaterThan(taxable) {
			break
		}
		bracket = candidate
	}
	return bracket
}
