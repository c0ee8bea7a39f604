package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoContractForPeriod   = errors.New("no contract in force for the requested period")
	ErrContractExpired       = errors.New("fixed-term contract expired before the requested period")
	ErrNoParametersForPeriod = errors.New("no payroll parameters apply to the requested period")
	ErrEmployeeNotConfigured = errors.New("employee has no AFP or health configuration")
	ErrInvalidInput          = errors.New("invalid liquidation input")
)

// UnbalancedEntryError rejects a whole journal batch whose debit and credit
// totals diverge by more than the tolerated cent.
type UnbalancedEntryError struct {
	Debits      decimal.Decimal
	Credits     decimal.Decimal
	Discrepancy decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("journal batch unbalanced: debits %s, credits %s, discrepancy %s",
		e.Debits.StringFixed(2), e.Credits.StringFixed(2), e.Discrepancy.StringFixed(2))
}
