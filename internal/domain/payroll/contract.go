package payroll

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type ContractType string

const (
	ContractIndefinite ContractType = "indefinite"
	ContractFixedTerm  ContractType = "fixed_term"
)

type ModificationType string

const (
	ModSalaryChange       ModificationType = "salary_change"
	ModHoursChange        ModificationType = "hours_change"
	ModContractTypeChange ModificationType = "contract_type_change"
	ModPositionChange     ModificationType = "position_change"
	ModDepartmentChange   ModificationType = "department_change"
	ModBenefitsChange     ModificationType = "benefits_change"
	ModOther              ModificationType = "other"
)

// Contract holds the terms agreed at hire. Rows are immutable; every later
// change arrives as an Amendment.
type Contract struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employeeId"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     *time.Time      `json:"endDate,omitempty"`
	Type        ContractType    `json:"contractType"`
	BaseSalary  decimal.Decimal `json:"baseSalary"`
	WeeklyHours int             `json:"weeklyHours"`
	Position    string          `json:"position"`
	Department  string          `json:"department"`
}

// ContractDelta is the subset of contract fields an amendment touches. Nil
// fields are left untouched when the delta is folded onto the running state.
type ContractDelta struct {
	BaseSalary  *decimal.Decimal `json:"baseSalary,omitempty"`
	WeeklyHours *int             `json:"weeklyHours,omitempty"`
	Type        *ContractType    `json:"contractType,omitempty"`
	EndDate     *time.Time       `json:"endDate,omitempty"`
	Position    *string          `json:"position,omitempty"`
	Department  *string          `json:"department,omitempty"`
}

// Amendment is an append-only, effective-dated change to a contract. OldValues
// snapshots the replaced fields for audit; it plays no part in resolution.
type Amendment struct {
	ID            string           `json:"id"`
	ContractID    string           `json:"contractId"`
	EffectiveDate time.Time        `json:"effectiveDate"`
	Type          ModificationType `json:"modificationType"`
	OldValues     ContractDelta    `json:"oldValues"`
	NewValues     ContractDelta    `json:"newValues"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// EffectiveContract is the contract state as of a (year, month) cutoff,
// derived by folding amendments. Never persisted.
type EffectiveContract struct {
	Contract
	Year                  int        `json:"year"`
	Month                 time.Month `json:"month"`
	AppliedAmendments     []string   `json:"appliedAmendments"`
	UnemploymentInsurance bool       `json:"unemploymentInsurance"`
}

// Resolve folds the amendments effective on or before the last calendar day of
// (year, month) onto the base contract, oldest first. Amendments sharing an
// effective date keep their slice order, so the later-inserted one wins; the
// caller must pass them in insertion order.
func Resolve(base Contract, amendments []Amendment, year int, month time.Month) (EffectiveContract, error) {
	cutoff := lastDayOfMonth(year, month)
	if cutoff.Before(base.StartDate) {
		return EffectiveContract{}, fmt.Errorf("%w: employee %s, period %s starts before contract date %s",
			ErrNoContractForPeriod, base.EmployeeID, formatPeriod(year, month), base.StartDate.Format("2006-01-02"))
	}

	applicable := make([]Amendment, 0, len(amendments))
	for _, amendment := range amendments {
		if !amendment.EffectiveDate.After(cutoff) {
			applicable = append(applicable, amendment)
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].EffectiveDate.Before(applicable[j].EffectiveDate)
	})

	state := base
	applied := make([]string, 0, len(applicable))
	for _, amendment := range applicable {
		state = applyDelta(state, amendment.NewValues)
		applied = append(applied, amendment.ID)
	}

	// Expiry is judged on the folded state: a superseding amendment may have
	// extended the end date or converted the contract to indefinite.
	if state.Type == ContractFixedTerm && state.EndDate != nil {
		firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		if firstDay.After(*state.EndDate) {
			return EffectiveContract{}, fmt.Errorf("%w: employee %s, period %s is after contract end %s",
				ErrContractExpired, base.EmployeeID, formatPeriod(year, month), state.EndDate.Format("2006-01-02"))
		}
	}

	return EffectiveContract{
		Contract:              state,
		Year:                  year,
		Month:                 month,
		AppliedAmendments:     applied,
		UnemploymentInsurance: state.Type == ContractIndefinite,
	}, nil
}

func applyDelta(state Contract, delta ContractDelta) Contract {
	if delta.BaseSalary != nil {
		state.BaseSalary = *delta.BaseSalary
	}
	if delta.WeeklyHours != nil {
		state.WeeklyHours = *delta.WeeklyHours
	}
	if delta.Type != nil {
		state.Type = *delta.Type
		if state.Type == ContractIndefinite {
			state.EndDate = nil
		}
	}
	if delta.EndDate != nil {
		endDate := *delta.EndDate
		state.EndDate = &endDate
	}
	if delta.Position != nil {
		state.Position = *delta.Position
	}
	if delta.Department != nil {
		state.Department = *delta.Department
	}
	return state
}

func lastDayOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

func formatPeriod(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}
