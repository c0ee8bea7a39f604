package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeProfile is the payroll configuration loaded alongside the contract:
// pension fund, health scheme and dependents. Without it no liquidation can be
// computed.
type EmployeeProfile struct {
	EmployeeID        string          `json:"employeeId"`
	AFPCode           string          `json:"afpCode"`
	AFPCommissionRate decimal.Decimal `json:"afpCommissionRate"`
	HealthScheme      string          `json:"healthScheme"`
	HealthPlanUF      decimal.Decimal `json:"healthPlanUf"`
	Dependents        int             `json:"dependents"`
}

// PeriodInputs carries the per-month variable inputs, sourced from timesheets
// or manual entry. WorkedDays defaults to a full month at the transport layer.
type PeriodInputs struct {
	WorkedDays      int             `json:"workedDays"`
	OvertimeHours   decimal.Decimal `json:"overtimeHours"`
	Bonuses         decimal.Decimal `json:"bonuses"`
	Allowances      decimal.Decimal `json:"allowances"`
	OtherDeductions decimal.Decimal `json:"otherDeductions"`
}

// DefaultInputs is a full month with no extras.
func DefaultInputs() PeriodInputs {
	return PeriodInputs{WorkedDays: 30}
}

// EmployerCosts are informational employer-side charges reported next to the
// liquidation; they never touch the employee's net pay.
type EmployerCosts struct {
	SIS             decimal.Decimal `json:"sis"`
	Unemployment    decimal.Decimal `json:"unemployment"`
	MutualInsurance decimal.Decimal `json:"mutualInsurance"`
}

// LiquidationResult is the fully itemized outcome for one employee and period.
// Invariant: GrossIncome - TotalDeductions == NetIncome, to the cent.
type LiquidationResult struct {
	EmployeeID string     `json:"employeeId"`
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`

	ProportionalSalary decimal.Decimal `json:"proportionalSalary"`
	Gratification      decimal.Decimal `json:"gratification"`
	Overtime           decimal.Decimal `json:"overtime"`
	Bonuses            decimal.Decimal `json:"bonuses"`
	Allowances         decimal.Decimal `json:"allowances"`
	FamilyAllowance    decimal.Decimal `json:"familyAllowance"`

	GrossImponible  decimal.Decimal `json:"grossImponible"`
	CappedImponible decimal.Decimal `json:"cappedImponible"`
	GrossIncome     decimal.Decimal `json:"grossIncome"`

	AFP             decimal.Decimal `json:"afp"`
	AFPCommission   decimal.Decimal `json:"afpCommission"`
	Health          decimal.Decimal `json:"health"`
	Unemployment    decimal.Decimal `json:"unemployment"`
	TaxableIncome   decimal.Decimal `json:"taxableIncome"`
	IncomeTax       decimal.Decimal `json:"incomeTax"`
	SolidarityLoan  decimal.Decimal `json:"solidarityLoan"`
	OtherDeductions decimal.Decimal `json:"otherDeductions"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`

	NetIncome decimal.Decimal `json:"netIncome"`

	EmployerCosts EmployerCosts `json:"employerCosts"`
	Warnings      []string      `json:"warnings,omitempty"`
}
