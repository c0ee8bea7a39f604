package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var errImbalance = errors.New("liquidation imbalance")

// Calculate runs the liquidation pipeline for one employee and period. It is a
// pure function: no side effects, identical inputs give identical results. The
// stage order matters because later stages consume capped and rounded values
// from earlier ones.
func Calculate(contract EffectiveContract, params Parameters, profile EmployeeProfile, inputs PeriodInputs) (LiquidationResult, error) {
	if err := validate(contract, profile, inputs); err != nil {
		return LiquidationResult{}, err
	}

	result := LiquidationResult{
		EmployeeID:      contract.EmployeeID,
		Year:            contract.Year,
		Month:           contract.Month,
		Bonuses:         inputs.Bonuses,
		Allowances:      inputs.Allowances,
		OtherDeductions: inputs.OtherDeductions,
	}

	// Salary for days actually worked, over a legal 30-day month.
	workedDays := decimal.NewFromInt(int64(inputs.WorkedDays))
	result.ProportionalSalary = roundPeso(contract.BaseSalary.Mul(workedDays).Div(daysPerMonth))

	// Statutory gratification: 25% of the proportional salary, capped at 4.75
	// monthly minimum wages. The cap is on the minimum wage, never the salary.
	gratification := roundPeso(result.ProportionalSalary.Mul(rateGratification))
	gratificationCap := roundPeso(params.MinimumWage.Mul(gratificationCapWages))
	result.Gratification = decimal.Min(gratification, gratificationCap)

	// Overtime at 1.5x the hourly rate derived from 4.33 weeks per month.
	hourlyRate := contract.BaseSalary.Div(decimal.NewFromInt(int64(contract.WeeklyHours)).Mul(weeksPerMonth))
	result.Overtime = roundPeso(inputs.OvertimeHours.Mul(hourlyRate).Mul(overtimeSurcharge))

	result.GrossImponible = result.ProportionalSalary.
		Add(result.Gratification).
		Add(result.Overtime).
		Add(inputs.Bonuses).
		Add(inputs.Allowances)

	// Family allowance is tiered on imponible income and paid on top of it;
	// it never enters the social-security or tax base.
	if profile.Dependents > 0 {
		perDependent := params.familyAllowanceAmount(result.GrossImponible)
		result.FamilyAllowance = perDependent.Mul(decimal.NewFromInt(int64(profile.Dependents)))
	} else {
		result.FamilyAllowance = decimal.Zero
	}
	result.GrossIncome = result.GrossImponible.Add(result.FamilyAllowance)

	// Social-security deductions run on the UF-capped base.
	imponibleCap := params.MaxImponibleUF.Mul(params.UFValue)
	result.CappedImponible = decimal.Min(result.GrossImponible, imponibleCap)

	result.AFP = roundPeso(result.CappedImponible.Mul(rateAFP))
	result.AFPCommission = roundPeso(result.CappedImponible.Mul(profile.AFPCommissionRate))

	result.Health = roundPeso(result.CappedImponible.Mul(rateHealthMinimum))
	if profile.HealthScheme == HealthIsapre {
		// A private plan never pays less than the statutory 7%.
		planValue := roundPeso(profile.HealthPlanUF.Mul(params.UFValue))
		result.Health = decimal.Max(result.Health, planValue)
	}

	// Unemployment insurance has its own UF cap and only applies to
	// indefinite contracts on the employee side.
	cesantiaBase := decimal.Min(result.GrossImponible, params.MaxCesantiaUF.Mul(params.UFValue))
	result.Unemployment = decimal.Zero
	if contract.UnemploymentInsurance {
		result.Unemployment = roundPeso(cesantiaBase.Mul(rateCesantiaEmployee))
	}

	result.TaxableIncome = result.GrossImponible.
		Sub(result.AFP).
		Sub(result.AFPCommission).
		Sub(result.Health).
		Sub(result.Unemployment)
	if result.TaxableIncome.IsNegative() {
		result.TaxableIncome = decimal.Zero
		result.Warnings = append(result.Warnings, WarningNegativeTaxable)
	}

	bracket := params.taxBracketFor(result.TaxableIncome)
	result.IncomeTax = roundPeso(result.TaxableIncome.Mul(bracket.Rate).Sub(bracket.Deduction))
	if result.IncomeTax.IsNegative() {
		result.IncomeTax = decimal.Zero
	}

	result.SolidarityLoan = decimal.Zero
	if result.IncomeTax.IsZero() && result.TaxableIncome.IsPositive() &&
		result.TaxableIncome.LessThanOrEqual(solidarityIncomeCeiling) {
		result.SolidarityLoan = roundPeso(decimal.Min(result.TaxableIncome.Mul(rateSolidarity), solidarityCap))
	}

	result.TotalDeductions = result.AFP.
		Add(result.AFPCommission).
		Add(result.Health).
		Add(result.Unemployment).
		Add(result.IncomeTax).
		Add(result.SolidarityLoan).
		Add(inputs.OtherDeductions)

	result.NetIncome = result.GrossIncome.Sub(result.TotalDeductions)

	employerRate := rateCesantiaFixedTerm
	if contract.Type == ContractIndefinite {
		employerRate = rateCesantiaIndefinite
	}
	result.EmployerCosts = EmployerCosts{
		SIS:             roundPeso(result.CappedImponible.Mul(rateSIS)),
		Unemployment:    roundPeso(cesantiaBase.Mul(employerRate)),
		MutualInsurance: roundPeso(result.CappedImponible.Mul(rateMutual)),
	}

	if !result.GrossIncome.Sub(result.TotalDeductions).Equal(result.NetIncome) {
		return LiquidationResult{}, fmt.Errorf("%w: employee %s, period %s", errImbalance,
			contract.EmployeeID, formatPeriod(contract.Year, contract.Month))
	}
	return result, nil
}

func validate(contract EffectiveContract, profile EmployeeProfile, inputs PeriodInputs) error {
	fail := func(field string) error {
		return fmt.Errorf("%w: employee %s, period %s, field %s", ErrInvalidInput,
			contract.EmployeeID, formatPeriod(contract.Year, contract.Month), field)
	}
	if contract.BaseSalary.IsNegative() {
		return fail("base_salary")
	}
	if contract.WeeklyHours <= 0 {
		return fail("weekly_hours")
	}
	if inputs.WorkedDays < 0 || inputs.WorkedDays > 30 {
		return fail("worked_days")
	}
	if inputs.OvertimeHours.IsNegative() {
		return fail("overtime_hours")
	}
	if inputs.Bonuses.IsNegative() {
		return fail("bonuses")
	}
	if inputs.Allowances.IsNegative() {
		return fail("allowances")
	}
	if inputs.OtherDeductions.IsNegative() {
		return fail("other_deductions")
	}
	if profile.AFPCommissionRate.IsNegative() {
		return fail("afp_commission_rate")
	}
	if profile.Dependents < 0 {
		return fail("dependents")
	}
	if profile.AFPCode == "" || (profile.HealthScheme != HealthFonasa && profile.HealthScheme != HealthIsapre) {
		return fmt.Errorf("%w: employee %s", ErrEmployeeNotConfigured, contract.EmployeeID)
	}
	return nil
}
