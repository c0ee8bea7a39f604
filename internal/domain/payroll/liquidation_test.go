package payroll

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testParameters mirrors a plausible legal parameter table: CLP amounts,
// UF-denominated caps, ascending family tiers and tax brackets.
func testParameters() Parameters {
	return Parameters{
		ID:             "p-test",
		ValidFrom:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MinimumWage:    decimal.NewFromInt(500000),
		UFValue:        decimal.NewFromInt(37000),
		MaxImponibleUF: decimal.RequireFromString("84.3"),
		MaxCesantiaUF:  decimal.RequireFromString("126.6"),
		FamilyTiers: []FamilyAllowanceTier{
			{IncomeLimit: decimal.NewFromInt(586227), Amount: decimal.NewFromInt(20328)},
			{IncomeLimit: decimal.NewFromInt(856247), Amount: decimal.NewFromInt(12475)},
			{IncomeLimit: decimal.NewFromInt(1335450), Amount: decimal.NewFromInt(3942)},
		},
		TaxBrackets: []TaxBracket{
			{Threshold: decimal.Zero, Rate: decimal.Zero, Deduction: decimal.Zero},
			{Threshold: decimal.NewFromInt(900000), Rate: decimal.RequireFromString("0.04"), Deduction: decimal.NewFromInt(36000)},
			{Threshold: decimal.NewFromInt(2000000), Rate: decimal.RequireFromString("0.08"), Deduction: decimal.NewFromInt(116000)},
			{Threshold: decimal.NewFromInt(3300000), Rate: decimal.RequireFromString("0.135"), Deduction: decimal.NewFromInt(297500)},
		},
	}
}

func testProfile() EmployeeProfile {
	return EmployeeProfile{
		EmployeeID:        "emp-1",
		AFPCode:           "habitat",
		AFPCommissionRate: decimal.RequireFromString("0.0127"),
		HealthScheme:      HealthFonasa,
	}
}

func effectiveFor(t *testing.T, contract Contract, year int, month time.Month) EffectiveContract {
	t.Helper()
	effective, err := Resolve(contract, nil, year, month)
	require.NoError(t, err)
	return effective
}

func assertAmount(t *testing.T, want int64, got decimal.Decimal, label string) {
	t.Helper()
	assert.True(t, got.Equal(decimal.NewFromInt(want)), "%s: expected %d, got %s", label, want, got)
}

func TestCalculate_FullMonthFonasa(t *testing.T) {
	// GIVEN: 1,500,000 base, full month, Fonasa, no dependents
	// THEN: Every stage lands on the hand-computed peso amounts

	contract := effectiveFor(t, baseContract(), 2024, time.March)
	result, err := Calculate(contract, testParameters(), testProfile(), DefaultInputs())
	require.NoError(t, err)

	assertAmount(t, 1500000, result.ProportionalSalary, "proportional salary")
	assertAmount(t, 375000, result.Gratification, "gratification")
	assertAmount(t, 1875000, result.GrossImponible, "gross imponible")
	assertAmount(t, 1875000, result.GrossIncome, "gross income")
	assertAmount(t, 187500, result.AFP, "afp")
	assertAmount(t, 23813, result.AFPCommission, "afp commission")
	assertAmount(t, 131250, result.Health, "health")
	assertAmount(t, 11250, result.Unemployment, "unemployment")
	assertAmount(t, 1521187, result.TaxableIncome, "taxable income")
	assertAmount(t, 24847, result.IncomeTax, "income tax")
	assertAmount(t, 0, result.SolidarityLoan, "solidarity loan")
	assertAmount(t, 378660, result.TotalDeductions, "total deductions")
	assertAmount(t, 1496340, result.NetIncome, "net income")
	assert.Empty(t, result.Warnings)
}

func TestCalculate_ProportionalForPartialMonth(t *testing.T) {
	inputs := DefaultInputs()
	inputs.WorkedDays = 20

	contract := effectiveFor(t, baseContract(), 2024, time.March)
	result, err := Calculate(contract, testParameters(), testProfile(), inputs)
	require.NoError(t, err)

	assertAmount(t, 1000000, result.ProportionalSalary, "proportional salary")
}

func TestCalculate_GratificationCappedAtMinimumWages(t *testing.T) {
	// 25% of 12,000,000 exceeds 4.75 minimum wages; the cap wins.
	base := baseContract()
	base.BaseSalary = decimal.NewFromInt(12000000)

	contract := effectiveFor(t, base, 2024, time.March)
	result, err := Calculate(contract, testParameters(), testProfile(), DefaultInputs())
	require.NoError(t, err)

	assertAmount(t, 2375000, result.Gratification, "gratification cap")
}

func TestCalculate_ImponibleCapBoundsSocialSecurity(t *testing.T) {
	// Gross imponible 5,000,000 exceeds the 84.3 UF cap of 3,119,100; AFP and
	// health run on the cap, not the gross.
	base := baseContract()
	base.BaseSalary = decimal.NewFromInt(4000000)

	contract := effectiveFor(t, base, 2024, time.March)
	result, err := Calculate(contract, testParameters(), testProfile(), DefaultInputs())
	require.NoError(t, err)

	assertAmount(t, 5000000, result.GrossImponible, "gross imponible")
	assertAmount(t, 3119100, result.CappedImponible, "capped imponible")
	assertAmount(t, 311910, result.AFP, "afp on cap")
	assertAmount(t, 218337, result.Health, "health on cap")
}

func TestCalculate_OvertimeAtSurchargedHourlyRate(t *testing.T) {
	inputs := DefaultInputs()
	inputs.OvertimeHours = decimal.NewFromInt(10)

	contract := effectiveFor(t, baseContract(), 2024, time.March)
	result, err := Calculate(contract, testParameters(), testProfile(), inputs)
	require.NoError(t, err)

	// 1,500,000 / (45 * 4.33) * 10 * 1.5, rounded to the peso.
	assertAmount(t, 115473, result.Overtime, "overtime")
}

func TestCalculate_IsapreFloorsAtLegalMinimum(t *testing.T) {
	profile := testProfile()
	profile.HealthScheme = HealthIsapre
	profile.HealthPlanUF = decimal.NewFromInt(7)

	contract := effectiveFor(t, baseContract(), 2024, time.March)
	result, err := Calculate(contract, testParameters(), profile, DefaultInputs())
	require.NoError(t, err)

	// Plan of 7 UF (259,000) exceeds the 7% minimum of 131,250.
	assertAmount(t, 259000, result.Health, "isapre plan")

	// A cheap plan still pays the statutory 7%.
	profile.HealthPlanUF = decimal.NewFromInt(1)
	result, err = Calculate(contract, testParameters(), profile, DefaultInputs())
	require.NoError(t, err)
	assertAmount(t, 131250, result.Health, "isapre floor")
}

func TestCalculate_FamilyAllowancePerDependent(t *testing.T) {
	base := baseContract()
	base.BaseSalary = decimal.NewFromInt(500000)
	profile := testProfile()
	profile.Dependents = 2

	contract := effectiveFor(t, base, 2024, time.March)
	result, err := Calculate(contract, testParameters(), profile, DefaultInputs())
	require.NoError(t, err)

	// Imponible 625,000 lands in the second tier: 12,475 per dependent.
	assertAmount(t, 24950, result.FamilyAllowance, "family allowance")
	assertAmount(t, 649950, result.GrossIncome, "gross income includes allowance")
	// The allowance never enters the social-security base.
	assertAmount(t, 625000, result.CappedImponible, "capped imponible")
}

func TestCalculate_FixedTermSkipsEmployeeUnemployment(t *testing.T) {
	base := baseContract()
	base.Type = ContractFixedTerm
	endDate := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	base.EndDate = &endDate

	contract := effectiveFor(t, base, 2024, time.March)
	result, err := Calculate(contract, testParameters(), testProfile(), DefaultInputs())
	require.NoError(t, err)

	assertAmount(t, 0, result.Unemployment, "employee unemployment")
	assert.True(t, result.EmployerCosts.Unemployment.IsPositive(), "employer side still contributes")
}

func TestCalculate_SolidarityLoanWhenExemptFromTax(t *testing.T) {
	base := baseContract()
	base.BaseSalary = decimal.NewFromInt(800000)
	profile := testProfile()
	profile.AFPCommissionRate = decimal.RequireFromString("0.0058")

	contract := effectiveFor(t, base, 2024, time.March)
	result, err := Calculate(contract, testParameters(), profile, DefaultInputs())
	require.NoError(t, err)

	assertAmount(t, 0, result.IncomeTax, "income tax")
	assertAmount(t, 818200, result.TaxableIncome, "taxable income")
	assertAmount(t, 5727, result.SolidarityLoan, "solidarity loan")
}

func TestCalculate_NegativeTaxableClampedWithWarning(t *testing.T) {
	// An expensive isapre plan on a small salary drives the taxable base below
	// zero; it clamps to zero and the liquidation flags it.
	base := baseContract()
	base.BaseSalary = decimal.NewFromInt(100000)
	profile := testProfile()
	profile.HealthScheme = HealthIsapre
	profile.HealthPlanUF = decimal.NewFromInt(7)

	contract := effectiveFor(t, base, 2024, time.March)
	result, err := Calculate(contract, testParameters(), profile, DefaultInputs())
	require.NoError(t, err)

	assertAmount(t, 0, result.TaxableIncome, "taxable income clamps to zero")
	assertAmount(t, 0, result.IncomeTax, "income tax")
	assertAmount(t, 0, result.SolidarityLoan, "no solidarity on zero taxable")
	assert.Contains(t, result.Warnings, WarningNegativeTaxable)
}

func TestCalculate_Idempotent(t *testing.T) {
	contract := effectiveFor(t, baseContract(), 2024, time.March)
	inputs := DefaultInputs()
	inputs.OvertimeHours = decimal.NewFromInt(5)
	inputs.Bonuses = decimal.NewFromInt(120000)

	first, err := Calculate(contract, testParameters(), testProfile(), inputs)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Calculate(contract, testParameters(), testProfile(), inputs)
		require.NoError(t, err)
		assert.True(t, first.NetIncome.Equal(again.NetIncome))
		assert.Equal(t, first, again)
	}
}

func TestCalculate_BalanceInvariantAcrossInputs(t *testing.T) {
	salaries := []int64{100000, 500000, 1500000, 4000000, 12000000}
	days := []int{1, 15, 30}

	for _, salary := range salaries {
		for _, workedDays := range days {
			base := baseContract()
			base.BaseSalary = decimal.NewFromInt(salary)
			contract := effectiveFor(t, base, 2024, time.March)

			inputs := DefaultInputs()
			inputs.WorkedDays = workedDays
			inputs.Bonuses = decimal.NewFromInt(salary / 10)
			inputs.OtherDeductions = decimal.NewFromInt(5000)

			result, err := Calculate(contract, testParameters(), testProfile(), inputs)
			require.NoError(t, err)

			diff := result.GrossIncome.Sub(result.TotalDeductions).Sub(result.NetIncome)
			assert.True(t, diff.IsZero(), "salary %d days %d: imbalance %s", salary, workedDays, diff)
		}
	}
}

func TestCalculate_MonotonicInWorkedDays(t *testing.T) {
	// Sweeping the full legal range: more worked days never shrinks the
	// proportional salary.
	contract := effectiveFor(t, baseContract(), 2024, time.March)

	previous := decimal.NewFromInt(-1)
	for workedDays := 0; workedDays <= 30; workedDays++ {
		inputs := DefaultInputs()
		inputs.WorkedDays = workedDays

		result, err := Calculate(contract, testParameters(), testProfile(), inputs)
		require.NoError(t, err)

		assert.True(t, result.ProportionalSalary.GreaterThanOrEqual(previous),
			"worked days %d: proportional salary %s fell below %s", workedDays, result.ProportionalSalary, previous)
		previous = result.ProportionalSalary
	}
}

func TestCalculate_MonotonicInOvertimeHours(t *testing.T) {
	// With an 850,000 base the sweep pushes the taxable income across the
	// 900,000 mark, where the solidarity retention hands off to income tax.
	// Overtime and net pay must still never decrease hour over hour.
	base := baseContract()
	base.BaseSalary = decimal.NewFromInt(850000)
	contract := effectiveFor(t, base, 2024, time.March)

	previousOvertime := decimal.NewFromInt(-1)
	previousNet := decimal.NewFromInt(-1)
	sawSolidarity := false
	sawTax := false
	for hours := 0; hours <= 40; hours++ {
		inputs := DefaultInputs()
		inputs.OvertimeHours = decimal.NewFromInt(int64(hours))

		result, err := Calculate(contract, testParameters(), testProfile(), inputs)
		require.NoError(t, err)

		assert.True(t, result.Overtime.GreaterThanOrEqual(previousOvertime),
			"hours %d: overtime %s fell below %s", hours, result.Overtime, previousOvertime)
		assert.True(t, result.NetIncome.GreaterThanOrEqual(previousNet),
			"hours %d: net %s fell below %s", hours, result.NetIncome, previousNet)
		previousOvertime = result.Overtime
		previousNet = result.NetIncome

		if result.SolidarityLoan.IsPositive() {
			sawSolidarity = true
		}
		if result.IncomeTax.IsPositive() {
			sawTax = true
		}
	}
	require.True(t, sawSolidarity, "sweep never started in the solidarity range")
	require.True(t, sawTax, "sweep never reached the taxed bracket")
}

func TestCalculate_InvalidInputs(t *testing.T) {
	contract := effectiveFor(t, baseContract(), 2024, time.March)

	cases := []struct {
		name   string
		mutate func(*PeriodInputs, *EmployeeProfile)
	}{
		{"negative worked days", func(in *PeriodInputs, _ *EmployeeProfile) { in.WorkedDays = -1 }},
		{"worked days beyond legal month", func(in *PeriodInputs, _ *EmployeeProfile) { in.WorkedDays = 31 }},
		{"negative overtime", func(in *PeriodInputs, _ *EmployeeProfile) { in.OvertimeHours = decimal.NewFromInt(-1) }},
		{"negative bonuses", func(in *PeriodInputs, _ *EmployeeProfile) { in.Bonuses = decimal.NewFromInt(-1) }},
		{"negative allowances", func(in *PeriodInputs, _ *EmployeeProfile) { in.Allowances = decimal.NewFromInt(-1) }},
		{"negative other deductions", func(in *PeriodInputs, _ *EmployeeProfile) { in.OtherDeductions = decimal.NewFromInt(-1) }},
		{"negative commission", func(_ *PeriodInputs, p *EmployeeProfile) { p.AFPCommissionRate = decimal.NewFromInt(-1) }},
		{"negative dependents", func(_ *PeriodInputs, p *EmployeeProfile) { p.Dependents = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inputs := DefaultInputs()
			profile := testProfile()
			tc.mutate(&inputs, &profile)

			_, err := Calculate(contract, testParameters(), profile, inputs)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCalculate_MissingConfiguration(t *testing.T) {
	contract := effectiveFor(t, baseContract(), 2024, time.March)

	noAFP := testProfile()
	noAFP.AFPCode = ""
	_, err := Calculate(contract, testParameters(), noAFP, DefaultInputs())
	assert.ErrorIs(t, err, ErrEmployeeNotConfigured)

	badScheme := testProfile()
	badScheme.HealthScheme = "particular"
	_, err = Calculate(contract, testParameters(), badScheme, DefaultInputs())
	assert.ErrorIs(t, err, ErrEmployeeNotConfigured)
}
