package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// JournalLine is one side of a double-entry posting. Exactly one of Debit or
// Credit is non-zero; zero-amount lines are never emitted.
type JournalLine struct {
	LineNumber  int             `json:"lineNumber"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

type account struct {
	code string
	name string
}

// Payroll chart positions: 5xxx expenses on the debit side, 2xxx payables on
// the credit side.
var (
	accountBaseSalary      = account{"5101", "Sueldos Base"}
	accountGratification   = account{"5102", "Gratificacion Legal"}
	accountOvertime        = account{"5103", "Horas Extraordinarias"}
	accountBonuses         = account{"5104", "Bonos y Comisiones"}
	accountAllowances      = account{"5105", "Asignaciones"}
	accountFamilyAllowance = account{"5106", "Asignacion Familiar"}

	accountNetPayable        = account{"2101", "Remuneraciones por Pagar"}
	accountAFPPayable        = account{"2103", "AFP por Pagar"}
	accountHealthPayable     = account{"2104", "Salud por Pagar"}
	accountCesantiaPayable   = account{"2105", "Seguro de Cesantia por Pagar"}
	accountTaxPayable        = account{"2106", "Impuesto Unico por Pagar"}
	accountSolidarityPayable = account{"2107", "Prestamo Solidario por Pagar"}
	accountOtherPayable      = account{"2108", "Otros Descuentos por Pagar"}
)

// balanceTolerance is one cent: anything beyond it rejects the batch.
var balanceTolerance = decimal.RequireFromString("0.01")

// GenerateJournal turns a batch of liquidations into balanced double-entry
// lines, one per-employee block after another, with a single contiguous line
// numbering. The batch is all-or-nothing: any imbalance rejects every line.
func GenerateJournal(results []LiquidationResult) ([]JournalLine, error) {
	var lines []JournalLine
	add := func(acct account, debit, credit decimal.Decimal, description string) {
		if debit.IsZero() && credit.IsZero() {
			return
		}
		lines = append(lines, JournalLine{
			LineNumber:  len(lines) + 1,
			AccountCode: acct.code,
			AccountName: acct.name,
			Debit:       debit,
			Credit:      credit,
			Description: description,
		})
	}

	for _, result := range results {
		description := fmt.Sprintf("Liquidacion %s %s", formatPeriod(result.Year, result.Month), result.EmployeeID)

		add(accountBaseSalary, result.ProportionalSalary, decimal.Zero, description)
		add(accountGratification, result.Gratification, decimal.Zero, description)
		add(accountOvertime, result.Overtime, decimal.Zero, description)
		add(accountBonuses, result.Bonuses, decimal.Zero, description)
		add(accountAllowances, result.Allowances, decimal.Zero, description)
		add(accountFamilyAllowance, result.FamilyAllowance, decimal.Zero, description)

		// AFP commission settles with the same administrator as the
		// contribution, so both ride the same payable line.
		add(accountAFPPayable, decimal.Zero, result.AFP.Add(result.AFPCommission), description)
		add(accountHealthPayable, decimal.Zero, result.Health, description)
		add(accountCesantiaPayable, decimal.Zero, result.Unemployment, description)
		add(accountTaxPayable, decimal.Zero, result.IncomeTax, description)
		add(accountSolidarityPayable, decimal.Zero, result.SolidarityLoan, description)
		add(accountOtherPayable, decimal.Zero, result.OtherDeductions, description)
		add(accountNetPayable, decimal.Zero, result.NetIncome, description)
	}

	if err := ValidateBalance(lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// ValidateBalance checks that debit and credit totals agree to the cent.
func ValidateBalance(lines []JournalLine) error {
	var debits, credits decimal.Decimal
	for _, line := range lines {
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	discrepancy := debits.Sub(credits).Abs()
	if discrepancy.GreaterThan(balanceTolerance) {
		return &UnbalancedEntryError{Debits: debits, Credits: credits, Discrepancy: discrepancy}
	}
	return nil
}
