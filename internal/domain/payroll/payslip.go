package payroll

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// GeneratePayslipPDF renders the itemized liquidation of one employee and
// period to a PDF under dir and returns the file path. The liquidation must
// already be stored for the period.
func (s *Service) GeneratePayslipPDF(ctx context.Context, dir, employeeID string, year int, month time.Month) (string, error) {
	employee, err := s.store.Employee(ctx, employeeID)
	if err != nil {
		return "", err
	}
	result, err := s.store.ResultFor(ctx, employeeID, year, month)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(dir, fmt.Sprintf("%s-%s.pdf", employeeID, formatPeriod(year, month)))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Liquidacion de Sueldo")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Empleado: %s %s", employee.FirstName, employee.LastName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Periodo: %s", formatPeriod(year, month)))
	pdf.Ln(10)

	line := func(label string, amount decimal.Decimal) {
		pdf.Cell(120, 7, label)
		pdf.CellFormat(50, 7, amount.StringFixed(0), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 12)
	}

	section("Haberes")
	line("Sueldo base proporcional", result.ProportionalSalary)
	line("Gratificacion legal", result.Gratification)
	if !result.Overtime.IsZero() {
		line("Horas extraordinarias", result.Overtime)
	}
	if !result.Bonuses.IsZero() {
		line("Bonos", result.Bonuses)
	}
	if !result.Allowances.IsZero() {
		line("Asignaciones", result.Allowances)
	}
	if !result.FamilyAllowance.IsZero() {
		line("Asignacion familiar", result.FamilyAllowance)
	}
	line("Total haberes", result.GrossIncome)
	pdf.Ln(3)

	section("Descuentos")
	line("AFP", result.AFP.Add(result.AFPCommission))
	line("Salud", result.Health)
	if !result.Unemployment.IsZero() {
		line("Seguro de cesantia", result.Unemployment)
	}
	if !result.IncomeTax.IsZero() {
		line("Impuesto unico", result.IncomeTax)
	}
	if !result.SolidarityLoan.IsZero() {
		line("Prestamo solidario", result.SolidarityLoan)
	}
	if !result.OtherDeductions.IsZero() {
		line("Otros descuentos", result.OtherDeductions)
	}
	line("Total descuentos", result.TotalDeductions)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	line("Liquido a pagar", result.NetIncome)

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
