package payroll

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Employee is the slice of the employee record payroll needs: identity for
// payslips and journal descriptions, status for run selection.
type Employee struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Status    string `json:"status"`
}

const EmployeeStatusActive = "active"

// RegisterRow is one line of the payroll register export.
type RegisterRow struct {
	EmployeeID string
	FirstName  string
	LastName   string
	Gross      decimal.Decimal
	Deductions decimal.Decimal
	Net        decimal.Decimal
}
