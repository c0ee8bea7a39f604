package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"remu/internal/domain/payroll"
	"remu/internal/platform/config"
)

// Seed loads the legal parameter tables a fresh install needs and, when
// enabled, a small demo roster. Every insert is idempotent so restarts are
// safe.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	store := payroll.NewStore(pool)

	for _, record := range defaultParameters() {
		if err := ensureParameters(ctx, pool, store, record); err != nil {
			return err
		}
	}

	if cfg.RunSeed && cfg.Environment != "production" {
		if err := seedDemoRoster(ctx, pool, store); err != nil {
			return err
		}
	}

	return nil
}

// defaultParameters carries the published 2024 values: minimum wage steps,
// UF-denominated contribution caps, family allowance tiers and the monthly
// progressive tax table.
func defaultParameters() []payroll.Parameters {
	firstHalf := payroll.Parameters{
		ValidFrom:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MinimumWage:    decimal.NewFromInt(460000),
		UFValue:        decimal.NewFromInt(36789),
		MaxImponibleUF: decimal.RequireFromString("84.3"),
		MaxCesantiaUF:  decimal.RequireFromString("126.6"),
		FamilyTiers: []payroll.FamilyAllowanceTier{
			{IncomeLimit: decimal.NewFromInt(586227), Amount: decimal.NewFromInt(20328)},
			{IncomeLimit: decimal.NewFromInt(856247), Amount: decimal.NewFromInt(12475)},
			{IncomeLimit: decimal.NewFromInt(1335450), Amount: decimal.NewFromInt(3942)},
		},
		TaxBrackets: []payroll.TaxBracket{
			{Threshold: decimal.Zero, Rate: decimal.Zero, Deduction: decimal.Zero},
			{Threshold: decimal.NewFromInt(879437), Rate: decimal.RequireFromString("0.04"), Deduction: decimal.NewFromInt(35177)},
			{Threshold: decimal.NewFromInt(1954305), Rate: decimal.RequireFromString("0.08"), Deduction: decimal.NewFromInt(113349)},
			{Threshold: decimal.NewFromInt(3257175), Rate: decimal.RequireFromString("0.135"), Deduction: decimal.NewFromInt(292494)},
			{Threshold: decimal.NewFromInt(4560045), Rate: decimal.RequireFromString("0.23"), Deduction: decimal.NewFromInt(725698)},
			{Threshold: decimal.NewFromInt(5862915), Rate: decimal.RequireFromString("0.304"), Deduction: decimal.NewFromInt(1159554)},
			{Threshold: decimal.NewFromInt(7817220), Rate: decimal.RequireFromString("0.35"), Deduction: decimal.NewFromInt(1519146)},
		},
	}

	secondHalf := firstHalf
	secondHalf.ValidFrom = time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	secondHalf.MinimumWage = decimal.NewFromInt(500000)
	secondHalf.UFValue = decimal.NewFromInt(37650)
	return []payroll.Parameters{firstHalf, secondHalf}
}

func ensureParameters(ctx context.Context, pool *pgxpool.Pool, store *payroll.Store, record payroll.Parameters) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_parameters WHERE valid_from = $1", record.ValidFrom).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := store.CreateParameters(ctx, record)
	return err
}

func seedDemoRoster(ctx context.Context, pool *pgxpool.Pool, store *payroll.Store) error {
	type demoEmployee struct {
		employee payroll.Employee
		contract payroll.Contract
		profile  payroll.EmployeeProfile
	}

	endDate := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	roster := []demoEmployee{
		{
			employee: payroll.Employee{FirstName: "Valentina", LastName: "Rojas", Email: "valentina.rojas@example.cl"},
			contract: payroll.Contract{
				StartDate:   time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
				Type:        payroll.ContractIndefinite,
				BaseSalary:  decimal.NewFromInt(1500000),
				WeeklyHours: 45,
				Position:    "Analista de Finanzas",
				Department:  "Finanzas",
			},
			profile: payroll.EmployeeProfile{
				AFPCode:           "habitat",
				AFPCommissionRate: decimal.RequireFromString("0.0127"),
				HealthScheme:      payroll.HealthFonasa,
				Dependents:        1,
			},
		},
		{
			employee: payroll.Employee{FirstName: "Matias", LastName: "Fuentes", Email: "matias.fuentes@example.cl"},
			contract: payroll.Contract{
				StartDate:   time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
				EndDate:     &endDate,
				Type:        payroll.ContractFixedTerm,
				BaseSalary:  decimal.NewFromInt(850000),
				WeeklyHours: 45,
				Position:    "Asistente de Operaciones",
				Department:  "Operaciones",
			},
			profile: payroll.EmployeeProfile{
				AFPCode:           "modelo",
				AFPCommissionRate: decimal.RequireFromString("0.0058"),
				HealthScheme:      payroll.HealthFonasa,
			},
		},
	}

	for _, entry := range roster {
		var employeeID string
		err := pool.QueryRow(ctx, "SELECT id FROM employees WHERE email = $1", entry.employee.Email).Scan(&employeeID)
		if err == nil {
			continue
		}

		employeeID, err = store.CreateEmployee(ctx, entry.employee)
		if err != nil {
			return err
		}

		contract := entry.contract
		contract.EmployeeID = employeeID
		if _, err := store.CreateContract(ctx, contract); err != nil {
			return err
		}

		profile := entry.profile
		profile.EmployeeID = employeeID
		if err := store.UpsertProfile(ctx, profile); err != nil {
			return err
		}
	}

	return nil
}
