package payroll

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Service struct {
	store *Store
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) Store() *Store {
	return s.store
}

// EffectiveContractFor resolves the contract state of one employee for a
// payroll period, amendments folded in.
func (s *Service) EffectiveContractFor(ctx context.Context, employeeID string, year int, month time.Month) (EffectiveContract, error) {
	contract, err := s.store.ContractForEmployee(ctx, employeeID)
	if err != nil {
		return EffectiveContract{}, err
	}
	amendments, err := s.store.AmendmentsForContract(ctx, contract.ID)
	if err != nil {
		return EffectiveContract{}, err
	}
	return Resolve(contract, amendments, year, month)
}

// LiquidationFor computes, without persisting, the liquidation for one
// employee and period from current stored data.
func (s *Service) LiquidationFor(ctx context.Context, employeeID string, year int, month time.Month) (LiquidationResult, error) {
	records, err := s.store.ListParameters(ctx)
	if err != nil {
		return LiquidationResult{}, err
	}
	params, err := SelectParameters(records, year, month)
	if err != nil {
		return LiquidationResult{}, err
	}

	contract, err := s.EffectiveContractFor(ctx, employeeID, year, month)
	if err != nil {
		return LiquidationResult{}, err
	}

	profile, err := s.store.Profile(ctx, employeeID)
	if err != nil {
		return LiquidationResult{}, err
	}

	inputs, err := s.store.InputsFor(ctx, employeeID, year, month)
	if err != nil {
		return LiquidationResult{}, err
	}

	return Calculate(contract, params, profile, inputs)
}

// SkippedEmployee records why one employee was left out of a period run.
type SkippedEmployee struct {
	EmployeeID string `json:"employeeId"`
	Reason     string `json:"reason"`
}

// RunSummary reports the outcome of a period run: how many liquidations were
// stored, who was skipped and why, and the aggregate totals.
type RunSummary struct {
	Year      int               `json:"year"`
	Month     time.Month        `json:"month"`
	Processed int               `json:"processed"`
	Skipped   []SkippedEmployee `json:"skipped,omitempty"`
	Totals    RunTotals         `json:"totals"`
	Warnings  map[string]int    `json:"warnings,omitempty"`
}

type RunTotals struct {
	Gross      string `json:"gross"`
	Deductions string `json:"deductions"`
	Net        string `json:"net"`
}

// RunPeriod computes and stores liquidations for every active employee. One
// employee failing never aborts the run: the failure is recorded in the
// summary and the loop continues. Re-running a period replaces prior results.
func (s *Service) RunPeriod(ctx context.Context, year int, month time.Month) (RunSummary, error) {
	employees, err := s.store.ListActiveEmployees(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	records, err := s.store.ListParameters(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	params, err := SelectParameters(records, year, month)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Year: year, Month: month, Warnings: map[string]int{}}
	gross, deductions, net := decimal.Zero, decimal.Zero, decimal.Zero

	for _, employee := range employees {
		contract, err := s.EffectiveContractFor(ctx, employee.ID, year, month)
		if err != nil {
			summary.Skipped = append(summary.Skipped, SkippedEmployee{EmployeeID: employee.ID, Reason: err.Error()})
			slog.Warn("payroll: employee skipped", "employeeId", employee.ID, "period", formatPeriod(year, month), "reason", err)
			continue
		}
		profile, err := s.store.Profile(ctx, employee.ID)
		if err != nil {
			summary.Skipped = append(summary.Skipped, SkippedEmployee{EmployeeID: employee.ID, Reason: err.Error()})
			slog.Warn("payroll: employee skipped", "employeeId", employee.ID, "period", formatPeriod(year, month), "reason", err)
			continue
		}
		inputs, err := s.store.InputsFor(ctx, employee.ID, year, month)
		if err != nil {
			return RunSummary{}, err
		}

		result, err := Calculate(contract, params, profile, inputs)
		if err != nil {
			summary.Skipped = append(summary.Skipped, SkippedEmployee{EmployeeID: employee.ID, Reason: err.Error()})
			slog.Warn("payroll: employee skipped", "employeeId", employee.ID, "period", formatPeriod(year, month), "reason", err)
			continue
		}

		if err := s.store.UpsertResult(ctx, result); err != nil {
			return RunSummary{}, err
		}

		summary.Processed++
		gross = gross.Add(result.GrossIncome)
		deductions = deductions.Add(result.TotalDeductions)
		net = net.Add(result.NetIncome)
		for _, warning := range result.Warnings {
			summary.Warnings[warning]++
		}
	}

	summary.Totals = RunTotals{
		Gross:      gross.StringFixed(2),
		Deductions: deductions.StringFixed(2),
		Net:        net.StringFixed(2),
	}
	if len(summary.Warnings) == 0 {
		summary.Warnings = nil
	}
	return summary, nil
}

// JournalForPeriod generates the balanced accounting entry for every stored
// liquidation of a period.
func (s *Service) JournalForPeriod(ctx context.Context, year int, month time.Month) ([]JournalLine, error) {
	results, err := s.store.ResultsForPeriod(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return GenerateJournal(results)
}

// NotFound reports whether the error is the database's no-rows answer, for
// transport-layer status mapping.
func NotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
