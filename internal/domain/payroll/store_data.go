package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) ListActiveEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, first_name, last_name, email, status
    FROM employees
    WHERE status = $1
    ORDER BY last_name, first_name
  `, EmployeeStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var employee Employee
		if err := rows.Scan(&employee.ID, &employee.FirstName, &employee.LastName, &employee.Email, &employee.Status); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

func (s *Store) Employee(ctx context.Context, employeeID string) (Employee, error) {
	var employee Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, email, status
    FROM employees
    WHERE id = $1
  `, employeeID).Scan(&employee.ID, &employee.FirstName, &employee.LastName, &employee.Email, &employee.Status)
	return employee, err
}

func (s *Store) CreateEmployee(ctx context.Context, employee Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, email, status)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, employee.FirstName, employee.LastName, employee.Email, EmployeeStatusActive).Scan(&id)
	return id, err
}

// ContractForEmployee returns the employee's base contract. There is one
// contract per employment relationship; changes arrive as amendments.
func (s *Store) ContractForEmployee(ctx context.Context, employeeID string) (Contract, error) {
	var contract Contract
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, start_date, end_date, contract_type, base_salary, weekly_hours, position, department
    FROM contracts
    WHERE employee_id = $1
    ORDER BY start_date DESC
    LIMIT 1
  `, employeeID).Scan(&contract.ID, &contract.EmployeeID, &contract.StartDate, &contract.EndDate,
		&contract.Type, &contract.BaseSalary, &contract.WeeklyHours, &contract.Position, &contract.Department)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, fmt.Errorf("%w: employee %s has no contract", ErrNoContractForPeriod, employeeID)
	}
	return contract, err
}

func (s *Store) Contract(ctx context.Context, contractID string) (Contract, error) {
	var contract Contract
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, start_date, end_date, contract_type, base_salary, weekly_hours, position, department
    FROM contracts
    WHERE id = $1
  `, contractID).Scan(&contract.ID, &contract.EmployeeID, &contract.StartDate, &contract.EndDate,
		&contract.Type, &contract.BaseSalary, &contract.WeeklyHours, &contract.Position, &contract.Department)
	return contract, err
}

func (s *Store) CreateContract(ctx context.Context, contract Contract) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO contracts (employee_id, start_date, end_date, contract_type, base_salary, weekly_hours, position, department)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, contract.EmployeeID, contract.StartDate, contract.EndDate, contract.Type,
		contract.BaseSalary, contract.WeeklyHours, contract.Position, contract.Department).Scan(&id)
	return id, err
}

// AmendmentsForContract returns the append-only amendment log in fold order:
// effective date first, insertion sequence as the documented tie-break.
func (s *Store) AmendmentsForContract(ctx context.Context, contractID string) ([]Amendment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, contract_id, effective_date, modification_type, old_values, new_values, created_at
    FROM contract_amendments
    WHERE contract_id = $1
    ORDER BY effective_date, seq
  `, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var amendments []Amendment
	for rows.Next() {
		var amendment Amendment
		var oldRaw, newRaw []byte
		if err := rows.Scan(&amendment.ID, &amendment.ContractID, &amendment.EffectiveDate,
			&amendment.Type, &oldRaw, &newRaw, &amendment.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(oldRaw, &amendment.OldValues); err != nil {
			return nil, fmt.Errorf("amendment %s old_values: %w", amendment.ID, err)
		}
		if err := json.Unmarshal(newRaw, &amendment.NewValues); err != nil {
			return nil, fmt.Errorf("amendment %s new_values: %w", amendment.ID, err)
		}
		amendments = append(amendments, amendment)
	}
	return amendments, rows.Err()
}

func (s *Store) CreateAmendment(ctx context.Context, amendment Amendment) (string, error) {
	oldRaw, err := json.Marshal(amendment.OldValues)
	if err != nil {
		return "", err
	}
	newRaw, err := json.Marshal(amendment.NewValues)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO contract_amendments (contract_id, effective_date, modification_type, old_values, new_values)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, amendment.ContractID, amendment.EffectiveDate, amendment.Type, oldRaw, newRaw).Scan(&id)
	return id, err
}

func (s *Store) ListParameters(ctx context.Context) ([]Parameters, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, valid_from, minimum_wage, uf_value, max_imponible_uf, max_cesantia_uf, family_tiers, tax_brackets
    FROM payroll_parameters
    ORDER BY valid_from
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Parameters
	for rows.Next() {
		var record Parameters
		var tiersRaw, bracketsRaw []byte
		if err := rows.Scan(&record.ID, &record.ValidFrom, &record.MinimumWage, &record.UFValue,
			&record.MaxImponibleUF, &record.MaxCesantiaUF, &tiersRaw, &bracketsRaw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(tiersRaw, &record.FamilyTiers); err != nil {
			return nil, fmt.Errorf("parameters %s family_tiers: %w", record.ID, err)
		}
		if err := json.Unmarshal(bracketsRaw, &record.TaxBrackets); err != nil {
			return nil, fmt.Errorf("parameters %s tax_brackets: %w", record.ID, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) CreateParameters(ctx context.Context, record Parameters) (string, error) {
	tiersRaw, err := json.Marshal(record.FamilyTiers)
	if err != nil {
		return "", err
	}
	bracketsRaw, err := json.Marshal(record.TaxBrackets)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO payroll_parameters (valid_from, minimum_wage, uf_value, max_imponible_uf, max_cesantia_uf, family_tiers, tax_brackets)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, record.ValidFrom, record.MinimumWage, record.UFValue, record.MaxImponibleUF,
		record.MaxCesantiaUF, tiersRaw, bracketsRaw).Scan(&id)
	return id, err
}

func (s *Store) Profile(ctx context.Context, employeeID string) (EmployeeProfile, error) {
	var profile EmployeeProfile
	err := s.DB.QueryRow(ctx, `
    SELECT employee_id, afp_code, afp_commission_rate, health_scheme, health_plan_uf, dependents
    FROM employee_payroll_config
    WHERE employee_id = $1
  `, employeeID).Scan(&profile.EmployeeID, &profile.AFPCode, &profile.AFPCommissionRate,
		&profile.HealthScheme, &profile.HealthPlanUF, &profile.Dependents)
	if errors.Is(err, pgx.ErrNoRows) {
		return EmployeeProfile{}, fmt.Errorf("%w: employee %s", ErrEmployeeNotConfigured, employeeID)
	}
	return profile, err
}

func (s *Store) UpsertProfile(ctx context.Context, profile EmployeeProfile) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employee_payroll_config (employee_id, afp_code, afp_commission_rate, health_scheme, health_plan_uf, dependents)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (employee_id)
    DO UPDATE SET afp_code = EXCLUDED.afp_code,
                  afp_commission_rate = EXCLUDED.afp_commission_rate,
                  health_scheme = EXCLUDED.health_scheme,
                  health_plan_uf = EXCLUDED.health_plan_uf,
                  dependents = EXCLUDED.dependents
  `, profile.EmployeeID, profile.AFPCode, profile.AFPCommissionRate,
		profile.HealthScheme, profile.HealthPlanUF, profile.Dependents)
	return err
}

// InputsFor returns the stored period inputs, or a full default month when
// none were entered.
func (s *Store) InputsFor(ctx context.Context, employeeID string, year int, month time.Month) (PeriodInputs, error) {
	inputs := DefaultInputs()
	err := s.DB.QueryRow(ctx, `
    SELECT worked_days, overtime_hours, bonuses, allowances, other_deductions
    FROM period_inputs
    WHERE employee_id = $1 AND year = $2 AND month = $3
  `, employeeID, year, int(month)).Scan(&inputs.WorkedDays, &inputs.OvertimeHours,
		&inputs.Bonuses, &inputs.Allowances, &inputs.OtherDeductions)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultInputs(), nil
	}
	return inputs, err
}

func (s *Store) UpsertInputs(ctx context.Context, employeeID string, year int, month time.Month, inputs PeriodInputs) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO period_inputs (employee_id, year, month, worked_days, overtime_hours, bonuses, allowances, other_deductions)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    ON CONFLICT (employee_id, year, month)
    DO UPDATE SET worked_days = EXCLUDED.worked_days,
                  overtime_hours = EXCLUDED.overtime_hours,
                  bonuses = EXCLUDED.bonuses,
                  allowances = EXCLUDED.allowances,
                  other_deductions = EXCLUDED.other_deductions
  `, employeeID, year, int(month), inputs.WorkedDays, inputs.OvertimeHours,
		inputs.Bonuses, inputs.Allowances, inputs.OtherDeductions)
	return err
}

// UpsertResult persists a liquidation idempotently: recomputing a period
// replaces the stored row for the same employee and month.
func (s *Store) UpsertResult(ctx context.Context, result LiquidationResult) error {
	detail, err := json.Marshal(result)
	if err != nil {
		return err
	}
	warnings := []byte("[]")
	if len(result.Warnings) > 0 {
		if warnings, err = json.Marshal(result.Warnings); err != nil {
			return err
		}
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO liquidation_results (employee_id, year, month, gross, deductions, net, detail, warnings_json)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    ON CONFLICT (employee_id, year, month)
    DO UPDATE SET gross = EXCLUDED.gross,
                  deductions = EXCLUDED.deductions,
                  net = EXCLUDED.net,
                  detail = EXCLUDED.detail,
                  warnings_json = EXCLUDED.warnings_json
  `, result.EmployeeID, result.Year, int(result.Month),
		result.GrossIncome, result.TotalDeductions, result.NetIncome, detail, warnings)
	return err
}

func (s *Store) ResultsForPeriod(ctx context.Context, year int, month time.Month) ([]LiquidationResult, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT detail
    FROM liquidation_results
    WHERE year = $1 AND month = $2
    ORDER BY employee_id
  `, year, int(month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []LiquidationResult
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var result LiquidationResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (s *Store) ResultFor(ctx context.Context, employeeID string, year int, month time.Month) (LiquidationResult, error) {
	var raw []byte
	err := s.DB.QueryRow(ctx, `
    SELECT detail
    FROM liquidation_results
    WHERE employee_id = $1 AND year = $2 AND month = $3
  `, employeeID, year, int(month)).Scan(&raw)
	if err != nil {
		return LiquidationResult{}, err
	}
	var result LiquidationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return LiquidationResult{}, err
	}
	return result, nil
}

func (s *Store) RegisterRows(ctx context.Context, year int, month time.Month) ([]RegisterRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.first_name, e.last_name, r.gross, r.deductions, r.net
    FROM liquidation_results r
    JOIN employees e ON r.employee_id = e.id
    WHERE r.year = $1 AND r.month = $2
    ORDER BY e.last_name, e.first_name
  `, year, int(month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegisterRow
	for rows.Next() {
		var row RegisterRow
		if err := rows.Scan(&row.EmployeeID, &row.FirstName, &row.LastName, &row.Gross, &row.Deductions, &row.Net); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
