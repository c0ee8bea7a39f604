package payrollhandler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"remu/internal/domain/audit"
	"remu/internal/domain/payroll"
	"remu/internal/transport/http/api"
	"remu/internal/transport/http/middleware"
	"remu/internal/transport/http/shared"
)

type Handler struct {
	service    *payroll.Service
	audit      *audit.Service
	payslipDir string
}

func NewHandler(db *pgxpool.Pool, payslipDir string) *Handler {
	return &Handler{service: payroll.NewService(db), audit: audit.New(db), payslipDir: payslipDir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Get("/parameters", h.handleListParameters)
		r.Post("/parameters", h.handleCreateParameters)

		r.Get("/employees/{employeeID}/config", h.handleGetConfig)
		r.Put("/employees/{employeeID}/config", h.handleUpsertConfig)

		r.Route("/periods/{period}", func(r chi.Router) {
			r.Put("/inputs/{employeeID}", h.handleUpsertInputs)
			r.Get("/liquidations/{employeeID}", h.handlePreviewLiquidation)
			r.Post("/run", h.handleRunPeriod)
			r.Get("/results", h.handleListResults)
			r.Get("/journal", h.handleJournal)
			r.Get("/register", h.handleExportRegister)
			r.Get("/payslips/{employeeID}", h.handleDownloadPayslip)
		})
	})
}

func (h *Handler) handleListParameters(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Store().ListParameters(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "parameters_list_failed", "failed to list parameters", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

type parametersPayload struct {
	ValidFrom      string                        `json:"validFrom"`
	MinimumWage    decimal.Decimal               `json:"minimumWage"`
	UFValue        decimal.Decimal               `json:"ufValue"`
	MaxImponibleUF decimal.Decimal               `json:"maxImponibleUf"`
	MaxCesantiaUF  decimal.Decimal               `json:"maxCesantiaUf"`
	FamilyTiers    []payroll.FamilyAllowanceTier `json:"familyAllowanceTiers"`
	TaxBrackets    []payroll.TaxBracket          `json:"taxBrackets"`
}

func (h *Handler) handleCreateParameters(w http.ResponseWriter, r *http.Request) {
	var payload parametersPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	validFrom, _ := v.Date("validFrom", payload.ValidFrom)
	if !payload.MinimumWage.IsPositive() {
		v.Add("minimumWage", "must be positive")
	}
	if !payload.UFValue.IsPositive() {
		v.Add("ufValue", "must be positive")
	}
	if !payload.MaxImponibleUF.IsPositive() {
		v.Add("maxImponibleUf", "must be positive")
	}
	if !payload.MaxCesantiaUF.IsPositive() {
		v.Add("maxCesantiaUf", "must be positive")
	}
	if len(payload.TaxBrackets) == 0 {
		v.Add("taxBrackets", "at least one bracket is required")
	}
	// The bracket and tier lookups walk the tables in order; out-of-order rows
	// would silently select the wrong entry.
	for i := 1; i < len(payload.TaxBrackets); i++ {
		if !payload.TaxBrackets[i].Threshold.GreaterThan(payload.TaxBrackets[i-1].Threshold) {
			v.Add("taxBrackets", "thresholds must be strictly ascending")
			break
		}
	}
	for i := 1; i < len(payload.FamilyTiers); i++ {
		if !payload.FamilyTiers[i].IncomeLimit.GreaterThan(payload.FamilyTiers[i-1].IncomeLimit) {
			v.Add("familyAllowanceTiers", "income limits must be strictly ascending")
			break
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	record := payroll.Parameters{
		ValidFrom:      validFrom,
		MinimumWage:    payload.MinimumWage,
		UFValue:        payload.UFValue,
		MaxImponibleUF: payload.MaxImponibleUF,
		MaxCesantiaUF:  payload.MaxCesantiaUF,
		FamilyTiers:    payload.FamilyTiers,
		TaxBrackets:    payload.TaxBrackets,
	}

	id, err := h.service.Store().CreateParameters(r.Context(), record)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "parameters_create_failed", "failed to create parameters", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.audit.Record(r.Context(), "parameters.create", "payroll_parameters", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit parameters.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Store().Profile(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		if errors.Is(err, payroll.ErrEmployeeNotConfigured) {
			api.Fail(w, http.StatusNotFound, "employee_not_configured", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "config_load_failed", "failed to load payroll config", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, profile, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpsertConfig(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var payload payroll.EmployeeProfile
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.EmployeeID = employeeID

	v := shared.NewValidator()
	v.Required("afpCode", payload.AFPCode, "afp code is required")
	v.Enum("healthScheme", payload.HealthScheme,
		[]string{payroll.HealthFonasa, payroll.HealthIsapre},
		"must be fonasa or isapre")
	if payload.AFPCommissionRate.IsNegative() {
		v.Add("afpCommissionRate", "must not be negative")
	}
	if payload.HealthScheme == payroll.HealthIsapre && !payload.HealthPlanUF.IsPositive() {
		v.Add("healthPlanUf", "isapre plans require a positive UF value")
	}
	if payload.Dependents < 0 {
		v.Add("dependents", "must not be negative")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.service.Store().UpsertProfile(r.Context(), payload); err != nil {
		api.Fail(w, http.StatusInternalServerError, "config_save_failed", "failed to save payroll config", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.audit.Record(r.Context(), "config.upsert", "employee_payroll_config", employeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit config.upsert failed: %v", err)
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

type inputsPayload struct {
	WorkedDays      *int            `json:"workedDays"`
	OvertimeHours   decimal.Decimal `json:"overtimeHours"`
	Bonuses         decimal.Decimal `json:"bonuses"`
	Allowances      decimal.Decimal `json:"allowances"`
	OtherDeductions decimal.Decimal `json:"otherDeductions"`
}

func (h *Handler) handleUpsertInputs(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	year, month, err := shared.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	var payload inputsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	// An absent workedDays means a full month.
	inputs := payroll.DefaultInputs()
	if payload.WorkedDays != nil {
		inputs.WorkedDays = *payload.WorkedDays
	}
	inputs.OvertimeHours = payload.OvertimeHours
	inputs.Bonuses = payload.Bonuses
	inputs.Allowances = payload.Allowances
	inputs.OtherDeductions = payload.OtherDeductions

	v := shared.NewValidator()
	if inputs.WorkedDays < 0 || inputs.WorkedDays > 30 {
		v.Add("workedDays", "must be between 0 and 30")
	}
	if inputs.OvertimeHours.IsNegative() {
		v.Add("overtimeHours", "must not be negative")
	}
	if inputs.Bonuses.IsNegative() {
		v.Add("bonuses", "must not be negative")
	}
	if inputs.Allowances.IsNegative() {
		v.Add("allowances", "must not be negative")
	}
	if inputs.OtherDeductions.IsNegative() {
		v.Add("otherDeductions", "must not be negative")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.service.Store().UpsertInputs(r.Context(), employeeID, year, month, inputs); err != nil {
		api.Fail(w, http.StatusInternalServerError, "inputs_save_failed", "failed to save period inputs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, inputs, middleware.GetRequestID(r.Context()))
}

// handlePreviewLiquidation computes a liquidation from current data without
// persisting it.
func (h *Handler) handlePreviewLiquidation(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	year, month, err := shared.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.service.LiquidationFor(r.Context(), employeeID, year, month)
	if err != nil {
		status, code := liquidationErrorStatus(err)
		api.Fail(w, status, code, err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunPeriod(w http.ResponseWriter, r *http.Request) {
	year, month, err := shared.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	summary, err := h.service.RunPeriod(r.Context(), year, month)
	if err != nil {
		status, code := liquidationErrorStatus(err)
		api.Fail(w, status, code, err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.audit.Record(r.Context(), "period.run", "payroll_period", fmt.Sprintf("%04d-%02d", year, int(month)), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, summary); err != nil {
		log.Printf("audit period.run failed: %v", err)
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	year, month, err := shared.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	results, err := h.service.Store().ResultsForPeriod(r.Context(), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "results_list_failed", "failed to list results", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, results, middleware.GetRequestID(r.Context()))
}

// handleJournal returns the balanced accounting entry for a period, as JSON
// or CSV (?format=csv).
func (h *Handler) handleJournal(w http.ResponseWriter, r *http.Request) {
	year, month, err := shared.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	lines, err := h.service.JournalForPeriod(r.Context(), year, month)
	if err != nil {
		var unbalanced *payroll.UnbalancedEntryError
		if errors.As(err, &unbalanced) {
			api.FailWithDetails(w, http.StatusConflict, "unbalanced_entry", unbalanced.Error(), map[string]string{
				"debits":      unbalanced.Debits.StringFixed(2),
				"credits":     unbalanced.Credits.StringFixed(2),
				"discrepancy": unbalanced.Discrepancy.StringFixed(2),
			}, middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "journal_failed", "failed to generate journal", middleware.GetRequestID(r.Context()))
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		api.Success(w, lines, middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=journal-%04d-%02d.csv", year, int(month)))
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"line", "account_code", "account_name", "debit", "credit", "description"}); err != nil {
		log.Printf("journal csv header write failed: %v", err)
	}
	for _, line := range lines {
		record := []string{
			fmt.Sprintf("%d", line.LineNumber),
			line.AccountCode,
			line.AccountName,
			line.Debit.StringFixed(2),
			line.Credit.StringFixed(2),
			line.Description,
		}
		if err := writer.Write(record); err != nil {
			log.Printf("journal csv row write failed: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("journal csv flush failed: %v", err)
	}
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	year, month, err := shared.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	rows, err := h.service.Store().RegisterRows(r.Context(), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "register_export_failed", "failed to export register", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=register-%04d-%02d.csv", year, int(month)))
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"employee_id", "first_name", "last_name", "gross", "deductions", "net"}); err != nil {
		log.Printf("register csv header write failed: %v", err)
	}
	for _, row := range rows {
		record := []string{
			row.EmployeeID,
			row.FirstName,
			row.LastName,
			row.Gross.StringFixed(0),
			row.Deductions.StringFixed(0),
			row.Net.StringFixed(0),
		}
		if err := writer.Write(record); err != nil {
			log.Printf("register csv row write failed: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("register csv flush failed: %v", err)
	}
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	year, month, err := shared.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	filePath, err := h.service.GeneratePayslipPDF(r.Context(), h.payslipDir, employeeID, year, month)
	if err != nil {
		if payroll.NotFound(err) {
			api.Fail(w, http.StatusNotFound, "not_found", "no liquidation stored for this employee and period", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to generate payslip", middleware.GetRequestID(r.Context()))
		return
	}
	http.ServeFile(w, r, filePath)
}

func liquidationErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, payroll.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, payroll.ErrNoContractForPeriod):
		return http.StatusUnprocessableEntity, "no_contract_for_period"
	case errors.Is(err, payroll.ErrContractExpired):
		return http.StatusUnprocessableEntity, "contract_expired"
	case errors.Is(err, payroll.ErrNoParametersForPeriod):
		return http.StatusUnprocessableEntity, "no_parameters_for_period"
	case errors.Is(err, payroll.ErrEmployeeNotConfigured):
		return http.StatusUnprocessableEntity, "employee_not_configured"
	default:
		return http.StatusInternalServerError, "liquidation_failed"
	}
}
