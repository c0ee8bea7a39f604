package contractshandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

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
	service *payroll.Service
	audit   *audit.Service
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{service: payroll.NewService(db), audit: audit.New(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees/{employeeID}/contract", func(r chi.Router) {
		r.Post("/", h.handleCreateContract)
		r.Get("/", h.handleGetContract)
		r.Get("/effective", h.handleEffectiveContract)
	})
	r.Post("/contracts/{contractID}/amendments", h.handleCreateAmendment)
	r.Get("/contracts/{contractID}/amendments", h.handleListAmendments)
}

type contractPayload struct {
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Type        string          `json:"contractType"`
	BaseSalary  decimal.Decimal `json:"baseSalary"`
	WeeklyHours int             `json:"weeklyHours"`
	Position    string          `json:"position"`
	Department  string          `json:"department"`
}

func (h *Handler) handleCreateContract(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var payload contractPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	startDate, _ := v.Date("startDate", payload.StartDate)
	v.Enum("contractType", payload.Type,
		[]string{string(payroll.ContractIndefinite), string(payroll.ContractFixedTerm)},
		"must be indefinite or fixed_term")
	if payload.BaseSalary.IsNegative() || payload.BaseSalary.IsZero() {
		v.Add("baseSalary", "must be positive")
	}
	if payload.WeeklyHours <= 0 {
		v.Add("weeklyHours", "must be positive")
	}

	var endDate *time.Time
	if payload.EndDate != "" {
		parsed, ok := v.Date("endDate", payload.EndDate)
		if ok {
			endDate = &parsed
			v.DateOrder("startDate", startDate, "endDate", parsed)
		}
	}
	if payroll.ContractType(payload.Type) == payroll.ContractFixedTerm && endDate == nil {
		v.Add("endDate", "fixed-term contracts require an end date")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	contract := payroll.Contract{
		EmployeeID:  employeeID,
		StartDate:   startDate,
		EndDate:     endDate,
		Type:        payroll.ContractType(payload.Type),
		BaseSalary:  payload.BaseSalary,
		WeeklyHours: payload.WeeklyHours,
		Position:    payload.Position,
		Department:  payload.Department,
	}

	id, err := h.service.Store().CreateContract(r.Context(), contract)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "contract_create_failed", "failed to create contract", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.audit.Record(r.Context(), "contract.create", "contract", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit contract.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetContract(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	contract, err := h.service.Store().ContractForEmployee(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, payroll.ErrNoContractForPeriod) {
			api.Fail(w, http.StatusNotFound, "no_contract", "employee has no contract", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "contract_load_failed", "failed to load contract", middleware.GetRequestID(r.Context()))
		return
	}

	amendments, err := h.service.Store().AmendmentsForContract(r.Context(), contract.ID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "contract_load_failed", "failed to load amendments", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{"contract": contract, "amendments": amendments}, middleware.GetRequestID(r.Context()))
}

// handleEffectiveContract resolves the contract state for ?period=YYYY-MM
// with every applicable amendment folded in.
func (h *Handler) handleEffectiveContract(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	year, month, err := shared.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	effective, err := h.service.EffectiveContractFor(r.Context(), employeeID, year, month)
	if err != nil {
		status, code := contractErrorStatus(err)
		api.Fail(w, status, code, err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, effective, middleware.GetRequestID(r.Context()))
}

type amendmentPayload struct {
	EffectiveDate string                `json:"effectiveDate"`
	Type          string                `json:"modificationType"`
	OldValues     payroll.ContractDelta `json:"oldValues"`
	NewValues     payroll.ContractDelta `json:"newValues"`
}

func (h *Handler) handleCreateAmendment(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")

	var payload amendmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	effectiveDate, _ := v.Date("effectiveDate", payload.EffectiveDate)
	v.Required("modificationType", payload.Type, "modification type is required")
	if payload.NewValues == (payroll.ContractDelta{}) {
		v.Add("newValues", "at least one field must change")
	}
	if payload.NewValues.BaseSalary != nil && payload.NewValues.BaseSalary.IsNegative() {
		v.Add("newValues.baseSalary", "must not be negative")
	}
	if payload.NewValues.WeeklyHours != nil && *payload.NewValues.WeeklyHours <= 0 {
		v.Add("newValues.weeklyHours", "must be positive")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if _, err := h.service.Store().Contract(r.Context(), contractID); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "contract not found", middleware.GetRequestID(r.Context()))
		return
	}

	amendment := payroll.Amendment{
		ContractID:    contractID,
		EffectiveDate: effectiveDate,
		Type:          payroll.ModificationType(payload.Type),
		OldValues:     payload.OldValues,
		NewValues:     payload.NewValues,
	}

	id, err := h.service.Store().CreateAmendment(r.Context(), amendment)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "amendment_create_failed", "failed to create amendment", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.audit.Record(r.Context(), "contract.amend", "contract", contractID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), payload.OldValues, payload.NewValues); err != nil {
		log.Printf("audit contract.amend failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAmendments(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")

	amendments, err := h.service.Store().AmendmentsForContract(r.Context(), contractID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "amendments_list_failed", "failed to list amendments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, amendments, middleware.GetRequestID(r.Context()))
}

func contractErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, payroll.ErrNoContractForPeriod):
		return http.StatusUnprocessableEntity, "no_contract_for_period"
	case errors.Is(err, payroll.ErrContractExpired):
		return http.StatusUnprocessableEntity, "contract_expired"
	default:
		return http.StatusInternalServerError, "contract_resolve_failed"
	}
}
