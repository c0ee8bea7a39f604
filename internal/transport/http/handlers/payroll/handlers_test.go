package payrollhandler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func postParameters(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := &Handler{}
	req := httptest.NewRequest(http.MethodPost, "/payroll/parameters", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.handleCreateParameters(rec, req)
	return rec
}

func TestCreateParameters_RejectsUnsortedTaxBrackets(t *testing.T) {
	rec := postParameters(t, `{
		"validFrom": "2024-01-01",
		"minimumWage": "500000",
		"ufValue": "37000",
		"maxImponibleUf": "84.3",
		"maxCesantiaUf": "126.6",
		"familyAllowanceTiers": [],
		"taxBrackets": [
			{"threshold": "900000", "rate": "0.04", "deduction": "36000"},
			{"threshold": "0", "rate": "0", "deduction": "0"}
		]
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-order brackets, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "taxBrackets") {
		t.Fatalf("expected a taxBrackets validation issue, got %s", rec.Body.String())
	}
}

func TestCreateParameters_RejectsDuplicateBracketThresholds(t *testing.T) {
	rec := postParameters(t, `{
		"validFrom": "2024-01-01",
		"minimumWage": "500000",
		"ufValue": "37000",
		"maxImponibleUf": "84.3",
		"maxCesantiaUf": "126.6",
		"familyAllowanceTiers": [],
		"taxBrackets": [
			{"threshold": "0", "rate": "0", "deduction": "0"},
			{"threshold": "900000", "rate": "0.04", "deduction": "36000"},
			{"threshold": "900000", "rate": "0.08", "deduction": "116000"}
		]
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate thresholds, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "taxBrackets") {
		t.Fatalf("expected a taxBrackets validation issue, got %s", rec.Body.String())
	}
}

func TestCreateParameters_RejectsUnsortedFamilyTiers(t *testing.T) {
	rec := postParameters(t, `{
		"validFrom": "2024-01-01",
		"minimumWage": "500000",
		"ufValue": "37000",
		"maxImponibleUf": "84.3",
		"maxCesantiaUf": "126.6",
		"familyAllowanceTiers": [
			{"incomeLimit": "856247", "amount": "12475"},
			{"incomeLimit": "586227", "amount": "20328"}
		],
		"taxBrackets": [
			{"threshold": "0", "rate": "0", "deduction": "0"}
		]
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-order tiers, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "familyAllowanceTiers") {
		t.Fatalf("expected a familyAllowanceTiers validation issue, got %s", rec.Body.String())
	}
}
