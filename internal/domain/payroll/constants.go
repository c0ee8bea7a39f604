package payroll

import "github.com/shopspring/decimal"

const (
	HealthFonasa = "fonasa"
	HealthIsapre = "isapre"

	WarningNegativeTaxable = "negative_taxable_income"
)

// Statutory rates. Expressed as decimals so every stage of the pipeline stays
// off floating point.
var (
	rateGratification     = decimal.RequireFromString("0.25")
	gratificationCapWages = decimal.RequireFromString("4.75")

	overtimeSurcharge = decimal.RequireFromString("1.5")
	weeksPerMonth     = decimal.RequireFromString("4.33")
	daysPerMonth      = decimal.NewFromInt(30)

	rateAFP           = decimal.RequireFromString("0.10")
	rateHealthMinimum = decimal.RequireFromString("0.07")

	rateCesantiaEmployee   = decimal.RequireFromString("0.006")
	rateCesantiaIndefinite = decimal.RequireFromString("0.024")
	rateCesantiaFixedTerm  = decimal.RequireFromString("0.030")

	rateSIS    = decimal.RequireFromString("0.0188")
	rateMutual = decimal.RequireFromString("0.0095")

	// Simplified proxy for the statutory solidarity-loan retention. The real
	// schedule is a bracketed table published by the tax authority.
	// TODO: swap in the official table once the authoritative source is confirmed.
	rateSolidarity          = decimal.RequireFromString("0.007")
	solidarityCap           = decimal.NewFromInt(15000)
	solidarityIncomeCeiling = decimal.NewFromInt(900000)
)
