package api

import (
	"net/http"

	"github.com/dealforge/deal-engine/deals"
)

// Band is a four-step quality scale. Values at or above a threshold earn
// that grade; anything below Acceptable is poor.
type Band struct {
	Poor       float64 `json:"poor"`
	Acceptable float64 `json:"acceptable"`
	Good       float64 `json:"good"`
	Excellent  float64 `json:"excellent"`
}

// Grade places v on the band.
func (b Band) Grade(v float64) string {
	switch {
	case v >= b.Excellent:
		return "excellent"
	case v >= b.Good:
		return "good"
	case v >= b.Acceptable:
		return "acceptable"
	default:
		return "poor"
	}
}

// RangeDTO is a labeled range shown for context only.
type RangeDTO struct {
	Label string `json:"label"`
	Range string `json:"range"`
}

// Benchmarks is static reference data for reading results.
type Benchmarks struct {
	IRR                Band                `json:"irr"`
	EquityMultiple     Band                `json:"equity_multiple"`
	MhParkExpenseRatio map[string]RangeDTO `json:"mh_park_expense_ratio"`
	MhParkCapRate      map[string]RangeDTO `json:"mh_park_cap_rate"`
}

var benchmarks = Benchmarks{
	IRR:            Band{Poor: 8, Acceptable: 12, Good: 15, Excellent: 20},
	EquityMultiple: Band{Poor: 1.5, Acceptable: 1.75, Good: 2.0, Excellent: 2.5},
	MhParkExpenseRatio: map[string]RangeDTO{
		"tenant_owned": {Label: "Tenant-owned homes", Range: "25-35%"},
		"mixed":        {Label: "Mixed (some POH)", Range: "35-45%"},
		"park_owned":   {Label: "Park-owned homes", Range: "45-60%"},
	},
	MhParkCapRate: map[string]RangeDTO{
		"primary":   {Label: "Primary markets", Range: "6-8%"},
		"secondary": {Label: "Secondary markets", Range: "8-10%"},
		"rural":     {Label: "Rural markets", Range: "10-12%"},
	},
}

// GetBenchmarks returns the benchmark tables.
// GET /api/benchmarks
func (h *Handler) GetBenchmarks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, benchmarks)
}

// grades rates the headline returns of a syndication. Undefined IRRs are
// not graded.
func grades(res deals.Result) map[string]string {
	s, ok := res.(deals.SyndicationResult)
	if !ok {
		return nil
	}
	g := map[string]string{
		"lp_equity_multiple": benchmarks.EquityMultiple.Grade(s.LPEquityMultiple),
	}
	if s.LPIRR.Defined {
		g["lp_irr"] = benchmarks.IRR.Grade(s.LPIRR.Percent)
	}
	return g
}
