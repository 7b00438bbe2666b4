/*
Package distress scores manufactured housing communities for financial
distress from their tax-lien history.

PURPOSE:
  Parks carrying many active liens, large unpaid tax balances, fresh liens
  and liens across several tax years are likely motivated sellers. The score
  condenses those four signals into one bounded number for ranking.

FORMULA:
  score = 0.40 * lienDensity + 0.30 * taxBurden + 0.20 * recency + 0.10 * chronicity

  lienDensity  min(100, activeLiens / lots * 100)             0 without lots
  taxBurden    min(100, taxOwed / (lots * 10000) * 100)        0 without lots
  recency      months since newest lien: <6 100, <12 70, <24 40, else 20; 0 without a lien date
  chronicity   25 per distinct tax year with liens, capped at 100

  Each factor is clamped to [0,100] before weighting, so the score is
  bounded and monotone in every input. The result is rounded to cents.

SEE ALSO:
  - runner.go: Parallel batch scoring over a Source/Sink pair
  - store/sqlite: Builds aggregates from mh_tax_liens
*/
package distress

import (
	"math"
	"time"

	"github.com/dealforge/deal-engine/finance"
)

const (
	lienDensityWeight = 0.40
	taxBurdenWeight   = 0.30
	recencyWeight     = 0.20
	chronicityWeight  = 0.10

	// taxPerLotCeiling is the unpaid tax per lot at which the tax burden
	// factor saturates.
	taxPerLotCeiling = 10000

	chronicityStep = 25
	maxFactor      = 100
)

// LienAggregate summarizes a park's lien history.
type LienAggregate struct {
	ActiveLienCount           int        `json:"active_lien_count"`
	TotalTaxOwed              float64    `json:"total_tax_owed"`
	MostRecentLienDate        *time.Time `json:"most_recent_lien_date,omitempty"`
	LotCount                  int        `json:"lot_count"`
	DistinctTaxYearsWithLiens int        `json:"distinct_tax_years_with_liens"`
}

// Breakdown is the score together with its weighted factors.
type Breakdown struct {
	LienDensity float64 `json:"lien_density"`
	TaxBurden   float64 `json:"tax_burden"`
	Recency     float64 `json:"recency"`
	Chronicity  float64 `json:"chronicity"`
	Score       float64 `json:"score"`
}

// Score returns the distress score in [0,100] as of asOf.
func Score(agg LienAggregate, asOf time.Time) float64 {
	return Evaluate(agg, asOf).Score
}

// Evaluate computes every factor and the weighted score.
func Evaluate(agg LienAggregate, asOf time.Time) Breakdown {
	b := Breakdown{
		LienDensity: lienDensity(agg),
		TaxBurden:   taxBurden(agg),
		Recency:     recency(agg.MostRecentLienDate, asOf),
		Chronicity:  chronicity(agg.DistinctTaxYearsWithLiens),
	}
	b.Score = finance.Round(
		lienDensityWeight*b.LienDensity+
			taxBurdenWeight*b.TaxBurden+
			recencyWeight*b.Recency+
			chronicityWeight*b.Chronicity,
		2)
	return b
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(maxFactor, v))
}

func lienDensity(agg LienAggregate) float64 {
	if agg.LotCount <= 0 {
		return 0
	}
	return clamp(float64(agg.ActiveLienCount) / float64(agg.LotCount) * 100)
}

func taxBurden(agg LienAggregate) float64 {
	if agg.LotCount <= 0 {
		return 0
	}
	return clamp(agg.TotalTaxOwed / (float64(agg.LotCount) * taxPerLotCeiling) * 100)
}

func recency(lienDate *time.Time, asOf time.Time) float64 {
	if lienDate == nil {
		return 0
	}
	switch months := monthsBetween(*lienDate, asOf); {
	case months < 6:
		return 100
	case months < 12:
		return 70
	case months < 24:
		return 40
	default:
		return 20
	}
}

// monthsBetween counts whole calendar months from a to b.
func monthsBetween(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	return months
}

func chronicity(years int) float64 {
	return clamp(float64(years * chronicityStep))
}
