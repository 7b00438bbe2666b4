package waterfall

import (
	"github.com/shopspring/decimal"

	"github.com/dealforge/deal-engine/finance"
)

// Period is one distribution in a given year. CapitalEvent marks a sale or
// refinance, the only periods in which contributed capital is returned.
// Several periods may share a year; accrual happens once per year.
type Period struct {
	Year         int     `json:"year"`
	Cash         float64 `json:"cash"`
	CapitalEvent bool    `json:"capital_event"`
}

// TierAllocation is the LP/GP split of the cash that landed in one tier.
type TierAllocation struct {
	Tier int     `json:"tier"`
	LP   float64 `json:"lp"`
	GP   float64 `json:"gp"`
}

// Allocation is how one period's cash was distributed.
type Allocation struct {
	Year         int              `json:"year"`
	CapitalEvent bool             `json:"capital_event"`
	Cash         float64          `json:"cash"`
	LPPreferred  float64          `json:"lp_preferred"`
	LPCapital    float64          `json:"lp_capital"`
	GPCapital    float64          `json:"gp_capital"`
	CatchUpLP    float64          `json:"catch_up_lp"`
	CatchUpGP    float64          `json:"catch_up_gp"`
	Tiers        []TierAllocation `json:"tiers"`
	LP           float64          `json:"lp"`
	GP           float64          `json:"gp"`
}

// Result is the outcome of running every period through the waterfall.
// LPFlows and GPFlows are indexed by year: the negated equity at index 0,
// then the sum of each year's distributions.
type Result struct {
	Allocations []Allocation `json:"allocations"`

	Distributed float64 `json:"distributed"`
	LPTotal     float64 `json:"lp_total"`
	GPTotal     float64 `json:"gp_total"`

	LPPreferredPaid     float64          `json:"lp_preferred_paid"`
	LPCapitalReturned   float64          `json:"lp_capital_returned"`
	GPCapitalReturned   float64          `json:"gp_capital_returned"`
	GPCatchUp           float64          `json:"gp_catch_up"`
	TierTotals          []TierAllocation `json:"tier_totals"`
	UnpaidPreferred     float64          `json:"unpaid_preferred"`
	UnreturnedLPCapital float64          `json:"unreturned_lp_capital"`

	LPFlows []float64 `json:"lp_flows"`
	GPFlows []float64 `json:"gp_flows"`
}

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ledger is the LP/GP capital account state carried between periods.
type ledger struct {
	cfg      Config
	lpShares []decimal.Decimal // LP split per tier as a fraction

	lpCapital decimal.Decimal
	gpCapital decimal.Decimal
	accrued   decimal.Decimal
	prefRate  decimal.Decimal

	// hurdle[i] is the LP balance still needed to clear tier i's hurdle;
	// growth[i] is 1 + that hurdle. Index 0 is unused.
	hurdle []decimal.Decimal
	growth []decimal.Decimal

	lpProfit decimal.Decimal
	gpProfit decimal.Decimal

	lpPrefPaid  decimal.Decimal
	lpCapPaid   decimal.Decimal
	gpCapPaid   decimal.Decimal
	gpCatchUp   decimal.Decimal
	tierLPTotal []decimal.Decimal
	tierGPTotal []decimal.Decimal
}

func newLedger(cfg Config, lpEquity, gpEquity float64) *ledger {
	l := &ledger{
		cfg:         cfg,
		lpCapital:   finance.Cents(lpEquity),
		gpCapital:   finance.Cents(gpEquity),
		prefRate:    decimal.NewFromFloat(cfg.PreferredReturn).Div(hundred),
		hurdle:      make([]decimal.Decimal, len(cfg.Tiers)),
		growth:      make([]decimal.Decimal, len(cfg.Tiers)),
		lpShares:    make([]decimal.Decimal, len(cfg.Tiers)),
		tierLPTotal: make([]decimal.Decimal, len(cfg.Tiers)),
		tierGPTotal: make([]decimal.Decimal, len(cfg.Tiers)),
	}
	for i, t := range cfg.Tiers {
		l.lpShares[i] = decimal.NewFromFloat(t.LPSplit).Div(hundred)
		if t.IRRHurdle != nil {
			l.hurdle[i] = l.lpCapital
			l.growth[i] = one.Add(decimal.NewFromFloat(*t.IRRHurdle).Div(hundred))
		}
	}
	return l
}

// accrue advances one period: preferred return compounds on unreturned
// capital plus unpaid preferred, and every hurdle balance grows.
func (l *ledger) accrue() {
	if base := l.lpCapital.Add(l.accrued); base.IsPositive() {
		l.accrued = l.accrued.Add(base.Mul(l.prefRate).Round(2))
	}
	for i := range l.hurdle {
		if l.cfg.Tiers[i].IRRHurdle != nil {
			l.hurdle[i] = l.hurdle[i].Mul(l.growth[i]).Round(8)
		}
	}
}

// payLP records an LP distribution against every hurdle balance.
func (l *ledger) payLP(amount decimal.Decimal) {
	for i := range l.hurdle {
		if l.cfg.Tiers[i].IRRHurdle != nil {
			l.hurdle[i] = l.hurdle[i].Sub(amount)
		}
	}
}

// tierCapacity is how much cash tier i may absorb before the LP clears the
// next tier's hurdle. ok is false for the last tier (unbounded).
func (l *ledger) tierCapacity(i int) (decimal.Decimal, bool) {
	next := i + 1
	if next >= len(l.cfg.Tiers) {
		return decimal.Zero, false
	}
	need := l.hurdle[next]
	if !need.IsPositive() {
		return decimal.Zero, true
	}
	if !l.lpShares[i].IsPositive() {
		// The LP never progresses inside this tier.
		return decimal.Zero, false
	}
	return need.Div(l.lpShares[i]).RoundCeil(2), true
}

// catchUpCapacity solves for the cash x at which the GP's share of
// cumulative profit reaches the target: (G + g·x) = T·(L + G + x).
func (l *ledger) catchUpCapacity() decimal.Decimal {
	cu := l.cfg.CatchUp
	g := decimal.NewFromFloat(cu.GPSharePercent).Div(hundred)
	target := decimal.NewFromFloat(cu.TargetPercent).Div(hundred)
	denom := g.Sub(target)
	if !denom.IsPositive() {
		return decimal.Zero
	}
	num := target.Mul(l.lpProfit.Add(l.gpProfit)).Sub(l.gpProfit)
	if !num.IsPositive() {
		return decimal.Zero
	}
	return num.Div(denom).RoundCeil(2)
}

func (l *ledger) period(p Period) Allocation {
	alloc := Allocation{Year: p.Year, CapitalEvent: p.CapitalEvent}
	remaining := finance.Cents(p.Cash)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	cash := remaining

	var lp, gp decimal.Decimal
	take := func(limit decimal.Decimal) decimal.Decimal {
		amount := decimal.Min(remaining, limit)
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		remaining = remaining.Sub(amount)
		return amount
	}

	// Tier 0: preferred return, then capital on a capital event.
	pref := take(l.accrued)
	l.accrued = l.accrued.Sub(pref)
	l.payLP(pref)
	l.lpProfit = l.lpProfit.Add(pref)
	l.lpPrefPaid = l.lpPrefPaid.Add(pref)
	lp = lp.Add(pref)
	alloc.LPPreferred = pref.InexactFloat64()

	if p.CapitalEvent {
		lpCap := take(l.lpCapital)
		l.lpCapital = l.lpCapital.Sub(lpCap)
		l.payLP(lpCap)
		l.lpCapPaid = l.lpCapPaid.Add(lpCap)
		lp = lp.Add(lpCap)
		alloc.LPCapital = lpCap.InexactFloat64()

		gpCap := take(l.gpCapital)
		l.gpCapital = l.gpCapital.Sub(gpCap)
		l.gpCapPaid = l.gpCapPaid.Add(gpCap)
		gp = gp.Add(gpCap)
		alloc.GPCapital = gpCap.InexactFloat64()
	}

	if l.cfg.CatchUp.Enabled && remaining.IsPositive() {
		amount := take(l.catchUpCapacity())
		if amount.IsPositive() {
			gpShare := decimal.NewFromFloat(l.cfg.CatchUp.GPSharePercent).Div(hundred)
			gpPart := amount.Mul(gpShare).Round(2)
			lpPart := amount.Sub(gpPart)
			l.payLP(lpPart)
			l.lpProfit = l.lpProfit.Add(lpPart)
			l.gpProfit = l.gpProfit.Add(gpPart)
			l.gpCatchUp = l.gpCatchUp.Add(gpPart)
			lp, gp = lp.Add(lpPart), gp.Add(gpPart)
			alloc.CatchUpLP, alloc.CatchUpGP = lpPart.InexactFloat64(), gpPart.InexactFloat64()
		}
	}

	// Promote tiers.
	for i := range l.cfg.Tiers {
		if !remaining.IsPositive() {
			break
		}
		capacity, bounded := l.tierCapacity(i)
		amount := remaining
		if bounded {
			amount = take(capacity)
		} else {
			remaining = decimal.Zero
		}
		if !amount.IsPositive() {
			continue
		}

		lpPart := amount.Mul(l.lpShares[i]).Round(2)
		gpPart := amount.Sub(lpPart)
		l.payLP(lpPart)
		l.lpProfit = l.lpProfit.Add(lpPart)
		l.gpProfit = l.gpProfit.Add(gpPart)
		l.tierLPTotal[i] = l.tierLPTotal[i].Add(lpPart)
		l.tierGPTotal[i] = l.tierGPTotal[i].Add(gpPart)
		lp, gp = lp.Add(lpPart), gp.Add(gpPart)
		alloc.Tiers = append(alloc.Tiers, TierAllocation{
			Tier: i + 1,
			LP:   lpPart.InexactFloat64(),
			GP:   gpPart.InexactFloat64(),
		})
	}

	alloc.Cash = cash.InexactFloat64()
	alloc.LP = lp.InexactFloat64()
	alloc.GP = gp.InexactFloat64()
	return alloc
}

// Distribute runs periods through the waterfall in order. Years must be
// non-decreasing and start at 1. Negative period cash distributes nothing
// but preferred return still accrues for that year.
func Distribute(cfg Config, lpEquity, gpEquity float64, periods []Period) Result {
	l := newLedger(cfg, lpEquity, gpEquity)

	years := 0
	for _, p := range periods {
		years = max(years, p.Year)
	}

	res := Result{
		Allocations: make([]Allocation, 0, len(periods)),
		LPFlows:     make([]float64, years+1),
		GPFlows:     make([]float64, years+1),
	}
	res.LPFlows[0] = -lpEquity
	res.GPFlows[0] = -gpEquity

	var distributed, lpTotal, gpTotal decimal.Decimal
	accruedThrough := 0
	for _, p := range periods {
		for accruedThrough < p.Year {
			l.accrue()
			accruedThrough++
		}

		alloc := l.period(p)
		res.Allocations = append(res.Allocations, alloc)
		if p.Year > 0 {
			res.LPFlows[p.Year] += alloc.LP
			res.GPFlows[p.Year] += alloc.GP
		}

		distributed = distributed.Add(decimal.NewFromFloat(alloc.Cash))
		lpTotal = lpTotal.Add(decimal.NewFromFloat(alloc.LP))
		gpTotal = gpTotal.Add(decimal.NewFromFloat(alloc.GP))
	}

	res.Distributed = distributed.InexactFloat64()
	res.LPTotal = lpTotal.InexactFloat64()
	res.GPTotal = gpTotal.InexactFloat64()
	res.LPPreferredPaid = l.lpPrefPaid.InexactFloat64()
	res.LPCapitalReturned = l.lpCapPaid.InexactFloat64()
	res.GPCapitalReturned = l.gpCapPaid.InexactFloat64()
	res.GPCatchUp = l.gpCatchUp.InexactFloat64()
	res.UnpaidPreferred = l.accrued.InexactFloat64()
	res.UnreturnedLPCapital = l.lpCapital.InexactFloat64()
	for i := range cfg.Tiers {
		res.TierTotals = append(res.TierTotals, TierAllocation{
			Tier: i + 1,
			LP:   l.tierLPTotal[i].InexactFloat64(),
			GP:   l.tierGPTotal[i].InexactFloat64(),
		})
	}
	return res
}
