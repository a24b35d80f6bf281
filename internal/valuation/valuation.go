// Package valuation computes relative multiples, forward projections, and
// the three-method intrinsic value for one security. Compute is a pure
// function of its inputs; degenerate arithmetic yields explicit absence
// markers, never panics or non-finite values.
package valuation

import (
	"math"
	"stockval/internal/domain"

	"github.com/montanaflynn/stats"
)

const (
	// discounted cash flow horizon and terminal growth
	dcfYears          = 10
	terminalGrowthPct = 2.5
)

// Input bundles everything the calculator consumes. History must be the
// reconciled series; the calculator re-orders it as needed and does not
// mutate it.
type Input struct {
	History     []domain.FinancialHistoryEntry
	Quote       domain.Quote
	Ratios      domain.KeyRatios
	Averages    domain.HistoricalAverages
	Assumptions domain.Assumptions
}

// Compute produces the full valuation result. Callers get a best-effort
// record: any figure that cannot be derived is nil.
func Compute(in Input) domain.ValuationResult {
	latest := latestEntry(in.History)
	averages := applyOverrides(in.Averages, in.Assumptions)

	result := domain.ValuationResult{
		CurrentPrice: in.Quote.Price,
	}

	result.LTMMultiples = ltmMultiples(latest, in.Quote, in.Ratios)
	result.NTMMultiples = ntmMultiples(in.Ratios)

	result.ProjectedNextFY = project(latest, averages, 1.0)
	result.ProjectedNTM = project(latest, averages, 0.5)

	result.ImpliedLTM = impliedPrices(scenarioFromEntry(latest), in.Assumptions.Targets)
	result.ImpliedNextFY = impliedPrices(scenarioFromProjection(result.ProjectedNextFY, latest), in.Assumptions.Targets)
	result.ImpliedNTM = impliedPrices(scenarioFromProjection(result.ProjectedNTM, latest), in.Assumptions.Targets)

	result.Intrinsic = intrinsicValue(latest, in.Ratios, averages, in.Assumptions, result.ProjectedNextFY)

	if result.Intrinsic.Average != nil && in.Quote.Price != 0 {
		mosPct := domain.Round2((*result.Intrinsic.Average/in.Quote.Price - 1) * 100)
		mosAbs := domain.Round2(*result.Intrinsic.Average - in.Quote.Price)
		result.MarginOfSafetyPct = &mosPct
		result.MarginOfSafetyAbs = &mosAbs
	}
	result.Classification = domain.Classify(result.MarginOfSafetyPct)

	return result
}

// latestEntry picks the most recent period, preferring TTM when present.
func latestEntry(history []domain.FinancialHistoryEntry) domain.FinancialHistoryEntry {
	if len(history) == 0 {
		return domain.FinancialHistoryEntry{}
	}
	ordered := make([]domain.FinancialHistoryEntry, len(history))
	copy(ordered, history)
	domain.SortHistoryDescending(ordered)
	return ordered[0]
}

// applyOverrides swaps in user-supplied estimates where given.
func applyOverrides(averages domain.HistoricalAverages, a domain.Assumptions) domain.HistoricalAverages {
	if a.SalesGrowth != nil {
		averages.SalesGrowth = a.SalesGrowth
	}
	if a.EbitMargin != nil {
		averages.EbitMargin = a.EbitMargin
	}
	if a.TaxRate != nil {
		averages.TaxRate = a.TaxRate
	}
	if a.ShareCountDrift != nil {
		averages.ShareCountDrift = a.ShareCountDrift
	}
	return averages
}

// enterpriseValue is market cap plus total debt minus cash. Market cap comes
// from price times shares, falling back to the ratios provider's figure.
func enterpriseValue(e domain.FinancialHistoryEntry, quote domain.Quote, ratios domain.KeyRatios) *float64 {
	var marketCap float64
	switch {
	case e.Shares != nil && *e.Shares != 0 && quote.Price != 0:
		marketCap = quote.Price * *e.Shares
	case ratios.MarketCap != nil:
		marketCap = *ratios.MarketCap
	default:
		return nil
	}

	ev := marketCap
	if e.TotalDebt != nil {
		ev += *e.TotalDebt
	}
	if e.Cash != nil {
		ev -= *e.Cash
	}
	return &ev
}

func ltmMultiples(latest domain.FinancialHistoryEntry, quote domain.Quote, ratios domain.KeyRatios) domain.MultipleSet {
	out := domain.MultipleSet{}

	eps := perShare(latest.NetIncome, latest.Shares)
	if eps == nil && ratios.TrailingEPS != nil {
		eps = ratios.TrailingEPS
	}
	out.PER = safeRatio(&quote.Price, eps)

	ev := enterpriseValue(latest, quote, ratios)
	out.EvEbitda = safeRatio(ev, latest.Ebitda)
	out.EvEbit = safeRatio(ev, latest.Ebit)
	out.EvFcf = safeRatio(ev, latest.FreeCashFlow)

	return out
}

// ntmMultiples uses only forward figures the ratios provider actually
// supplied. Nothing is fabricated; a missing forward figure stays absent.
func ntmMultiples(ratios domain.KeyRatios) domain.MultipleSet {
	out := domain.MultipleSet{}
	if ratios.ForwardPE != nil {
		fpe := domain.Round2(*ratios.ForwardPE)
		out.PER = &fpe
	}
	return out
}

// project derives next-period operating figures. growthScale of 1.0 is the
// next fiscal year; 0.5 is the half-year NTM variant. EBITDA and FCF come
// from the current EBITDA/EBIT and FCF/EBIT ratios - a constant-ratio
// assumption, not re-estimated per projection period.
func project(latest domain.FinancialHistoryEntry, averages domain.HistoricalAverages, growthScale float64) domain.ProjectedFinancials {
	out := domain.ProjectedFinancials{}
	if latest.Revenue == nil || averages.SalesGrowth == nil {
		return out
	}

	growth := *averages.SalesGrowth / 100 * growthScale
	revenue := *latest.Revenue * (1 + growth)
	out.Revenue = &revenue

	if averages.EbitMargin != nil {
		ebit := revenue * (*averages.EbitMargin / 100)
		out.Ebit = &ebit

		if ratio := safeRatioRaw(latest.Ebitda, latest.Ebit); ratio != nil {
			ebitda := ebit * *ratio
			out.Ebitda = &ebitda
		}
		if ratio := safeRatioRaw(latest.FreeCashFlow, latest.Ebit); ratio != nil {
			fcf := ebit * *ratio
			out.FreeCashFlow = &fcf
		}

		// projected earnings: EBIT taxed at the estimated effective rate
		if averages.TaxRate != nil {
			netIncome := ebit * (1 - *averages.TaxRate/100)
			out.NetIncome = &netIncome
		}
	}

	if latest.Shares != nil {
		shares := *latest.Shares
		if averages.ShareCountDrift != nil {
			shares *= 1 + (*averages.ShareCountDrift/100)*growthScale
		}
		out.Shares = &shares
	}
	out.EPS = perShare(out.NetIncome, out.Shares)

	return out
}

// scenario holds one period's per-share figures for the implied price table.
type scenario struct {
	eps       *float64
	ebitda    *float64
	ebit      *float64
	fcf       *float64
	shares    *float64
	netDebt   float64
	hasShares bool
}

func scenarioFromEntry(e domain.FinancialHistoryEntry) scenario {
	s := scenario{
		eps:    perShare(e.NetIncome, e.Shares),
		ebitda: e.Ebitda,
		ebit:   e.Ebit,
		fcf:    e.FreeCashFlow,
		shares: e.Shares,
	}
	s.netDebt = netDebtOf(e)
	s.hasShares = e.Shares != nil && *e.Shares != 0
	return s
}

func scenarioFromProjection(p domain.ProjectedFinancials, latest domain.FinancialHistoryEntry) scenario {
	s := scenario{
		eps:    p.EPS,
		ebitda: p.Ebitda,
		ebit:   p.Ebit,
		fcf:    p.FreeCashFlow,
		shares: p.Shares,
	}
	// balance-sheet position is not projected; carry the current one
	s.netDebt = netDebtOf(latest)
	s.hasShares = p.Shares != nil && *p.Shares != 0
	return s
}

func netDebtOf(e domain.FinancialHistoryEntry) float64 {
	var netDebt float64
	if e.TotalDebt != nil {
		netDebt += *e.TotalDebt
	}
	if e.Cash != nil {
		netDebt -= *e.Cash
	}
	return netDebt
}

// impliedPrices applies the sector target multiples to one scenario's
// figures. EV-based targets are unwound to a per-share price through the
// scenario's net debt and share count.
func impliedPrices(s scenario, targets domain.TargetMultiples) domain.ScenarioPrices {
	out := domain.ScenarioPrices{}

	if s.eps != nil {
		price := domain.Round2(targets.PER * *s.eps)
		out.PER = &price
	}
	if !s.hasShares {
		return out
	}

	evToPrice := func(metric *float64, target float64) *float64 {
		if metric == nil {
			return nil
		}
		equityValue := target**metric - s.netDebt
		price := domain.Round2(equityValue / *s.shares)
		return &price
	}
	out.EvEbitda = evToPrice(s.ebitda, targets.EvEbitda)
	out.EvEbit = evToPrice(s.ebit, targets.EvEbit)
	out.EvFcf = evToPrice(s.fcf, targets.EvFcf)

	return out
}

// intrinsicValue runs the three independent methods and averages whatever
// settled. All outputs are per-share prices.
func intrinsicValue(
	latest domain.FinancialHistoryEntry,
	ratios domain.KeyRatios,
	averages domain.HistoricalAverages,
	assumptions domain.Assumptions,
	projected domain.ProjectedFinancials,
) domain.IntrinsicValue {
	out := domain.IntrinsicValue{
		DiscountedCashFlow: discountedCashFlow(latest, averages, assumptions),
		GrowthMultiple:     growthMultipleValue(averages, assumptions, forwardEPS(projected, ratios)),
		SectorMultiple:     sectorMultipleValue(assumptions, forwardEPS(projected, ratios)),
	}

	settled := []float64{}
	for _, method := range []*float64{out.DiscountedCashFlow, out.GrowthMultiple, out.SectorMultiple} {
		if method != nil {
			settled = append(settled, *method)
		}
	}
	if len(settled) > 0 {
		if mean, err := stats.Mean(settled); err == nil {
			mean = domain.Round2(mean)
			out.Average = &mean
		}
	}
	return out
}

// forwardEPS prefers the internally projected EPS and falls back to the
// ratios provider's forward figure.
func forwardEPS(projected domain.ProjectedFinancials, ratios domain.KeyRatios) *float64 {
	if projected.EPS != nil {
		return projected.EPS
	}
	return ratios.ForwardEPS
}

// discountedCashFlow grows per-share free cash flow at the estimated sales
// growth rate, discounts each year at the sector rate, and capitalizes the
// terminal year with Gordon growth.
func discountedCashFlow(latest domain.FinancialHistoryEntry, averages domain.HistoricalAverages, assumptions domain.Assumptions) *float64 {
	fcfPerShare := perShare(latest.FreeCashFlow, latest.Shares)
	if fcfPerShare == nil || averages.SalesGrowth == nil {
		return nil
	}
	rate := assumptions.DiscountRate
	growth := *averages.SalesGrowth / 100
	terminalGrowth := terminalGrowthPct / 100
	if rate <= terminalGrowth {
		return nil
	}

	var presentValue float64
	fcf := *fcfPerShare
	discount := 1.0
	for year := 1; year <= dcfYears; year++ {
		fcf *= 1 + growth
		discount *= 1 + rate
		presentValue += fcf / discount
	}

	terminal := fcf * (1 + terminalGrowth) / (rate - terminalGrowth)
	presentValue += terminal / discount

	if math.IsNaN(presentValue) || math.IsInf(presentValue, 0) {
		return nil
	}
	presentValue = domain.Round2(presentValue)
	return &presentValue
}

// growthMultipleValue is the style-based method: ideal growth multiple times
// the growth rate (as a percentage figure) times forward earnings per share.
func growthMultipleValue(averages domain.HistoricalAverages, assumptions domain.Assumptions, eps *float64) *float64 {
	if averages.SalesGrowth == nil || eps == nil {
		return nil
	}
	multiple := domain.IdealGrowthMultiple(assumptions.Style)
	value := domain.Round2(multiple * *averages.SalesGrowth * *eps)
	return &value
}

// sectorMultipleValue applies the fixed sector target PER to forward EPS.
func sectorMultipleValue(assumptions domain.Assumptions, eps *float64) *float64 {
	if eps == nil {
		return nil
	}
	value := domain.Round2(assumptions.Targets.PER * *eps)
	return &value
}

func perShare(value, shares *float64) *float64 {
	return safeRatioRaw(value, shares)
}

// safeRatio divides and rounds to 2dp; nil on zero or absent denominator.
func safeRatio(num, den *float64) *float64 {
	raw := safeRatioRaw(num, den)
	if raw == nil {
		return nil
	}
	rounded := domain.Round2(*raw)
	return &rounded
}

func safeRatioRaw(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	v := *num / *den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
