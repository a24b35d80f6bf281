// Package estimate derives trailing multi-period averages from the
// reconciled history. The four estimators are independent: each degrades to
// an explicit insufficient-data marker without affecting the others.
package estimate

import (
	"math"
	"stockval/internal/domain"

	"github.com/montanaflynn/stats"
)

// maxFiscalYears caps how far back the averages look.
const maxFiscalYears = 4

// Averages computes the four historical estimates as percentages. Nil fields
// mean insufficient data, never zero.
func Averages(history []domain.FinancialHistoryEntry) domain.HistoricalAverages {
	fiscalYears := fiscalYearsOldestFirst(history)

	// growth estimators need one extra year for the first rate; the ratio
	// estimators average the most recent maxFiscalYears only
	ratioYears := fiscalYears
	if len(ratioYears) > maxFiscalYears {
		ratioYears = ratioYears[len(ratioYears)-maxFiscalYears:]
	}

	return domain.HistoricalAverages{
		SalesGrowth:     averageGrowth(fiscalYears, domain.MetricRevenue),
		EbitMargin:      averageMargin(ratioYears),
		TaxRate:         averageTaxRate(ratioYears),
		ShareCountDrift: averageGrowth(fiscalYears, domain.MetricShares),
	}
}

// fiscalYearsOldestFirst drops the TTM entry and returns up to
// maxFiscalYears+1 of the most recent fiscal years, oldest first. Growth
// computations need the oldest-to-newest ordering.
func fiscalYearsOldestFirst(history []domain.FinancialHistoryEntry) []domain.FinancialHistoryEntry {
	fiscalYears := []domain.FinancialHistoryEntry{}
	for _, entry := range history {
		if entry.Period.TTM {
			continue
		}
		fiscalYears = append(fiscalYears, entry)
	}
	domain.SortHistoryAscending(fiscalYears)

	// up to 4 period-over-period changes needs at most 5 years
	if len(fiscalYears) > maxFiscalYears+1 {
		fiscalYears = fiscalYears[len(fiscalYears)-maxFiscalYears-1:]
	}
	return fiscalYears
}

// averageGrowth is the mean period-over-period percentage change of one
// metric. Requires at least 2 fiscal years with the metric present.
func averageGrowth(fiscalYears []domain.FinancialHistoryEntry, metric domain.Metric) *float64 {
	values := []float64{}
	for _, entry := range fiscalYears {
		if v, ok := entry.Get(metric); ok {
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		return nil
	}

	rates := []float64{}
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		rates = append(rates, (values[i]-prev)/prev*100)
	}
	return meanOf(rates)
}

// averageMargin is the mean EBIT margin across fiscal years where revenue is
// nonzero. Requires at least 1 computable year.
func averageMargin(fiscalYears []domain.FinancialHistoryEntry) *float64 {
	margins := []float64{}
	for _, entry := range fiscalYears {
		if entry.Ebit == nil || entry.Revenue == nil || *entry.Revenue == 0 {
			continue
		}
		margins = append(margins, *entry.Ebit / *entry.Revenue * 100)
	}
	return meanOf(margins)
}

// averageTaxRate is the mean effective tax rate (tax provision over pretax
// income) across fiscal years where the ratio is finite.
func averageTaxRate(fiscalYears []domain.FinancialHistoryEntry) *float64 {
	rates := []float64{}
	for _, entry := range fiscalYears {
		if entry.TaxProvision == nil || entry.PretaxIncome == nil || *entry.PretaxIncome == 0 {
			continue
		}
		rate := *entry.TaxProvision / *entry.PretaxIncome * 100
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			continue
		}
		rates = append(rates, rate)
	}
	return meanOf(rates)
}

func meanOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil
	}
	mean = domain.Round2(mean)
	return &mean
}
