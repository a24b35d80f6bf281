package service

import (
	"context"
	"fmt"
	"stockval/internal/adapters"
	"stockval/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStatementSource struct {
	family domain.StatementFamily
	series *domain.StatementSeries
	err    error
	delay  time.Duration
}

func (s stubStatementSource) Family() domain.StatementFamily { return s.family }

func (s stubStatementSource) Fetch(ctx context.Context, symbol string) (*domain.StatementSeries, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, adapters.SourceError{SourceFamily: s.family, Err: ctx.Err()}
		case <-time.After(s.delay):
		}
	}
	return s.series, s.err
}

type stubRatiosSource struct {
	ratios *domain.KeyRatios
	err    error
}

func (s stubRatiosSource) Fetch(ctx context.Context, symbol string) (*domain.KeyRatios, error) {
	return s.ratios, s.err
}

type stubQuoteSource struct {
	quote *domain.Quote
	err   error
}

func (s stubQuoteSource) Fetch(ctx context.Context, symbol string) (*domain.Quote, error) {
	return s.quote, s.err
}

type stubPriceSource struct {
	bars []domain.PriceBar
	err  error
}

func (s stubPriceSource) Fetch(ctx context.Context, symbol string, years int) ([]domain.PriceBar, error) {
	return s.bars, s.err
}

func happyStatementSource(family domain.StatementFamily, year int, values map[domain.Metric]float64) stubStatementSource {
	return stubStatementSource{
		family: family,
		series: &domain.StatementSeries{
			Family: family,
			Statements: []domain.Statement{
				{
					Family: family,
					End:    domain.PeriodEnd{Time: time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)},
					Values: values,
				},
			},
		},
	}
}

func newTestService(sources []adapters.StatementSource, ratiosErr, priceErr error) ValuationService {
	var ratios stubRatiosSource
	if ratiosErr != nil {
		ratios = stubRatiosSource{err: ratiosErr}
	} else {
		ratios = stubRatiosSource{ratios: &domain.KeyRatios{ForwardPE: domain.Float64Ptr(15)}}
	}
	var prices stubPriceSource
	if priceErr != nil {
		prices = stubPriceSource{err: priceErr}
	} else {
		prices = stubPriceSource{bars: []domain.PriceBar{{Date: time.Now()}}}
	}
	return NewValuationService(
		sources,
		ratios,
		stubQuoteSource{quote: &domain.Quote{Symbol: "ACME", Price: 100}},
		prices,
	)
}

func allStatementSources() []adapters.StatementSource {
	return []adapters.StatementSource{
		happyStatementSource(domain.FamilyIncome, 2023, map[domain.Metric]float64{
			domain.MetricRevenue:   1000,
			domain.MetricNetIncome: 100,
			domain.MetricShares:    50,
		}),
		happyStatementSource(domain.FamilyBalance, 2023, map[domain.Metric]float64{
			domain.MetricTotalDebt:   200,
			domain.MetricTotalEquity: 400,
		}),
		happyStatementSource(domain.FamilyCashflow, 2023, map[domain.Metric]float64{
			domain.MetricFreeCashFlow: 80,
		}),
	}
}

func Test_Valuate_allSourcesSucceed(t *testing.T) {
	svc := newTestService(allStatementSources(), nil, nil)

	report, err := svc.Valuate(context.Background(), "ACME", domain.AssumptionsForSector(domain.SectorTechnology))
	require.NoError(t, err)

	require.Len(t, report.History, 1)
	assert.Empty(t, report.SourceFailures)
	require.NotNil(t, report.History[0].Revenue)
	require.NotNil(t, report.History[0].DebtToEquity)
	assert.Equal(t, 0.5, *report.History[0].DebtToEquity)
	assert.Equal(t, 100.0, report.Valuation.CurrentPrice)
	require.NotNil(t, report.KeyRatios.ForwardPE)
}

func Test_Valuate_partialFailures(t *testing.T) {
	// every non-empty proper subset of the three statement sources failing
	// must still produce a report, with exactly the failed families absent
	families := []domain.StatementFamily{domain.FamilyIncome, domain.FamilyBalance, domain.FamilyCashflow}

	for mask := 1; mask < 7; mask++ {
		mask := mask
		t.Run(fmt.Sprintf("failure mask %03b", mask), func(t *testing.T) {
			failed := map[domain.StatementFamily]bool{}
			sources := []adapters.StatementSource{}
			for i, source := range allStatementSources() {
				if mask&(1<<i) != 0 {
					family := families[i]
					failed[family] = true
					sources = append(sources, stubStatementSource{
						family: family,
						err:    adapters.SourceError{SourceFamily: family, Err: fmt.Errorf("boom")},
					})
				} else {
					sources = append(sources, source)
				}
			}

			svc := newTestService(sources, nil, nil)
			report, err := svc.Valuate(context.Background(), "ACME", domain.AssumptionsForSector(domain.SectorTechnology))
			require.NoError(t, err)

			failedFamilies := map[domain.StatementFamily]bool{}
			for _, failure := range report.SourceFailures {
				failedFamilies[failure.Family] = true
			}
			assert.Equal(t, failed, failedFamilies)

			if len(report.History) > 0 {
				entry := report.History[0]
				assert.Equal(t, failed[domain.FamilyIncome], entry.Revenue == nil)
				assert.Equal(t, failed[domain.FamilyBalance], entry.TotalDebt == nil)
				assert.Equal(t, failed[domain.FamilyCashflow], entry.FreeCashFlow == nil)
			} else {
				// all three failed is not part of this matrix
				assert.Less(t, len(failed), 3)
			}
		})
	}
}

func Test_Valuate_quoteFailureIsTerminal(t *testing.T) {
	svc := NewValuationService(
		allStatementSources(),
		stubRatiosSource{ratios: &domain.KeyRatios{}},
		stubQuoteSource{err: adapters.SourceError{SourceFamily: domain.FamilyQuote, Err: fmt.Errorf("unknown symbol")}},
		stubPriceSource{},
	)

	_, err := svc.Valuate(context.Background(), "NOPE", domain.AssumptionsForSector(domain.SectorTechnology))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to identify NOPE")
}

func Test_Valuate_ancillarySourceFailuresAbsorbed(t *testing.T) {
	svc := newTestService(allStatementSources(), fmt.Errorf("ratios down"), fmt.Errorf("prices down"))

	report, err := svc.Valuate(context.Background(), "ACME", domain.AssumptionsForSector(domain.SectorTechnology))
	require.NoError(t, err)
	assert.Nil(t, report.KeyRatios.ForwardPE)
	assert.Empty(t, report.PriceHistory)
	assert.Len(t, report.SourceFailures, 2)
}

func Test_Valuate_slowSourceTimesOut(t *testing.T) {
	slow := stubStatementSource{
		family: domain.FamilyCashflow,
		delay:  time.Second,
	}
	sources := allStatementSources()
	sources[2] = slow

	svc := valuationServiceHandler{
		StatementSources: sources,
		RatiosSource:     stubRatiosSource{ratios: &domain.KeyRatios{}},
		QuoteSource:      stubQuoteSource{quote: &domain.Quote{Symbol: "ACME", Price: 100}},
		PriceSource:      stubPriceSource{},
		SourceTimeout:    10 * time.Millisecond,
	}

	report, err := svc.Valuate(context.Background(), "ACME", domain.AssumptionsForSector(domain.SectorTechnology))
	require.NoError(t, err)

	timedOut := false
	for _, failure := range report.SourceFailures {
		if failure.Family == domain.FamilyCashflow {
			timedOut = true
		}
	}
	assert.True(t, timedOut, "timed-out source should be recorded as failed")
	if len(report.History) > 0 {
		assert.Nil(t, report.History[0].FreeCashFlow)
	}
}

// blockingStatementSource ignores its context entirely, like a client
// library with no cancellation support.
type blockingStatementSource struct {
	family domain.StatementFamily
}

func (s blockingStatementSource) Family() domain.StatementFamily { return s.family }

func (s blockingStatementSource) Fetch(ctx context.Context, symbol string) (*domain.StatementSeries, error) {
	select {}
}

func Test_Valuate_contextIgnoringSourceSettlesAtDeadline(t *testing.T) {
	sources := allStatementSources()
	sources[2] = blockingStatementSource{family: domain.FamilyCashflow}

	svc := valuationServiceHandler{
		StatementSources: sources,
		RatiosSource:     stubRatiosSource{ratios: &domain.KeyRatios{}},
		QuoteSource:      stubQuoteSource{quote: &domain.Quote{Symbol: "ACME", Price: 100}},
		PriceSource:      stubPriceSource{},
		SourceTimeout:    10 * time.Millisecond,
	}

	start := time.Now()
	report, err := svc.Valuate(context.Background(), "ACME", domain.AssumptionsForSector(domain.SectorTechnology))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 500*time.Millisecond, "request must settle at the branch deadline, not when the call returns")

	timedOut := false
	for _, failure := range report.SourceFailures {
		if failure.Family == domain.FamilyCashflow {
			timedOut = true
		}
	}
	assert.True(t, timedOut, "hung source should be recorded as failed")
}

func Test_Valuate_quoteSettlesEmpty(t *testing.T) {
	svc := NewValuationService(
		allStatementSources(),
		stubRatiosSource{ratios: &domain.KeyRatios{}},
		stubQuoteSource{},
		stubPriceSource{},
	)

	_, err := svc.Valuate(context.Background(), "ACME", domain.AssumptionsForSector(domain.SectorTechnology))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quote source returned no data for ACME")
	assert.NotContains(t, err.Error(), "%!w")
}

func Test_Valuate_emptySymbol(t *testing.T) {
	svc := newTestService(allStatementSources(), nil, nil)
	_, err := svc.Valuate(context.Background(), "", domain.AssumptionsForSector(domain.SectorTechnology))
	require.Error(t, err)
}
