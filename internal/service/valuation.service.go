package service

import (
	"context"
	"fmt"
	"stockval/internal/adapters"
	"stockval/internal/domain"
	"stockval/internal/estimate"
	"stockval/internal/logger"
	"stockval/internal/reconcile"
	"stockval/internal/valuation"
	"sync"
	"time"
)

const (
	defaultSourceTimeout     = 15 * time.Second
	defaultPriceHistoryYears = 5
)

// ValuationService runs the whole pipeline for one security: parallel
// source fan-out, reconciliation, historical estimation, and valuation.
type ValuationService interface {
	Valuate(ctx context.Context, symbol string, assumptions domain.Assumptions) (*domain.ValuationReport, error)
}

type valuationServiceHandler struct {
	StatementSources  []adapters.StatementSource
	RatiosSource      adapters.RatiosSource
	QuoteSource       adapters.QuoteSource
	PriceSource       adapters.PriceHistorySource
	SourceTimeout     time.Duration
	PriceHistoryYears int
}

func NewValuationService(
	statementSources []adapters.StatementSource,
	ratiosSource adapters.RatiosSource,
	quoteSource adapters.QuoteSource,
	priceSource adapters.PriceHistorySource,
) ValuationService {
	return valuationServiceHandler{
		StatementSources:  statementSources,
		RatiosSource:      ratiosSource,
		QuoteSource:       quoteSource,
		PriceSource:       priceSource,
		SourceTimeout:     defaultSourceTimeout,
		PriceHistoryYears: defaultPriceHistoryYears,
	}
}

// fetchResult is one source branch's settlement. Exactly one of the payload
// fields is populated on success.
type fetchResult struct {
	Family domain.StatementFamily
	Series *domain.StatementSeries
	Ratios *domain.KeyRatios
	Quote  *domain.Quote
	Prices []domain.PriceBar
	Err    error
}

// Valuate fans out to every source concurrently and waits for all of them
// to settle. Partial source failure never aborts the request; only a failed
// quote is terminal, since nothing can be valued without a current price.
func (h valuationServiceHandler) Valuate(ctx context.Context, symbol string, assumptions domain.Assumptions) (*domain.ValuationReport, error) {
	if symbol == "" {
		return nil, fmt.Errorf("cannot run valuation without a symbol")
	}
	log := logger.FromContext(ctx)

	results := h.settleAll(ctx, symbol)

	var (
		quote    *domain.Quote
		ratios   domain.KeyRatios
		prices   []domain.PriceBar
		series   = map[domain.StatementFamily]*domain.StatementSeries{}
		failures = []domain.SourceFailure{}
		quoteErr error
	)
	for _, res := range results {
		if res.Err != nil {
			if res.Family == domain.FamilyQuote {
				quoteErr = res.Err
			}
			failures = append(failures, domain.SourceFailure{
				Family: res.Family,
				Error:  res.Err.Error(),
			})
			log.Warnw("source failed, metric family will be absent",
				"symbol", symbol, "family", res.Family, "error", res.Err)
			continue
		}
		switch res.Family {
		case domain.FamilyQuote:
			quote = res.Quote
		case domain.FamilyKeyRatios:
			ratios = *res.Ratios
		case domain.FamilyPrices:
			prices = res.Prices
		default:
			series[res.Family] = res.Series
		}
	}

	if quote == nil {
		if quoteErr == nil {
			quoteErr = fmt.Errorf("quote source returned no data for %s", symbol)
		}
		return nil, fmt.Errorf("failed to identify %s: %w", symbol, quoteErr)
	}

	history := reconcile.Reconcile(
		series[domain.FamilyCashflow],
		series[domain.FamilyBalance],
		series[domain.FamilyIncome],
	)
	if err := reconcile.ValidatePeriodKeys(history); err != nil {
		log.Warnw("period key invariant violated", "symbol", symbol, "error", err)
	}

	averages := estimate.Averages(history)

	result := valuation.Compute(valuation.Input{
		History:     history,
		Quote:       *quote,
		Ratios:      ratios,
		Averages:    averages,
		Assumptions: assumptions,
	})

	return &domain.ValuationReport{
		Symbol:         symbol,
		GeneratedAt:    time.Now().UTC(),
		Quote:          *quote,
		History:        history,
		Averages:       averages,
		KeyRatios:      ratios,
		Valuation:      result,
		PriceHistory:   prices,
		Assumptions:    assumptions,
		SourceFailures: failures,
	}, nil
}

// sourceBranch is one concurrent fetch: the family it settles and the call
// that produces its result.
type sourceBranch struct {
	family domain.StatementFamily
	call   func(context.Context) fetchResult
}

// settleAll launches one goroutine per source and collects every branch's
// result - success or failure - before returning. A failing branch cannot
// cancel or corrupt its siblings, and a provider call that ignores its
// context cannot hold the request past the branch deadline: the branch
// settles as a timeout failure and the straggler goroutine is abandoned.
func (h valuationServiceHandler) settleAll(ctx context.Context, symbol string) []fetchResult {
	branches := []sourceBranch{}

	for _, source := range h.StatementSources {
		source := source
		branches = append(branches, sourceBranch{
			family: source.Family(),
			call: func(ctx context.Context) fetchResult {
				series, err := source.Fetch(ctx, symbol)
				return fetchResult{Family: source.Family(), Series: series, Err: err}
			},
		})
	}
	if h.RatiosSource != nil {
		branches = append(branches, sourceBranch{
			family: domain.FamilyKeyRatios,
			call: func(ctx context.Context) fetchResult {
				ratios, err := h.RatiosSource.Fetch(ctx, symbol)
				return fetchResult{Family: domain.FamilyKeyRatios, Ratios: ratios, Err: err}
			},
		})
	}
	if h.PriceSource != nil {
		branches = append(branches, sourceBranch{
			family: domain.FamilyPrices,
			call: func(ctx context.Context) fetchResult {
				prices, err := h.PriceSource.Fetch(ctx, symbol, h.PriceHistoryYears)
				return fetchResult{Family: domain.FamilyPrices, Prices: prices, Err: err}
			},
		})
	}
	branches = append(branches, sourceBranch{
		family: domain.FamilyQuote,
		call: func(ctx context.Context) fetchResult {
			quote, err := h.QuoteSource.Fetch(ctx, symbol)
			return fetchResult{Family: domain.FamilyQuote, Quote: quote, Err: err}
		},
	})

	resultCh := make(chan fetchResult, len(branches))
	var wg sync.WaitGroup
	for _, branch := range branches {
		branch := branch
		wg.Add(1)
		go func() {
			defer wg.Done()
			branchCtx, cancel := context.WithTimeout(ctx, h.SourceTimeout)
			defer cancel()

			// run the call in its own goroutine so the branch can settle
			// at the deadline even if the call never returns
			callDone := make(chan fetchResult, 1)
			go func() {
				callDone <- branch.call(branchCtx)
			}()

			select {
			case res := <-callDone:
				resultCh <- res
			case <-branchCtx.Done():
				resultCh <- fetchResult{
					Family: branch.family,
					Err:    fmt.Errorf("source %s did not settle: %w", branch.family, branchCtx.Err()),
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := []fetchResult{}
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}
