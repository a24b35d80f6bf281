package adapters

import (
	"context"
	"fmt"
	"stockval/internal/domain"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/piquette/finance-go/quote"
)

// QuoteAdapter serves the live quote from the market data feed.
type QuoteAdapter struct{}

func (QuoteAdapter) Fetch(ctx context.Context, symbol string) (*domain.Quote, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return nil, SourceError{
			SourceFamily: domain.FamilyQuote,
			Err:          fmt.Errorf("failed to fetch quote for %s: %w", symbol, err),
		}
	}
	if q == nil || q.RegularMarketPrice == 0 {
		return nil, SourceError{
			SourceFamily: domain.FamilyQuote,
			Err:          fmt.Errorf("no quote found for %s", symbol),
		}
	}
	return &domain.Quote{
		Symbol:        symbol,
		Price:         q.RegularMarketPrice,
		PreviousClose: q.RegularMarketPreviousClose,
	}, nil
}

// RatiosAdapter serves trailing/forward multiples from the market data feed.
// Zero-valued fields from the feed are reported as absent, not as zero.
type RatiosAdapter struct{}

func (RatiosAdapter) Fetch(ctx context.Context, symbol string) (*domain.KeyRatios, error) {
	eq, err := equity.Get(symbol)
	if err != nil {
		return nil, SourceError{
			SourceFamily: domain.FamilyKeyRatios,
			Err:          fmt.Errorf("failed to fetch key ratios for %s: %w", symbol, err),
		}
	}
	if eq == nil {
		return nil, SourceError{
			SourceFamily: domain.FamilyKeyRatios,
			Err:          fmt.Errorf("no equity data found for %s", symbol),
		}
	}

	ratios := &domain.KeyRatios{}
	setIfNonZero := func(dst **float64, v float64) {
		if v != 0 {
			*dst = &v
		}
	}
	setIfNonZero(&ratios.TrailingPE, eq.TrailingPE)
	setIfNonZero(&ratios.ForwardPE, eq.ForwardPE)
	setIfNonZero(&ratios.TrailingEPS, eq.EpsTrailingTwelveMonths)
	setIfNonZero(&ratios.ForwardEPS, eq.EpsForward)
	setIfNonZero(&ratios.MarketCap, float64(eq.MarketCap))
	setIfNonZero(&ratios.Shares, float64(eq.SharesOutstanding))

	return ratios, nil
}

// PriceHistoryAdapter serves the daily price series.
type PriceHistoryAdapter struct{}

func (PriceHistoryAdapter) Fetch(ctx context.Context, symbol string, years int) ([]domain.PriceBar, error) {
	now := time.Now()
	start := now.AddDate(-years, 0, 0)
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&now),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	bars := []domain.PriceBar{}
	for iter.Next() {
		bar := iter.Bar()
		bars = append(bars, domain.PriceBar{
			Date:     time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: bar.AdjClose,
			Volume:   bar.Volume,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, SourceError{
			SourceFamily: domain.FamilyPrices,
			Err:          fmt.Errorf("failed to fetch price history for %s: %w", symbol, err),
		}
	}
	if len(bars) == 0 {
		return nil, SourceError{
			SourceFamily: domain.FamilyPrices,
			Err:          fmt.Errorf("empty price history for %s", symbol),
		}
	}

	return bars, nil
}
