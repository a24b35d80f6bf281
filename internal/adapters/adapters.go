// Package adapters wraps each external data provider behind a uniform,
// fallible contract. Adapters are stateless and safe to retry; every call is
// bounded by the caller's context.
package adapters

import (
	"context"
	"fmt"
	"stockval/internal/domain"
)

// StatementSource fetches one statement family for a security.
type StatementSource interface {
	Family() domain.StatementFamily
	Fetch(ctx context.Context, symbol string) (*domain.StatementSeries, error)
}

// RatiosSource fetches trailing/forward multiples and market-level figures.
type RatiosSource interface {
	Fetch(ctx context.Context, symbol string) (*domain.KeyRatios, error)
}

// QuoteSource fetches the live quote. A failure here is terminal for the
// whole request - nothing can be valued without a current price.
type QuoteSource interface {
	Fetch(ctx context.Context, symbol string) (*domain.Quote, error)
}

// PriceHistorySource fetches the ordered daily price series.
type PriceHistorySource interface {
	Fetch(ctx context.Context, symbol string, years int) ([]domain.PriceBar, error)
}

// SourceError is the typed failure an adapter settles with. The orchestrator
// records it and the family's metrics become absent downstream.
type SourceError struct {
	SourceFamily domain.StatementFamily
	Err          error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("source %s failed: %s", e.SourceFamily, e.Err.Error())
}

func (e SourceError) Unwrap() error {
	return e.Err
}
