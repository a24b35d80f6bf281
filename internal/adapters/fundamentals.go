package adapters

import (
	"context"
	"fmt"
	"stockval/internal/domain"
	"stockval/pkg/stockanalysis"
)

// FundamentalsAdapter serves one statement family from the fundamentals
// provider. Three instances cover income statement, balance sheet, and cash
// flow.
type FundamentalsAdapter struct {
	Client          stockanalysis.Client
	StatementFamily domain.StatementFamily
}

func NewFundamentalsAdapters(client stockanalysis.Client) []StatementSource {
	return []StatementSource{
		FundamentalsAdapter{Client: client, StatementFamily: domain.FamilyIncome},
		FundamentalsAdapter{Client: client, StatementFamily: domain.FamilyBalance},
		FundamentalsAdapter{Client: client, StatementFamily: domain.FamilyCashflow},
	}
}

func (a FundamentalsAdapter) Family() domain.StatementFamily {
	return a.StatementFamily
}

func (a FundamentalsAdapter) Fetch(ctx context.Context, symbol string) (*domain.StatementSeries, error) {
	series, err := a.Client.GetStatementSeries(ctx, symbol, a.StatementFamily)
	if err != nil {
		return nil, SourceError{
			SourceFamily: a.StatementFamily,
			Err:          fmt.Errorf("failed to fetch %s for %s: %w", a.StatementFamily, symbol, err),
		}
	}
	return series, nil
}
