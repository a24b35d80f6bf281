package cmd

import (
	"net/http"
	"os"
	"stockval/api"
	"stockval/internal"
	"stockval/internal/adapters"
	"stockval/internal/service"
	"stockval/internal/universe"
	"stockval/pkg/stockanalysis"
	"time"
)

// InitializeDependencies wires the source adapters into the valuation
// service and returns the api handler.
func InitializeDependencies() (*api.ApiHandler, error) {
	secrets, err := internal.LoadSecrets()
	if err != nil {
		return nil, err
	}

	saClient := stockanalysis.Client{
		HttpClient: &http.Client{Timeout: 30 * time.Second},
		ApiKey:     secrets.StockAnalysisApiKey,
	}

	valuationService := service.NewValuationService(
		adapters.NewFundamentalsAdapters(saClient),
		adapters.RatiosAdapter{},
		adapters.QuoteAdapter{},
		adapters.PriceHistoryAdapter{},
	)

	u := universe.Default()
	if path := os.Getenv("STOCKVAL_UNIVERSE_CSV"); path != "" {
		u, err = universe.LoadCSV(path)
		if err != nil {
			return nil, err
		}
	}

	return &api.ApiHandler{
		ValuationService: valuationService,
		Universe:         u,
	}, nil
}
