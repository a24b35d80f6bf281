// Package stockanalysis is the HTTP client for the fundamentals provider.
// It returns typed statement series; all scraping/extraction mechanics live
// on the provider side of this boundary.
package stockanalysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"stockval/internal/domain"
	"stockval/internal/logger"
	"stockval/internal/sanitize"
	"time"
)

type Client struct {
	HttpClient *http.Client
	BaseUrl    string
	ApiKey     string
}

const defaultBaseUrl = "https://api.stockanalysis.dev/v1"

// statementPayload is one reporting period as the provider ships it. Field
// values may be bare numbers, {raw, fmt} pairs, or formatted strings; the
// end date may be epoch seconds or a formatted date.
type statementPayload struct {
	EndDate domain.PeriodEnd             `json:"end_date"`
	TTM     bool                         `json:"ttm"`
	Fields  map[string]sanitize.RawValue `json:"fields"`
}

type statementResponse struct {
	Symbol     string             `json:"symbol"`
	Statements []statementPayload `json:"statements"`
}

var familyEndpoints = map[domain.StatementFamily]string{
	domain.FamilyIncome:   "income-statement",
	domain.FamilyBalance:  "balance-sheet",
	domain.FamilyCashflow: "cash-flow",
}

// provider field names -> reconciled metric, per family. Unlisted fields are
// ignored rather than treated as errors.
var fieldMetrics = map[domain.StatementFamily]map[string]domain.Metric{
	domain.FamilyIncome: {
		"revenue":            domain.MetricRevenue,
		"operating_income":   domain.MetricEbit,
		"ebitda":             domain.MetricEbitda,
		"net_income":         domain.MetricNetIncome,
		"income_tax":         domain.MetricTaxProvision,
		"pretax_income":      domain.MetricPretaxIncome,
		"shares_outstanding": domain.MetricShares,
	},
	domain.FamilyBalance: {
		"total_debt":           domain.MetricTotalDebt,
		"shareholder_equity":   domain.MetricTotalEquity,
		"cash_and_equivalents": domain.MetricCash,
	},
	domain.FamilyCashflow: {
		"free_cash_flow":       domain.MetricFreeCashFlow,
		"operating_cash_flow":  domain.MetricOperatingCashFlow,
		"capital_expenditures": domain.MetricCapex,
	},
}

// GetStatementSeries fetches one statement family for a symbol. On any
// structural mismatch it returns a typed failure, never partial garbage.
func (c Client) GetStatementSeries(ctx context.Context, symbol string, family domain.StatementFamily) (*domain.StatementSeries, error) {
	endpoint, ok := familyEndpoints[family]
	if !ok {
		return nil, fmt.Errorf("no fundamentals endpoint for statement family %s", family)
	}

	baseUrl := c.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}
	url := fmt.Sprintf("%s/company/%s/%s?apikey=%s", baseUrl, symbol, endpoint, c.ApiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	response, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("received status code %d and failed to read body: %w", response.StatusCode, err)
	}

	if response.StatusCode == http.StatusTooManyRequests {
		logger.FromContext(ctx).Warn("fundamentals provider rate limit hit, sleeping...")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(30 * time.Second):
		}
		return c.GetStatementSeries(ctx, symbol, family)
	} else if response.StatusCode != http.StatusOK {
		type errResponse struct {
			Error string `json:"error"`
		}
		errJson := errResponse{}
		err = json.Unmarshal(responseBytes, &errJson)
		if err != nil {
			return nil, fmt.Errorf("received status code %d and failed to read error: %w", response.StatusCode, err)
		}
		return nil, fmt.Errorf("failed with status code %d: %s", response.StatusCode, errJson.Error)
	}

	var responseJson statementResponse
	err = json.Unmarshal(responseBytes, &responseJson)
	if err != nil {
		return nil, err
	}

	return seriesFromResponse(family, responseJson)
}

func seriesFromResponse(family domain.StatementFamily, in statementResponse) (*domain.StatementSeries, error) {
	metrics := fieldMetrics[family]
	series := &domain.StatementSeries{Family: family}

	for _, payload := range in.Statements {
		if payload.EndDate.IsZero() && !payload.TTM {
			continue
		}
		statement := domain.Statement{
			Family: family,
			End:    payload.EndDate,
			TTM:    payload.TTM,
			Values: map[domain.Metric]float64{},
		}
		for field, raw := range payload.Fields {
			metric, ok := metrics[field]
			if !ok {
				continue
			}
			if !raw.IsSet() {
				continue
			}
			statement.Values[metric] = raw.Float()
		}
		series.Statements = append(series.Statements, statement)
	}

	if len(series.Statements) == 0 {
		return nil, fmt.Errorf("provider returned no usable %s statements", family)
	}

	return series, nil
}
