package api

import (
	"fmt"
	"stockval/internal/domain"

	"github.com/gin-gonic/gin"
)

type ValuationRequest struct {
	Symbol string `json:"symbol"`
	Sector string `json:"sector"`

	// optional overrides for the sector-fixed assumption tables
	TargetMultiples *domain.TargetMultiples `json:"targetMultiples,omitempty"`
	DiscountRate    *float64                `json:"discountRate,omitempty"`

	// optional overrides for the historical estimator's output, percentages
	SalesGrowthPct     *float64 `json:"salesGrowthPct,omitempty"`
	EbitMarginPct      *float64 `json:"ebitMarginPct,omitempty"`
	TaxRatePct         *float64 `json:"taxRatePct,omitempty"`
	ShareCountDriftPct *float64 `json:"shareCountDriftPct,omitempty"`
}

func (m ApiHandler) valuation(c *gin.Context) {
	var requestBody ValuationRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}
	if requestBody.Symbol == "" {
		returnErrorJsonCode(fmt.Errorf("symbol is required"), c, 400)
		return
	}

	sector := domain.Sector(requestBody.Sector)
	if requestBody.Sector == "" {
		// fall back to the tracked universe's classification when we have one
		if constituent, ok := m.Universe.Lookup(requestBody.Symbol); ok {
			sector = domain.Sector(constituent.Sector)
		}
	}

	assumptions := domain.AssumptionsForSector(sector)
	if requestBody.TargetMultiples != nil {
		assumptions.Targets = *requestBody.TargetMultiples
	}
	if requestBody.DiscountRate != nil {
		assumptions.DiscountRate = *requestBody.DiscountRate
	}
	assumptions.SalesGrowth = requestBody.SalesGrowthPct
	assumptions.EbitMargin = requestBody.EbitMarginPct
	assumptions.TaxRate = requestBody.TaxRatePct
	assumptions.ShareCountDrift = requestBody.ShareCountDriftPct

	report, err := m.ValuationService.Valuate(c.Request.Context(), requestBody.Symbol, assumptions)
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to run valuation: %w", err), c)
		return
	}

	c.JSON(200, report)
}
