package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the live market snapshot for a security.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previousClose"`
}

// PriceBar is one day of the historical price series.
type PriceBar struct {
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adjClose"`
	Volume   int             `json:"volume"`
}

// KeyRatios are forward-looking and market-level figures from the ratios
// provider. Nil means the provider did not report the figure; the calculator
// never fabricates a forward number.
type KeyRatios struct {
	TrailingPE  *float64 `json:"trailingPe,omitempty"`
	ForwardPE   *float64 `json:"forwardPe,omitempty"`
	TrailingEPS *float64 `json:"trailingEps,omitempty"`
	ForwardEPS  *float64 `json:"forwardEps,omitempty"`
	MarketCap   *float64 `json:"marketCap,omitempty"`
	Shares      *float64 `json:"sharesOutstanding,omitempty"`
}

// HistoricalAverages are the four trailing multi-period estimates. Each is a
// percentage; nil is the explicit insufficient-data marker (zero is reserved
// for a genuine sanitized zero).
type HistoricalAverages struct {
	SalesGrowth     *float64 `json:"salesGrowthPct,omitempty"`
	EbitMargin      *float64 `json:"ebitMarginPct,omitempty"`
	TaxRate         *float64 `json:"taxRatePct,omitempty"`
	ShareCountDrift *float64 `json:"shareCountDriftPct,omitempty"`
}

// Assumptions feed one valuation request. Supplied once, never mutated
// mid-computation.
type Assumptions struct {
	Sector       Sector          `json:"sector"`
	DiscountRate float64         `json:"discountRate"`
	Targets      TargetMultiples `json:"targetMultiples"`
	Style        GrowthStyle     `json:"growthStyle"`

	// optional overrides for the historical estimator's output, as percentages
	SalesGrowth     *float64 `json:"salesGrowthPct,omitempty"`
	EbitMargin      *float64 `json:"ebitMarginPct,omitempty"`
	TaxRate         *float64 `json:"taxRatePct,omitempty"`
	ShareCountDrift *float64 `json:"shareCountDriftPct,omitempty"`
}

// AssumptionsForSector builds request assumptions from the fixed sector
// tables. Unknown sectors get the default profile.
func AssumptionsForSector(s Sector) Assumptions {
	profile := ProfileFor(s)
	return Assumptions{
		Sector:       s,
		DiscountRate: profile.DiscountRate,
		Targets:      profile.Targets,
		Style:        profile.Style,
	}
}

// MultipleSet holds the four relative multiples for one scenario. Nil means
// the multiple could not be computed (absent or zero denominator).
type MultipleSet struct {
	PER      *float64 `json:"per,omitempty"`
	EvEbitda *float64 `json:"evEbitda,omitempty"`
	EvEbit   *float64 `json:"evEbit,omitempty"`
	EvFcf    *float64 `json:"evFcf,omitempty"`
}

// ScenarioPrices are the per-share prices implied by applying the sector
// target multiples to one scenario's figures.
type ScenarioPrices struct {
	PER      *float64 `json:"per,omitempty"`
	EvEbitda *float64 `json:"evEbitda,omitempty"`
	EvEbit   *float64 `json:"evEbit,omitempty"`
	EvFcf    *float64 `json:"evFcf,omitempty"`
}

// ProjectedFinancials are next-period operating figures derived from the
// historical estimates. NTM uses half the annual growth rate.
type ProjectedFinancials struct {
	Revenue      *float64 `json:"revenue,omitempty"`
	Ebit         *float64 `json:"ebit,omitempty"`
	Ebitda       *float64 `json:"ebitda,omitempty"`
	FreeCashFlow *float64 `json:"freeCashFlow,omitempty"`
	NetIncome    *float64 `json:"netIncome,omitempty"`
	Shares       *float64 `json:"shares,omitempty"`
	EPS          *float64 `json:"eps,omitempty"`
}

// IntrinsicValue holds the three independent method outputs and their
// arithmetic average. Methods that could not run stay nil and are excluded
// from the average.
type IntrinsicValue struct {
	DiscountedCashFlow *float64 `json:"discountedCashFlow,omitempty"`
	GrowthMultiple     *float64 `json:"growthMultiple,omitempty"`
	SectorMultiple     *float64 `json:"sectorMultiple,omitempty"`
	Average            *float64 `json:"average,omitempty"`
}

// Classification is the qualitative verdict from the margin of safety bands.
type Classification string

const (
	ClassUndervalued Classification = "undervalued"
	ClassFairValued  Classification = "fairly_priced"
	ClassOvervalued  Classification = "overvalued"
	ClassNeutral     Classification = "neutral"
	ClassUnknown     Classification = "unknown"
)

// Margin of safety bands, in percent.
const (
	UndervaluedThresholdPct = 25.0
	FairValueBandPct        = 5.0
)

// Classify applies the band convention to a percentage margin of safety.
func Classify(marginOfSafetyPct *float64) Classification {
	if marginOfSafetyPct == nil {
		return ClassUnknown
	}
	mos := *marginOfSafetyPct
	switch {
	case mos >= UndervaluedThresholdPct:
		return ClassUndervalued
	case mos >= -FairValueBandPct && mos <= FairValueBandPct:
		return ClassFairValued
	case mos < -FairValueBandPct:
		return ClassOvervalued
	default:
		return ClassNeutral
	}
}

// ValuationResult is the calculator's output for one request.
type ValuationResult struct {
	CurrentPrice float64 `json:"currentPrice"`

	LTMMultiples MultipleSet `json:"ltmMultiples"`
	NTMMultiples MultipleSet `json:"ntmMultiples"`

	ProjectedNTM    ProjectedFinancials `json:"projectedNtm"`
	ProjectedNextFY ProjectedFinancials `json:"projectedNextFiscalYear"`

	ImpliedLTM    ScenarioPrices `json:"impliedPricesLtm"`
	ImpliedNTM    ScenarioPrices `json:"impliedPricesNtm"`
	ImpliedNextFY ScenarioPrices `json:"impliedPricesNextFiscalYear"`

	Intrinsic IntrinsicValue `json:"intrinsicValue"`

	MarginOfSafetyPct *float64       `json:"marginOfSafetyPct,omitempty"`
	MarginOfSafetyAbs *float64       `json:"marginOfSafetyAbs,omitempty"`
	Classification    Classification `json:"classification"`
}

// SourceFailure records a source adapter that did not settle successfully.
// The affected metric family is entirely absent from the report.
type SourceFailure struct {
	Family StatementFamily `json:"family"`
	Error  string          `json:"error"`
}

// ValuationReport is the single structured record returned to the caller:
// best-effort, with explicit absence markers rather than hard failures.
type ValuationReport struct {
	Symbol      string    `json:"symbol"`
	GeneratedAt time.Time `json:"generatedAt"`

	Quote        Quote                   `json:"quote"`
	History      []FinancialHistoryEntry `json:"history"`
	Averages     HistoricalAverages      `json:"averages"`
	KeyRatios    KeyRatios               `json:"keyRatios"`
	Valuation    ValuationResult         `json:"valuation"`
	PriceHistory []PriceBar              `json:"priceHistory,omitempty"`

	Assumptions    Assumptions     `json:"assumptions"`
	SourceFailures []SourceFailure `json:"sourceFailures,omitempty"`
}
