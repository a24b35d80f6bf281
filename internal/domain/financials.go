package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// StatementFamily identifies which statement a source adapter is responsible for.
// Each family owns a fixed set of history fields; merging across families is
// purely additive, so two adapters never write the same field.
type StatementFamily string

const (
	FamilyIncome    StatementFamily = "income_statement"
	FamilyBalance   StatementFamily = "balance_sheet"
	FamilyCashflow  StatementFamily = "cash_flow"
	FamilyKeyRatios StatementFamily = "key_ratios"
	FamilyPrices    StatementFamily = "price_history"
	FamilyQuote     StatementFamily = "quote"
)

// Metric names a single reconciled history field.
type Metric string

const (
	MetricRevenue           Metric = "revenue"
	MetricEbit              Metric = "ebit"
	MetricEbitda            Metric = "ebitda"
	MetricNetIncome         Metric = "net_income"
	MetricFreeCashFlow      Metric = "free_cash_flow"
	MetricOperatingCashFlow Metric = "operating_cash_flow"
	MetricCapex             Metric = "capital_expenditures"
	MetricTotalDebt         Metric = "total_debt"
	MetricTotalEquity       Metric = "total_equity"
	MetricCash              Metric = "cash_and_equivalents"
	MetricShares            Metric = "shares_outstanding"
	MetricTaxProvision      Metric = "tax_provision"
	MetricPretaxIncome      Metric = "pretax_income"
)

// FamilyOwnership maps each statement family to the history fields it owns.
// The reconciler only copies owned metrics, so a misbehaving source cannot
// clobber another family's figures.
var FamilyOwnership = map[StatementFamily][]Metric{
	FamilyIncome: {
		MetricRevenue, MetricEbit, MetricEbitda, MetricNetIncome,
		MetricTaxProvision, MetricPretaxIncome, MetricShares,
	},
	FamilyBalance: {
		MetricTotalDebt, MetricTotalEquity, MetricCash,
	},
	FamilyCashflow: {
		MetricFreeCashFlow, MetricOperatingCashFlow, MetricCapex,
	},
}

// FiscalPeriod keys one reconciled history entry. TTM marks the trailing
// twelve month row; otherwise Year holds the calendar year of the statement's
// end date.
type FiscalPeriod struct {
	Year int
	TTM  bool
}

func (p FiscalPeriod) String() string {
	if p.TTM {
		return "TTM"
	}
	return fmt.Sprintf("%d", p.Year)
}

// Before orders periods chronologically, with TTM sorting after every
// fiscal year.
func (p FiscalPeriod) Before(other FiscalPeriod) bool {
	if p.TTM {
		return false
	}
	if other.TTM {
		return true
	}
	return p.Year < other.Year
}

// PeriodEnd is a statement end date that may arrive structured (unix epoch
// seconds) or as a formatted string. Sources disagree on which form they use,
// so both unmarshal into the same type.
type PeriodEnd struct {
	Time time.Time
}

var periodEndLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"Jan 2, 2006",
	"01/02/2006",
	"2006",
}

func (p *PeriodEnd) UnmarshalJSON(b []byte) error {
	var epoch int64
	if err := json.Unmarshal(b, &epoch); err == nil {
		p.Time = time.Unix(epoch, 0).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("period end is neither epoch nor string: %s", string(b))
	}
	s = strings.TrimSpace(s)
	for _, layout := range periodEndLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			p.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized period end date %q", s)
}

func (p PeriodEnd) IsZero() bool {
	return p.Time.IsZero()
}

// Year is the calendar-year component used as the fiscal period key.
func (p PeriodEnd) Year() int {
	return p.Time.Year()
}

// Statement is one period's figures from a single source adapter.
type Statement struct {
	Family StatementFamily
	End    PeriodEnd
	TTM    bool
	Values map[Metric]float64
}

// StatementSeries is everything one adapter returned for a symbol.
type StatementSeries struct {
	Family     StatementFamily
	Statements []Statement
}

// FinancialHistoryEntry is one fiscal period's reconciled record. Every field
// is optional; nil means the owning source did not report it.
type FinancialHistoryEntry struct {
	Period FiscalPeriod `json:"period"`

	Revenue           *float64 `json:"revenue,omitempty"`
	Ebit              *float64 `json:"ebit,omitempty"`
	Ebitda            *float64 `json:"ebitda,omitempty"`
	NetIncome         *float64 `json:"netIncome,omitempty"`
	FreeCashFlow      *float64 `json:"freeCashFlow,omitempty"`
	OperatingCashFlow *float64 `json:"operatingCashFlow,omitempty"`
	Capex             *float64 `json:"capitalExpenditures,omitempty"`
	TotalDebt         *float64 `json:"totalDebt,omitempty"`
	TotalEquity       *float64 `json:"totalEquity,omitempty"`
	Cash              *float64 `json:"cashAndEquivalents,omitempty"`
	Shares            *float64 `json:"sharesOutstanding,omitempty"`
	TaxProvision      *float64 `json:"taxProvision,omitempty"`
	PretaxIncome      *float64 `json:"pretaxIncome,omitempty"`

	// derived at merge time, never sourced
	DebtToEquity *float64 `json:"debtToEquity,omitempty"`
}

// Set assigns a metric by name. Unknown metrics are dropped.
func (e *FinancialHistoryEntry) Set(m Metric, v float64) {
	x := v
	switch m {
	case MetricRevenue:
		e.Revenue = &x
	case MetricEbit:
		e.Ebit = &x
	case MetricEbitda:
		e.Ebitda = &x
	case MetricNetIncome:
		e.NetIncome = &x
	case MetricFreeCashFlow:
		e.FreeCashFlow = &x
	case MetricOperatingCashFlow:
		e.OperatingCashFlow = &x
	case MetricCapex:
		e.Capex = &x
	case MetricTotalDebt:
		e.TotalDebt = &x
	case MetricTotalEquity:
		e.TotalEquity = &x
	case MetricCash:
		e.Cash = &x
	case MetricShares:
		e.Shares = &x
	case MetricTaxProvision:
		e.TaxProvision = &x
	case MetricPretaxIncome:
		e.PretaxIncome = &x
	}
}

// Get reads a metric by name; second return is false when unset.
func (e FinancialHistoryEntry) Get(m Metric) (float64, bool) {
	var p *float64
	switch m {
	case MetricRevenue:
		p = e.Revenue
	case MetricEbit:
		p = e.Ebit
	case MetricEbitda:
		p = e.Ebitda
	case MetricNetIncome:
		p = e.NetIncome
	case MetricFreeCashFlow:
		p = e.FreeCashFlow
	case MetricOperatingCashFlow:
		p = e.OperatingCashFlow
	case MetricCapex:
		p = e.Capex
	case MetricTotalDebt:
		p = e.TotalDebt
	case MetricTotalEquity:
		p = e.TotalEquity
	case MetricCash:
		p = e.Cash
	case MetricShares:
		p = e.Shares
	case MetricTaxProvision:
		p = e.TaxProvision
	case MetricPretaxIncome:
		p = e.PretaxIncome
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// SortHistoryAscending orders entries oldest first, TTM last.
func SortHistoryAscending(history []FinancialHistoryEntry) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Period.Before(history[j].Period)
	})
}

// SortHistoryDescending orders entries most recent first, TTM at index 0.
// Growth computations that need oldest-to-newest reverse explicitly.
func SortHistoryDescending(history []FinancialHistoryEntry) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[j].Period.Before(history[i].Period)
	})
}

// Round2 is the repo-wide rounding policy for derived ratios and percentage
// outputs.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Float64Ptr(v float64) *float64 {
	return &v
}
