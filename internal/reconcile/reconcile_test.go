package reconcile

import (
	"stockval/internal/domain"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func endOf(year int) domain.PeriodEnd {
	return domain.PeriodEnd{Time: time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)}
}

func incomeSeries(statements ...domain.Statement) *domain.StatementSeries {
	return &domain.StatementSeries{Family: domain.FamilyIncome, Statements: statements}
}

func balanceSeries(statements ...domain.Statement) *domain.StatementSeries {
	return &domain.StatementSeries{Family: domain.FamilyBalance, Statements: statements}
}

func cashflowSeries(statements ...domain.Statement) *domain.StatementSeries {
	return &domain.StatementSeries{Family: domain.FamilyCashflow, Statements: statements}
}

func Test_Reconcile(t *testing.T) {
	income := incomeSeries(
		domain.Statement{
			Family: domain.FamilyIncome,
			End:    endOf(2023),
			Values: map[domain.Metric]float64{
				domain.MetricRevenue:   1000,
				domain.MetricNetIncome: 120,
			},
		},
		domain.Statement{
			Family: domain.FamilyIncome,
			TTM:    true,
			Values: map[domain.Metric]float64{
				domain.MetricRevenue: 1100,
			},
		},
	)
	balance := balanceSeries(
		domain.Statement{
			Family: domain.FamilyBalance,
			End:    endOf(2023),
			Values: map[domain.Metric]float64{
				domain.MetricTotalDebt:   500,
				domain.MetricTotalEquity: 250,
			},
		},
	)
	cashflow := cashflowSeries(
		domain.Statement{
			Family: domain.FamilyCashflow,
			End:    endOf(2023),
			Values: map[domain.Metric]float64{
				domain.MetricFreeCashFlow: 90,
			},
		},
	)

	history := Reconcile(cashflow, balance, income)
	require.Len(t, history, 2)

	// ascending: FY2023 first, TTM last
	fy := history[0]
	assert.Equal(t, domain.FiscalPeriod{Year: 2023}, fy.Period)
	require.NotNil(t, fy.Revenue)
	assert.Equal(t, 1000.0, *fy.Revenue)
	require.NotNil(t, fy.FreeCashFlow)
	assert.Equal(t, 90.0, *fy.FreeCashFlow)
	require.NotNil(t, fy.DebtToEquity)
	assert.Equal(t, 2.0, *fy.DebtToEquity)

	ttm := history[1]
	assert.True(t, ttm.Period.TTM)
	require.NotNil(t, ttm.Revenue)
	assert.Equal(t, 1100.0, *ttm.Revenue)
	assert.Nil(t, ttm.DebtToEquity)
}

func Test_Reconcile_orderIndependent(t *testing.T) {
	a := domain.Statement{
		Family: domain.FamilyIncome,
		End:    endOf(2022),
		Values: map[domain.Metric]float64{domain.MetricRevenue: 800},
	}
	b := domain.Statement{
		Family: domain.FamilyIncome,
		End:    endOf(2023),
		Values: map[domain.Metric]float64{domain.MetricRevenue: 900},
	}
	c := domain.Statement{
		Family: domain.FamilyBalance,
		End:    endOf(2023),
		Values: map[domain.Metric]float64{domain.MetricTotalEquity: 400},
	}

	forward := Reconcile(nil, balanceSeries(c), incomeSeries(a, b))
	reversed := Reconcile(nil, balanceSeries(c), incomeSeries(b, a))

	require.Equal(t, "", cmp.Diff(forward, reversed))
}

func Test_Reconcile_familyOwnership(t *testing.T) {
	// a balance-sheet source reporting revenue must not set it
	balance := balanceSeries(domain.Statement{
		Family: domain.FamilyBalance,
		End:    endOf(2023),
		Values: map[domain.Metric]float64{
			domain.MetricRevenue:     999,
			domain.MetricTotalEquity: 100,
		},
	})

	history := Reconcile(nil, balance, nil)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].Revenue)
	require.NotNil(t, history[0].TotalEquity)
}

func Test_Reconcile_missingSeries(t *testing.T) {
	history := Reconcile(nil, nil, incomeSeries(domain.Statement{
		Family: domain.FamilyIncome,
		End:    endOf(2023),
		Values: map[domain.Metric]float64{domain.MetricRevenue: 100},
	}))
	require.Len(t, history, 1)
	assert.Nil(t, history[0].TotalDebt)
	assert.Nil(t, history[0].FreeCashFlow)
}

func Test_deriveDebtToEquity(t *testing.T) {
	t.Run("nil when equity zero", func(t *testing.T) {
		e := &domain.FinancialHistoryEntry{
			TotalDebt:   domain.Float64Ptr(100),
			TotalEquity: domain.Float64Ptr(0),
		}
		deriveDebtToEquity(e)
		assert.Nil(t, e.DebtToEquity)
	})
	t.Run("nil when equity absent", func(t *testing.T) {
		e := &domain.FinancialHistoryEntry{TotalDebt: domain.Float64Ptr(100)}
		deriveDebtToEquity(e)
		assert.Nil(t, e.DebtToEquity)
	})
	t.Run("rounded to 2dp", func(t *testing.T) {
		e := &domain.FinancialHistoryEntry{
			TotalDebt:   domain.Float64Ptr(100),
			TotalEquity: domain.Float64Ptr(300),
		}
		deriveDebtToEquity(e)
		require.NotNil(t, e.DebtToEquity)
		assert.Equal(t, 0.33, *e.DebtToEquity)
	})
}

func Test_DistinctPeriods(t *testing.T) {
	history := []domain.FinancialHistoryEntry{
		{Period: domain.FiscalPeriod{Year: 2022}},
		{Period: domain.FiscalPeriod{Year: 2022}},
		{Period: domain.FiscalPeriod{Year: 2023}},
		{Period: domain.FiscalPeriod{TTM: true}},
	}
	assert.Equal(t, []string{"2022", "2023", "TTM"}, DistinctPeriods(history))
}

func Test_ValidatePeriodKeys(t *testing.T) {
	ok := []domain.FinancialHistoryEntry{
		{Period: domain.FiscalPeriod{Year: 2022}},
		{Period: domain.FiscalPeriod{Year: 2023}},
	}
	require.NoError(t, ValidatePeriodKeys(ok))

	dup := append(ok, domain.FinancialHistoryEntry{Period: domain.FiscalPeriod{Year: 2023}})
	require.Error(t, ValidatePeriodKeys(dup))
}
