// Package reconcile aligns statements from independent sources into one
// per-period financial history. The merge is keyed and order-independent:
// permuting the inputs produces the same history.
package reconcile

import (
	"fmt"
	"stockval/internal/domain"
)

// Reconcile groups the three statement series by fiscal period and merges
// them into one ascending history. Any series may be nil (its family's
// fields stay absent). Merging is additive across families per the ownership
// map; a source never overwrites another family's figures.
func Reconcile(cashflow, balance, income *domain.StatementSeries) []domain.FinancialHistoryEntry {
	entries := map[domain.FiscalPeriod]*domain.FinancialHistoryEntry{}

	for _, series := range []*domain.StatementSeries{cashflow, balance, income} {
		if series == nil {
			continue
		}
		owned := ownedSet(series.Family)
		for _, statement := range series.Statements {
			key, ok := periodKey(statement)
			if !ok {
				continue
			}
			entry, seen := entries[key]
			if !seen {
				entry = &domain.FinancialHistoryEntry{Period: key}
				entries[key] = entry
			}
			for metric, value := range statement.Values {
				if !owned[metric] {
					continue
				}
				// first writer wins within a family; real collisions only
				// happen on duplicate filings for the same period
				if _, set := entry.Get(metric); set {
					continue
				}
				entry.Set(metric, value)
			}
		}
	}

	history := make([]domain.FinancialHistoryEntry, 0, len(entries))
	for _, entry := range entries {
		deriveDebtToEquity(entry)
		history = append(history, *entry)
	}
	domain.SortHistoryAscending(history)

	return history
}

// periodKey derives the fiscal period from the statement's end date. The
// calendar year component is the key regardless of how the date arrived.
func periodKey(s domain.Statement) (domain.FiscalPeriod, bool) {
	if s.TTM {
		return domain.FiscalPeriod{TTM: true}, true
	}
	if s.End.IsZero() {
		return domain.FiscalPeriod{}, false
	}
	return domain.FiscalPeriod{Year: s.End.Year()}, true
}

// deriveDebtToEquity computes the one derived field at merge time, rounded
// to 2 decimal places. Nil when equity is zero or absent, whatever the debt.
func deriveDebtToEquity(e *domain.FinancialHistoryEntry) {
	if e.TotalDebt == nil || e.TotalEquity == nil || *e.TotalEquity == 0 {
		return
	}
	ratio := domain.Round2(*e.TotalDebt / *e.TotalEquity)
	e.DebtToEquity = &ratio
}

// DistinctPeriods returns the period labels de-duplicated in order, for
// display headers. The history itself is never deduplicated.
func DistinctPeriods(history []domain.FinancialHistoryEntry) []string {
	seen := map[string]bool{}
	labels := []string{}
	for _, entry := range history {
		label := entry.Period.String()
		if seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

// ValidatePeriodKeys checks the unique-period invariant prior to any
// consumption. Duplicate keys would silently misalign header labels against
// data rows, so they surface as an error the orchestrator can log.
func ValidatePeriodKeys(history []domain.FinancialHistoryEntry) error {
	seen := map[domain.FiscalPeriod]bool{}
	for _, entry := range history {
		if seen[entry.Period] {
			return fmt.Errorf("duplicate fiscal period key %s in reconciled history", entry.Period)
		}
		seen[entry.Period] = true
	}
	return nil
}

func ownedSet(family domain.StatementFamily) map[domain.Metric]bool {
	owned := map[domain.Metric]bool{}
	for _, metric := range domain.FamilyOwnership[family] {
		owned[metric] = true
	}
	return owned
}
