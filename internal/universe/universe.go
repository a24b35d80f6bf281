// Package universe holds the static list of tracked securities. The default
// list is immutable process-wide configuration; deployments can override it
// with a CSV file.
package universe

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// Constituent is one tracked security.
type Constituent struct {
	Symbol string `csv:"symbol" json:"symbol"`
	Name   string `csv:"name" json:"name"`
	Sector string `csv:"sector" json:"sector"`
}

// defaultConstituents is the built-in tracked list. Treat as read-only.
var defaultConstituents = []Constituent{
	{Symbol: "AAPL", Name: "Apple Inc.", Sector: "technology"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Sector: "technology"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Sector: "technology"},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Sector: "cyclical"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Sector: "technology"},
	{Symbol: "META", Name: "Meta Platforms Inc.", Sector: "technology"},
	{Symbol: "V", Name: "Visa Inc.", Sector: "fintech"},
	{Symbol: "MA", Name: "Mastercard Incorporated", Sector: "fintech"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Sector: "fintech"},
	{Symbol: "PG", Name: "Procter & Gamble Company", Sector: "consumer_staples"},
	{Symbol: "KO", Name: "Coca-Cola Company", Sector: "consumer_staples"},
	{Symbol: "PEP", Name: "PepsiCo Inc.", Sector: "consumer_staples"},
	{Symbol: "WMT", Name: "Walmart Inc.", Sector: "consumer_staples"},
	{Symbol: "NEE", Name: "NextEra Energy Inc.", Sector: "utilities"},
	{Symbol: "DUK", Name: "Duke Energy Corporation", Sector: "utilities"},
	{Symbol: "HON", Name: "Honeywell International Inc.", Sector: "industrial"},
	{Symbol: "CAT", Name: "Caterpillar Inc.", Sector: "industrial"},
	{Symbol: "RTX", Name: "RTX Corporation", Sector: "industrial"},
	{Symbol: "DE", Name: "Deere & Company", Sector: "industrial"},
	{Symbol: "F", Name: "Ford Motor Company", Sector: "cyclical"},
}

// Universe is a lookup over a constituent list.
type Universe struct {
	constituents []Constituent
	bySymbol     map[string]Constituent
}

func New(constituents []Constituent) Universe {
	bySymbol := map[string]Constituent{}
	for _, c := range constituents {
		bySymbol[strings.ToUpper(c.Symbol)] = c
	}
	return Universe{constituents: constituents, bySymbol: bySymbol}
}

// Default returns the built-in universe.
func Default() Universe {
	return New(defaultConstituents)
}

// LoadCSV reads an override constituent list.
func LoadCSV(path string) (Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return Universe{}, fmt.Errorf("could not open universe file: %w", err)
	}
	defer f.Close()

	constituents := []Constituent{}
	if err := gocsv.UnmarshalFile(f, &constituents); err != nil {
		return Universe{}, fmt.Errorf("failed to parse universe csv: %w", err)
	}
	if len(constituents) == 0 {
		return Universe{}, fmt.Errorf("universe file %s has no constituents", path)
	}

	return New(constituents), nil
}

// List returns a copy of the constituent list.
func (u Universe) List() []Constituent {
	out := make([]Constituent, len(u.constituents))
	copy(out, u.constituents)
	return out
}

// Lookup finds a constituent by symbol, case-insensitively.
func (u Universe) Lookup(symbol string) (Constituent, bool) {
	c, ok := u.bySymbol[strings.ToUpper(symbol)]
	return c, ok
}
