package main

import (
	"context"
	"log"
	"os"
	"stockval/cmd"
	"stockval/internal"
	"stockval/internal/domain"
)

// one-shot valuation runner, useful for poking at a single symbol
// without standing up the api
func main() {
	symbol := "AAPL"
	if len(os.Args) > 1 {
		symbol = os.Args[1]
	}

	apiHandler, err := cmd.InitializeDependencies()
	if err != nil {
		log.Fatal(err)
	}

	sector := domain.DefaultSector
	if constituent, ok := apiHandler.Universe.Lookup(symbol); ok {
		sector = domain.Sector(constituent.Sector)
	}

	report, err := apiHandler.ValuationService.Valuate(
		context.Background(),
		symbol,
		domain.AssumptionsForSector(sector),
	)
	if err != nil {
		log.Fatal(err)
	}

	internal.Pprint(report)
}
