// Command migrate-gen generates SQL migration files for the tournament runtime tables.
//
// Usage:
//
//	go run github.com/getpup/tournament-runtime/cmd/migrate-gen -output migrations -filename init.sql
//
// Or with go generate:
//
//	//go:generate go run github.com/getpup/tournament-runtime/cmd/migrate-gen -output migrations
//
// Generate migrations for different database adapters:
//
//	go run github.com/getpup/tournament-runtime/cmd/migrate-gen -adapter postgres -output migrations
//	go run github.com/getpup/tournament-runtime/cmd/migrate-gen -adapter mysql -output migrations
//	go run github.com/getpup/tournament-runtime/cmd/migrate-gen -adapter sqlite -output migrations
//
// Customize table names:
//
//	go run github.com/getpup/tournament-runtime/cmd/migrate-gen -schema games -tournaments-table cups
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/getpup/tournament-runtime/pkg/migrations"
)

func main() {
	var (
		adapter          = flag.String("adapter", migrations.AdapterPostgres, "Database adapter: postgres, mysql, or sqlite")
		outputFolder     = flag.String("output", "migrations", "Output folder for migration file")
		outputFilename   = flag.String("filename", "", "Output filename (default: timestamp-based)")
		schemaName       = flag.String("schema", "tournament_runtime", "Schema name (PostgreSQL) or database name (MySQL)")
		tournamentsTable = flag.String("tournaments-table", "tournaments", "Name of the tournaments table")
		entriesTable     = flag.String("entries-table", "tournament_entries", "Name of the tournament entries table")
	)

	flag.Parse()

	config := migrations.DefaultConfig()
	config.OutputFolder = *outputFolder
	config.SchemaName = *schemaName
	config.TournamentsTable = *tournamentsTable
	config.EntriesTable = *entriesTable

	if *outputFilename != "" {
		config.OutputFilename = *outputFilename
	}

	if err := migrations.Generate(*adapter, &config); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s migration: %s/%s\n", *adapter, config.OutputFolder, config.OutputFilename)
}
