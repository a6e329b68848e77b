package main

import (
	"context"
	"log"
	"os"

	"resultsdash/adapters/postgres"
	"resultsdash/adapters/sqlite"
	"resultsdash/domain/core"
	"resultsdash/internal/migration"
	"resultsdash/ports"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <postgres|sqlite> <database_url|sqlite_path> [filters.json]")
	}

	backend, target := os.Args[1], os.Args[2]
	ctx := context.Background()

	var db *sqlx.DB
	var repo ports.FilterRepository
	var err error
	switch backend {
	case "postgres":
		db, err = postgres.Open(ctx, target)
		if err == nil {
			repo = postgres.NewFilterRepository(db)
		}
	case "sqlite":
		db, err = sqlite.Open(ctx, target)
		if err == nil {
			repo = sqlite.NewFilterRepository(db)
		}
	default:
		log.Fatalf("Unknown backend %q", backend)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema at version %s", runner.Version())

	if len(os.Args) < 4 {
		return
	}

	// filters.json maps session IDs to filters, e.g. an export of a previous store
	data, err := os.ReadFile(os.Args[3])
	if err != nil {
		log.Fatalf("Failed to read filters: %v", err)
	}
	var filters map[string]string
	if err := json.Unmarshal(data, &filters); err != nil {
		log.Fatalf("Failed to parse filters: %v", err)
	}

	imported, skipped := 0, 0
	for raw, filter := range filters {
		id, err := core.ParseSessionID(raw)
		if err != nil || filter == "" {
			log.Printf("Skipping %q: invalid session or empty filter", raw)
			skipped++
			continue
		}
		if err := repo.SaveFilter(ctx, id, filter); err != nil {
			log.Fatalf("Failed to save filter for %s: %v", id, err)
		}
		imported++
	}
	log.Printf("Imported %d filters, skipped %d", imported, skipped)
}
