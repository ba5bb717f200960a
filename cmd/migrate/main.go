package main

import (
	"context"
	"log"
	"os"

	"scoregaps/internal/container"
	"scoregaps/internal/migration"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate <database_url> (or set DATABASE_URL)")
	}

	ctx := context.Background()
	db, err := container.OpenDatabase(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM fact_rows`); err != nil {
		log.Fatalf("Failed to count fact rows: %v", err)
	}
	log.Printf("Schema %s applied; fact_rows holds %d rows", migration.NewRunner().Version(), count)
}
