// Command seed loads the clinical schema and sample data into the
// database the web variant serves from.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"clinchat/internal/config"
	"clinchat/internal/repository/clinicaldb"

	"github.com/joho/godotenv"
)

func main() {
	schemaFile := flag.String("schema", "", "SQL script to apply (defaults to SCHEMA_FILE)")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	path := cfg.SchemaFile
	if *schemaFile != "" {
		path = *schemaFile
	}

	log.Printf("Seeding database %s from %s", cfg.DatabaseDSN, path)

	ctx := context.Background()
	db, err := clinicaldb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Seeding is the one place writes are always allowed.
	db.AllowWrites(true)

	if err := db.ApplySchemaFile(ctx, path); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	schema, err := db.Snapshot(ctx)
	if err != nil {
		log.Fatalf("Failed to read back schema: %v", err)
	}

	logger.Info("database seeded", "schema", schema)
	log.Println("Seed complete")
}
