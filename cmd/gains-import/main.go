package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/claude/gains/internal/config"
	"github.com/claude/gains/internal/importer"
	"github.com/claude/gains/internal/storage"
)

func main() {
	user := flag.String("user", "", "target user subject (required)")
	file := flag.String("file", "training-export.json", "path to export file")
	configPath := flag.String("config", "config.yaml", "path to config file")
	stateDir := flag.String("state-dir", ".gains-import", "directory for the import state db")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	if *user == "" {
		fmt.Fprintln(os.Stderr, "Usage: gains-import -user <subject> [-file training-export.json] [-config config.yaml] [-dry-run]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export file not found: %s\n", *file)
		os.Exit(1)
	}

	var data importer.Export
	if err := json.Unmarshal(raw, &data); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid export file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d sessions from %s\n", len(data.Sessions), *file)
	fmt.Printf("Target user: %s\n", *user)

	// The state db short-circuits re-runs of an already-processed file.
	state, err := importer.OpenStateDB(*stateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "State db error: %v\n", err)
		os.Exit(1)
	}
	defer state.Close()

	hash, err := importer.HashFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hashing export file: %v\n", err)
		os.Exit(1)
	}
	size := int64(len(raw))

	done, err := state.IsProcessed(*file, *user, size, hash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "State db error: %v\n", err)
		os.Exit(1)
	}
	if done && !*dryRun {
		fmt.Println("Already imported this exact file for this user, nothing to do")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	db, err := storage.New(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// The workouts table references users; make sure the target row exists.
	if !*dryRun {
		if err := db.EnsureUser(ctx, *user, "", ""); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to provision user: %v\n", err)
			os.Exit(1)
		}
	}

	if *dryRun {
		fmt.Println("DRY RUN mode — no data will be written")
	}

	im := importer.New(db, os.Stdout)
	imported, skipped, err := im.Run(ctx, &data, *user, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import error: %v\n", err)
		os.Exit(1)
	}

	if !*dryRun {
		if err := state.MarkProcessed(*file, *user, size, hash); err != nil {
			fmt.Fprintf(os.Stderr, "State db error: %v\n", err)
		}
	}

	fmt.Printf("\nDone: %d imported, %d skipped (duplicates)\n", imported, skipped)
}
