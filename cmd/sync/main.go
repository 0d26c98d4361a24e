package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"bioterminal/internal/api"
	"bioterminal/internal/config"
	"bioterminal/internal/repository/sqlite"
)

func main() {
	configPath := flag.String("config", "terminal.json", "Path to the terminal config file")
	batch := flag.Int("batch", 100, "Maximum records to push per run")
	dryRun := flag.Bool("dry-run", false, "List pending records without pushing them")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sqlite.New(cfg.OfflineDBPath)
	if err != nil {
		log.Fatalf("Failed to open offline database: %v", err)
	}
	defer db.Close()

	records := sqlite.NewRecordRepository(db)

	pending, err := records.GetUnsynced(*batch)
	if err != nil {
		log.Fatalf("Failed to load pending records: %v", err)
	}

	if len(pending) == 0 {
		fmt.Println("No pending offline records")
		return
	}

	fmt.Printf("Found %d pending offline record(s)\n", len(pending))
	for _, rec := range pending {
		fmt.Printf("  %s  cedula=%s  tipo=%s  %s\n", rec.ID, rec.Cedula, rec.TipoRegistro, rec.Timestamp)
	}

	if *dryRun {
		fmt.Println("Dry run: nothing pushed")
		return
	}

	client := api.NewClient(
		cfg.APIBaseURL,
		cfg.TerminalID,
		cfg.APIKey,
		time.Duration(cfg.ConnectionTimeout)*time.Second,
		time.Duration(cfg.VersionProbeTimeout)*time.Second,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if !client.CheckConnection(ctx) {
		log.Fatalf("API %s is not reachable", cfg.APIBaseURL)
	}

	synced, err := client.SyncRecords(ctx, pending)
	if err != nil {
		log.Fatalf("Failed to push records: %v", err)
	}

	if err := records.MarkSynced(synced); err != nil {
		log.Fatalf("Failed to mark records synced: %v", err)
	}

	fmt.Printf("Synced %d of %d record(s)\n", len(synced), len(pending))
	if remaining := len(pending) - len(synced); remaining > 0 {
		fmt.Printf("%d record(s) were not accepted and remain pending\n", remaining)
	}
}
