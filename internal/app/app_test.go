package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bioterminal/internal/api"
	"bioterminal/internal/camera"
	"bioterminal/internal/config"
	"bioterminal/internal/fingerprint"
	"bioterminal/internal/logger"
	"bioterminal/internal/repository/sqlite"
	"bioterminal/internal/routes"
	"bioterminal/internal/terminal"
	"bioterminal/internal/ui"
)

// testApp wires an App by hand against a nonexistent camera device so Run can
// be exercised without hardware. The detector stays nil: the pipeline fails to
// open the device before face detection is reached.
func testApp(t *testing.T) *App {
	t.Helper()

	cfg := config.Default()
	cfg.Port = 0
	cfg.CameraDevice = 99
	cfg.APIBaseURL = "http://127.0.0.1:1"
	cfg.OfflineDBPath = filepath.Join(t.TempDir(), "terminal.db")
	cfg.LogDirectory = t.TempDir()
	cfg.StaticDir = t.TempDir()

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	db, err := sqlite.New(cfg.OfflineDBPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	records := sqlite.NewRecordRepository(db)
	client := api.NewClient(cfg.APIBaseURL, cfg.TerminalID, cfg.APIKey,
		time.Duration(cfg.ConnectionTimeout)*time.Second,
		time.Duration(cfg.VersionProbeTimeout)*time.Second)
	hub := ui.NewHub(log)
	pipeline := camera.NewPipeline(cfg, nil, log)
	manager := terminal.NewManager(cfg, client, hub, fingerprint.Unavailable{}, records, log)

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		pipeline: pipeline,
		hub:      hub,
		manager:  manager,
		handler:  routes.SetupRoutes(manager, hub, records, cfg, log),
	}
}

func TestApp_RunClosesResourcesAfterLoopsExit(t *testing.T) {
	a := testApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if err := a.db.Conn().Ping(); err == nil {
		t.Error("Expected database to be closed once Run returns")
	}
}
