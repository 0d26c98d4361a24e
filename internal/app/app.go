package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bioterminal/internal/api"
	"bioterminal/internal/camera"
	"bioterminal/internal/config"
	"bioterminal/internal/dto"
	"bioterminal/internal/fingerprint"
	"bioterminal/internal/logger"
	"bioterminal/internal/repository/sqlite"
	"bioterminal/internal/routes"
	"bioterminal/internal/terminal"
	"bioterminal/internal/ui"
	"bioterminal/internal/vision"
)

// App wires the terminal's services together and runs them.
type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	detector *vision.Detector
	pipeline *camera.Pipeline
	hub      *ui.Hub
	manager  *terminal.Manager
	handler  http.Handler
}

// New builds the application from the given configuration.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := sqlite.New(cfg.OfflineDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open offline database: %w", err)
	}

	detector, err := vision.NewDetector(cfg.CascadePaths, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load face detector: %w", err)
	}

	records := sqlite.NewRecordRepository(db)

	client := api.NewClient(
		cfg.APIBaseURL,
		cfg.TerminalID,
		cfg.APIKey,
		time.Duration(cfg.ConnectionTimeout)*time.Second,
		time.Duration(cfg.VersionProbeTimeout)*time.Second,
	)

	hub := ui.NewHub(log)
	pipeline := camera.NewPipeline(cfg, detector, log)
	manager := terminal.NewManager(cfg, client, hub, fingerprint.Unavailable{}, records, log)

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		detector: detector,
		pipeline: pipeline,
		hub:      hub,
		manager:  manager,
		handler:  routes.SetupRoutes(manager, hub, records, cfg, log),
	}, nil
}

// Run starts the hub, camera pipeline, terminal loop, and HTTP server, and
// blocks until the context is canceled or the server fails. The camera and
// terminal loops are waited for before the detector and database are closed:
// both may still be using them when the HTTP server stops.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.hub.Run(runCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.pipeline.Run(runCtx); err != nil {
			a.logger.Error("Camera pipeline stopped: %v", err)
			a.hub.BroadcastStatus(dto.Status{
				Online:  a.manager.Online(),
				State:   dto.StateFailure,
				Message: "Error en cámara",
			})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.manager.Run(runCtx, a.pipeline.Captures())
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: a.handler,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	a.logger.Info("Terminal %s listening on http://localhost:%d", a.config.TerminalID, a.config.Port)

	var runErr error
	select {
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP shutdown error: %v", err)
		}
		<-errc
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	cancel()
	wg.Wait()
	a.close()

	a.logger.Info("Terminal stopped")
	return runErr
}

func (a *App) close() {
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Error("Failed to close detector: %v", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database: %v", err)
	}
}
