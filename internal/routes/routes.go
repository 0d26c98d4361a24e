package routes

import (
	"net/http"

	"bioterminal/internal/config"
	"bioterminal/internal/handlers"
	"bioterminal/internal/logger"
	"bioterminal/internal/middleware"
	"bioterminal/internal/repository"
	"bioterminal/internal/terminal"
	"bioterminal/internal/ui"
)

// SetupRoutes registers the kiosk page, the viewer websocket, and the API
// endpoints, and restricts everything to the local device.
func SetupRoutes(manager *terminal.Manager, hub *ui.Hub, records repository.RecordRepository, cfg *config.Config, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Kiosk page and assets
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	// API endpoints
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(hub, log))
	mux.HandleFunc("/api/status", handlers.StatusHandler(manager))
	mux.HandleFunc("/api/records/pending", handlers.PendingRecordsHandler(records, log))

	mux.HandleFunc("/healthz", handlers.HealthHandler())

	return middleware.LocalOnly(mux)
}
