package handlers

import (
	"encoding/json"
	"net/http"

	"bioterminal/internal/logger"
	"bioterminal/internal/models"
	"bioterminal/internal/repository"
	"bioterminal/internal/terminal"
)

// StatusHandler serves the current terminal status as JSON.
func StatusHandler(manager *terminal.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(manager.Status())
	}
}

// PendingRecordsHandler lists offline records waiting to be synced.
func PendingRecordsHandler(records repository.RecordRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		pending, err := records.GetUnsynced(0)
		if err != nil {
			log.Error("Failed to load pending records: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if pending == nil {
			pending = []models.OfflineRecord{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count":     len(pending),
			"registros": pending,
		})
	}
}

// HealthHandler reports liveness.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
