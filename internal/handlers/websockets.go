package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"bioterminal/internal/logger"
	"bioterminal/internal/ui"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const viewerReadDeadline = 60 * time.Second

// ViewWebsocketHandler upgrades a kiosk viewer connection and keeps it
// registered with the hub until it disconnects.
func ViewWebsocketHandler(hub *ui.Hub, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(viewerReadDeadline))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(viewerReadDeadline))
			return nil
		})
		defer connection.Close()

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				break
			}
		}
	}
}
