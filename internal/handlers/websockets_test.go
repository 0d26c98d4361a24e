package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"bioterminal/internal/dto"
	"bioterminal/internal/ui"
)

func TestViewWebsocketHandler_DeliversRetainedStatus(t *testing.T) {
	log := testLogger(t)
	hub := ui.NewHub(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(ViewWebsocketHandler(hub, log))
	defer server.Close()

	hub.BroadcastStatus(dto.Status{Online: true, State: dto.StateIdle, Message: "Colóquese frente a la cámara"})

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read status message: %v", err)
	}

	var payload struct {
		Type    string `json:"type"`
		Online  bool   `json:"online"`
		State   string `json:"state"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(message, &payload); err != nil {
		t.Fatalf("Failed to decode status message: %v", err)
	}
	if payload.Type != "status" || !payload.Online || payload.State != string(dto.StateIdle) {
		t.Errorf("Unexpected status payload: %+v", payload)
	}
}

func TestViewWebsocketHandler_StatusReachesConnectedViewer(t *testing.T) {
	log := testLogger(t)
	hub := ui.NewHub(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(ViewWebsocketHandler(hub, log))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Viewer never registered with the hub")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Saturate the frame queue before the transition; the status must still
	// arrive.
	for i := 0; i < 50; i++ {
		hub.BroadcastFrame([]byte("jpeg"))
	}
	hub.BroadcastStatus(dto.Status{Online: true, State: dto.StateSuccess, Message: "Bienvenido"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Connection closed before the status arrived: %v", err)
		}
		var payload struct {
			Type  string `json:"type"`
			State string `json:"state"`
		}
		if err := json.Unmarshal(message, &payload); err != nil {
			t.Fatalf("Failed to decode message: %v", err)
		}
		if payload.Type == "status" {
			if payload.State != string(dto.StateSuccess) {
				t.Errorf("Expected success status, got %q", payload.State)
			}
			return
		}
	}
}
