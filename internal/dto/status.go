package dto

// State names a terminal UI state.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateFailure    State = "failure"
)

// Status is the UI-facing terminal status broadcast to kiosk viewers and
// served on /api/status.
type Status struct {
	Online  bool   `json:"online"`
	State   State  `json:"state"`
	Message string `json:"message"`
}
