package terminal

import (
	"context"
	"errors"
	"sync"
	"time"

	"bioterminal/internal/api"
	"bioterminal/internal/config"
	"bioterminal/internal/dto"
	"bioterminal/internal/fingerprint"
	"bioterminal/internal/logger"
	"bioterminal/internal/repository"
)

// UI messages shown on the kiosk screen.
const (
	msgIdle       = "Colóquese frente a la cámara"
	msgProcessing = "Procesando..."
	msgFailure    = "Verificación fallida"
	msgOffline    = "Modo offline no disponible aún"
	msgError      = "Error de verificación"
)

// resultDisplayTime is how long a success/failure message stays on screen
// before the terminal returns to idle.
const resultDisplayTime = 3 * time.Second

// Verifier is the remote verification surface the manager depends on.
// *api.Client implements it.
type Verifier interface {
	CheckConnection(ctx context.Context) bool
	VerifyFaceAuto(ctx context.Context, imageJPEG []byte, lat, lng *float64) (*api.VerificationResult, error)
}

// Publisher receives preview frames and status updates for the kiosk screen.
// *ui.Hub implements it.
type Publisher interface {
	BroadcastFrame(jpeg []byte)
	BroadcastStatus(status dto.Status)
}

// Manager runs the detection-triggered capture loop: it consumes camera
// captures, feeds the kiosk preview, debounces detections, and dispatches at
// most one verification at a time.
type Manager struct {
	verifier    Verifier
	publisher   Publisher
	reader      fingerprint.Reader
	records     repository.RecordRepository
	logger      *logger.Logger
	gate        *triggerGate
	pollEvery   time.Duration
	verifyLimit time.Duration
	lat, lng    *float64

	mu         sync.Mutex
	online     bool
	status     dto.Status
	resetTimer *time.Timer

	wg sync.WaitGroup
}

// NewManager wires the terminal loop from its collaborators.
func NewManager(cfg *config.Config, verifier Verifier, publisher Publisher, reader fingerprint.Reader, records repository.RecordRepository, log *logger.Logger) *Manager {
	return &Manager{
		verifier:    verifier,
		publisher:   publisher,
		reader:      reader,
		records:     records,
		logger:      log,
		gate:        newTriggerGate(time.Duration(cfg.FaceDetectionTimeout * float64(time.Second))),
		pollEvery:   time.Duration(cfg.ConnectivityInterval) * time.Second,
		verifyLimit: time.Duration(cfg.ConnectionTimeout) * time.Second,
		lat:         cfg.Latitude,
		lng:         cfg.Longitude,
		status:      dto.Status{State: dto.StateIdle, Message: msgIdle},
	}
}

// Run consumes captures until the channel closes or the context is canceled.
// It also runs the connectivity monitor. In-flight verifications are waited
// for before Run returns.
func (m *Manager) Run(ctx context.Context, captures <-chan dto.Capture) {
	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.connectivityLoop(monitorCtx)
	}()

	m.publisher.BroadcastStatus(m.Status())

	for {
		select {
		case <-ctx.Done():
			m.wg.Wait()
			return
		case capture, ok := <-captures:
			if !ok {
				cancelMonitor()
				m.wg.Wait()
				return
			}
			m.handleCapture(ctx, capture)
		}
	}
}

// handleCapture forwards the preview frame and applies the trigger gate when
// the frame contains faces.
func (m *Manager) handleCapture(ctx context.Context, capture dto.Capture) {
	m.publisher.BroadcastFrame(capture.JPEG)

	if capture.Faces == 0 || len(capture.FullJPEG) == 0 {
		return
	}

	if !m.gate.TryAcquire(capture.At) {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.gate.Release()
		m.verify(ctx, capture.FullJPEG)
	}()
}

// verify runs one verification attempt: online via the API, offline via the
// fingerprint reader.
func (m *Manager) verify(ctx context.Context, imageJPEG []byte) {
	m.setStatus(dto.StateProcessing, msgProcessing)

	verifyCtx, cancel := context.WithTimeout(ctx, m.verifyLimit)
	defer cancel()

	if m.Online() {
		m.verifyOnline(verifyCtx, imageJPEG)
	} else {
		m.verifyOffline(verifyCtx)
	}
}

func (m *Manager) verifyOnline(ctx context.Context, imageJPEG []byte) {
	result, err := m.verifier.VerifyFaceAuto(ctx, imageJPEG, m.lat, m.lng)
	if err != nil {
		m.logger.Error("Verification request failed: %v", err)
		m.showResult(dto.StateFailure, msgError)
		return
	}

	if result.Verified {
		message := result.Mensaje
		if message == "" {
			message = "Verificación exitosa"
		}
		m.logger.Info("Verification succeeded for cedula %s", result.Cedula)
		m.showResult(dto.StateSuccess, message)
		return
	}

	m.logger.Info("Verification rejected: %s", result.Mensaje)
	m.showResult(dto.StateFailure, msgFailure)
}

func (m *Manager) verifyOffline(ctx context.Context) {
	user, err := m.reader.Verify(ctx)
	if err != nil {
		if errors.Is(err, fingerprint.ErrUnavailable) {
			m.logger.Warning("Offline verification requested but no reader is available")
		} else {
			m.logger.Error("Fingerprint verification failed: %v", err)
		}
		m.showResult(dto.StateFailure, msgOffline)
		return
	}

	recordID, err := m.records.Save(user.Cedula, "entrada")
	if err != nil {
		m.logger.Error("Failed to save offline record for %s: %v", user.Cedula, err)
		m.showResult(dto.StateFailure, msgError)
		return
	}

	m.logger.Info("Offline record %s saved for cedula %s", recordID, user.Cedula)
	m.showResult(dto.StateSuccess, "Bienvenido "+user.Nombre+" (registro offline)")
}

// showResult publishes a verification outcome and schedules the return to
// idle. A new result cancels the previous reset timer.
func (m *Manager) showResult(state dto.State, message string) {
	m.mu.Lock()
	if m.resetTimer != nil {
		m.resetTimer.Stop()
	}
	m.status.State = state
	m.status.Message = message
	status := m.status
	m.resetTimer = time.AfterFunc(resultDisplayTime, m.resetToIdle)
	m.mu.Unlock()

	m.publisher.BroadcastStatus(status)
}

func (m *Manager) resetToIdle() {
	m.mu.Lock()
	// A verification that started during the display window owns the screen.
	if m.gate.InFlight() {
		m.mu.Unlock()
		return
	}
	m.status.State = dto.StateIdle
	m.status.Message = msgIdle
	status := m.status
	m.mu.Unlock()

	m.publisher.BroadcastStatus(status)
}

func (m *Manager) setStatus(state dto.State, message string) {
	m.mu.Lock()
	if m.resetTimer != nil {
		m.resetTimer.Stop()
		m.resetTimer = nil
	}
	m.status.State = state
	m.status.Message = message
	status := m.status
	m.mu.Unlock()

	m.publisher.BroadcastStatus(status)
}

// connectivityLoop probes the API and publishes online/offline transitions.
func (m *Manager) connectivityLoop(ctx context.Context) {
	m.updateOnline(m.verifier.CheckConnection(ctx))

	ticker := time.NewTicker(m.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.updateOnline(m.verifier.CheckConnection(ctx))
		}
	}
}

func (m *Manager) updateOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.status.Online = online
	status := m.status
	m.mu.Unlock()

	if changed {
		if online {
			m.logger.Info("Connection state: online")
		} else {
			m.logger.Warning("Connection state: offline")
		}
		m.publisher.BroadcastStatus(status)
	}
}

// Online reports the last known connectivity state.
func (m *Manager) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Status returns the current UI-facing status.
func (m *Manager) Status() dto.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}
