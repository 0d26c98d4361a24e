package camera

import (
	"context"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"bioterminal/internal/config"
	"bioterminal/internal/dto"
	"bioterminal/internal/logger"
	"bioterminal/internal/vision"
)

const (
	// captureQueueSize bounds the preview queue. When the consumer lags the
	// newest frame is dropped rather than blocking the capture loop.
	captureQueueSize = 2
	// frameInterval paces the capture loop (~10 FPS, matching the original
	// terminal cadence).
	frameInterval = 100 * time.Millisecond
	// readRetryDelay is how long to wait after a failed camera read.
	readRetryDelay = time.Second
)

// Pipeline owns the camera device exclusively. It captures frames, runs face
// detection, annotates the preview, and publishes captures on a bounded
// channel.
type Pipeline struct {
	device       int
	width        int
	height       int
	previewWidth int

	detector *vision.Detector
	logger   *logger.Logger
	captures chan dto.Capture
}

// NewPipeline creates a capture pipeline for the configured device.
func NewPipeline(cfg *config.Config, detector *vision.Detector, log *logger.Logger) *Pipeline {
	return &Pipeline{
		device:       cfg.CameraDevice,
		width:        cfg.CameraWidth,
		height:       cfg.CameraHeight,
		previewWidth: cfg.PreviewWidth,
		detector:     detector,
		logger:       log,
		captures:     make(chan dto.Capture, captureQueueSize),
	}
}

// Captures returns the bounded capture channel. It is closed when Run exits.
func (p *Pipeline) Captures() <-chan dto.Capture {
	return p.captures
}

// Run opens the camera and captures frames until the context is canceled.
// Read failures are logged and retried; they never stop the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	defer close(p.captures)

	cam, err := gocv.OpenVideoCapture(p.device)
	if err != nil {
		return fmt.Errorf("failed to open camera device %d: %w", p.device, err)
	}
	defer cam.Close()

	cam.Set(gocv.VideoCaptureFrameWidth, float64(p.width))
	cam.Set(gocv.VideoCaptureFrameHeight, float64(p.height))

	p.logger.Info("Camera %d started at %dx%d", p.device, p.width, p.height)

	frame := gocv.NewMat()
	defer frame.Close()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Camera loop stopped")
			return nil
		case <-ticker.C:
		}

		if ok := cam.Read(&frame); !ok {
			p.logger.Error("Failed to read from camera device %d", p.device)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readRetryDelay):
			}
			continue
		}
		if frame.Empty() {
			continue
		}

		capture, err := p.process(frame)
		if err != nil {
			p.logger.Error("Failed to process frame: %v", err)
			continue
		}

		// Non-blocking send: drop the frame when the queue is full so the
		// camera never waits on the UI.
		select {
		case p.captures <- capture:
		default:
		}
	}
}

// process detects faces, annotates the frame, and encodes the scaled preview.
func (p *Pipeline) process(frame gocv.Mat) (dto.Capture, error) {
	faces := p.detector.DetectFaces(frame)
	p.detector.DrawFaces(&frame, faces)

	preview := vision.ResizeToWidth(frame, p.previewWidth)
	defer preview.Close()

	jpeg, err := vision.EncodeJPEG(preview)
	if err != nil {
		return dto.Capture{}, err
	}

	capture := dto.Capture{
		JPEG:  jpeg,
		Faces: len(faces),
		At:    time.Now(),
	}

	// Only face-bearing frames can be dispatched for verification, so the
	// full-resolution encode is skipped for the rest.
	if len(faces) > 0 {
		full, err := vision.EncodeJPEG(frame)
		if err != nil {
			return dto.Capture{}, err
		}
		capture.FullJPEG = full
	}

	return capture, nil
}
