package vision

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"gocv.io/x/gocv"

	"bioterminal/internal/logger"
)

const (
	// detectScaleFactor controls how fast the cascade search scales.
	detectScaleFactor = 1.1
	// detectMinNeighbors is how many neighboring detections confirm a face.
	detectMinNeighbors = 5
	// detectMinSize is the minimum face size in pixels.
	detectMinSize = 50
)

var faceColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// Detector finds faces in frames with a Haar cascade classifier.
type Detector struct {
	classifier gocv.CascadeClassifier
	logger     *logger.Logger
}

// NewDetector loads the face cascade from the first candidate path that
// exists and loads non-empty.
func NewDetector(cascadePaths []string, log *logger.Logger) (*Detector, error) {
	for _, path := range cascadePaths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		classifier := gocv.NewCascadeClassifier()
		if !classifier.Load(path) {
			classifier.Close()
			log.Warning("Cascade file %s exists but failed to load", path)
			continue
		}

		log.Info("Face cascade loaded from: %s", path)
		return &Detector{classifier: classifier, logger: log}, nil
	}

	return nil, fmt.Errorf("no face cascade found in candidate paths %v", cascadePaths)
}

// Close releases the classifier.
func (d *Detector) Close() error {
	return d.classifier.Close()
}

// DetectFaces returns the face regions found in the frame. Detection runs on
// a grayscale copy, matching the cascade's training input.
func (d *Detector) DetectFaces(frame gocv.Mat) []image.Rectangle {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	return d.classifier.DetectMultiScaleWithParams(
		gray,
		detectScaleFactor,
		detectMinNeighbors,
		0,
		image.Pt(detectMinSize, detectMinSize),
		image.Pt(0, 0),
	)
}

// DrawFaces draws rectangles and labels around the detected faces in place.
func (d *Detector) DrawFaces(frame *gocv.Mat, faces []image.Rectangle) {
	for _, r := range faces {
		gocv.Rectangle(frame, r, faceColor, 2)
		gocv.PutText(frame, "Cara Detectada", image.Pt(r.Min.X, r.Min.Y-10),
			gocv.FontHersheySimplex, 0.5, faceColor, 1)
	}
}

// EncodeJPEG encodes the frame as a JPEG buffer.
func EncodeJPEG(frame gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())
	return jpeg, nil
}

// ResizeToWidth scales the frame to the target width, preserving the aspect
// ratio. Returns a new Mat the caller owns.
func ResizeToWidth(frame gocv.Mat, width int) gocv.Mat {
	out := gocv.NewMat()
	if frame.Cols() == 0 {
		return out
	}
	height := frame.Rows() * width / frame.Cols()
	gocv.Resize(frame, &out, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return out
}
