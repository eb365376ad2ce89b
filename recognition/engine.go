package recognition

import (
	"context"
	"errors"
	"image"
)

const (
	NameUnknown     = "Unknown"
	NameNoFaceFound = "No Face Found"
	NameError       = "Error"
)

var (
	ErrNoFace            = errors.New("no face found")
	ErrInvalidImage      = errors.New("invalid image")
	ErrInvalidName       = errors.New("name is required")
	ErrInvalidLabel      = errors.New("label must be a positive number")
	ErrNoTrainingData    = errors.New("no faces found for training")
	ErrCameraBusy        = errors.New("camera is busy")
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrPersonNotFound    = errors.New("person not found")
	ErrSampleNotFound    = errors.New("sample not found")
)

type Face struct {
	Rect  image.Rectangle
	Image []byte // grayscale JPEG crop of the face
}

type Prediction struct {
	Rect       image.Rectangle
	Label      int
	Confidence float64
	Matched    bool
}

type Sample struct {
	Label int
	Path  string
	Image []byte
}

// Engine wraps the vision library. Implementations must be safe for concurrent use
type Engine interface {
	Name() string
	// ExtractFaces detects faces in an encoded image, in detection order
	ExtractFaces(img []byte) ([]Face, error)
	// Predict classifies every detected face. It is only called on a trained engine
	Predict(img []byte) ([]Prediction, error)
	// Train replaces the model with one built from samples and persists it.
	// It returns the number of samples used, undecodable ones are skipped
	Train(samples []Sample) (int, error)
	Trained() bool
	// Reset forgets the model and removes its persisted copy
	Reset() error
	Close()
}

// Camera streams encoded frames until fn returns false, ctx is done or a frame cannot be read
type Camera interface {
	Stream(ctx context.Context, fn func(frame []byte) bool) error
}

type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func BoxFrom(r image.Rectangle) Box {
	return Box{
		X: r.Min.X,
		Y: r.Min.Y,
		W: r.Dx(),
		H: r.Dy(),
	}
}
