// Package faces holds the vision backends. Both need cgo: OpenCV for lbph and the webcam, dlib for dlib
package faces

import (
	"fmt"

	"facerec/config"
	"facerec/recognition"
)

// New creates the engine selected by config.RECOGNIZER
func New() (recognition.Engine, error) {
	switch config.RECOGNIZER {
	case "", "lbph":
		return NewLBPH(config.CASCADE_FILE, config.MODEL_PATH, config.DETECT_SCALE_FACTOR, config.DETECT_MIN_NEIGHBORS, config.CONFIDENCE_THRESHOLD)
	case "dlib":
		return NewDlib(config.DLIB_MODELS_DIR, config.DLIB_SAMPLES_FILE, config.DLIB_TOLERANCE)
	}
	return nil, fmt.Errorf("unknown recognizer %q, use lbph or dlib", config.RECOGNIZER)
}

func NewCamera() recognition.Camera {
	return &Webcam{
		Device: config.CAMERA_DEVICE,
		Width:  config.CAMERA_WIDTH,
		Height: config.CAMERA_HEIGHT,
	}
}
