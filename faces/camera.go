package faces

import (
	"context"
	"fmt"
	"log"

	"facerec/recognition"

	"gocv.io/x/gocv"
)

// Webcam reads frames from a local video device and hands them out JPEG encoded
type Webcam struct {
	Device int
	Width  int
	Height int
}

func (w *Webcam) Stream(ctx context.Context, fn func(frame []byte) bool) error {
	capture, err := gocv.OpenVideoCapture(w.Device)
	if err != nil {
		return fmt.Errorf("%w: %v", recognition.ErrCameraUnavailable, err)
	}
	defer capture.Close()
	if !capture.IsOpened() {
		return fmt.Errorf("%w: device %d", recognition.ErrCameraUnavailable, w.Device)
	}
	if w.Width > 0 && w.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(w.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(w.Height))
	}

	frame := gocv.NewMat()
	defer frame.Close()
	for ctx.Err() == nil {
		if !capture.Read(&frame) || frame.Empty() {
			log.Printf("Failed to capture image from device %d", w.Device)
			return nil
		}
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
		if err != nil {
			return err
		}
		data := append([]byte(nil), buf.GetBytes()...)
		buf.Close()
		if !fn(data) {
			return nil
		}
	}
	return nil
}
