package faces

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"sync"

	"facerec/recognition"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// LBPH detects faces with a Haar cascade and classifies them with OpenCV's LBPH recognizer.
// Confidence is the LBPH distance, lower values are closer matches
type LBPH struct {
	mutex      sync.RWMutex
	detectLock sync.Mutex
	classifier gocv.CascadeClassifier
	recognizer *contrib.LBPHFaceRecognizer
	trained    bool

	ModelPath    string
	ScaleFactor  float64
	MinNeighbors int
	Threshold    float64
}

func NewLBPH(cascadeFile, modelPath string, scaleFactor float64, minNeighbors int, threshold float64) (*LBPH, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadeFile) {
		classifier.Close()
		return nil, fmt.Errorf("cannot load cascade classifier from %s", cascadeFile)
	}
	result := &LBPH{
		classifier:   classifier,
		recognizer:   contrib.NewLBPHFaceRecognizer(),
		ModelPath:    modelPath,
		ScaleFactor:  scaleFactor,
		MinNeighbors: minNeighbors,
		Threshold:    threshold,
	}
	if _, err := os.Stat(modelPath); err == nil {
		result.recognizer.LoadFile(modelPath)
		result.trained = true
		log.Printf("Loaded LBPH model from %s", modelPath)
	}
	return result, nil
}

func (e *LBPH) Name() string {
	return "lbph"
}

// detect returns the grayscale version of img and the face rectangles found in it.
// The caller owns the returned Mat
func (e *LBPH) detect(data []byte) (gocv.Mat, []image.Rectangle, error) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), nil, fmt.Errorf("%w: %v", recognition.ErrInvalidImage, err)
	}
	defer img.Close()
	if img.Empty() {
		return gocv.NewMat(), nil, recognition.ErrInvalidImage
	}
	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	e.detectLock.Lock()
	rects := e.classifier.DetectMultiScaleWithParams(gray, e.ScaleFactor, e.MinNeighbors, 0, image.Point{}, image.Point{})
	e.detectLock.Unlock()
	return gray, rects, nil
}

func (e *LBPH) ExtractFaces(data []byte) ([]recognition.Face, error) {
	gray, rects, err := e.detect(data)
	defer gray.Close()
	if err != nil {
		return nil, err
	}
	result := make([]recognition.Face, 0, len(rects))
	for _, rect := range rects {
		roi := gray.Region(rect)
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, roi)
		roi.Close()
		if err != nil {
			return nil, err
		}
		crop := append([]byte(nil), buf.GetBytes()...)
		buf.Close()
		result = append(result, recognition.Face{
			Rect:  rect,
			Image: crop,
		})
	}
	return result, nil
}

func (e *LBPH) Predict(data []byte) ([]recognition.Prediction, error) {
	gray, rects, err := e.detect(data)
	defer gray.Close()
	if err != nil {
		return nil, err
	}
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	if !e.trained {
		return nil, errors.New("model is not trained")
	}
	result := make([]recognition.Prediction, 0, len(rects))
	for _, rect := range rects {
		roi := gray.Region(rect)
		response := e.recognizer.PredictExtendedResponse(roi)
		roi.Close()
		confidence := float64(response.Confidence)
		result = append(result, recognition.Prediction{
			Rect:       rect,
			Label:      int(response.Label),
			Confidence: confidence,
			Matched:    confidence < e.Threshold,
		})
	}
	return result, nil
}

func (e *LBPH) Train(samples []recognition.Sample) (int, error) {
	images := make([]gocv.Mat, 0, len(samples))
	labels := make([]int, 0, len(samples))
	defer func() {
		for _, img := range images {
			img.Close()
		}
	}()
	for _, sample := range samples {
		img, err := gocv.IMDecode(sample.Image, gocv.IMReadGrayScale)
		if err != nil {
			log.Printf("Error processing %s: %v", sample.Path, err)
			continue
		}
		if img.Empty() {
			img.Close()
			log.Printf("Error processing %s: cannot decode image", sample.Path)
			continue
		}
		images = append(images, img)
		labels = append(labels, sample.Label)
	}
	if len(images) == 0 {
		return 0, recognition.ErrNoTrainingData
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.recognizer.Train(images, labels)
	e.recognizer.SaveFile(e.ModelPath)
	e.trained = true
	return len(images), nil
}

func (e *LBPH) Trained() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.trained
}

// Reset marks the model untrained and removes the saved model.
// The next Train call replaces the recognizer state completely
func (e *LBPH) Reset() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.trained = false
	if err := os.Remove(e.ModelPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (e *LBPH) Close() {
	e.classifier.Close()
}
