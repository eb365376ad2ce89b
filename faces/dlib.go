package faces

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"math"
	"os"
	"sync"

	"facerec/recognition"
	"facerec/utils"

	"github.com/Kagami/go-face"
)

const cropPadding = 0.25

type dlibSample struct {
	Label      int             `json:"label"`
	Path       string          `json:"path"`
	Descriptor face.Descriptor `json:"descriptor"`
}

// Dlib uses go-face: dlib's CNN face descriptors classified by euclidean distance.
// Confidence is the distance to the closest known sample
type Dlib struct {
	mutex      sync.Mutex
	recognizer *face.Recognizer
	samples    []dlibSample

	SamplesFile string
	Tolerance   float32
}

func NewDlib(modelsDir, samplesFile string, tolerance float64) (*Dlib, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("cannot load dlib models from %s: %w", modelsDir, err)
	}
	result := &Dlib{
		recognizer:  rec,
		SamplesFile: samplesFile,
		Tolerance:   float32(tolerance),
	}
	data, err := os.ReadFile(samplesFile)
	if err == nil {
		if err = json.Unmarshal(data, &result.samples); err != nil {
			log.Printf("Ignoring broken samples file %s: %v", samplesFile, err)
			result.samples = nil
		}
		result.setSamples()
		log.Printf("Loaded %d face descriptors from %s", len(result.samples), samplesFile)
	}
	return result, nil
}

func (e *Dlib) Name() string {
	return "dlib"
}

func (e *Dlib) setSamples() {
	descriptors := make([]face.Descriptor, 0, len(e.samples))
	cats := make([]int32, 0, len(e.samples))
	for _, s := range e.samples {
		descriptors = append(descriptors, s.Descriptor)
		cats = append(cats, int32(s.Label))
	}
	e.recognizer.SetSamples(descriptors, cats)
}

// recognize runs dlib on a JPEG version of data, go-face only reads JPEG
func (e *Dlib) recognize(data []byte) ([]byte, []face.Face, error) {
	jpg, err := utils.ToJPEG(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", recognition.ErrInvalidImage, err)
	}
	faces, err := e.recognizer.Recognize(jpg)
	return jpg, faces, err
}

func (e *Dlib) ExtractFaces(data []byte) ([]recognition.Face, error) {
	e.mutex.Lock()
	jpg, faces, err := e.recognize(data)
	e.mutex.Unlock()
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return []recognition.Face{}, nil
	}
	img, err := jpeg.Decode(bytes.NewReader(jpg))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", recognition.ErrInvalidImage, err)
	}
	result := make([]recognition.Face, 0, len(faces))
	for _, f := range faces {
		crop, err := cropFace(img, f.Rectangle)
		if err != nil {
			return nil, err
		}
		result = append(result, recognition.Face{
			Rect:  f.Rectangle,
			Image: crop,
		})
	}
	return result, nil
}

// cropFace cuts the face out with some margin, dlib needs the surroundings to find the face again
func cropFace(img image.Image, rect image.Rectangle) ([]byte, error) {
	padX := int(float64(rect.Dx()) * cropPadding)
	padY := int(float64(rect.Dy()) * cropPadding)
	area := image.Rect(rect.Min.X-padX, rect.Min.Y-padY, rect.Max.X+padX, rect.Max.Y+padY).Intersect(img.Bounds())
	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, errors.New("image cannot be cropped")
	}
	buf := bytes.Buffer{}
	if err := jpeg.Encode(&buf, sub.SubImage(area), &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Dlib) Predict(data []byte) ([]recognition.Prediction, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	_, faces, err := e.recognize(data)
	if err != nil {
		return nil, err
	}
	result := make([]recognition.Prediction, 0, len(faces))
	for _, f := range faces {
		prediction := recognition.Prediction{
			Rect:       f.Rectangle,
			Label:      -1,
			Confidence: math.Inf(1),
		}
		for _, s := range e.samples {
			distance := math.Sqrt(face.SquaredEuclideanDistance(f.Descriptor, s.Descriptor))
			if distance < prediction.Confidence {
				prediction.Confidence = distance
				prediction.Label = s.Label
			}
		}
		if cat := e.recognizer.ClassifyThreshold(f.Descriptor, e.Tolerance); cat >= 0 {
			prediction.Label = cat
			prediction.Matched = true
		}
		if math.IsInf(prediction.Confidence, 1) {
			prediction.Confidence = 0
		}
		result = append(result, prediction)
	}
	return result, nil
}

func (e *Dlib) Train(samples []recognition.Sample) (int, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	trained := []dlibSample{}
	for _, sample := range samples {
		jpg, err := utils.ToJPEG(sample.Image)
		if err != nil {
			log.Printf("Error processing %s: %v", sample.Path, err)
			continue
		}
		f, err := e.recognizer.RecognizeSingle(jpg)
		if err != nil || f == nil {
			log.Printf("Error processing %s: no single face found", sample.Path)
			continue
		}
		trained = append(trained, dlibSample{
			Label:      sample.Label,
			Path:       sample.Path,
			Descriptor: f.Descriptor,
		})
	}
	if len(trained) == 0 {
		return 0, recognition.ErrNoTrainingData
	}
	data, err := json.Marshal(trained)
	if err != nil {
		return 0, err
	}
	if err = os.WriteFile(e.SamplesFile, data, 0644); err != nil {
		return 0, err
	}
	e.samples = trained
	e.setSamples()
	return len(trained), nil
}

func (e *Dlib) Trained() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return len(e.samples) > 0
}

func (e *Dlib) Reset() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.samples = nil
	e.setSamples()
	if err := os.Remove(e.SamplesFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (e *Dlib) Close() {
	e.recognizer.Close()
}
