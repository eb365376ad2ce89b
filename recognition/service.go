// Package recognition orchestrates enrollment, training and recognition around a vision Engine.
// The engine only sees encoded images. Everything about labels, names, sample files and
// their database rows is handled here.
package recognition

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"facerec/dataset"
	"facerec/models"
	"facerec/utils"

	"gorm.io/gorm"
)

type Options struct {
	NameOverrides     map[int]string
	MaxImageDimension int
	TrainOnEnroll     bool
	CameraSamples     int
	CameraTimeout     time.Duration
	CameraFrameDelay  time.Duration
}

type Service struct {
	engine Engine
	camera Camera
	store  *dataset.Store
	opts   Options

	trainMutex  sync.Mutex
	enrollMutex sync.Mutex
	cameraMutex sync.Mutex
}

type FaceResult struct {
	Name       string  `json:"name"`
	Label      int     `json:"label,omitempty"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

type Result struct {
	Name       string       `json:"name"`
	Label      int          `json:"label,omitempty"`
	Confidence float64      `json:"confidence,omitempty"`
	Faces      []FaceResult `json:"faces"`
	Error      string       `json:"error,omitempty"`
}

type EnrollResult struct {
	Success bool   `json:"success"`
	Label   int    `json:"label"`
	Name    string `json:"name"`
	Sample  string `json:"sample,omitempty"`
	Samples int    `json:"samples"`
	Trained bool   `json:"trained"`
}

// NewService wires an engine to a dataset. camera can be nil when the host has no webcam
func NewService(engine Engine, camera Camera, store *dataset.Store, opts Options) *Service {
	if opts.CameraSamples <= 0 {
		opts.CameraSamples = 40
	}
	if opts.CameraTimeout <= 0 {
		opts.CameraTimeout = 30 * time.Second
	}
	return &Service{
		engine: engine,
		camera: camera,
		store:  store,
		opts:   opts,
	}
}

func (s *Service) Engine() Engine {
	return s.engine
}

func (s *Service) Store() *dataset.Store {
	return s.store
}

func (s *Service) Close() {
	s.engine.Close()
}

// NameFor resolves a predicted label: overrides first, then the registry, then a generic name
func (s *Service) NameFor(label int) string {
	if name, ok := s.opts.NameOverrides[label]; ok {
		return name
	}
	person, err := models.GetPerson(label)
	if err == nil && person.Name != "" {
		return person.Name
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Cannot load person %d: %v", label, err)
	}
	return fmt.Sprintf("User %d", label)
}

func (s *Service) prepare(data []byte) ([]byte, error) {
	img, err := utils.PrepareImage(data, s.opts.MaxImageDimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// Recognize predicts the identity of the first face in the image. Every detected face is
// listed in the result. A failing engine is reported as the "Error" name, not as an error
func (s *Service) Recognize(data []byte) (Result, error) {
	result := Result{
		Name:  NameUnknown,
		Faces: []FaceResult{},
	}
	img, err := s.prepare(data)
	if err != nil {
		result.Name = NameError
		return result, err
	}
	if !s.engine.Trained() {
		return result, nil
	}
	predictions, err := s.engine.Predict(img)
	if errors.Is(err, ErrInvalidImage) {
		result.Name = NameError
		return result, err
	}
	if err != nil {
		log.Printf("Recognition error: %v", err)
		result.Name = NameError
		result.Error = err.Error()
		return result, nil
	}
	return s.toResult(predictions), nil
}

func (s *Service) toResult(predictions []Prediction) Result {
	result := Result{
		Name:  NameNoFaceFound,
		Faces: make([]FaceResult, 0, len(predictions)),
	}
	for i, p := range predictions {
		face := FaceResult{
			Name:       NameUnknown,
			Confidence: p.Confidence,
			Box:        BoxFrom(p.Rect),
		}
		if p.Matched {
			face.Label = p.Label
			face.Name = s.NameFor(p.Label)
		}
		if i == 0 {
			result.Name = face.Name
			result.Label = face.Label
			result.Confidence = face.Confidence
		}
		result.Faces = append(result.Faces, face)
	}
	return result
}

// AddFace enrolls the first face found in the image. label 0 picks the label automatically
func (s *Service) AddFace(name string, label int, data []byte) (EnrollResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return EnrollResult{}, ErrInvalidName
	}
	if label < 0 {
		return EnrollResult{}, ErrInvalidLabel
	}
	img, err := s.prepare(data)
	if err != nil {
		return EnrollResult{}, err
	}
	faces, err := s.engine.ExtractFaces(img)
	if err != nil {
		return EnrollResult{}, err
	}
	if len(faces) == 0 {
		return EnrollResult{}, ErrNoFace
	}

	s.enrollMutex.Lock()
	label, err = s.assignLabel(name, label)
	if err == nil {
		err = (&models.Person{Label: label, Name: name}).Save()
	}
	if err != nil {
		s.enrollMutex.Unlock()
		return EnrollResult{}, err
	}
	file, err := s.storeSample(name, label, faces[0].Image, models.SourceUpload)
	s.enrollMutex.Unlock()
	if err != nil {
		return EnrollResult{}, err
	}
	log.Printf("Added face for %s with id %d: %s", name, label, file.Path)

	return EnrollResult{
		Success: true,
		Label:   label,
		Name:    name,
		Sample:  file.Path,
		Samples: 1,
		Trained: s.trainAfterEnroll(),
	}, nil
}

// assignLabel keeps an explicit label, reuses the label of a known name,
// or takes the next free one across the registry and the dataset files
func (s *Service) assignLabel(name string, label int) (int, error) {
	if label > 0 {
		return label, nil
	}
	person, found, err := models.FindPersonByName(name)
	if err != nil {
		return 0, err
	}
	if found {
		return person.Label, nil
	}
	dbMax, err := models.MaxLabel()
	if err != nil {
		return 0, err
	}
	fileMax, err := s.store.MaxLabel()
	if err != nil {
		return 0, err
	}
	return max(dbMax, fileMax) + 1, nil
}

func (s *Service) storeSample(name string, label int, jpeg []byte, source string) (dataset.SampleFile, error) {
	file, err := s.store.Put(name, label, jpeg)
	if err != nil {
		return file, fmt.Errorf("storing sample: %w", err)
	}
	sample := models.Sample{
		PersonLabel: label,
		BucketID:    s.store.BucketID(),
		Num:         file.Num,
		Path:        file.Path,
		Size:        int64(len(jpeg)),
		Source:      source,
	}
	if _, err = sample.CreateIfMissing(); err != nil {
		return file, fmt.Errorf("saving sample %s: %w", file.Path, err)
	}
	return file, nil
}

func (s *Service) trainAfterEnroll() bool {
	if !s.opts.TrainOnEnroll {
		return false
	}
	if _, err := s.Train(); err != nil {
		log.Printf("Training after enrollment failed: %v", err)
		return false
	}
	return true
}
