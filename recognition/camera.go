package recognition

import (
	"context"
	"log"
	"strings"
	"time"

	"facerec/models"
)

func (s *Service) lockCamera() (func(), error) {
	if s.camera == nil {
		return nil, ErrCameraUnavailable
	}
	if !s.cameraMutex.TryLock() {
		return nil, ErrCameraBusy
	}
	return s.cameraMutex.Unlock, nil
}

// waitFrame sleeps between frames, false means the capture should stop
func (s *Service) waitFrame(ctx context.Context) bool {
	if s.opts.CameraFrameDelay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(s.opts.CameraFrameDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// reserveLabel assigns the label and writes the person before the capture starts,
// so enrollments running meanwhile cannot pick the same label. reserved is true
// when the person row was created here
func (s *Service) reserveLabel(name string, label int) (int, bool, error) {
	s.enrollMutex.Lock()
	defer s.enrollMutex.Unlock()
	label, err := s.assignLabel(name, label)
	if err != nil {
		return 0, false, err
	}
	reserved, err := (&models.Person{Label: label, Name: name}).CreateIfMissing()
	if err != nil {
		return 0, false, err
	}
	return label, reserved, nil
}

// releaseLabel drops a reserved person unless an upload with the same name stored samples meanwhile
func (s *Service) releaseLabel(label int) {
	s.enrollMutex.Lock()
	defer s.enrollMutex.Unlock()
	samples, err := models.SamplesFor(label)
	if err == nil && len(samples) == 0 {
		err = models.DeletePerson(label)
	}
	if err != nil {
		log.Printf("Cannot release label %d: %v", label, err)
	}
}

// AddFaceFromCamera stores every face seen by the server camera until enough samples
// are collected or the capture times out, then retrains
func (s *Service) AddFaceFromCamera(ctx context.Context, name string, label int) (EnrollResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return EnrollResult{}, ErrInvalidName
	}
	if label < 0 {
		return EnrollResult{}, ErrInvalidLabel
	}
	unlock, err := s.lockCamera()
	if err != nil {
		return EnrollResult{}, err
	}
	defer unlock()

	label, reserved, err := s.reserveLabel(name, label)
	if err != nil {
		return EnrollResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.CameraTimeout)
	defer cancel()

	count := 0
	var storeErr error
	err = s.camera.Stream(ctx, func(frame []byte) bool {
		faces, err := s.engine.ExtractFaces(frame)
		if err != nil {
			log.Printf("Cannot detect faces in camera frame: %v", err)
			return s.waitFrame(ctx)
		}
		for _, face := range faces {
			if count == 0 {
				if storeErr = (&models.Person{Label: label, Name: name}).Save(); storeErr != nil {
					return false
				}
			}
			if _, storeErr = s.storeSample(name, label, face.Image, models.SourceCamera); storeErr != nil {
				return false
			}
			count++
			if count >= s.opts.CameraSamples {
				return false
			}
		}
		return s.waitFrame(ctx)
	})
	if count == 0 && reserved {
		s.releaseLabel(label)
	}
	if err != nil {
		return EnrollResult{}, err
	}
	if storeErr != nil {
		return EnrollResult{}, storeErr
	}
	if count == 0 {
		return EnrollResult{}, ErrNoFace
	}
	log.Printf("Captured %d samples for %s with id %d", count, name, label)

	return EnrollResult{
		Success: true,
		Label:   label,
		Name:    name,
		Samples: count,
		Trained: s.trainAfterEnroll(),
	}, nil
}

// RecognizeFromCamera watches the server camera until a known face shows up or the capture times out.
// The last recognized name is returned
func (s *Service) RecognizeFromCamera(ctx context.Context) (Result, error) {
	unlock, err := s.lockCamera()
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	last := Result{
		Name:  NameUnknown,
		Faces: []FaceResult{},
	}
	if !s.engine.Trained() {
		return last, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.CameraTimeout)
	defer cancel()

	err = s.camera.Stream(ctx, func(frame []byte) bool {
		predictions, err := s.engine.Predict(frame)
		if err != nil {
			log.Printf("Recognition error: %v", err)
			return s.waitFrame(ctx)
		}
		if len(predictions) == 0 {
			return s.waitFrame(ctx)
		}
		last = s.toResult(predictions)
		for _, p := range predictions {
			if p.Matched {
				return false
			}
		}
		return s.waitFrame(ctx)
	})
	return last, err
}
