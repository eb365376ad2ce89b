package recognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
)

// fakeEngine finds one face per occurrence of "face" in the image bytes.
// Images starting with "bad" cannot be decoded
type fakeEngine struct {
	mu          sync.Mutex
	trained     bool
	samples     []Sample
	predictions map[string][]Prediction
	fallback    []Prediction
	predictErr  error
	resets      int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{predictions: map[string][]Prediction{}}
}

func (e *fakeEngine) Name() string {
	return "fake"
}

func (e *fakeEngine) ExtractFaces(img []byte) ([]Face, error) {
	if bytes.HasPrefix(img, []byte("bad")) {
		return nil, ErrInvalidImage
	}
	result := []Face{}
	for i := 0; i < strings.Count(string(img), "face"); i++ {
		result = append(result, Face{
			Rect:  image.Rect(i*10, 0, i*10+10, 10),
			Image: []byte(fmt.Sprintf("crop-%d-%s", i, img)),
		})
	}
	return result, nil
}

func (e *fakeEngine) Predict(img []byte) ([]Prediction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if bytes.HasPrefix(img, []byte("bad")) {
		return nil, ErrInvalidImage
	}
	if e.predictErr != nil {
		return nil, e.predictErr
	}
	if p, ok := e.predictions[string(img)]; ok {
		return p, nil
	}
	return e.fallback, nil
}

func (e *fakeEngine) Train(samples []Sample) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	used := []Sample{}
	for _, s := range samples {
		if !bytes.HasPrefix(s.Image, []byte("corrupt")) {
			used = append(used, s)
		}
	}
	if len(used) == 0 {
		return 0, ErrNoTrainingData
	}
	e.samples = used
	e.trained = true
	return len(used), nil
}

func (e *fakeEngine) Trained() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trained
}

func (e *fakeEngine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trained = false
	e.samples = nil
	e.resets++
	return nil
}

func (e *fakeEngine) Close() {}

func (e *fakeEngine) trainedLabels() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := []int{}
	for _, s := range e.samples {
		result = append(result, s.Label)
	}
	return result
}

// fakeCamera plays frames in order. With release set it signals opened
// and waits for release before the first frame
type fakeCamera struct {
	frames  [][]byte
	openErr error
	read    int
	opened  chan struct{}
	release chan struct{}
}

func (c *fakeCamera) Stream(ctx context.Context, fn func(frame []byte) bool) error {
	if c.openErr != nil {
		return c.openErr
	}
	if c.release != nil {
		close(c.opened)
		<-c.release
	}
	for _, frame := range c.frames {
		if ctx.Err() != nil {
			return nil
		}
		c.read++
		if !fn(frame) {
			return nil
		}
	}
	return nil
}
