package processing

import (
	"errors"
	"log"

	"facerec/recognition"
)

type reindex struct{}

func (t *reindex) getName() string {
	return "reindex"
}

func (t *reindex) shouldHandle(w Worker) bool {
	return true
}

func (t *reindex) process(w Worker) int {
	result, err := w.Reindex()
	if err != nil {
		log.Printf("Reindex failed: %v", err)
		return Failed
	}
	if result.Added == 0 && result.Removed == 0 {
		return Skipped
	}
	return Done
}

type train struct{}

func (t *train) getName() string {
	return "train"
}

func (t *train) shouldHandle(w Worker) bool {
	needed, err := w.NeedsTraining()
	if err != nil {
		log.Printf("Cannot check if training is needed: %v", err)
		return false
	}
	return needed
}

func (t *train) process(w Worker) int {
	if _, err := w.Train(); err != nil {
		if !errors.Is(err, recognition.ErrNoTrainingData) {
			log.Printf("Background training failed: %v", err)
		}
		return Failed
	}
	return Done
}
