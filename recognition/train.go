package recognition

import (
	"errors"
	"log"
	"time"

	"facerec/dataset"
	"facerec/models"

	"github.com/google/uuid"
)

type TrainResult struct {
	ID         string `json:"id"`
	Faces      int    `json:"faces"`
	Labels     int    `json:"labels"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`
}

func (s *Service) Train() (TrainResult, error) {
	return s.TrainWithProgress(nil)
}

// TrainWithProgress rebuilds the model from every sample file. progress is called once per file
func (s *Service) TrainWithProgress(progress func(done, total int)) (TrainResult, error) {
	s.trainMutex.Lock()
	defer s.trainMutex.Unlock()

	started := time.Now()
	// Read before listing files, a sample stored meanwhile only causes one more training
	lastSample, err := models.MaxSampleID()
	if err != nil {
		return TrainResult{}, err
	}
	run := models.TrainingRun{
		ID:           uuid.NewString(),
		StartedAt:    started.Unix(),
		LastSampleID: lastSample,
		Backend:      s.engine.Name(),
	}
	result, err := s.train(progress)
	result.ID = run.ID
	result.DurationMs = time.Since(started).Milliseconds()

	run.DurationMs = result.DurationMs
	run.Faces = result.Faces
	run.Labels = result.Labels
	run.Skipped = result.Skipped
	run.Status = models.TrainingDone
	if err != nil {
		run.Status = models.TrainingFailed
		run.Error = err.Error()
	}
	if dbErr := run.Create(); dbErr != nil {
		log.Printf("Cannot save training run %s: %v", run.ID, dbErr)
	}
	return result, err
}

func (s *Service) train(progress func(done, total int)) (result TrainResult, err error) {
	files, err := s.store.Files()
	if err != nil {
		return
	}
	samples := []Sample{}
	for i, name := range files {
		if progress != nil {
			progress(i+1, len(files))
		}
		if !dataset.IsImage(name) {
			continue
		}
		file, err := dataset.Parse(name)
		if err != nil {
			log.Printf("Skipping invalid file name: %s", name)
			result.Skipped++
			continue
		}
		path := s.store.Path(name)
		data, err := s.store.Read(path)
		if err != nil {
			log.Printf("Error processing %s: %v", name, err)
			result.Skipped++
			continue
		}
		samples = append(samples, Sample{
			Label: file.Label,
			Path:  path,
			Image: data,
		})
	}
	if len(samples) == 0 {
		log.Println("No faces found for training")
		return result, ErrNoTrainingData
	}
	trained, err := s.engine.Train(samples)
	if err != nil {
		if errors.Is(err, ErrNoTrainingData) {
			result.Skipped += len(samples)
		}
		return result, err
	}
	labels := map[int]bool{}
	for _, sample := range samples {
		labels[sample.Label] = true
	}
	result.Faces = trained
	result.Labels = len(labels)
	result.Skipped += len(samples) - trained
	log.Printf("Training complete, total faces trained: %d", result.Labels)
	return result, nil
}

func (s *Service) TrainingHistory(limit int) ([]models.TrainingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return models.LatestTrainingRuns(limit)
}

// NeedsTraining reports whether sample rows were added after the last successful training started
func (s *Service) NeedsTraining() (bool, error) {
	count, err := models.CountSamples()
	if err != nil || count == 0 {
		return false, err
	}
	if !s.engine.Trained() {
		return true, nil
	}
	run, ok, err := models.LastSuccessfulTraining()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	latest, err := models.MaxSampleID()
	if err != nil {
		return false, err
	}
	return latest > run.LastSampleID, nil
}
