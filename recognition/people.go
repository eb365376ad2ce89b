package recognition

import (
	"bytes"
	"errors"
	"log"
	"strings"

	"facerec/dataset"
	"facerec/models"
	"facerec/storage"
	"facerec/utils"

	"gorm.io/gorm"
)

type DeleteResult struct {
	Label   int  `json:"label"`
	Removed int  `json:"removed"`
	Trained bool `json:"trained"`
}

type ReindexResult struct {
	People  int `json:"people"`
	Samples int `json:"samples"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

type Health struct {
	Recognizer string `json:"recognizer"`
	Trained    bool   `json:"trained"`
	People     int64  `json:"people"`
	Samples    int64  `json:"samples"`
	Streams    int    `json:"streams"`
	FreeSpace  uint64 `json:"free_space"`
}

func (s *Service) People() ([]models.PersonInfo, error) {
	return models.ListPeople()
}

// Rename changes the display name only, sample files keep their names
func (s *Service) Rename(label int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	err := models.RenamePerson(label, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPersonNotFound
	}
	return err
}

func (s *Service) getPerson(label int) (models.Person, error) {
	person, err := models.GetPerson(label)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return person, ErrPersonNotFound
	}
	return person, err
}

// DeletePerson removes all samples of a label. The model is retrained on what is left,
// or reset if nothing is left
func (s *Service) DeletePerson(label int) (DeleteResult, error) {
	result := DeleteResult{Label: label}
	if _, err := s.getPerson(label); err != nil {
		return result, err
	}

	s.enrollMutex.Lock()
	files, err := s.store.List()
	if err != nil {
		s.enrollMutex.Unlock()
		return result, err
	}
	remaining := 0
	for _, file := range files {
		if file.Label != label {
			remaining++
			continue
		}
		if err = s.store.Delete(file.Path); err != nil {
			s.enrollMutex.Unlock()
			return result, err
		}
		result.Removed++
	}
	err = models.DeletePerson(label)
	s.enrollMutex.Unlock()
	if err != nil {
		return result, err
	}
	log.Printf("Deleted person %d with %d samples", label, result.Removed)

	if remaining == 0 {
		s.trainMutex.Lock()
		defer s.trainMutex.Unlock()
		return result, s.engine.Reset()
	}
	if _, err = s.Train(); err != nil {
		log.Printf("Training after delete failed: %v", err)
	} else {
		result.Trained = true
	}
	return result, nil
}

func (s *Service) Samples(label int) ([]models.Sample, error) {
	if _, err := s.getPerson(label); err != nil {
		return nil, err
	}
	return models.SamplesFor(label)
}

// SampleThumb returns a JPEG thumbnail of a stored sample
func (s *Service) SampleThumb(id uint64, size uint) ([]byte, error) {
	sample, err := models.GetSample(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSampleNotFound
	}
	if err != nil {
		return nil, err
	}
	store := s.store
	if sample.BucketID != store.BucketID() {
		if other := storage.StorageByID(sample.BucketID); other != nil {
			store = dataset.NewStore(other, storage.StorageLocationUser)
		}
	}
	data, err := store.Read(sample.Path)
	if err != nil {
		return nil, err
	}
	buf := bytes.Buffer{}
	if _, err = utils.CreateThumb(size, bytes.NewReader(data), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Reindex syncs the registry with the sample files: people and samples found on storage are added,
// rows of vanished files are removed. Existing display names are kept
func (s *Service) Reindex() (result ReindexResult, err error) {
	s.enrollMutex.Lock()
	defer s.enrollMutex.Unlock()

	files, err := s.store.List()
	if err != nil {
		return
	}
	bucketID := s.store.BucketID()
	known, err := models.SamplePaths(bucketID)
	if err != nil {
		return
	}
	people := map[int]bool{}
	for _, file := range files {
		if !people[file.Label] {
			if _, err = (&models.Person{Label: file.Label, Name: file.Name}).CreateIfMissing(); err != nil {
				return
			}
			people[file.Label] = true
		}
		if _, ok := known[file.Path]; ok {
			delete(known, file.Path)
			continue
		}
		size := s.store.Storage().GetSize(file.Path)
		if size < 0 {
			size = 0
		}
		sample := models.Sample{
			PersonLabel: file.Label,
			BucketID:    bucketID,
			Num:         file.Num,
			Path:        file.Path,
			Size:        size,
			Source:      models.SourceImport,
		}
		created, err := sample.CreateIfMissing()
		if err != nil {
			return result, err
		}
		if created {
			result.Added++
		}
	}
	ids := make([]uint64, 0, len(known))
	for _, id := range known {
		ids = append(ids, id)
	}
	if err = models.DeleteSamples(ids); err != nil {
		return
	}
	result.Removed = len(ids)
	result.People = len(people)
	result.Samples = len(files)
	if result.Added > 0 || result.Removed > 0 {
		log.Printf("Reindex: %d samples added, %d removed", result.Added, result.Removed)
	}
	return result, nil
}

func (s *Service) Health() (result Health, err error) {
	result.Recognizer = s.engine.Name()
	result.Trained = s.engine.Trained()
	if result.People, err = models.CountPeople(); err != nil {
		return
	}
	if result.Samples, err = models.CountSamples(); err != nil {
		return
	}
	result.FreeSpace = s.store.Storage().GetFreeSpace()
	return result, nil
}
