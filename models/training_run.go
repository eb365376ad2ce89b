package models

import (
	"errors"

	"facerec/db"

	"gorm.io/gorm"
)

const (
	TrainingDone   = "done"
	TrainingFailed = "failed"
)

type TrainingRun struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StartedAt int64  `gorm:"index" json:"started"`
	// LastSampleID is the newest sample row when training started, later ids are untrained
	LastSampleID uint64 `json:"last_sample_id"`
	DurationMs   int64  `json:"duration_ms"`
	Backend      string `gorm:"type:varchar(20)" json:"backend"`
	Faces        int    `json:"faces"`
	Labels       int    `json:"labels"`
	Skipped      int    `json:"skipped"`
	Status       string `gorm:"type:varchar(20)" json:"status"`
	Error        string `gorm:"type:varchar(1024)" json:"error,omitempty"`
}

func (r *TrainingRun) Create() error {
	if len(r.Error) > 1024 {
		r.Error = r.Error[:1024]
	}
	return db.Instance.Create(r).Error
}

func LatestTrainingRuns(limit int) (result []TrainingRun, err error) {
	err = db.Instance.Order("started_at DESC").Limit(limit).Find(&result).Error
	return
}

// LastSuccessfulTraining returns ok=false if the model was never trained
func LastSuccessfulTraining() (run TrainingRun, ok bool, err error) {
	err = db.Instance.Where("status = ?", TrainingDone).Order("started_at DESC, last_sample_id DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return run, false, nil
	}
	return run, err == nil, err
}
