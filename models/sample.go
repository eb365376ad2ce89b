package models

import (
	"facerec/db"

	"gorm.io/gorm/clause"
)

const (
	SourceUpload = "upload"
	SourceCamera = "camera"
	SourceImport = "import"
)

// Sample is one stored face image of a person
type Sample struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt   int64  `json:"created"`
	PersonLabel int    `gorm:"index" json:"label"`
	Person      Person `gorm:"foreignKey:PersonLabel;references:Label;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	BucketID    uint64 `json:"bucket_id"`
	Num         int    `json:"num"`
	Path        string `gorm:"type:varchar(500);uniqueIndex" json:"path"`
	Size        int64  `json:"size"`
	Source      string `gorm:"type:varchar(20)" json:"source"`
}

// CreateIfMissing inserts the sample unless its path is already known
func (s *Sample) CreateIfMissing() (created bool, err error) {
	result := db.Instance.Clauses(clause.OnConflict{DoNothing: true}).Create(s)
	return result.RowsAffected > 0, result.Error
}

func GetSample(id uint64) (s Sample, err error) {
	err = db.Instance.Where("id = ?", id).First(&s).Error
	return
}

func SamplesFor(label int) (result []Sample, err error) {
	err = db.Instance.Where("person_label = ?", label).Order("num, id").Find(&result).Error
	return
}

// SamplePaths returns all sample paths stored for the bucket
func SamplePaths(bucketID uint64) (map[string]uint64, error) {
	samples := []Sample{}
	if err := db.Instance.Select("id, path").Where("bucket_id = ?", bucketID).Find(&samples).Error; err != nil {
		return nil, err
	}
	result := make(map[string]uint64, len(samples))
	for _, s := range samples {
		result[s.Path] = s.ID
	}
	return result, nil
}

func DeleteSamples(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Instance.Where("id IN ?", ids).Delete(&Sample{}).Error
}

func CountSamples() (count int64, err error) {
	err = db.Instance.Model(&Sample{}).Count(&count).Error
	return
}

// MaxSampleID returns the id of the newest sample row, 0 if there are none
func MaxSampleID() (uint64, error) {
	latest := uint64(0)
	err := db.Instance.Model(&Sample{}).Select("coalesce(max(id), 0)").Row().Scan(&latest)
	return latest, err
}
