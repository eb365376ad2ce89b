package cmd

import (
	"fmt"

	"facerec/config"
	"facerec/dataset"
	"facerec/db"
	"facerec/faces"
	"facerec/models"
	"facerec/recognition"
	"facerec/storage"
)

func serviceOptions() recognition.Options {
	return recognition.Options{
		NameOverrides:     config.ParseNameOverrides(config.NAME_OVERRIDES),
		MaxImageDimension: config.MAX_IMAGE_DIMENSION,
		TrainOnEnroll:     config.TRAIN_ON_ENROLL,
		CameraSamples:     config.CAMERA_SAMPLES,
		CameraTimeout:     config.CameraTimeout(),
		CameraFrameDelay:  config.CameraFrameDelay(),
	}
}

// bootstrap connects the database and storage and loads the configured engine
func bootstrap() (*recognition.Service, error) {
	db.Init(config.MYSQL_DSN, config.SQLITE_FILE)
	models.Init()
	storage.Init(config.DEFAULT_BUCKET_DIR)

	engine, err := faces.New()
	if err != nil {
		return nil, fmt.Errorf("cannot load recognizer: %w", err)
	}
	store := dataset.NewStore(storage.GetDefaultStorage(), storage.StorageLocationUser)
	return recognition.NewService(engine, faces.NewCamera(), store, serviceOptions()), nil
}
