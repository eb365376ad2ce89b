package models

import (
	"facerec/db"
)

func Init() {
	for _, m := range []interface{}{&Person{}, &Sample{}, &TrainingRun{}} {
		if err := db.Instance.AutoMigrate(m); err != nil {
			panic(err)
		}
	}
}
