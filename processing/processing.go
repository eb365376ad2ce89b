// Package processing keeps the registry and the model in sync with the dataset in the background
package processing

import (
	"context"
	"log"
	"time"

	"facerec/db"
	"facerec/recognition"
)

// Worker is the part of the recognition service the background tasks use
type Worker interface {
	Reindex() (recognition.ReindexResult, error)
	NeedsTraining() (bool, error)
	Train() (recognition.TrainResult, error)
}

type processingTask interface {
	getName() string
	shouldHandle(Worker) bool
	process(Worker) int
}

var (
	tasks = []processingTask{}
)

func registerTask(t processingTask) {
	tasks = append(tasks, t)
}

func Init() {
	if err := db.Instance.AutoMigrate(&ProcessingRun{}); err != nil {
		log.Printf("Auto-migrate error: %v", err)
	}
	// Order matters, training needs the samples found by reindex
	tasks = []processingTask{}
	registerTask(&reindex{})
	registerTask(&train{})
}

// RunOnce runs every task once and records the outcome
func RunOnce(w Worker) map[string]int {
	current := ProcessingRun{
		StartedAt: time.Now().Unix(),
	}
	statusMap := current.statusToMap()
	for _, task := range tasks {
		taskName := task.getName()
		if !task.shouldHandle(w) {
			statusMap[taskName] = Skipped
			continue
		}
		start := time.Now()
		statusMap[taskName] = task.process(w)
		timeConsumed := time.Since(start).Milliseconds()
		log.Printf("Task %s, result: %d, time: %v", taskName, statusMap[taskName], timeConsumed)
	}
	current.updateWith(statusMap)
	if err := db.Instance.Create(&current).Error; err != nil {
		log.Printf("Cannot save processing run: %v", err)
	}
	return statusMap
}

// StartProcessing runs all tasks every interval until ctx is done
func StartProcessing(ctx context.Context, w Worker, interval time.Duration) {
	if interval <= 0 {
		return
	}
	log.Printf("Background processing every %v", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		RunOnce(w)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func LastRuns(limit int) (result []ProcessingRun, err error) {
	err = db.Instance.Order("id DESC").Limit(limit).Find(&result).Error
	return
}
