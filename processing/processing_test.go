package processing

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"facerec/db"
	"facerec/recognition"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorker struct {
	mu         sync.Mutex
	reindex    recognition.ReindexResult
	reindexErr error
	needed     bool
	trainErr   error
	trainCalls int
	runs       int
}

func (w *fakeWorker) Reindex() (recognition.ReindexResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runs++
	return w.reindex, w.reindexErr
}

func (w *fakeWorker) NeedsTraining() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.needed, nil
}

func (w *fakeWorker) Train() (recognition.TrainResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trainCalls++
	w.needed = false
	return recognition.TrainResult{}, w.trainErr
}

func (w *fakeWorker) reindexRuns() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

func setupDB(t *testing.T) {
	t.Helper()
	var err error
	db.Instance, err = db.Open("", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	Init()
}

func TestRunOnce(t *testing.T) {
	setupDB(t)

	tests := []struct {
		name   string
		worker *fakeWorker
		want   map[string]int
		trains int
	}{
		{"nothing to do", &fakeWorker{}, map[string]int{"reindex": Skipped, "train": Skipped}, 0},
		{"new samples", &fakeWorker{reindex: recognition.ReindexResult{Added: 2}, needed: true}, map[string]int{"reindex": Done, "train": Done}, 1},
		{"reindex fails", &fakeWorker{reindexErr: errors.New("disk gone")}, map[string]int{"reindex": Failed, "train": Skipped}, 0},
		{"train fails", &fakeWorker{needed: true, trainErr: recognition.ErrNoTrainingData}, map[string]int{"reindex": Skipped, "train": Failed}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RunOnce(tt.worker))
			assert.Equal(t, tt.trains, tt.worker.trainCalls)
		})
	}

	runs, err := LastRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 4)
	assert.Equal(t, "reindex:2,train:2", runs[2].Status)
	assert.Equal(t, map[string]int{"reindex": Done, "train": Done}, runs[2].statusToMap())
}

func TestStatusToMap(t *testing.T) {
	run := ProcessingRun{Status: "reindex:2,broken,train:3"}
	assert.Equal(t, map[string]int{"reindex": 2, "train": 3}, run.statusToMap())
	assert.Empty(t, (&ProcessingRun{}).statusToMap())
}

func TestStartProcessing(t *testing.T) {
	setupDB(t)
	worker := &fakeWorker{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartProcessing(ctx, worker, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return worker.reindexRuns() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processing did not stop")
	}
}

func TestStartProcessing_Disabled(t *testing.T) {
	worker := &fakeWorker{}
	StartProcessing(context.Background(), worker, 0)
	assert.Zero(t, worker.reindexRuns())
}
