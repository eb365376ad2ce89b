package recognition

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"facerec/dataset"
	"facerec/db"
	"facerec/models"
	"facerec/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	service *Service
	engine  *fakeEngine
	camera  *fakeCamera
	store   *dataset.Store
}

func setup(t *testing.T, opts Options) *testEnv {
	t.Helper()
	var err error
	db.Instance, err = db.Open("", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	models.Init()

	disk := storage.NewDiskStorage(&storage.Bucket{ID: 1, Path: t.TempDir()})
	env := &testEnv{
		engine: newFakeEngine(),
		camera: &fakeCamera{},
		store:  dataset.NewStore(disk, storage.StorageLocationUser),
	}
	env.service = NewService(env.engine, env.camera, env.store, opts)
	return env
}

func (env *testEnv) putFile(t *testing.T, name string, data string) {
	t.Helper()
	_, err := env.store.Storage().Save(env.store.Path(name), strings.NewReader(data))
	require.NoError(t, err)
}

func TestRecognize_Untrained(t *testing.T) {
	env := setup(t, Options{})

	result, err := env.service.Recognize([]byte("face"))
	require.NoError(t, err)
	assert.Equal(t, NameUnknown, result.Name)
	assert.Empty(t, result.Faces)
}

func TestRecognize_Names(t *testing.T) {
	env := setup(t, Options{NameOverrides: map[int]string{1: "Robin", 2: "Sifat"}})
	env.engine.trained = true
	require.NoError(t, (&models.Person{Label: 1, Name: "Robin Registry"}).Save())
	require.NoError(t, (&models.Person{Label: 3, Name: "Carol"}).Save())

	tests := []struct {
		name       string
		prediction Prediction
		want       string
	}{
		{"override wins over registry", Prediction{Label: 1, Confidence: 40, Matched: true}, "Robin"},
		{"override without registry", Prediction{Label: 2, Confidence: 40, Matched: true}, "Sifat"},
		{"registry", Prediction{Label: 3, Confidence: 40, Matched: true}, "Carol"},
		{"unnamed label", Prediction{Label: 9, Confidence: 40, Matched: true}, "User 9"},
		{"not a match", Prediction{Label: 3, Confidence: 120}, NameUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.engine.fallback = []Prediction{tt.prediction}
			result, err := env.service.Recognize([]byte("face"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Name)
			require.Len(t, result.Faces, 1)
			assert.Equal(t, tt.prediction.Confidence, result.Confidence)
		})
	}
}

func TestRecognize_FirstFaceDecides(t *testing.T) {
	env := setup(t, Options{})
	env.engine.trained = true
	require.NoError(t, (&models.Person{Label: 1, Name: "Ann"}).Save())
	env.engine.fallback = []Prediction{
		{Rect: image.Rect(0, 0, 10, 20), Label: 4, Confidence: 150},
		{Rect: image.Rect(30, 0, 40, 20), Label: 1, Confidence: 20, Matched: true},
	}

	result, err := env.service.Recognize([]byte("face face"))
	require.NoError(t, err)
	assert.Equal(t, NameUnknown, result.Name)
	assert.Zero(t, result.Label)
	require.Len(t, result.Faces, 2)
	assert.Equal(t, "Ann", result.Faces[1].Name)
	assert.Equal(t, Box{X: 30, Y: 0, W: 10, H: 20}, result.Faces[1].Box)
}

func TestRecognize_Failures(t *testing.T) {
	env := setup(t, Options{})
	env.engine.trained = true

	result, err := env.service.Recognize([]byte("blank"))
	require.NoError(t, err)
	assert.Equal(t, NameNoFaceFound, result.Name)

	result, err = env.service.Recognize(nil)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Equal(t, NameError, result.Name)

	result, err = env.service.Recognize([]byte("bad image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Equal(t, NameError, result.Name)

	env.engine.predictErr = errors.New("opencv exploded")
	result, err = env.service.Recognize([]byte("face"))
	require.NoError(t, err)
	assert.Equal(t, NameError, result.Name)
	assert.Equal(t, "opencv exploded", result.Error)
}

func TestAddFace_AssignsLabels(t *testing.T) {
	env := setup(t, Options{TrainOnEnroll: true})

	first, err := env.service.AddFace(" Ann ", 0, []byte("face"))
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, 1, first.Label)
	assert.Equal(t, "Ann", first.Name)
	assert.Equal(t, "user/Ann.1.1.jpg", first.Sample)
	assert.True(t, first.Trained)

	again, err := env.service.AddFace("Ann", 0, []byte("face"))
	require.NoError(t, err)
	assert.Equal(t, 1, again.Label)
	assert.Equal(t, "user/Ann.1.2.jpg", again.Sample)

	bob, err := env.service.AddFace("Bob", 0, []byte("face"))
	require.NoError(t, err)
	assert.Equal(t, 2, bob.Label)

	explicit, err := env.service.AddFace("Carol", 7, []byte("face"))
	require.NoError(t, err)
	assert.Equal(t, 7, explicit.Label)

	next, err := env.service.AddFace("Dave", 0, []byte("face"))
	require.NoError(t, err)
	assert.Equal(t, 8, next.Label)

	assert.ElementsMatch(t, []int{1, 1, 2, 7, 8}, env.engine.trainedLabels())

	samples, err := models.SamplesFor(1)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, models.SourceUpload, samples[0].Source)

	stored, err := env.store.Read(first.Sample)
	require.NoError(t, err)
	assert.Equal(t, "crop-0-face", string(stored), "only the first face crop is stored")
}

func TestAddFace_LabelFromDatasetFiles(t *testing.T) {
	env := setup(t, Options{})
	env.putFile(t, "Old.5.1.jpg", "face")

	result, err := env.service.AddFace("New", 0, []byte("face"))
	require.NoError(t, err)
	assert.Equal(t, 6, result.Label)
	assert.False(t, result.Trained)
	assert.False(t, env.engine.Trained())
}

func TestAddFace_Rejects(t *testing.T) {
	env := setup(t, Options{TrainOnEnroll: true})

	_, err := env.service.AddFace("   ", 0, []byte("face"))
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = env.service.AddFace("Ann", -1, []byte("face"))
	assert.ErrorIs(t, err, ErrInvalidLabel)

	_, err = env.service.AddFace("Ann", 0, []byte("blank"))
	assert.ErrorIs(t, err, ErrNoFace)

	_, err = env.service.AddFace("Ann", 0, []byte("bad"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	files, err := env.store.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
	count, err := models.CountPeople()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTrain(t *testing.T) {
	env := setup(t, Options{})
	env.putFile(t, "Ann.1.1.jpg", "face")
	env.putFile(t, "Ann.1.2.JPG", "face")
	env.putFile(t, "Bob.2.1.png", "corrupt")
	env.putFile(t, "holiday.jpg", "face")
	env.putFile(t, "notes.txt", "text")

	calls := 0
	result, err := env.service.TrainWithProgress(func(done, total int) {
		calls++
		assert.Equal(t, 5, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 2, result.Faces)
	assert.Equal(t, 2, result.Labels)
	assert.Equal(t, 2, result.Skipped)
	assert.NotEmpty(t, result.ID)

	runs, err := env.service.TrainingHistory(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.TrainingDone, runs[0].Status)
	assert.Equal(t, "fake", runs[0].Backend)
	assert.Equal(t, result.ID, runs[0].ID)
}

func TestTrain_NoData(t *testing.T) {
	env := setup(t, Options{})
	env.putFile(t, "holiday.jpg", "face")

	_, err := env.service.Train()
	assert.ErrorIs(t, err, ErrNoTrainingData)
	assert.False(t, env.engine.Trained())

	env.putFile(t, "Ann.1.1.jpg", "corrupt")
	_, err = env.service.Train()
	assert.ErrorIs(t, err, ErrNoTrainingData)

	runs, err := env.service.TrainingHistory(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.Equal(t, models.TrainingFailed, run.Status)
		assert.Equal(t, ErrNoTrainingData.Error(), run.Error)
	}
}

func TestAddFaceFromCamera(t *testing.T) {
	env := setup(t, Options{TrainOnEnroll: true, CameraSamples: 3})
	env.camera.frames = [][]byte{[]byte("blank"), []byte("face"), []byte("face face"), []byte("face"), []byte("face")}

	result, err := env.service.AddFaceFromCamera(context.Background(), "Ann", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Label)
	assert.Equal(t, 3, result.Samples)
	assert.True(t, result.Trained)
	assert.Equal(t, 3, env.camera.read, "capture stops once enough samples are stored")

	samples, err := models.SamplesFor(1)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, models.SourceCamera, samples[2].Source)
}

func TestAddFaceFromCamera_Errors(t *testing.T) {
	env := setup(t, Options{})

	_, err := env.service.AddFaceFromCamera(context.Background(), "", 0)
	assert.ErrorIs(t, err, ErrInvalidName)

	env.camera.frames = [][]byte{[]byte("blank")}
	_, err = env.service.AddFaceFromCamera(context.Background(), "Ann", 0)
	assert.ErrorIs(t, err, ErrNoFace)
	count, err := models.CountPeople()
	require.NoError(t, err)
	assert.Zero(t, count)

	env.camera.openErr = ErrCameraUnavailable
	_, err = env.service.AddFaceFromCamera(context.Background(), "Ann", 0)
	assert.ErrorIs(t, err, ErrCameraUnavailable)

	env.service.cameraMutex.Lock()
	_, err = env.service.AddFaceFromCamera(context.Background(), "Ann", 0)
	assert.ErrorIs(t, err, ErrCameraBusy)
	_, err = env.service.RecognizeFromCamera(context.Background())
	assert.ErrorIs(t, err, ErrCameraBusy)
	env.service.cameraMutex.Unlock()

	noCamera := NewService(env.engine, nil, env.store, Options{})
	_, err = noCamera.RecognizeFromCamera(context.Background())
	assert.ErrorIs(t, err, ErrCameraUnavailable)
}

func TestAddFaceFromCamera_ReservesLabel(t *testing.T) {
	env := setup(t, Options{CameraSamples: 1})
	env.camera.frames = [][]byte{[]byte("face")}
	env.camera.opened = make(chan struct{})
	env.camera.release = make(chan struct{})

	type enrollment struct {
		result EnrollResult
		err    error
	}
	done := make(chan enrollment)
	go func() {
		result, err := env.service.AddFaceFromCamera(context.Background(), "Alice", 0)
		done <- enrollment{result, err}
	}()
	<-env.camera.opened

	bob, err := env.service.AddFace("Bob", 0, []byte("face"))
	require.NoError(t, err)
	close(env.camera.release)
	alice := <-done
	require.NoError(t, alice.err)

	assert.Equal(t, 1, alice.result.Label)
	assert.Equal(t, 2, bob.Label)
	p, err := models.GetPerson(bob.Label)
	require.NoError(t, err)
	assert.Equal(t, "Bob", p.Name)
	p, err = models.GetPerson(alice.result.Label)
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
}

func TestAddFaceFromCamera_NoFaceKeepsSameNameUpload(t *testing.T) {
	env := setup(t, Options{})
	env.camera.frames = [][]byte{[]byte("blank")}
	env.camera.opened = make(chan struct{})
	env.camera.release = make(chan struct{})

	done := make(chan error)
	go func() {
		_, err := env.service.AddFaceFromCamera(context.Background(), "Alice", 0)
		done <- err
	}()
	<-env.camera.opened

	upload, err := env.service.AddFace("Alice", 0, []byte("face"))
	require.NoError(t, err)
	close(env.camera.release)
	assert.ErrorIs(t, <-done, ErrNoFace)

	assert.Equal(t, 1, upload.Label)
	p, err := models.GetPerson(1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	samples, err := models.SamplesFor(1)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestAddFaceFromCamera_Timeout(t *testing.T) {
	env := setup(t, Options{CameraSamples: 100, CameraFrameDelay: 20 * time.Millisecond, CameraTimeout: 50 * time.Millisecond})
	for i := 0; i < 50; i++ {
		env.camera.frames = append(env.camera.frames, []byte("face"))
	}

	result, err := env.service.AddFaceFromCamera(context.Background(), "Ann", 0)
	require.NoError(t, err)
	assert.Less(t, result.Samples, 50)
	assert.Positive(t, result.Samples)
}

func TestRecognizeFromCamera(t *testing.T) {
	env := setup(t, Options{NameOverrides: map[int]string{1: "Robin"}})

	result, err := env.service.RecognizeFromCamera(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NameUnknown, result.Name, "untrained")

	env.engine.trained = true
	env.engine.predictions["f1"] = []Prediction{{Label: 1, Confidence: 130}}
	env.engine.predictions["f2"] = []Prediction{{Label: 1, Confidence: 30, Matched: true}}
	env.camera.frames = [][]byte{[]byte("empty"), []byte("f1"), []byte("f2"), []byte("f3")}

	result, err = env.service.RecognizeFromCamera(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Robin", result.Name)
	assert.Equal(t, 3, env.camera.read)
}

func TestPeople_RenameAndDelete(t *testing.T) {
	env := setup(t, Options{TrainOnEnroll: true})
	_, err := env.service.AddFace("Ann", 0, []byte("face"))
	require.NoError(t, err)
	_, err = env.service.AddFace("Ann", 0, []byte("face"))
	require.NoError(t, err)
	_, err = env.service.AddFace("Bob", 0, []byte("face"))
	require.NoError(t, err)

	people, err := env.service.People()
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, 2, people[0].Samples)

	require.NoError(t, env.service.Rename(1, "Annie"))
	assert.Equal(t, "Annie", env.service.NameFor(1))
	assert.ErrorIs(t, env.service.Rename(42, "X"), ErrPersonNotFound)
	assert.ErrorIs(t, env.service.Rename(1, " "), ErrInvalidName)

	samples, err := env.service.Samples(1)
	require.NoError(t, err)
	assert.Len(t, samples, 2)
	_, err = env.service.Samples(42)
	assert.ErrorIs(t, err, ErrPersonNotFound)

	deleted, err := env.service.DeletePerson(1)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted.Removed)
	assert.True(t, deleted.Trained)
	assert.Equal(t, []int{2}, env.engine.trainedLabels())

	deleted, err = env.service.DeletePerson(2)
	require.NoError(t, err)
	assert.False(t, deleted.Trained)
	assert.Equal(t, 1, env.engine.resets)
	assert.False(t, env.engine.Trained())

	_, err = env.service.DeletePerson(2)
	assert.ErrorIs(t, err, ErrPersonNotFound)

	files, err := env.store.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestReindex(t *testing.T) {
	env := setup(t, Options{})
	require.NoError(t, (&models.Person{Label: 4, Name: "Zed Display"}).Save())
	env.putFile(t, "Zed.4.1.jpg", "face")
	env.putFile(t, "Zed.4.2.jpg", "face")
	env.putFile(t, "Yan.5.1.jpg", "face")
	env.putFile(t, "junk.txt", "x")

	result, err := env.service.Reindex()
	require.NoError(t, err)
	assert.Equal(t, ReindexResult{People: 2, Samples: 3, Added: 3}, result)

	assert.Equal(t, "Zed Display", env.service.NameFor(4), "display names are kept")
	assert.Equal(t, "Yan", env.service.NameFor(5))

	require.NoError(t, env.store.Delete("user/Zed.4.2.jpg"))
	result, err = env.service.Reindex()
	require.NoError(t, err)
	assert.Equal(t, ReindexResult{People: 2, Samples: 2, Removed: 1}, result)
}

func TestNeedsTraining(t *testing.T) {
	env := setup(t, Options{})

	needed, err := env.service.NeedsTraining()
	require.NoError(t, err)
	assert.False(t, needed, "nothing to train on")

	_, err = env.service.AddFace("Ann", 0, []byte("face"))
	require.NoError(t, err)
	needed, err = env.service.NeedsTraining()
	require.NoError(t, err)
	assert.True(t, needed)

	_, err = env.service.Train()
	require.NoError(t, err)
	needed, err = env.service.NeedsTraining()
	require.NoError(t, err)
	assert.False(t, needed)
}

func TestNeedsTraining_SampleInSameSecond(t *testing.T) {
	env := setup(t, Options{TrainOnEnroll: true})

	_, err := env.service.AddFace("Ann", 0, []byte("face"))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, env.engine.trainedLabels())

	env.service.opts.TrainOnEnroll = false
	bob, err := env.service.AddFace("Bob", 0, []byte("face"))
	require.NoError(t, err)
	assert.False(t, bob.Trained)

	needed, err := env.service.NeedsTraining()
	require.NoError(t, err)
	assert.True(t, needed, "a sample stored right after training is not trained yet")

	_, err = env.service.Train()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, env.engine.trainedLabels())
	needed, err = env.service.NeedsTraining()
	require.NoError(t, err)
	assert.False(t, needed)
}

func TestSampleThumb(t *testing.T) {
	env := setup(t, Options{})
	img := image.NewGray(image.Rect(0, 0, 64, 32))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	img.Set(0, 0, color.Gray{Y: 255})
	buf := bytes.Buffer{}
	require.NoError(t, png.Encode(&buf, img))
	_, err := env.store.Put("Ann", 1, buf.Bytes())
	require.NoError(t, err)
	_, err = env.service.Reindex()
	require.NoError(t, err)

	samples, err := env.service.Samples(1)
	require.NoError(t, err)
	require.Len(t, samples, 1)

	thumb, err := env.service.SampleThumb(samples[0].ID, 16)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)

	_, err = env.service.SampleThumb(999, 16)
	assert.ErrorIs(t, err, ErrSampleNotFound)
}

func TestHealth(t *testing.T) {
	env := setup(t, Options{})
	_, err := env.service.AddFace("Ann", 0, []byte("face"))
	require.NoError(t, err)

	health, err := env.service.Health()
	require.NoError(t, err)
	assert.Equal(t, "fake", health.Recognizer)
	assert.False(t, health.Trained)
	assert.Equal(t, int64(1), health.People)
	assert.Equal(t, int64(1), health.Samples)
}
