// Package dataset keeps enrolled face images as <name>.<label>.<num>.jpg files
// inside the user directory of a storage bucket. The file name is the source
// of truth for the label, so a directory copied between machines trains the same model.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"facerec/storage"

	cmap "github.com/orcaman/concurrent-map/v2"
)

var ErrInvalidFileName = errors.New("invalid sample file name")

type SampleFile struct {
	Path  string // relative to the bucket, e.g. user/Robin.1.3.jpg
	Name  string
	Label int
	Num   int
}

// FileName formats the stored name of a sample
func FileName(name string, label, num int) string {
	return fmt.Sprintf("%s.%d.%d.jpg", name, label, num)
}

// Parse reads name and label out of a file name. The sample number is optional
func Parse(fileName string) (SampleFile, error) {
	parts := strings.Split(fileName, ".")
	if len(parts) < 3 {
		return SampleFile{}, ErrInvalidFileName
	}
	label, err := strconv.Atoi(parts[1])
	if err != nil {
		return SampleFile{}, ErrInvalidFileName
	}
	num, _ := strconv.Atoi(parts[2])
	return SampleFile{
		Name:  parts[0],
		Label: label,
		Num:   num,
	}, nil
}

func IsImage(fileName string) bool {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// SanitizeName makes a display name usable as the first part of a file name
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '.' || r == '/' || r == '\\' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "_"
	}
	return name
}

type Store struct {
	storage storage.StorageAPI
	dir     string
	locks   cmap.ConcurrentMap[string, *sync.Mutex]
}

func NewStore(s storage.StorageAPI, dir string) *Store {
	return &Store{
		storage: s,
		dir:     dir,
		locks:   cmap.New[*sync.Mutex](),
	}
}

func (s *Store) Storage() storage.StorageAPI {
	return s.storage
}

func (s *Store) BucketID() uint64 {
	return s.storage.GetBucket().ID
}

// Files returns every file name in the dataset directory, parseable or not
func (s *Store) Files() ([]string, error) {
	return s.storage.List(s.dir)
}

// List returns all image samples with a valid name
func (s *Store) List() ([]SampleFile, error) {
	names, err := s.Files()
	if err != nil {
		return nil, err
	}
	result := []SampleFile{}
	for _, name := range names {
		if !IsImage(name) {
			continue
		}
		sample, err := Parse(name)
		if err != nil {
			continue
		}
		sample.Path = path.Join(s.dir, name)
		result = append(result, sample)
	}
	return result, nil
}

// LabelMap maps each label found in file names to its name
func (s *Store) LabelMap() (map[int]string, error) {
	samples, err := s.List()
	if err != nil {
		return nil, err
	}
	result := map[int]string{}
	for _, sample := range samples {
		result[sample.Label] = sample.Name
	}
	return result, nil
}

func (s *Store) MaxLabel() (int, error) {
	samples, err := s.List()
	if err != nil {
		return 0, err
	}
	max := 0
	for _, sample := range samples {
		if sample.Label > max {
			max = sample.Label
		}
	}
	return max, nil
}

func (s *Store) lock(key string) func() {
	s.locks.SetIfAbsent(key, &sync.Mutex{})
	mutex, _ := s.locks.Get(key)
	mutex.Lock()
	return mutex.Unlock
}

// Put stores a JPEG sample under the next free number for name and label
func (s *Store) Put(name string, label int, jpeg []byte) (SampleFile, error) {
	name = SanitizeName(name)
	defer s.lock(fmt.Sprintf("%s.%d", name, label))()

	samples, err := s.List()
	if err != nil {
		return SampleFile{}, err
	}
	num := 0
	for _, sample := range samples {
		if sample.Name == name && sample.Label == label && sample.Num > num {
			num = sample.Num
		}
	}
	result := SampleFile{
		Name:  name,
		Label: label,
		Num:   num + 1,
	}
	result.Path = path.Join(s.dir, FileName(name, label, result.Num))

	if _, err = s.storage.Save(result.Path, bytes.NewReader(jpeg)); err != nil {
		return SampleFile{}, err
	}
	defer s.storage.ReleaseLocalFile(result.Path)
	if err = s.storage.UpdateRemoteFile(result.Path, "image/jpeg"); err != nil {
		return SampleFile{}, err
	}
	return result, nil
}

func (s *Store) Read(p string) ([]byte, error) {
	buf := bytes.Buffer{}
	if _, err := s.storage.Fetch(p, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Store) Delete(p string) error {
	if err := s.storage.DeleteRemoteFile(p); err != nil {
		return err
	}
	if s.storage.GetSize(p) < 0 {
		return nil
	}
	return s.storage.Delete(p)
}

// Path returns the bucket path of a file name in the dataset directory
func (s *Store) Path(fileName string) string {
	return path.Join(s.dir, fileName)
}
