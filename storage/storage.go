package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"facerec/db"
)

type StorageSpecificAPI interface {
	GetFullPath(path string) string
	EnsureDirExists(dir string) error
	Fetch(path string, writer io.Writer) (int64, error) // Copies the stored file, wherever it lives, into writer
	ReleaseLocalFile(path string)
	UpdateRemoteFile(path, mimeType string) error
	DeleteRemoteFile(path string) error
	List(dir string) ([]string, error)
	GetFreeSpace() uint64
}

type StorageAPI interface {
	StorageSpecificAPI

	GetSize(path string) int64
	Save(path string, reader io.Reader) (int64, error)
	Load(path string, writer io.Writer) (int64, error)
	Delete(path string) error
	GetBucket() *Bucket
}

type Storage struct {
	specifics StorageSpecificAPI
	Bucket    Bucket
}

var (
	cachedStorage []StorageAPI
)

// Init loads all buckets, creating the default disk bucket on first start
func Init(defaultBucketDir string) {
	if err := db.Instance.AutoMigrate(&Bucket{}); err != nil {
		panic(err)
	}
	var buckets []Bucket
	err := db.Instance.Find(&buckets).Error
	if err != nil {
		panic(err)
	}
	if len(buckets) == 0 && defaultBucketDir != "" {
		path, err := filepath.Abs(defaultBucketDir)
		if err != nil {
			panic(err)
		}
		bucket := Bucket{
			Name:        "default",
			StorageType: StorageTypeFile,
			Path:        path,
		}
		if err = bucket.Create(); err != nil {
			panic(err)
		}
		log.Printf("Created default bucket at %s", path)
		buckets = append(buckets, bucket)
	}
	log.Printf("Storage Buckets found: %d\n", len(buckets))
	result := []StorageAPI{}
	for i := range buckets {
		log.Printf("Bucket: %s\n", buckets[i].String())
		result = append(result, NewStorage(&buckets[i]))
	}
	cachedStorage = result
}

func NewStorage(bucket *Bucket) StorageAPI {
	switch bucket.StorageType {
	case StorageTypeFile:
		return NewDiskStorage(bucket)
	case StorageTypeS3:
		return NewS3Storage(bucket)
	}
	panic(fmt.Sprintf("Storage type unavailable for Bucket %d", bucket.ID))
}

func (s *Storage) GetBucket() *Bucket {
	return &s.Bucket
}

func StorageFrom(bucket *Bucket) StorageAPI {
	for _, s := range cachedStorage {
		if s.GetBucket().ID == bucket.ID {
			return s
		}
	}
	return nil
}

func StorageByID(id uint64) StorageAPI {
	return StorageFrom(&Bucket{ID: id})
}

// GetDefaultStorage prefers the first disk bucket
func GetDefaultStorage() StorageAPI {
	if len(cachedStorage) == 0 {
		panic("no storage available")
	}
	for _, s := range cachedStorage {
		if s.GetBucket().StorageType == StorageTypeFile {
			return s
		}
	}
	return cachedStorage[0]
}

//
// NOTE: All the functions below work on a local file
//

func (s *Storage) GetSize(path string) int64 {
	fi, err := os.Stat(s.GetFullPath(path))
	if err != nil {
		return -1
	}
	return fi.Size()
}

func (s *Storage) Save(path string, reader io.Reader) (int64, error) {
	fileName := s.GetFullPath(path)
	if err := s.EnsureDirExists(filepath.Dir(fileName)); err != nil {
		return 0, err
	}
	// Training lists the directory concurrently, so a sample only appears once it is complete
	file, err := os.CreateTemp(filepath.Dir(fileName), ".saving-*")
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(file.Name(), fileName)
	}
	if err != nil {
		os.Remove(file.Name())
		return 0, err
	}
	return result, nil
}

func (s *Storage) Load(path string, writer io.Writer) (int64, error) {
	fileName := s.GetFullPath(path)
	file, err := os.Open(fileName)
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(writer, file)
	file.Close()
	return result, err
}

func (s *Storage) Delete(path string) error {
	return os.Remove(s.GetFullPath(path))
}

//
// Proxy methods
//

func (s *Storage) GetFullPath(path string) string {
	return s.specifics.GetFullPath(path)
}
func (s *Storage) EnsureDirExists(dir string) error {
	return s.specifics.EnsureDirExists(dir)
}
func (s *Storage) Fetch(path string, writer io.Writer) (int64, error) {
	return s.specifics.Fetch(path, writer)
}
func (s *Storage) ReleaseLocalFile(path string) {
	s.specifics.ReleaseLocalFile(path)
}
func (s *Storage) UpdateRemoteFile(path, mimeType string) error {
	return s.specifics.UpdateRemoteFile(path, mimeType)
}
func (s *Storage) DeleteRemoteFile(path string) error {
	return s.specifics.DeleteRemoteFile(path)
}
func (s *Storage) List(dir string) ([]string, error) {
	return s.specifics.List(dir)
}
func (s *Storage) GetFreeSpace() uint64 {
	return s.specifics.GetFreeSpace()
}
