package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"facerec/db"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type StorageType uint8

const (
	StorageTypeFile StorageType = 0
	StorageTypeS3   StorageType = 1
)

const (
	// StorageLocationUser holds the enrolled face samples
	StorageLocationUser = "user"
	MaskedSecret        = "********"
)

type Bucket struct {
	ID            uint64      `gorm:"primaryKey" json:"id"`
	CreatedAt     int         `json:"created"`
	UpdatedAt     int         `json:"updated"`
	Name          string      `gorm:"type:varchar(200)" json:"name"`
	StorageType   StorageType `json:"type"`
	Path          string      `json:"path"` // Path on a drive or a prefix in a S3 bucket
	Endpoint      string      `gorm:"type:varchar(300)" json:"endpoint"`
	Region        string      `gorm:"type:varchar(100)" json:"region"`
	S3Key         string      `gorm:"type:varchar(300)" json:"s3key"`
	S3Secret      string      `gorm:"type:varchar(300)" json:"s3secret"`
	SSEEncryption string      `gorm:"type:varchar(50)" json:"sse_encryption"`
}

func (t StorageType) String() string {
	switch t {
	case StorageTypeFile:
		return "file"
	case StorageTypeS3:
		return "s3"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

func (t StorageType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *StorageType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "file", "disk", "":
		*t = StorageTypeFile
	case "s3":
		*t = StorageTypeS3
	default:
		return fmt.Errorf("'type' must be one of 'file' or 's3', got %q", string(text))
	}
	return nil
}

func (b *Bucket) String() string {
	return fmt.Sprintf("#%d %s (%s) %s", b.ID, b.Name, b.StorageType, b.Path)
}

// GetRemotePath prefixes the object key with the bucket path
func (b *Bucket) GetRemotePath(p string) string {
	prefix := strings.Trim(b.Path, "/")
	if prefix == "" {
		return strings.TrimLeft(p, "/")
	}
	return path.Join(prefix, p)
}

// Masked returns a copy safe to return to clients
func (b Bucket) Masked() Bucket {
	if b.S3Secret != "" {
		b.S3Secret = MaskedSecret
	}
	return b
}

func (b *Bucket) CreateSVC() *s3.S3 {
	cfg := &aws.Config{
		Region:      aws.String(b.Region),
		Credentials: credentials.NewStaticCredentials(b.S3Key, b.S3Secret, ""),
	}
	if b.Endpoint != "" {
		cfg.Endpoint = aws.String(b.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	return s3.New(session.Must(session.NewSession(cfg)))
}

var ErrInvalidBucket = errors.New("invalid bucket")

// Validate cleans up the path and checks the settings the storage type needs
func (b *Bucket) Validate() error {
	for strings.Contains(b.Path, "..") {
		b.Path = strings.ReplaceAll(b.Path, "..", "")
	}
	for strings.Contains(b.Path, "//") {
		b.Path = strings.ReplaceAll(b.Path, "//", "/")
	}
	if b.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidBucket)
	}
	switch b.StorageType {
	case StorageTypeFile:
		if !filepath.IsAbs(b.Path) {
			return fmt.Errorf("%w: path must be absolute", ErrInvalidBucket)
		}
	case StorageTypeS3:
		if b.S3Key == "" || b.S3Secret == "" {
			return fmt.Errorf("%w: s3key and s3secret are required", ErrInvalidBucket)
		}
		if b.Region == "" {
			b.Region = "us-east-1"
		}
	default:
		return fmt.Errorf("%w: unknown storage type", ErrInvalidBucket)
	}
	return nil
}

// TryInit makes sure the bucket is usable before it is saved
func (b *Bucket) TryInit() error {
	switch b.StorageType {
	case StorageTypeFile:
		return os.MkdirAll(path.Join(b.Path, StorageLocationUser), 0777)
	case StorageTypeS3:
		_, err := b.CreateSVC().HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(b.Name)})
		return err
	}
	return errors.New("unknown storage type")
}

func (b *Bucket) Create() error {
	if err := b.TryInit(); err != nil {
		return err
	}
	return db.Instance.Create(b).Error
}
