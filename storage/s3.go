package storage

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"facerec/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

type S3Storage struct {
	Storage
	s3Client *s3.S3
	tmpDir   string
}

func NewS3Storage(bucket *Bucket) StorageAPI {
	result := &S3Storage{
		Storage: Storage{
			Bucket: *bucket,
		},
		s3Client: bucket.CreateSVC(),
		// Separate dir per instance, the CLI and the server may share TMP_DIR
		tmpDir: filepath.Join(config.TMP_DIR, "facerec-"+uuid.NewString()),
	}
	result.specifics = result
	return result
}

// GetFullPath returns local temp path in case of S3
func (s *S3Storage) GetFullPath(path string) string {
	return filepath.Join(s.tmpDir, strings.ReplaceAll(path, "/", "_"))
}

func (s *S3Storage) EnsureDirExists(dir string) error {
	return os.MkdirAll(s.tmpDir, 0777)
}

// Fetch streams the object to writer. The local temp path is only used for uploads,
// so concurrent reads of one key never share a file
func (s *S3Storage) Fetch(path string, writer io.Writer) (int64, error) {
	resp, err := s.s3Client.GetObject(&s3.GetObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    aws.String(s.Bucket.GetRemotePath(path)),
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(writer, resp.Body)
}

func (s *S3Storage) ReleaseLocalFile(path string) {
	_ = s.Delete(path)
}

// UpdateRemoteFile uploads the local copy
func (s *S3Storage) UpdateRemoteFile(path, mimeType string) error {
	data, err := os.Open(s.GetFullPath(path))
	if err != nil {
		return err
	}
	defer data.Close()

	uploader := s3manager.NewUploaderWithClient(s.s3Client)
	input := s3manager.UploadInput{
		Bucket:      &s.Bucket.Name,
		Key:         aws.String(s.Bucket.GetRemotePath(path)),
		ContentType: &mimeType,
		Body:        data,
	}
	if s.Bucket.SSEEncryption != "" {
		input.ServerSideEncryption = &s.Bucket.SSEEncryption
	}
	_, err = uploader.Upload(&input)
	return err
}

func (s *S3Storage) DeleteRemoteFile(path string) error {
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    aws.String(s.Bucket.GetRemotePath(path)),
	})
	return err
}

// List returns the object names directly under dir
func (s *S3Storage) List(dir string) ([]string, error) {
	prefix := s.Bucket.GetRemotePath(dir) + "/"
	result := []string{}
	err := s.s3Client.ListObjectsV2Pages(&s3.ListObjectsV2Input{
		Bucket:    &s.Bucket.Name,
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.StringValue(obj.Key), prefix)
			if name != "" {
				result = append(result, name)
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(result)
	return result, nil
}

// GetFreeSpace is unknown for S3
func (s *S3Storage) GetFreeSpace() uint64 {
	return 0
}
