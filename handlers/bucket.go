package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"facerec/config"
	"facerec/db"
	"facerec/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BucketInfo is a bucket as listed to admins. Dataset marks the bucket samples are stored in
type BucketInfo struct {
	storage.Bucket
	Dataset bool `json:"dataset"`
}

// probeBucket stores and removes a file in the sample directory of the bucket
func probeBucket(bucket *storage.Bucket) error {
	s := storage.NewStorage(bucket)
	probe := path.Join(storage.StorageLocationUser, ".probe-"+uuid.NewString())
	if _, err := s.Save(probe, strings.NewReader("probe")); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := s.UpdateRemoteFile(probe, "text/plain"); err != nil {
		_ = s.Delete(probe)
		return fmt.Errorf("upload: %w", err)
	}
	if err := s.Delete(probe); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := s.DeleteRemoteFile(probe); err != nil {
		return fmt.Errorf("delete remote: %w", err)
	}
	return nil
}

func BucketSave(c *gin.Context) {
	bucket := storage.Bucket{}
	if err := bindJSON(c, &bucket); err != nil {
		errorResponse(c, err)
		return
	}
	if bucket.ID != 0 && bucket.S3Secret == storage.MaskedSecret {
		existing := storage.Bucket{}
		err := db.Instance.First(&existing, bucket.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, Response{"Unknown bucket"})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, DBError1Response)
			return
		}
		bucket.S3Secret = existing.S3Secret
	}
	if err := bucket.Validate(); err != nil {
		errorResponse(c, err)
		return
	}
	if err := bucket.TryInit(); err != nil {
		c.JSON(http.StatusForbidden, Response{err.Error()})
		return
	}
	if err := probeBucket(&bucket); err != nil {
		c.JSON(http.StatusForbidden, Response{"No write access to bucket: " + err.Error()})
		return
	}
	if err := db.Instance.Save(&bucket).Error; err != nil {
		c.JSON(http.StatusInternalServerError, Response{err.Error()})
		return
	}
	// The running dataset keeps its bucket until restart
	storage.Init(config.DEFAULT_BUCKET_DIR)
	c.JSON(http.StatusOK, BucketInfo{Bucket: bucket.Masked(), Dataset: bucket.ID == service.Store().BucketID()})
}

func BucketList(c *gin.Context) {
	buckets := []storage.Bucket{}
	if err := db.Instance.Order("id").Find(&buckets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	result := make([]BucketInfo, 0, len(buckets))
	datasetBucket := service.Store().BucketID()
	for i := range buckets {
		result = append(result, BucketInfo{
			Bucket:  buckets[i].Masked(),
			Dataset: buckets[i].ID == datasetBucket,
		})
	}
	c.JSON(http.StatusOK, result)
}
