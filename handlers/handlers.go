package handlers

import (
	"errors"
	"net/http"

	"facerec/config"
	"facerec/recognition"
	"facerec/storage"
	"facerec/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type Response struct {
	Error string `json:"error"`
}

var (
	OKResponse       = Response{}
	DBError1Response = Response{"DB Error 1"}

	service *recognition.Service
)

// Init sets the service all handlers work with
func Init(s *recognition.Service) {
	service = s
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, utils.ErrInvalidPayload),
		errors.Is(err, recognition.ErrInvalidImage),
		errors.Is(err, recognition.ErrInvalidName),
		errors.Is(err, recognition.ErrInvalidLabel),
		errors.Is(err, storage.ErrInvalidBucket):
		return http.StatusBadRequest
	case errors.Is(err, recognition.ErrNoFace),
		errors.Is(err, recognition.ErrNoTrainingData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, recognition.ErrPersonNotFound),
		errors.Is(err, recognition.ErrSampleNotFound):
		return http.StatusNotFound
	case errors.Is(err, recognition.ErrCameraBusy):
		return http.StatusConflict
	case errors.Is(err, recognition.ErrCameraUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorResponse(c *gin.Context, err error) {
	c.JSON(statusFor(err), Response{err.Error()})
}

// bindJSON parses the request body, refusing bodies over MAX_PAYLOAD_BYTES
func bindJSON(c *gin.Context, obj any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(config.MAX_PAYLOAD_BYTES))
	err := c.ShouldBindWith(obj, binding.JSON)
	var tooLarge *http.MaxBytesError
	if err != nil && !errors.As(err, &tooLarge) {
		err = errors.Join(utils.ErrInvalidPayload, err)
	}
	return err
}
