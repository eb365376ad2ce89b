package handlers

import (
	"net/http"

	"facerec/recognition"
	"facerec/utils"

	"github.com/gin-gonic/gin"
)

type AddFaceRequest struct {
	Image string `json:"image"`
	Name  string `json:"name"`
	ID    *int   `json:"id"`
}

type AddFaceCameraRequest struct {
	Name string `json:"name"`
	ID   *int   `json:"id"`
}

type RecognizeRequest struct {
	Image string `json:"image"`
}

func enrollError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
}

func requestedLabel(id *int) (int, error) {
	if id == nil {
		return 0, nil
	}
	if *id <= 0 {
		return 0, recognition.ErrInvalidLabel
	}
	return *id, nil
}

func AddFace(c *gin.Context) {
	r := AddFaceRequest{}
	if err := bindJSON(c, &r); err != nil {
		enrollError(c, err)
		return
	}
	data, err := utils.DecodeImagePayload(r.Image)
	if err != nil {
		enrollError(c, err)
		return
	}
	label, err := requestedLabel(r.ID)
	if err != nil {
		enrollError(c, err)
		return
	}
	result, err := service.AddFace(r.Name, label, data)
	if err != nil {
		enrollError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// recognizePayload is shared by the HTTP and websocket recognition
func recognizePayload(payload string) (int, recognition.Result) {
	data, err := utils.DecodeImagePayload(payload)
	if err != nil {
		return statusFor(err), recognition.Result{Name: recognition.NameError, Faces: []recognition.FaceResult{}, Error: err.Error()}
	}
	result, err := service.Recognize(data)
	if err != nil {
		result.Error = err.Error()
		return statusFor(err), result
	}
	return http.StatusOK, result
}

func Recognize(c *gin.Context) {
	r := RecognizeRequest{}
	if err := bindJSON(c, &r); err != nil {
		c.JSON(statusFor(err), recognition.Result{Name: recognition.NameError, Faces: []recognition.FaceResult{}, Error: err.Error()})
		return
	}
	c.JSON(recognizePayload(r.Image))
}

func AddFaceCamera(c *gin.Context) {
	r := AddFaceCameraRequest{}
	if err := bindJSON(c, &r); err != nil {
		enrollError(c, err)
		return
	}
	label, err := requestedLabel(r.ID)
	if err != nil {
		enrollError(c, err)
		return
	}
	result, err := service.AddFaceFromCamera(c.Request.Context(), r.Name, label)
	if err != nil {
		enrollError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func RecognizeCamera(c *gin.Context) {
	result, err := service.RecognizeFromCamera(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"name": recognition.NameError, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
