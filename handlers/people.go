package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PersonRequest struct {
	Label int    `json:"label" form:"label" binding:"required"`
	Name  string `json:"name"`
}

type SampleFetchRequest struct {
	ID   uint64 `form:"id" binding:"required"`
	Size uint   `form:"size"`
}

const defaultThumbSize = 160

func PeopleList(c *gin.Context) {
	people, err := service.People()
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, people)
}

func PeopleRename(c *gin.Context) {
	r := PersonRequest{}
	if err := bindJSON(c, &r); err != nil {
		errorResponse(c, err)
		return
	}
	if err := service.Rename(r.Label, r.Name); err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func PeopleDelete(c *gin.Context) {
	r := PersonRequest{}
	if err := bindJSON(c, &r); err != nil {
		errorResponse(c, err)
		return
	}
	result, err := service.DeletePerson(r.Label)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func PeopleSamples(c *gin.Context) {
	r := PersonRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	samples, err := service.Samples(r.Label)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, samples)
}

func SampleFetch(c *gin.Context) {
	r := SampleFetchRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if r.Size == 0 || r.Size > 1024 {
		r.Size = defaultThumbSize
	}
	data, err := service.SampleThumb(r.ID, r.Size)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

func DatasetReindex(c *gin.Context) {
	result, err := service.Reindex()
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
