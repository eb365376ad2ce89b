package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Health(c *gin.Context) {
	health, err := service.Health()
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	health.Streams = streams.Count()
	c.JSON(http.StatusOK, health)
}
