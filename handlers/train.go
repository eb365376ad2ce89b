package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func Train(c *gin.Context) {
	result, err := service.Train()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"id":          result.ID,
		"faces":       result.Faces,
		"labels":      result.Labels,
		"skipped":     result.Skipped,
		"duration_ms": result.DurationMs,
	})
}

func TrainHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	runs, err := service.TrainingHistory(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	c.JSON(http.StatusOK, runs)
}
