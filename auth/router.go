package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router is a wrapper class that adds the admin check to routes
type Router struct {
	Base *gin.Engine
}

func (cr *Router) baseExec(c *gin.Context, handler gin.HandlerFunc) {
	if !IsAdmin(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}
	handler(c)
}

func (cr *Router) POST(path string, handler gin.HandlerFunc) {
	cr.Base.POST(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}

func (cr *Router) GET(path string, handler gin.HandlerFunc) {
	cr.Base.GET(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}
