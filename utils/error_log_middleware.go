package utils

import (
	"bytes"
	"log"

	"github.com/gin-gonic/gin"
)

const maxLoggedBody = 512

type errorLogWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *errorLogWriter) Write(b []byte) (int, error) {
	if w.Status() >= 400 && w.body.Len() < maxLoggedBody {
		w.body.Write(b[:min(len(b), maxLoggedBody-w.body.Len())])
	}
	return w.ResponseWriter.Write(b)
}

// ErrorLogMiddleware logs the start of every error response. It doesn't work with GZIP
func ErrorLogMiddleware(c *gin.Context) {
	w := &errorLogWriter{ResponseWriter: c.Writer}
	c.Writer = w
	c.Next()
	if status := w.Status(); status >= 400 {
		log.Printf("[DEBUG ERROR] %s %s [%s]: Status %d, Body: %s", c.Request.Method, c.Request.URL.Path, GetRequestID(c), status, w.body.String())
	}
}
