package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheWeek    = 7 * 86400
)

// CachePolicy sets cache-control on every response. Routes listed in Paths
// get their own max-age in seconds, everything else gets Default
type CachePolicy struct {
	Default int
	Paths   map[string]int
}

func cacheControl(maxAge int) string {
	if maxAge <= CacheNoCache {
		return "no-cache"
	}
	return fmt.Sprintf("private, max-age=%d", maxAge)
}

func (cp *CachePolicy) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		maxAge, ok := cp.Paths[c.FullPath()]
		if !ok {
			maxAge = cp.Default
		}
		c.Header("cache-control", cacheControl(maxAge))
		c.Next()
	}
}
