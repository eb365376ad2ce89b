package auth

import (
	"crypto/subtle"
	"strings"

	"facerec/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const adminKey = "admin"

type Session struct {
	sessions.Session
}

func LoadSession(c *gin.Context) *Session {
	return &Session{
		Session: sessions.Default(c),
	}
}

func (s *Session) LoginAdmin() error {
	s.Set(adminKey, true)
	return s.Save()
}

func (s *Session) Logout() {
	s.Delete(adminKey)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	s.Save()
}

func (s *Session) IsAdmin() bool {
	admin, ok := s.Get(adminKey).(bool)
	return ok && admin
}

// ValidToken compares token with ADMIN_TOKEN in constant time
func ValidToken(token string) bool {
	if config.ADMIN_TOKEN == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(config.ADMIN_TOKEN)) == 1
}

// IsAdmin accepts a bearer token or an admin session. Everyone is admin when no token is configured
func IsAdmin(c *gin.Context) bool {
	if config.ADMIN_TOKEN == "" {
		return true
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return ValidToken(strings.TrimSpace(token))
	}
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return false
	}
	return LoadSession(c).IsAdmin()
}
