package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"facerec/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setToken(t *testing.T, token string) {
	t.Helper()
	old := config.ADMIN_TOKEN
	config.ADMIN_TOKEN = token
	t.Cleanup(func() { config.ADMIN_TOKEN = old })
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(sessions.Sessions("token", cookie.NewStore([]byte("test key"))))
	router.POST("/login", func(c *gin.Context) {
		if !ValidToken(c.Query("token")) {
			c.Status(http.StatusUnauthorized)
			return
		}
		if err := LoadSession(c).LoginAdmin(); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	router.POST("/logout", func(c *gin.Context) {
		LoadSession(c).Logout()
		c.Status(http.StatusOK)
	})
	authRouter := &Router{Base: router}
	authRouter.GET("/secret", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func do(router *gin.Engine, method, path string, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestValidToken(t *testing.T) {
	setToken(t, "s3cret")
	assert.True(t, ValidToken("s3cret"))
	assert.False(t, ValidToken("s3cre"))
	assert.False(t, ValidToken(""))

	setToken(t, "")
	assert.False(t, ValidToken(""), "no token configured means nothing validates")
}

func TestRouter_OpenWithoutToken(t *testing.T) {
	setToken(t, "")
	w := do(newRouter(), http.MethodGet, "/secret", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Bearer(t *testing.T) {
	setToken(t, "s3cret")
	router := newRouter()

	w := do(router, http.MethodGet, "/secret", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/secret", http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/secret", http.Header{"Authorization": {"Bearer s3cret"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestRouter_Session(t *testing.T) {
	setToken(t, "s3cret")
	router := newRouter()

	w := do(router, http.MethodPost, "/login?token=nope", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/login?token=s3cret", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = do(router, http.MethodGet, "/secret", nil, cookies...)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/logout", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := w.Result().Cookies()

	w = do(router, http.MethodGet, "/secret", nil, cleared...)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
