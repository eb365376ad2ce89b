package handlers

import (
	"net/http"

	"facerec/auth"
	"facerec/config"

	"github.com/gin-gonic/gin"
)

type AdminLoginRequest struct {
	Token string `json:"token"`
}

func AdminLogin(c *gin.Context) {
	r := AdminLoginRequest{}
	if err := bindJSON(c, &r); err != nil {
		errorResponse(c, err)
		return
	}
	if config.ADMIN_TOKEN != "" && !auth.ValidToken(r.Token) {
		c.JSON(http.StatusUnauthorized, Response{"access denied"})
		return
	}
	if err := auth.LoadSession(c).LoginAdmin(); err != nil {
		c.JSON(http.StatusInternalServerError, Response{err.Error()})
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func AdminLogout(c *gin.Context) {
	auth.LoadSession(c).Logout()
	c.JSON(http.StatusOK, OKResponse)
}
