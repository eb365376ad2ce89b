// Package web serves the browser capture page
package web

import (
	"embed"
	"html/template"
	"net/http"

	"facerec/config"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Init loads the embedded templates into the router
func Init(router *gin.Engine) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.tmpl")))
}

func IndexView(c *gin.Context) {
	c.HTML(http.StatusOK, "index.tmpl", gin.H{
		"recognizer": config.RECOGNIZER,
		"maxBytes":   config.MAX_PAYLOAD_BYTES,
	})
}

func DisallowRobots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
}
