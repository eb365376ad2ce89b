package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"facerec/auth"
	"facerec/config"
	"facerec/db"
	"facerec/handlers"
	"facerec/processing"
	"facerec/utils"
	"facerec/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	sessionCookieName     = "token"
	sessionExpirationTime = 30 * 86400 // 30 days
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("bind", "", "Address to listen on, overrides BIND_ADDRESS")
}

func runServe(cmd *cobra.Command, args []string) error {
	if bind := mustGetString(cmd, "bind"); bind != "" {
		config.BIND_ADDRESS = bind
	}
	service, err := bootstrap()
	if err != nil {
		return err
	}
	defer service.Close()
	handlers.Init(service)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if config.AUTO_TRAIN_INTERVAL > 0 {
		processing.Init()
		go processing.StartProcessing(ctx, service, config.AutoTrainInterval())
	}

	router := setupRouter()
	errs := make(chan error, 1)
	go func() {
		if config.TLS_DOMAINS != "" {
			errs <- autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
		} else {
			errs <- router.Run(config.BIND_ADDRESS)
		}
	}()
	select {
	case err = <-errs:
		log.Printf("Server stopped: %v", err)
		return err
	case <-ctx.Done():
		log.Printf("Shutting down")
		return nil
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	router.Use(utils.RequestID)
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length", utils.RequestIDHeader},
		MaxAge:          24 * time.Hour,
	}))

	sessionStore := gormsessions.NewStore(db.Instance, true, []byte(config.SESSION_KEY))
	sessionStore.Options(sessions.Options{MaxAge: sessionExpirationTime, HttpOnly: true, Path: "/"})
	router.Use(sessions.Sessions(sessionCookieName, sessionStore))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/recognize/stream", "/sample/fetch"})))
	}
	router.Use((&utils.CachePolicy{
		Default: utils.CacheNoCache,
		Paths:   map[string]int{"/sample/fetch": utils.CacheWeek}, // Thumbnails of a sample id never change
	}).Handler())
	web.Init(router)

	// Enrollment and recognition
	router.POST("/add-face", handlers.AddFace)
	router.POST("/api/add-face", handlers.AddFace)
	router.POST("/recognize", handlers.Recognize)
	router.POST("/api/recognize", handlers.Recognize)
	router.POST("/add-face-camera", handlers.AddFaceCamera)
	router.GET("/recognize-camera", handlers.RecognizeCamera)
	router.GET("/recognize/stream", handlers.RecognizeStream)
	router.GET("/health", handlers.Health)
	// Admin session
	router.POST("/admin/login", handlers.AdminLogin)
	router.POST("/admin/logout", handlers.AdminLogout)

	// Admin handlers
	authRouter := &auth.Router{Base: router}
	authRouter.POST("/train", handlers.Train)
	authRouter.GET("/train/history", handlers.TrainHistory)
	authRouter.GET("/people/list", handlers.PeopleList)
	authRouter.POST("/people/rename", handlers.PeopleRename)
	authRouter.POST("/people/delete", handlers.PeopleDelete)
	authRouter.GET("/people/samples", handlers.PeopleSamples)
	authRouter.GET("/sample/fetch", handlers.SampleFetch)
	authRouter.POST("/dataset/reindex", handlers.DatasetReindex)
	authRouter.GET("/bucket/list", handlers.BucketList)
	authRouter.POST("/bucket/save", handlers.BucketSave)

	// Web interface
	router.GET("/", web.IndexView)
	router.GET("/robots.txt", web.DisallowRobots)
	return router
}
