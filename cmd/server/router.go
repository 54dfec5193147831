package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hepatosense/hepatosense/internal/fibrosis"
	"github.com/hepatosense/hepatosense/internal/middleware"
)

func setupRouter(db HealthChecker, engine *fibrosis.Engine, logger logrus.FieldLogger, staticRoot string) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.CorrelationID(),
		middleware.RequestLogger(logger),
		gin.Recovery(),
		middleware.SecurityHeaders(),
		middleware.LimitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", middleware.CorrelationHeader},
			ExposeHeaders: []string{middleware.CorrelationHeader},
			MaxAge:        12 * time.Hour,
		}),
	)

	// Screening form.
	router.StaticFile("/", filepath.Join(staticRoot, "index.html"))
	router.StaticFile("/styles.css", filepath.Join(staticRoot, "styles.css"))
	router.StaticFile("/app.js", filepath.Join(staticRoot, "app.js"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if err := db.Ping(ctx); err != nil {
			dbStatus = fmt.Sprintf("unhealthy: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     dbStatus,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"db":     dbStatus,
		})
	})

	router.POST("/api/fibrosis/score", scoreHandler(engine, logger))

	return router
}

func scoreHandler(engine *fibrosis.Engine, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload scoreRequest
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		in, err := fibrosis.ParseInput(payload.form())
		if err != nil {
			respondScoreError(c, logger, err)
			return
		}

		result, err := engine.Compute(in)
		if err != nil {
			respondScoreError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, newScoreResponse(result))
	}
}

func respondScoreError(c *gin.Context, logger logrus.FieldLogger, err error) {
	correlationID := c.GetString(middleware.CorrelationKey)

	var verr *fibrosis.ValidationError
	if !errors.As(err, &verr) {
		logger.WithField(middleware.CorrelationKey, correlationID).Errorf("score request: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	logger.WithFields(logrus.Fields{
		middleware.CorrelationKey: correlationID,
		"fields":                  len(verr.Fields),
	}).Debug("score request failed validation")

	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":                   "validation_failed",
		"message":                 "Please fill all required fields correctly.",
		"fields":                  verr.Fields,
		middleware.CorrelationKey: correlationID,
	})
}

func detectStaticRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return "web"
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		web := filepath.Join(dir, "web")
		if fileExists(filepath.Join(web, "index.html")) {
			return web
		}
	}

	return filepath.Join(startDir, "web")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
