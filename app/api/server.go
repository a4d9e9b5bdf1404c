package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(accessLogMiddleware())
	r.Use(gin.Recovery())

	// CORS for the frontend
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	api := r.Group("/api")
	{
		api.GET("/tracks", handler.ListTracks)
		api.GET("/tracks/:id", handler.GetTrack)
		api.POST("/tracks/:id/rate", handler.RateTrack)
		api.GET("/stats", handler.GetStats)
		api.GET("/health", handler.GetHealth)

		api.POST("/refresh", handler.PublicRefresh)
		api.GET("/refresh/status", handler.RefreshStatus)
	}

	if apiAccessKey != "" {
		admin := api.Group("/admin")
		admin.Use(authMiddleware(apiAccessKey))
		admin.POST("/refresh", handler.AdminRefresh)
		slog.Info("Admin endpoints enabled with authentication")
	} else {
		slog.Info("Admin endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Spatial Selecta",
			"description": "Automatic tracking of spatial audio releases",
			"endpoints": map[string]string{
				"tracks":         "/api/tracks",
				"new_tracks":     "/api/tracks/new",
				"track":          "/api/tracks/<id>",
				"stats":          "/api/stats",
				"health":         "/api/health",
				"refresh":        "/api/refresh (POST, rate limited)",
				"refresh_status": "/api/refresh/status",
			},
		})
	})

	// Return 204 to avoid 404 noise from browsers
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

func accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		slog.Info("Request handled",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"duration", time.Since(start),
		)
	}
}

// authMiddleware gates admin endpoints behind the configured bearer token.
// Comparison is constant-time to avoid timing leaks.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	expected := sha256.Sum256([]byte(apiAccessKey))

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		providedKey, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "API key required",
			})
			c.Abort()
			return
		}

		provided := sha256.Sum256([]byte(providedKey))
		if subtle.ConstantTimeCompare(expected[:], provided[:]) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid API key",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
