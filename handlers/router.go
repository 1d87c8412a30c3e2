package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskpulse/taskpulse-go/internal/tasks/service"
	"github.com/taskpulse/taskpulse-go/internal/tokens"
	"github.com/taskpulse/taskpulse-go/internal/users"
)

// RouterOptions wires the dev server.
type RouterOptions struct {
	APIRoot string
	Users   *users.Service
	Issuer  *tokens.Issuer
	Tasks   service.Service
	// RateLimit runs on the task routes after authentication.
	RateLimit gin.HandlerFunc
	// Ready reports dependency health for /ready.
	Ready     func() map[string]bool
	AccessLog bool
}

var startTime = time.Now()

// NewRouter builds the gin engine of the dev server.
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	if opts.AccessLog {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	// Lightweight CORS for browser clients during development.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{}
		if opts.Ready != nil {
			deps = opts.Ready()
		}
		uptime := time.Since(startTime).String()
		for _, ok := range deps {
			if !ok {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	RegisterSwagger(r, opts.APIRoot)

	api := r.Group(opts.APIRoot)
	NewAuthHandler(opts.Users, opts.Issuer).Register(api)

	var extra []gin.HandlerFunc
	if opts.RateLimit != nil {
		extra = append(extra, opts.RateLimit)
	}
	RegisterTaskRoutes(api, opts.Issuer, opts.Tasks, extra...)
	return r
}
