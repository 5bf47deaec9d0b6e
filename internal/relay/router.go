package relay

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions configures the HTTP surface
type RouterOptions struct {
	AllowOrigins     []string
	AllowCredentials bool
	MaxRequestSize   int64
	Logger           *zap.Logger
}

// NewRouter builds the gin engine serving the relay API
func NewRouter(service *Service, opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	router := gin.New()

	router.Use(cors.New(corsConfig(opts)))
	router.Use(AccessLogMiddleware(opts.Logger))
	router.Use(gin.Recovery())

	if opts.MaxRequestSize > 0 {
		router.Use(func(c *gin.Context) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, opts.MaxRequestSize)
			c.Next()
		})
	}

	NewHandlers(service, opts.Logger).RegisterRoutes(router)

	return router
}

func corsConfig(opts RouterOptions) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: opts.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	allowAll := len(opts.AllowOrigins) == 0
	var origins []string
	for _, origin := range opts.AllowOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
			break
		}
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	if allowAll || len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// AccessLogMiddleware logs one line per request
func AccessLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("Request completed", fields...)
		} else {
			logger.Info("Request completed", fields...)
		}
	}
}
