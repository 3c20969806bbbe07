package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hypercheck/hypercheck-backend/usecases"
	"github.com/hypercheck/hypercheck-backend/utils"
)

type Configuration struct {
	Env                 string
	AppName             string
	Port                string
	RequestLoggingLevel string
	AllowedOrigins      []string
	DefaultTimeout      time.Duration
}

func InitRouterMiddlewares(ctx context.Context, conf Configuration) *gin.Engine {
	if conf.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLoggingMiddleware(ctx, conf))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     conf.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	return r
}

func requestLoggingMiddleware(ctx context.Context, conf Configuration) gin.HandlerFunc {
	logger := utils.LoggerFromContext(ctx)
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(utils.StoreLoggerInContext(c.Request.Context(), logger))
		c.Next()

		if conf.RequestLoggingLevel == "none" {
			return
		}
		status := c.Writer.Status()
		if conf.RequestLoggingLevel == "errors" && status < 400 {
			return
		}
		logger.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start).String(),
		)
	}
}

func NewServer(router *gin.Engine, conf Configuration, uc usecases.Usecases) *http.Server {
	addRoutes(router, uc)

	return &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%s", conf.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
		Handler:      router,
	}
}
