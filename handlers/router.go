package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"link_shortener/auth"
	"link_shortener/metrics"
)

func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), metrics.Middleware())

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.POST("/auth/register", h.Register)
	router.POST("/auth/jwt/login", h.Login)

	identify := auth.Identify(h.issuer, h.svc.Users)

	links := router.Group("/links")
	links.Use(identify)
	{
		links.POST("/shorten", h.Shorten)
		links.GET("/search", h.Search)
		links.GET("/expired_stats", h.MyExpired)
		links.GET("/:code", h.Redirect)
		links.GET("/:code/stats", h.LinkStats)
		links.GET("/:code/qr", h.QR)
		links.PUT("/:code", h.Rename)
		links.DELETE("/:code", h.Delete)
	}

	premium := router.Group("/premium")
	premium.Use(identify)
	{
		premium.PUT("/premium", h.SetPremium)
		premium.GET("/expired_stats", h.AllExpired)
		premium.GET("/:code/stats", h.PremiumLinkStats)
		premium.GET("/:code/queries", h.Queries)
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
