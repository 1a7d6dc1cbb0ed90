// Package router assembles the single gin engine shared by every shell.
// It imports no storage backends; the caller supplies the session store.
package router

import (
	"net/http"
	"sync/atomic"

	"github.com/duynhne/sut-service/config"
	"github.com/duynhne/sut-service/internal/core/domain"
	logicv1 "github.com/duynhne/sut-service/internal/logic/v1"
	v1 "github.com/duynhne/sut-service/internal/web/v1"
	"github.com/duynhne/sut-service/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New builds the engine. /ready reports 503 once draining is set; a nil
// draining is always ready.
func New(cfg *config.Config, sessions domain.SessionStore, draining *atomic.Bool) *gin.Engine {
	auth := logicv1.NewAuthService(sessions, logicv1.AuthOptions{
		Credentials: logicv1.Credentials{
			Username:     cfg.Auth.Username,
			Password:     cfg.Auth.Password,
			PasswordHash: cfg.Auth.PasswordHash,
		},
		Tokens:                logicv1.NewTokenGenerator(cfg.Auth.SecureTokens),
		RetainSessionOnLogout: cfg.Auth.RetainSessionOnLogout,
	})
	handler := v1.NewHandler(
		auth,
		logicv1.NewMockService(nil),
		logicv1.NewControlService(nil, nil),
		v1.Options{
			CookieName:   cfg.Auth.CookieName,
			CookieMaxAge: cfg.Auth.CookieMaxAge,
			ProtectMock:  cfg.Mock.ProtectAPI,
			StaticDir:    cfg.Static.Dir,
		},
	)

	r := gin.New()
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.TracingMiddleware(cfg.Service.Name))
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.PrometheusMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if draining != nil && draining.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(r)
	return r
}
