package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/duynhne/sut-service/internal/core/domain"
	"github.com/duynhne/sut-service/internal/logger"
	logicv1 "github.com/duynhne/sut-service/internal/logic/v1"
	"github.com/duynhne/sut-service/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// SessionKey is the gin context key holding the authenticated *domain.Session.
const SessionKey = "session"

type pageData struct {
	Title        string
	Username     string
	Password     string
	ShiftAfterMs int
	ImageAfterMs int
}

// isUIRoute reports whether an unauthenticated request should be sent
// to the login page instead of receiving a 401 body.
func isUIRoute(path string) bool {
	return strings.HasPrefix(path, "/ui") || path == "/dashboard"
}

// RequireSession gates a route family behind a valid session cookie.
// UI routes redirect to /login; everything else gets 401 JSON.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.authorize(c) {
			c.Next()
		}
	}
}

// authorize runs the gate and writes the denial itself. It reports
// whether the request may proceed.
func (h *Handler) authorize(c *gin.Context) bool {
	ctx := c.Request.Context()
	token, _ := c.Cookie(h.opts.CookieName)

	sess, err := h.auth.Authenticate(ctx, token)
	if err == nil {
		c.Set(SessionKey, sess)
		return true
	}

	switch {
	case errors.Is(err, logicv1.ErrSessionNotFound):
		logger.FromContext(ctx).Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Session required")
		if isUIRoute(c.Request.URL.Path) {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		} else {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		}
	default:
		logger.FromContext(ctx).Error().Err(err).Msg("Session lookup failed")
		middleware.InternalError(c, err)
	}
	return false
}

// LoginPage renders the login form pre-filled with the dummy account.
func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login", pageData{
		Title:    "Login",
		Username: h.auth.Username(),
		Password: h.auth.Password(),
	})
}

// Login handles the form-encoded (or JSON) login POST.
func (h *Handler) Login(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	// A body that does not bind is treated like wrong credentials.
	var req domain.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		log.Warn().Err(err).Msg("Invalid login body")
	}

	token, err := h.auth.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, logicv1.ErrInvalidCredentials):
			log.Warn().Str("username", req.Username).Msg("Login failed")
			c.HTML(http.StatusUnauthorized, "login_failed", pageData{Title: "Login Failed"})
		default:
			log.Error().Err(err).Msg("Login error")
			middleware.InternalError(c, err)
		}
		return
	}

	log.Info().Str("username", req.Username).Msg("Login successful")
	c.SetCookie(h.opts.CookieName, token, h.cookieMaxAge(), "/", "", false, true)
	c.Redirect(http.StatusFound, "/dashboard")
}

// Logout clears the cookie and, unless configured otherwise, the
// server-side record.
func (h *Handler) Logout(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	ctx := c.Request.Context()
	token, _ := c.Cookie(h.opts.CookieName)
	if err := h.auth.Logout(ctx, token); err != nil {
		// The cookie is still cleared; the record is left to the store.
		span.RecordError(err)
		logger.FromContext(ctx).Error().Err(err).Msg("Session delete failed")
	}

	// MaxAge < 0 is written as Max-Age=0.
	c.SetCookie(h.opts.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) cookieMaxAge() int {
	if h.opts.CookieMaxAge <= 0 {
		return 3600
	}
	return h.opts.CookieMaxAge
}
