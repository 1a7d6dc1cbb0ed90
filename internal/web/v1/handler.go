package v1

import (
	"embed"
	"html/template"
	"net/http"

	logicv1 "github.com/duynhne/sut-service/internal/logic/v1"
	"github.com/duynhne/sut-service/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options configures the HTTP surface.
type Options struct {
	CookieName   string
	CookieMaxAge int
	// ProtectMock puts the generic /api/* mock behind the session gate.
	ProtectMock bool
	// StaticDir is served for unmatched non-API paths when set.
	StaticDir string
}

// Handler groups the SUT HTTP handlers.
// Dependencies are injected via the constructor, no global state.
type Handler struct {
	auth    *logicv1.AuthService
	mock    *logicv1.MockService
	control *logicv1.ControlService
	opts    Options
}

// NewHandler creates a new Handler.
func NewHandler(auth *logicv1.AuthService, mock *logicv1.MockService, control *logicv1.ControlService, opts Options) *Handler {
	if opts.CookieName == "" {
		opts.CookieName = "sessionId"
	}
	return &Handler{
		auth:    auth,
		mock:    mock,
		control: control,
		opts:    opts,
	}
}

// Templates parses the embedded HTML pages.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/*.html"))
}

// RegisterRoutes registers every SUT route on r. Exact paths are
// registered first; the generic mock and not-found handling run from
// NoRoute so they never shadow a specific route.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(Templates())

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
	})
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)

	gated := r.Group("/", h.RequireSession())
	{
		gated.GET("/dashboard", h.Dashboard)
		gated.GET("/ui/zero/cls", h.ZeroCLS)
		gated.GET("/ui/zero/inp", h.ZeroINP)
		gated.GET("/ui/high/cls", h.HighCLS)
		gated.GET("/ui/high/lcp", h.HighLCP)
	}

	api := r.Group("/api", h.RequireSession())
	{
		api.GET("/control/latency/avg", h.LatencyAvg)
		api.GET("/control/latency/p99-outlier", h.LatencyP99Outlier)
		api.GET("/control/latency/threshold", h.LatencyThreshold)
		api.GET("/control/error/success", h.ErrorSuccess)
		api.GET("/control/error/redirect-temp", h.ErrorRedirectTemp)
		api.GET("/control/error/client-fail", h.ErrorClientFail)
		api.GET("/control/error/server-fail", h.ErrorServerFail)
		api.GET("/zero/errors", h.ZeroErrors)
	}

	r.NoRoute(h.Fallback)
}

// startSpan opens the web-layer span and moves the request onto its context.
func startSpan(c *gin.Context) trace.Span {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	c.Request = c.Request.WithContext(ctx)
	return span
}
