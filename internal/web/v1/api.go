package v1

import (
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/duynhne/sut-service/internal/core/domain"
	"github.com/duynhne/sut-service/internal/logger"
	logicv1 "github.com/duynhne/sut-service/internal/logic/v1"
	"github.com/duynhne/sut-service/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

func writeControl(c *gin.Context, res domain.ControlResult) {
	if res.Location != "" {
		c.Redirect(res.StatusCode, res.Location)
		return
	}
	c.JSON(res.StatusCode, res.Body)
}

func (h *Handler) LatencyAvg(c *gin.Context) {
	span := startSpan(c)
	defer span.End()
	writeControl(c, h.control.LatencyAvg(c.Request.Context()))
}

func (h *Handler) LatencyP99Outlier(c *gin.Context) {
	span := startSpan(c)
	defer span.End()
	writeControl(c, h.control.P99Outlier(c.Request.Context()))
}

func (h *Handler) LatencyThreshold(c *gin.Context) {
	span := startSpan(c)
	defer span.End()
	writeControl(c, h.control.Threshold(c.Request.Context()))
}

func (h *Handler) ErrorSuccess(c *gin.Context)      { writeControl(c, h.control.Success()) }
func (h *Handler) ErrorRedirectTemp(c *gin.Context) { writeControl(c, h.control.RedirectTemp()) }
func (h *Handler) ErrorClientFail(c *gin.Context)   { writeControl(c, h.control.ClientFail()) }
func (h *Handler) ErrorServerFail(c *gin.Context)   { writeControl(c, h.control.ServerFail()) }
func (h *Handler) ZeroErrors(c *gin.Context)        { writeControl(c, h.control.ZeroErrors()) }

// Mock serves the parameterised response for any /api/* path.
// GET /api/anything?delay=&status=&size=&errorType=
func (h *Handler) Mock(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	ctx := c.Request.Context()
	desc := logicv1.ParseDescriptor(c.Request.URL.Query())

	payload, err := h.mock.Respond(ctx, desc, c.Request.URL.Path)
	if err != nil {
		span.RecordError(err)
		logger.FromContext(ctx).Error().Err(err).Msg("Mock response failed")
		middleware.InternalError(c, err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		middleware.InternalError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("response.bytes", len(body)))
	c.Header("Cache-Control", "no-store")
	c.Data(desc.StatusCode, "application/json", body)
}

// isControlRoute reports whether p is in the control endpoint family,
// which stays gated for every method.
func isControlRoute(p string) bool {
	return strings.HasPrefix(p, "/api/control/") || strings.HasPrefix(p, "/api/zero/")
}

// Fallback handles every unmatched request: /api/* goes to the generic
// mock, other paths to the static directory when configured, and the
// rest get a plain-text 404.
func (h *Handler) Fallback(c *gin.Context) {
	p := c.Request.URL.Path
	if strings.HasPrefix(p, "/api/") {
		if (h.opts.ProtectMock || isControlRoute(p)) && !h.authorize(c) {
			return
		}
		h.Mock(c)
		return
	}

	if h.opts.StaticDir != "" && (c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead) {
		if file, ok := h.staticFile(p); ok {
			c.File(file)
			return
		}
	}

	NotFound(c)
}

// NotFound writes the plain-text 404 body.
func NotFound(c *gin.Context) {
	c.String(http.StatusNotFound, "404 Not Found")
}

// staticFile resolves p inside StaticDir, trying an .html suffix for
// extensionless paths and index.html for the root.
func (h *Handler) staticFile(p string) (string, bool) {
	clean := path.Clean("/" + p)
	if clean == "/" {
		clean = "/index.html"
	}

	candidates := []string{clean}
	if path.Ext(clean) == "" {
		candidates = append(candidates, clean+".html")
	}

	for _, cand := range candidates {
		full := filepath.Join(h.opts.StaticDir, filepath.FromSlash(cand))
		if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
			return full, true
		}
	}
	return "", false
}
