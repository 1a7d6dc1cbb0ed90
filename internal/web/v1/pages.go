package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Page timings deliberately perturb Core Web Vitals.
const (
	layoutShiftAfterMs = 4000
	lcpImageAfterMs    = 3000
)

// Dashboard links every control endpoint and UI page.
func (h *Handler) Dashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard", pageData{Title: "Metric Control Dashboard"})
}

// ZeroCLS renders a page with no layout shift.
func (h *Handler) ZeroCLS(c *gin.Context) {
	c.HTML(http.StatusOK, "ui_zero_cls", pageData{Title: "Zero CLS Page"})
}

// ZeroINP renders a page with a non-blocking click handler.
func (h *Handler) ZeroINP(c *gin.Context) {
	c.HTML(http.StatusOK, "ui_zero_inp", pageData{Title: "Minimum INP Page"})
}

// HighCLS renders a page that injects a banner after 4s.
func (h *Handler) HighCLS(c *gin.Context) {
	c.HTML(http.StatusOK, "ui_high_cls", pageData{Title: "High CLS Page", ShiftAfterMs: layoutShiftAfterMs})
}

// HighLCP renders a page whose largest element appears after 3s.
func (h *Handler) HighLCP(c *gin.Context) {
	c.HTML(http.StatusOK, "ui_high_lcp", pageData{Title: "High LCP Page", ImageAfterMs: lcpImageAfterMs})
}
