package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/duynhne/sut-service/config"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newApp(t *testing.T, cfg *config.Config, mode Mode) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, mode)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func serve(a *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func loginRequest() *http.Request {
	form := url.Values{"username": {"testuser"}, "password": {"password"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestNew_Addr(t *testing.T) {
	cfg := config.Default()
	if got := newApp(t, cfg, ModeServe).Addr(); got != ":3000" {
		t.Fatalf("serve addr = %q", got)
	}
	if got := newApp(t, cfg, ModeDev).Addr(); got != ":8788" {
		t.Fatalf("devserver addr = %q", got)
	}
	if cfg.Static.Dir != "" {
		t.Fatalf("New must not modify the caller's config")
	}
}

func TestOperationalEndpoints(t *testing.T) {
	a := newApp(t, config.Default(), ModeServe)

	if rec := serve(a, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Fatalf("/health: %d", rec.Code)
	}
	if rec := serve(a, httptest.NewRequest(http.MethodGet, "/ready", nil)); rec.Code != http.StatusOK {
		t.Fatalf("/ready: %d", rec.Code)
	}

	serve(a, httptest.NewRequest(http.MethodGet, "/api/orders?status=404", nil))
	rec := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`http_requests_total{method="GET",route="/api/*",status="404"}`, "sut_mock_responses_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	a.Drain(0)
	if rec := serve(a, httptest.NewRequest(http.MethodGet, "/ready", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/ready while draining: %d", rec.Code)
	}
	if rec := serve(a, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Fatalf("/health while draining: %d", rec.Code)
	}
}

func TestTraceIDHeader(t *testing.T) {
	a := newApp(t, config.Default(), ModeServe)
	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := serve(a, req)
	if got := rec.Header().Get("X-Trace-ID"); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("X-Trace-ID = %q", got)
	}
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Session.Backend = config.BackendRedis
	cfg.Session.RedisAddr = mr.Addr()

	a := newApp(t, cfg, ModeServe)
	rec := serve(a, loginRequest())
	if rec.Code != http.StatusFound {
		t.Fatalf("login: %d", rec.Code)
	}

	keys := mr.Keys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "sut:session:") {
		t.Fatalf("expected one prefixed session key, got %v", keys)
	}

	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sessionId" {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie")
	}
	req := httptest.NewRequest(http.MethodGet, "/api/control/error/success", nil)
	req.AddCookie(cookie)
	if got := serve(a, req).Code; got != http.StatusOK {
		t.Fatalf("gated call with redis session: %d", got)
	}
}

func TestNew_BackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "unsupported", mutate: func(c *config.Config) { c.Session.Backend = "etcd" }},
		{name: "redis unreachable", mutate: func(c *config.Config) {
			c.Session.Backend = config.BackendRedis
			c.Session.RedisAddr = "127.0.0.1:1"
		}},
		{name: "postgres bad url", mutate: func(c *config.Config) {
			c.Session.Backend = config.BackendPostgres
			c.Session.DatabaseURL = "://not-a-url"
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			if _, err := New(context.Background(), cfg, ModeServe); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPanicRecovery(t *testing.T) {
	a := newApp(t, config.Default(), ModeServe)
	r := a.Handler().(*gin.Engine)
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"kaboom"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
