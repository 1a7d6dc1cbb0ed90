package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/duynhne/sut-service/internal/core/repository/memory"
	logicv1 "github.com/duynhne/sut-service/internal/logic/v1"
	"github.com/gin-gonic/gin"
)

type testEnv struct {
	router *gin.Engine
	store  *memory.SessionStore
}

func newTestEnv(t *testing.T, opts Options, authOpts logicv1.AuthOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewSessionStore()
	authOpts.Credentials = logicv1.Credentials{Username: "testuser", Password: "password"}
	auth := logicv1.NewAuthService(store, authOpts)
	mock := logicv1.NewMockService(nil)
	control := logicv1.NewControlService(func(time.Duration) {}, nil)

	r := gin.New()
	NewHandler(auth, mock, control, opts).RegisterRoutes(r)
	return &testEnv{router: r, store: store}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	return e.do(req)
}

func (e *testEnv) login(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sessionId" {
			return ck
		}
	}
	t.Fatalf("no sessionId cookie in response")
	return nil
}

func TestRootRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	rec := env.get("/")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected 302 to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	rec := env.get("/login")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`id="login-submit-btn"`, `value="testuser"`, "SUT - Login"} {
		if !strings.Contains(body, want) {
			t.Errorf("login page missing %q", want)
		}
	}
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	rec := env.login(t, "testuser", "password")

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected 302 to /dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	raw := rec.Header().Get("Set-Cookie")
	for _, want := range []string{"sessionId=", "HttpOnly", "Max-Age=3600", "Path=/"} {
		if !strings.Contains(raw, want) {
			t.Errorf("Set-Cookie %q missing %q", raw, want)
		}
	}

	ck := sessionCookie(t, rec)
	if env.store.Len() != 1 {
		t.Fatalf("expected one stored session, got %d", env.store.Len())
	}

	dash := env.get("/dashboard", ck)
	if dash.Code != http.StatusOK || !strings.Contains(dash.Body.String(), "Metric Control Dashboard") {
		t.Fatalf("expected dashboard, got %d", dash.Code)
	}
}

func TestLogin_JSONBody(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"testuser","password":"password"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(req)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
}

func TestLogin_Failure(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: "testuser", password: "wrong"},
		{name: "wrong case", username: "TESTUSER", password: "password"},
		{name: "empty", username: "", password: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
			rec := env.login(t, tc.username, tc.password)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if rec.Header().Get("Set-Cookie") != "" {
				t.Fatalf("failed login must not set a cookie, got %q", rec.Header().Get("Set-Cookie"))
			}
			if !strings.Contains(rec.Body.String(), "Login failed") {
				t.Fatalf("expected failure page, got %s", rec.Body.String())
			}
			if env.store.Len() != 0 {
				t.Fatalf("failed login stored a session")
			}
		})
	}
}

func TestAuthGate(t *testing.T) {
	uiPaths := []string{"/dashboard", "/ui/zero/cls", "/ui/zero/inp", "/ui/high/cls", "/ui/high/lcp"}
	apiPaths := []string{
		"/api/control/latency/avg",
		"/api/control/latency/p99-outlier",
		"/api/control/latency/threshold",
		"/api/control/error/success",
		"/api/control/error/redirect-temp",
		"/api/control/error/client-fail",
		"/api/control/error/server-fail",
		"/api/zero/errors",
	}
	bogus := &http.Cookie{Name: "sessionId", Value: "not-a-session"}

	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	for _, cookies := range [][]*http.Cookie{nil, {bogus}} {
		for _, p := range uiPaths {
			rec := env.get(p, cookies...)
			if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
				t.Errorf("%s: expected redirect to /login, got %d %q", p, rec.Code, rec.Header().Get("Location"))
			}
		}
		for _, p := range apiPaths {
			rec := env.get(p, cookies...)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s: expected 401, got %d", p, rec.Code)
				continue
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] != "Authentication required" {
				t.Errorf("%s: unexpected body %s", p, rec.Body.String())
			}
		}
	}
}

func TestUIPages(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	ck := sessionCookie(t, env.login(t, "testuser", "password"))

	tests := []struct {
		path string
		want string
	}{
		{path: "/ui/zero/cls", want: `id="cls-zero-title"`},
		{path: "/ui/zero/inp", want: `id="inp-btn"`},
		{path: "/ui/high/cls", want: "4000"},
		{path: "/ui/high/lcp", want: "3000"},
	}
	for _, tc := range tests {
		rec := env.get(tc.path, ck)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", tc.path, rec.Code)
			continue
		}
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Errorf("%s: body missing %q", tc.path, tc.want)
		}
	}
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name       string
		retain     bool
		wantStatus int
	}{
		{name: "record deleted", retain: false, wantStatus: http.StatusFound},
		{name: "record retained", retain: true, wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, Options{}, logicv1.AuthOptions{RetainSessionOnLogout: tc.retain})
			ck := sessionCookie(t, env.login(t, "testuser", "password"))

			rec := env.get("/logout", ck)
			if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
				t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
			}
			raw := rec.Header().Get("Set-Cookie")
			if !strings.HasPrefix(raw, "sessionId=;") || !strings.Contains(raw, "Max-Age=0") || !strings.Contains(raw, "HttpOnly") {
				t.Fatalf("expected cleared cookie, got %q", raw)
			}

			// A client replaying the old cookie value.
			if got := env.get("/dashboard", ck).Code; got != tc.wantStatus {
				t.Fatalf("replayed cookie: expected %d, got %d", tc.wantStatus, got)
			}
		})
	}
}

func TestLogout_WithoutSession(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	rec := env.get("/logout")
	if rec.Code != http.StatusFound || !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Fatalf("logout must always clear the cookie, got %d %q", rec.Code, rec.Header().Get("Set-Cookie"))
	}
}

func TestControlEndpoints(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	ck := sessionCookie(t, env.login(t, "testuser", "password"))

	tests := []struct {
		path       string
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{path: "/api/control/latency/avg", wantStatus: 200, wantKey: "latency", wantValue: "500ms"},
		{path: "/api/control/latency/threshold", wantStatus: 200, wantKey: "flag", wantValue: "slow"},
		{path: "/api/control/latency/p99-outlier", wantStatus: 200, wantKey: "status", wantValue: "OK"},
		{path: "/api/control/error/success", wantStatus: 200, wantKey: "message", wantValue: "Success (200 OK)"},
		{path: "/api/control/error/client-fail", wantStatus: 401, wantKey: "error", wantValue: "Unauthorized (401)"},
		{path: "/api/control/error/server-fail", wantStatus: 503, wantKey: "error", wantValue: "Service Unavailable (503)"},
		{path: "/api/zero/errors", wantStatus: 200, wantKey: "message", wantValue: "Perfect run, zero errors targeted."},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rec := env.get(tc.path, ck)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json %s: %v", rec.Body.String(), err)
			}
			if body[tc.wantKey] != tc.wantValue {
				t.Fatalf("%s = %q, want %q", tc.wantKey, body[tc.wantKey], tc.wantValue)
			}
		})
	}

	t.Run("redirect-temp", func(t *testing.T) {
		rec := env.get("/api/control/error/redirect-temp", ck)
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/api/control/error/success" {
			t.Fatalf("expected redirect to success endpoint, got %q", loc)
		}
		if strings.Contains(rec.Body.String(), "Success (200 OK)") {
			t.Fatalf("redirect must not carry the target body")
		}
	})
}

func TestMock_StatusPassthrough(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})

	statuses := []int{999}
	for s := 200; s <= 599; s++ {
		statuses = append(statuses, s)
	}

	for _, status := range statuses {
		rec := env.get("/api/orders?status=" + strconv.Itoa(status))
		if rec.Code != status {
			t.Fatalf("status=%d: got %d", status, rec.Code)
		}
		if status == http.StatusNoContent || status == http.StatusNotModified {
			continue
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("status=%d: invalid json: %v", status, err)
		}
		if body["success"] != (status < 400) {
			t.Fatalf("status=%d: success = %v", status, body["success"])
		}
	}
}

func TestMock_Body(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})

	tests := []struct {
		name        string
		path        string
		wantMessage string
		wantLarge   int
	}{
		{name: "default", path: "/api/test", wantMessage: "Mock API response"},
		{name: "db", path: "/api/test?errorType=db&status=500", wantMessage: "Database connection timeout"},
		{name: "auth", path: "/api/test?errorType=auth&status=401", wantMessage: "Unauthorized access"},
		{name: "other", path: "/api/test?errorType=disk", wantMessage: "Mock API response"},
		{name: "large", path: "/api/test?size=5", wantMessage: "Mock API response", wantLarge: 5000},
		{name: "size one", path: "/api/test?size=1", wantMessage: "Mock API response"},
		{name: "size zero", path: "/api/test?size=0", wantMessage: "Mock API response"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := time.Now().UnixMilli()
			rec := env.get(tc.path)

			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
				t.Errorf("Cache-Control = %q", cc)
			}

			var body struct {
				Success   bool    `json:"success"`
				Timestamp int64   `json:"timestamp"`
				Route     string  `json:"route"`
				Message   string  `json:"message"`
				LargeData *string `json:"largeData"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Route != "/api/test" {
				t.Errorf("route = %q", body.Route)
			}
			if body.Message != tc.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tc.wantMessage)
			}
			if body.Timestamp < before {
				t.Errorf("timestamp %d is before request start %d", body.Timestamp, before)
			}
			switch {
			case tc.wantLarge == 0 && body.LargeData != nil:
				t.Errorf("largeData must be absent")
			case tc.wantLarge > 0 && (body.LargeData == nil || len(*body.LargeData) != tc.wantLarge):
				t.Errorf("largeData length mismatch, want %d", tc.wantLarge)
			}
		})
	}
}

func TestMock_Delay(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	for _, d := range []int{0, 30, 80} {
		start := time.Now()
		rec := env.get("/api/slow?delay=" + strconv.Itoa(d))
		elapsed := time.Since(start)
		if rec.Code != http.StatusOK {
			t.Fatalf("delay=%d: status %d", d, rec.Code)
		}
		if elapsed < time.Duration(d)*time.Millisecond {
			t.Fatalf("delay=%d: responded after %v", d, elapsed)
		}
	}
}

func TestMock_InvalidStatusIsInternalError(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	rec := env.get("/api/test?status=42")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["error"] != "Internal Server Error" || !strings.Contains(body["message"], "invalid status code") {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestMock_Protected(t *testing.T) {
	env := newTestEnv(t, Options{ProtectMock: true}, logicv1.AuthOptions{})

	if rec := env.get("/api/test"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	ck := sessionCookie(t, env.login(t, "testuser", "password"))
	if rec := env.get("/api/test?status=418", ck); rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418 with session, got %d", rec.Code)
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	for _, p := range []string{"/nope", "/ui/unknown", "/api"} {
		rec := env.get(p)
		if p == "/ui/unknown" && rec.Code == http.StatusFound {
			t.Fatalf("%s: unmatched paths are not gated", p)
		}
		if rec.Code != http.StatusNotFound || rec.Body.String() != "404 Not Found" {
			t.Fatalf("%s: expected plain 404, got %d %q", p, rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Fatalf("%s: Content-Type = %q", p, ct)
		}
	}
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "about.html"), []byte("<p>about</p>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, Options{StaticDir: dir}, logicv1.AuthOptions{})

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/about", wantStatus: 200, wantBody: "<p>about</p>"},
		{path: "/about.html", wantStatus: 200, wantBody: "<p>about</p>"},
		{path: "/app.js", wantStatus: 200, wantBody: "console.log(1)"},
		{path: "/missing", wantStatus: 404, wantBody: "404 Not Found"},
		{path: "/../etc/passwd", wantStatus: 404, wantBody: "404 Not Found"},
	}
	for _, tc := range tests {
		rec := env.get(tc.path)
		if rec.Code != tc.wantStatus || rec.Body.String() != tc.wantBody {
			t.Errorf("%s: got %d %q, want %d %q", tc.path, rec.Code, rec.Body.String(), tc.wantStatus, tc.wantBody)
		}
	}
}

func TestMock_OversizedBodyIsInternalError(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	for _, size := range []string{"10000000", "536871"} {
		rec := env.get("/api/big?size=" + size)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("size=%s: expected 500, got %d", size, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("size=%s: invalid json: %v", size, err)
		}
		if body["error"] != "Internal Server Error" || !strings.Contains(body["message"], "invalid body size") {
			t.Fatalf("size=%s: unexpected body %v", size, body)
		}
	}

	// The server keeps serving after the rejected request.
	if rec := env.get("/api/after?size=2"); rec.Code != http.StatusOK {
		t.Fatalf("follow-up request: %d", rec.Code)
	}
}

func TestMock_DelayDoesNotBlockOtherRequests(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})

	start := time.Now()
	slowDone := make(chan time.Duration, 1)
	slowCode := make(chan int, 1)
	go func() {
		rec := env.get("/api/slow?delay=1000")
		slowDone <- time.Since(start)
		slowCode <- rec.Code
	}()

	// Let the slow request reach its delay.
	time.Sleep(50 * time.Millisecond)

	fastStart := time.Now()
	rec := env.get("/api/fast")
	fastElapsed := time.Since(fastStart)
	if rec.Code != http.StatusOK {
		t.Fatalf("fast request: %d", rec.Code)
	}
	if fastElapsed > 500*time.Millisecond {
		t.Fatalf("fast request took %v while a delayed request was pending", fastElapsed)
	}
	select {
	case <-slowDone:
		t.Fatal("delayed request finished before the fast one was served")
	default:
	}

	slowElapsed := <-slowDone
	if code := <-slowCode; code != http.StatusOK {
		t.Fatalf("slow request: %d", code)
	}
	if slowElapsed < time.Second {
		t.Fatalf("slow request finished after %v, want >= 1s", slowElapsed)
	}
}

func TestAuthGate_AllMethodsOnControlRoutes(t *testing.T) {
	env := newTestEnv(t, Options{}, logicv1.AuthOptions{})
	ck := sessionCookie(t, env.login(t, "testuser", "password"))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		for _, p := range []string{"/api/control/error/server-fail", "/api/control/unknown", "/api/zero/errors"} {
			rec := env.do(httptest.NewRequest(method, p, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s %s without session: expected 401, got %d", method, p, rec.Code)
			}

			req := httptest.NewRequest(method, p, nil)
			req.AddCookie(ck)
			if rec := env.do(req); rec.Code == http.StatusUnauthorized {
				t.Errorf("%s %s with session: unexpected 401", method, p)
			}
		}
	}

	// The generic mock stays public.
	if rec := env.do(httptest.NewRequest(http.MethodPost, "/api/orders", nil)); rec.Code != http.StatusOK {
		t.Fatalf("POST /api/orders: expected 200, got %d", rec.Code)
	}
}
