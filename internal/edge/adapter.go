// Package edge runs the router behind a JSON request/response envelope
// for edge-function runtimes that hand the guest a byte payload instead
// of a socket.
package edge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
)

var (
	// ErrInvalidRequest is returned for payloads that do not decode into
	// a routable request.
	ErrInvalidRequest = errors.New("invalid edge request")
)

// Request is the inbound envelope.
type Request struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Cookies map[string]string `json:"cookies,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// Response is the outbound envelope. Headers keep every value so that
// repeated Set-Cookie lines survive.
type Response struct {
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body"`
}

// Adapter translates envelopes to requests against handler.
type Adapter struct {
	handler http.Handler
}

// NewAdapter creates an Adapter serving handler.
func NewAdapter(handler http.Handler) *Adapter {
	return &Adapter{handler: handler}
}

// Handle decodes payload, serves it and encodes the result. Its
// signature matches the waPC guest handler.
func (a *Adapter) Handle(payload []byte) ([]byte, error) {
	return a.HandleContext(context.Background(), payload)
}

// HandleContext is Handle with a caller-supplied context.
func (a *Adapter) HandleContext(ctx context.Context, payload []byte) ([]byte, error) {
	var in Request
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	req, err := in.httpRequest(ctx)
	if err != nil {
		return nil, err
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	out := Response{
		Status:  rec.Code,
		Headers: rec.Header().Clone(),
		Body:    rec.Body.String(),
	}
	return json.Marshal(out)
}

func (in Request) httpRequest(ctx context.Context) (*http.Request, error) {
	if !strings.HasPrefix(in.Path, "/") {
		return nil, fmt.Errorf("%w: path %q must start with /", ErrInvalidRequest, in.Path)
	}
	method := strings.ToUpper(in.Method)
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(in.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if len(in.Query) > 0 {
		q := u.Query()
		for k, v := range in.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	u.Scheme = "http"
	u.Host = "edge.local"

	req, err := http.NewRequestWithContext(ctx, method, u.String(), strings.NewReader(in.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req.RemoteAddr = "127.0.0.1:0"
	for k, v := range in.Headers {
		req.Header.Set(k, v)
	}
	for name, value := range in.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return req, nil
}
