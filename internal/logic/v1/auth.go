package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/duynhne/sut-service/internal/core/domain"
	"github.com/duynhne/sut-service/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is the single dummy account. When PasswordHash is set it
// is a bcrypt hash and Password is ignored.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// AuthOptions configures an AuthService.
type AuthOptions struct {
	Credentials Credentials
	Tokens      TokenGenerator
	// RetainSessionOnLogout leaves the record in the store on logout.
	RetainSessionOnLogout bool
	Now                   func() time.Time
}

// AuthService implements the login flow and the session lookup used by
// the auth gate. It depends only on domain.SessionStore.
type AuthService struct {
	sessions domain.SessionStore
	creds    Credentials
	tokens   TokenGenerator
	retain   bool
	now      func() time.Time
}

// NewAuthService creates a new AuthService backed by sessions.
func NewAuthService(sessions domain.SessionStore, opts AuthOptions) *AuthService {
	if opts.Tokens == nil {
		opts.Tokens = PseudoTokenGenerator{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthService{
		sessions: sessions,
		creds:    opts.Credentials,
		tokens:   opts.Tokens,
		retain:   opts.RetainSessionOnLogout,
		now:      opts.Now,
	}
}

// Username returns the configured fixture username.
func (s *AuthService) Username() string { return s.creds.Username }

// Password returns the plaintext fixture password for pre-filling the
// login form, or "" when only a hash is configured.
func (s *AuthService) Password() string {
	if s.creds.PasswordHash != "" {
		return ""
	}
	return s.creds.Password
}

func (s *AuthService) verify(username, password string) bool {
	if username != s.creds.Username {
		return false
	}
	if s.creds.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.creds.PasswordHash), []byte(password)) == nil
	}
	return password == s.creds.Password
}

// Login checks the credentials and, on an exact match, stores a new
// session and returns its token. There is no lockout or attempt counting.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	if !s.verify(req.Username, req.Password) {
		loginAttempts.WithLabelValues("failure").Inc()
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return "", fmt.Errorf("authenticate user %q: %w", req.Username, ErrInvalidCredentials)
	}

	token := s.tokens.NewToken()
	record := domain.Session{OwnerID: s.creds.Username, CreatedAt: s.now()}
	if err := s.sessions.Create(ctx, token, record); err != nil {
		span.RecordError(err)
		loginAttempts.WithLabelValues("error").Inc()
		return "", fmt.Errorf("create session: %w: %w", ErrSessionStore, err)
	}

	loginAttempts.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Bool("auth.success", true))
	span.AddEvent("session.created")
	return token, nil
}

// Authenticate returns the session behind token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.authenticate", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if token == "" {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, fmt.Errorf("no session cookie: %w", ErrSessionNotFound)
	}

	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("lookup session: %w: %w", ErrSessionStore, err)
	}
	if sess == nil {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, fmt.Errorf("lookup session: %w", ErrSessionNotFound)
	}

	span.SetAttributes(
		attribute.String("session.owner", sess.OwnerID),
		attribute.Bool("session.valid", true),
	)
	return sess, nil
}

// Logout removes the server-side record unless RetainSessionOnLogout is
// set. The caller always clears the client cookie.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := middleware.StartSpan(ctx, "auth.logout", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Bool("session.retained", s.retain),
	))
	defer span.End()

	logouts.Inc()
	if s.retain || token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete session: %w: %w", ErrSessionStore, err)
	}
	return nil
}
