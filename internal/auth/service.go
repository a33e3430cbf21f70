// Package auth handles accounts, password verification and the sealed
// session cookie.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/ports"
)

// Cookie security modes.
const (
	SecureAuto   = "auto"
	SecureAlways = "always"
	SecureNever  = "never"
)

// Config tunes the auth service.
type Config struct {
	CookieName    string
	SessionTTL    time.Duration
	SecureCookies string
	BcryptCost    int
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		CookieName:    "focusflow_session",
		SessionTTL:    7 * 24 * time.Hour,
		SecureCookies: SecureAuto,
	}
}

// Service registers users and authenticates requests.
type Service struct {
	users  ports.UserRepository
	sealer *CookieSealer
	logger *slog.Logger
	cfg    Config
	now    func() time.Time
}

// NewService creates an auth service.
func NewService(users ports.UserRepository, sealer *CookieSealer, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	if cfg.SecureCookies == "" {
		cfg.SecureCookies = def.SecureCookies
	}
	return &Service{users: users, sealer: sealer, logger: logger, cfg: cfg, now: time.Now}
}

// SetClock overrides the time source used for cookie expiry.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// RegisterRequest contains the fields of a new account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Register creates a user with a hashed password and default settings.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := domain.ValidateEmail(domain.NormalizeEmail(req.Email)); err != nil {
		return nil, err
	}
	hash, err := HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	user, err := domain.NewUser(req.Email, req.FirstName, req.LastName, hash)
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials. Unknown emails and wrong passwords return
// the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// EnsureUser returns the user with email, creating it with a random
// password when absent. The CLI runs as this account.
func (s *Service) EnsureUser(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var b [18]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("generating password: %w", err)
	}
	user, err = s.Register(ctx, RegisterRequest{
		Email:     email,
		Password:  base64.RawURLEncoding.EncodeToString(b[:]),
		FirstName: "Local",
	})
	if errors.Is(err, domain.ErrConflict) {
		return s.users.FindByEmail(ctx, email)
	}
	return user, err
}

// Authenticate resolves the user behind the request's session cookie.
func (s *Service) Authenticate(r *http.Request) (*domain.User, error) {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, &domain.AuthError{Reason: "not authenticated"}
	}

	claims, err := s.sealer.Open(cookie.Value, s.now())
	if err != nil {
		return nil, &domain.AuthError{Reason: err.Error()}
	}

	user, err := s.users.FindByID(r.Context(), claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.AuthError{Reason: "user no longer exists"}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetSessionCookie issues a sealed cookie for user.
func (s *Service) SetSessionCookie(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	now := s.now()
	exp := now.Add(s.cfg.SessionTTL)
	token, err := s.sealer.Seal(Claims{UserID: user.ID, IssuedAt: now.Unix(), ExpiresAt: exp.Unix()})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.shouldUseSecureCookie(r),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearSessionCookie expires the session cookie.
func (s *Service) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.shouldUseSecureCookie(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAPI rejects unauthenticated requests with 401 and attaches the
// user to the request context otherwise.
func (s *Service) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.Authenticate(r)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthorized) {
				s.logger.Error("authentication failed", "error", err)
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserContext(r.Context(), user)))
	})
}

func (s *Service) shouldUseSecureCookie(r *http.Request) bool {
	switch s.cfg.SecureCookies {
	case SecureAlways:
		return true
	case SecureNever:
		return false
	}
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}
