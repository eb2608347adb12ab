// Package devserver implements the backend auth contract the console is
// written against, for local development and tests: cookie-based admin
// login, validity check, refresh with rotation, best-effort logout, and the
// account-recovery lookups.
package devserver

import (
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront-tools/admin-console/gateway"
)

const (
	// DefaultAccessTTL mirrors the backend's short-lived access cookie.
	DefaultAccessTTL = 30 * time.Minute
	// DefaultRefreshTTL mirrors the longer-lived refresh cookie.
	DefaultRefreshTTL = 14 * 24 * time.Hour
)

// Server serves the admin auth endpoints on an http.ServeMux.
type Server struct {
	mux    *http.ServeMux
	routes []string
	log    zerolog.Logger

	accounts      map[string]Account // keyed by email
	signingKey    []byte
	nowTime       func() time.Time
	accessTTL     time.Duration
	refreshTTL    time.Duration
	accessCookie  string
	refreshCookie string

	adminGate func(http.HandlerFunc) http.HandlerFunc

	refreshMu     sync.Mutex
	refreshTokens map[string]string // token -> account email
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithAccount registers an admin (or non-admin) account.
func WithAccount(account Account) Option {
	return func(s *Server) {
		s.accounts[account.Email] = account
	}
}

// WithProtectedAdmin mounts the admin page behind the given middleware,
// plus the login page the middleware redirects unauthenticated requests to.
func WithProtectedAdmin(mw func(http.HandlerFunc) http.HandlerFunc) Option {
	return func(s *Server) {
		s.adminGate = mw
	}
}

// WithSigningKey sets the HMAC key used to mint access cookies.
func WithSigningKey(key []byte) Option {
	return func(s *Server) {
		s.signingKey = key
	}
}

// WithCookieNames overrides the session cookie names.
func WithCookieNames(access, refresh string) Option {
	return func(s *Server) {
		s.accessCookie = access
		s.refreshCookie = refresh
	}
}

// WithTTLs overrides the cookie lifetimes.
func WithTTLs(access, refresh time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = access
		s.refreshTTL = refresh
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// New initializes the dev auth backend. Without WithSigningKey a random
// per-process key is generated, so minted cookies do not survive restarts.
func New(options ...Option) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		log:           zerolog.Nop(),
		accounts:      make(map[string]Account),
		nowTime:       time.Now,
		accessTTL:     DefaultAccessTTL,
		refreshTTL:    DefaultRefreshTTL,
		accessCookie:  gateway.DefaultAccessCookieName,
		refreshCookie: gateway.DefaultRefreshCookieName,
		refreshTokens: make(map[string]string),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.signingKey == nil {
		s.signingKey = make([]byte, 32)
		_, _ = rand.Read(s.signingKey)
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("POST /admin/auth/login", ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET /admin/auth/check", ChainMiddleware(s.CheckHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST /admin/auth/refresh", ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST /admin/auth/logout", ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST /admin/auth/find-email", ChainMiddleware(s.FindEmailHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST /admin/auth/find-password", ChainMiddleware(s.FindPasswordHandler(), s.APIMiddleware()...))

	if s.adminGate != nil {
		s.RegisterRouteFunc("GET /admin", ChainMiddleware(s.AdminPageHandler(), append(s.APIMiddleware(), s.adminGate)...))
		s.RegisterRouteFunc("GET /login", ChainMiddleware(s.LoginPageHandler(), s.APIMiddleware()...))
	}
}
