// Package gate guards protected views. A request is admitted immediately
// when the session manager's last known state is logged in; otherwise it is
// held for one authentication resolution and then admitted or redirected to
// the login entry point. The gate never re-checks an admitted mount; a
// session that dies later is torn down by the manager's keepalive loop, not
// by gate re-evaluation.
package gate

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/storefront-tools/admin-console/session"
)

// SessionManager is the slice of the session manager the gate consumes. It
// never touches credential storage directly.
type SessionManager interface {
	State() session.State
	IsAuthenticated(ctx context.Context) bool
}

var _ SessionManager = (*session.Manager)(nil)

// Gate wraps protected handlers.
type Gate struct {
	sessions  SessionManager
	loginPath string
	log       zerolog.Logger
}

// Option defines a function type to modify the Gate instance.
type Option func(*Gate)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Gate) {
		g.log = log
	}
}

// New returns a Gate that redirects unauthenticated requests to loginPath.
func New(sessions SessionManager, loginPath string, options ...Option) *Gate {
	g := &Gate{
		sessions:  sessions,
		loginPath: loginPath,
		log:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Protect is middleware for protected views. The optimistic path admits on
// the last known state without any verification; the slow path blocks on
// exactly one resolution. Protected content and the redirect are mutually
// exclusive: nothing is written until the decision is made.
func (g *Gate) Protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.sessions.State() == session.StateLoggedIn {
			next(w, r)
			return
		}
		if g.sessions.IsAuthenticated(r.Context()) {
			next(w, r)
			return
		}
		g.log.Debug().Str("path", r.URL.Path).Msg("unauthenticated request redirected to login")
		http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
	}
}

// Middleware adapts Protect to the console's middleware-chain shape.
func (g *Gate) Middleware() func(http.HandlerFunc) http.HandlerFunc {
	return g.Protect
}

// Check resolves the current authentication state for non-HTTP callers.
func (g *Gate) Check(ctx context.Context) bool {
	if g.sessions.State() == session.StateLoggedIn {
		return true
	}
	return g.sessions.IsAuthenticated(ctx)
}
