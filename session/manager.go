// Package session owns the admin session lifecycle: it decides whether the
// caller is authenticated right now, keeps the session alive with a
// background keepalive loop, and serializes verification so at most one
// refresh is ever in flight.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/storefront-tools/admin-console/credentials"
	"github.com/storefront-tools/admin-console/gateway"
	apperrors "github.com/storefront-tools/admin-console/internal/errors"
)

// DefaultKeepaliveInterval is how often an active session re-validates its
// access cookie.
const DefaultKeepaliveInterval = 5 * time.Minute

const verifyKey = "verify"

// Gateway is the slice of the auth API client the manager drives.
type Gateway interface {
	Login(ctx context.Context, email, password string) gateway.Outcome
	CheckValidity(ctx context.Context) bool
	Refresh(ctx context.Context) bool
	Logout(ctx context.Context)
}

var _ Gateway = (*gateway.Client)(nil)

// Manager is the session state machine. It exclusively owns the
// login-status record; consumers read authentication state only through
// IsAuthenticated or State.
//
// All network failures resolve to "cannot confirm, assume logged out".
// There is no retry or backoff; the next caller or the next keepalive tick
// is the retry mechanism. A false negative is preferred over granting
// access without server confirmation.
type Manager struct {
	gw      Gateway
	store   credentials.Store
	nowTime func() time.Time
	tick    time.Duration
	log     zerolog.Logger

	// opMu serializes the network operations that transition out of
	// VERIFYING, so a refresh and a login can never interleave their
	// store effects.
	opMu sync.Mutex

	mu    sync.Mutex
	state State
	// gen invalidates an in-flight verification's state transition when an
	// explicit login or logout has happened since it started. A fresh
	// explicit login always wins over a stale resolution.
	gen uint64

	flight singleflight.Group
}

// Option defines a function type to modify the Manager instance.
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithKeepaliveInterval overrides the background revalidation interval.
func WithKeepaliveInterval(interval time.Duration) Option {
	return func(m *Manager) {
		m.tick = interval
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// New initializes a Manager. The initial state is derived from the stored
// record: a fresh record restores LOGGED_IN across process restarts.
func New(gw Gateway, store credentials.Store, options ...Option) (*Manager, error) {
	if gw == nil {
		return nil, errors.New("[session.New] gateway is required")
	}
	if store == nil {
		return nil, errors.New("[session.New] store is required")
	}

	m := &Manager{
		gw:      gw,
		store:   store,
		nowTime: time.Now,
		tick:    DefaultKeepaliveInterval,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}

	if record, ok, err := m.store.Load(); err == nil && ok &&
		record.Authenticated && !record.Expired(m.nowTime()) {
		m.state = StateLoggedIn
	}
	return m, nil
}

// State returns the last known state without triggering any verification.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated answers whether the caller is authenticated right now.
// An unexpired record answers immediately with no network call. Otherwise
// the session is verified via a refresh; concurrent callers share the same
// in-flight verification and observe the same resolved answer.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	if record, ok, err := m.store.Load(); err == nil && ok &&
		record.Authenticated && !record.Expired(m.nowTime()) {
		m.mu.Lock()
		m.state = StateLoggedIn
		m.mu.Unlock()
		return true
	}
	return m.verify(ctx)
}

// Check resolves the session like IsAuthenticated but reports why the
// caller is not authenticated: ErrSessionExpired when a confirmed session
// could not be re-verified, ErrNotFound when no session exists to verify.
func (m *Manager) Check(ctx context.Context) error {
	hadSession := false
	if record, ok, err := m.store.Load(); err == nil && ok && record.Authenticated {
		if !record.Expired(m.nowTime()) {
			m.mu.Lock()
			m.state = StateLoggedIn
			m.mu.Unlock()
			return nil
		}
		hadSession = true
	}
	if m.verify(ctx) {
		return nil
	}
	if hadSession {
		return apperrors.Wrapf(apperrors.ErrSessionExpired, "[Manager.Check] verification failed")
	}
	return apperrors.ErrNotFound
}

// verify runs at most one refresh at a time. It enters VERIFYING, performs
// the refresh under opMu, and resolves the state unless an explicit login
// or logout preempted the verification while it was in flight.
func (m *Manager) verify(ctx context.Context) bool {
	m.mu.Lock()
	gen := m.gen
	m.state = StateVerifying
	m.mu.Unlock()

	resolved, _, _ := m.flight.Do(verifyKey, func() (any, error) {
		m.opMu.Lock()
		defer m.opMu.Unlock()
		return m.gw.Refresh(ctx), nil
	})
	ok, _ := resolved.(bool)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		// Preempted; the explicit operation's resolution stands.
		return ok
	}
	if ok {
		m.state = StateLoggedIn
	} else {
		m.state = StateLoggedOut
		// The gateway clears the record on a rejected refresh; clearing
		// again covers timeouts and transport failures.
		_ = m.store.Clear()
		m.log.Debug().Msg("session verification failed, logged out")
	}
	return ok
}

// Login authenticates explicitly and surfaces the outcome for user-facing
// messaging. A successful login wins over any in-flight verification.
func (m *Manager) Login(ctx context.Context, email, password string) gateway.Outcome {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.opMu.Lock()
	defer m.opMu.Unlock()

	outcome := m.gw.Login(ctx, email, password)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return outcome
	}
	if outcome == gateway.OutcomeSuccess {
		m.state = StateLoggedIn
		m.log.Info().Msg("admin logged in")
	}
	// A failed login leaves the state untouched; the outcome carries the
	// reason to the caller.
	return outcome
}

// Logout clears local state synchronously, then notifies the backend best
// effort. Idempotent; a second call is a no-op that still succeeds.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.gen++
	wasLoggedIn := m.state != StateLoggedOut
	m.state = StateLoggedOut
	m.mu.Unlock()

	_ = m.store.Clear()

	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.gw.Logout(ctx)
	if wasLoggedIn {
		m.log.Info().Msg("admin logged out")
	}
}

// Run is the keepalive loop: while logged in, every tick re-validates the
// access cookie and proactively refreshes on failure. It returns when ctx
// is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.keepalive(ctx)
		}
	}
}

// keepalive performs one background re-validation. On a failed check it
// attempts exactly one refresh; on that failure it forces LOGGED_OUT, the
// local equivalent of a logout without the server call.
func (m *Manager) keepalive(ctx context.Context) {
	if m.State() != StateLoggedIn {
		return
	}

	checked := func() bool {
		m.opMu.Lock()
		defer m.opMu.Unlock()
		return m.gw.CheckValidity(ctx)
	}()
	if checked {
		return
	}

	m.log.Debug().Msg("access cookie no longer valid, attempting refresh")
	if !m.verify(ctx) {
		m.log.Info().Msg("session could not be refreshed, forcing logout")
	}
}
