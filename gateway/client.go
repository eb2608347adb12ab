// Package gateway issues the admin auth API calls: login, validity check,
// refresh, logout, and the account-recovery lookups. Every call has a
// bounded timeout and classifies its result into an Outcome at the network
// boundary.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/storefront-tools/admin-console/cookies"
	"github.com/storefront-tools/admin-console/credentials"
)

const (
	loginPath        = "/admin/auth/login"
	checkPath        = "/admin/auth/check"
	refreshPath      = "/admin/auth/refresh"
	logoutPath       = "/admin/auth/logout"
	findEmailPath    = "/admin/auth/find-email"
	findPasswordPath = "/admin/auth/find-password"

	// DefaultCheckTimeout bounds the validity check so a hung backend
	// cannot stall the access gate.
	DefaultCheckTimeout = 5 * time.Second
	// DefaultRefreshTimeout bounds the refresh call.
	DefaultRefreshTimeout = 8 * time.Second
	// DefaultRequestTimeout bounds login, logout, and recovery calls.
	DefaultRequestTimeout = 15 * time.Second

	// DefaultAccessCookieName and DefaultRefreshCookieName are the cookie
	// names the backend sets. Values are opaque; only presence is checked.
	DefaultAccessCookieName  = "accessToken"
	DefaultRefreshCookieName = "refreshToken"
)

// Client calls the backend auth API. Authentication is cookie-based: the
// client owns a cookie jar shared between the HTTP client and the probe. A
// successful login or refresh persists a fresh login-status record into the
// store as part of the same operation, so no caller can forget to.
type Client struct {
	httpClient     *http.Client
	base           *url.URL
	store          credentials.Store
	probe          *cookies.Probe
	nowTime        func() time.Time
	ttl            time.Duration
	checkTimeout   time.Duration
	refreshTimeout time.Duration
	requestTimeout time.Duration
	accessCookie   string
	refreshCookie  string
	log            zerolog.Logger
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. It must carry a cookie jar; the
// probe reads the same jar the transport writes.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCookieJar sets the jar on the default HTTP client.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithCookieNames overrides the session cookie names.
func WithCookieNames(access, refresh string) Option {
	return func(c *Client) {
		c.accessCookie = access
		c.refreshCookie = refresh
	}
}

// WithTimeouts overrides the per-operation timeouts.
func WithTimeouts(check, refresh, request time.Duration) Option {
	return func(c *Client) {
		c.checkTimeout = check
		c.refreshTimeout = refresh
		c.requestTimeout = request
	}
}

// WithRecordTTL overrides the freshness window of persisted records.
func WithRecordTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.ttl = ttl
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New initializes a Client for the backend at baseURL, persisting confirmed
// logins into store.
func New(baseURL string, store credentials.Store, options ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("[gateway.New] store is required")
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[gateway.New] url.Parse")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[gateway.New] cookiejar.New")
	}

	c := &Client{
		httpClient:     &http.Client{Jar: jar},
		base:           base,
		store:          store,
		nowTime:        time.Now,
		ttl:            credentials.DefaultTTL,
		checkTimeout:   DefaultCheckTimeout,
		refreshTimeout: DefaultRefreshTimeout,
		requestTimeout: DefaultRequestTimeout,
		accessCookie:   DefaultAccessCookieName,
		refreshCookie:  DefaultRefreshCookieName,
		log:            zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		return nil, errors.New("[gateway.New] http client must carry a cookie jar")
	}
	probe, err := cookies.NewProbe(c.httpClient.Jar, baseURL, c.accessCookie, c.refreshCookie)
	if err != nil {
		return nil, errors.Wrap(err, "[gateway.New] cookies.NewProbe")
	}
	c.probe = probe
	return c, nil
}

// Probe exposes the cookie presence probe bound to this client's jar.
func (c *Client) Probe() *cookies.Probe {
	return c.probe
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with the backend. On success the backend sets the
// session cookies and a fresh login-status record is persisted.
func (c *Client) Login(ctx context.Context, email, password string) Outcome {
	status, _, err := c.post(ctx, loginPath, loginRequest{Email: email, Password: password}, c.requestTimeout)
	if err != nil {
		c.log.Debug().Err(err).Msg("login request failed")
		return OutcomeNetworkOrServerError
	}
	outcome := outcomeFromStatus(status)
	if outcome != OutcomeSuccess {
		return outcome
	}
	if err := c.store.Save(credentials.NewRecord(true, c.nowTime(), c.ttl)); err != nil {
		c.log.Err(err).Msg("failed to persist login-status record after login")
		return OutcomeNetworkOrServerError
	}
	return OutcomeSuccess
}

// CheckValidity asks the backend whether the current access cookie is still
// valid. A missing access cookie short-circuits to failure without a
// network call. Success reconfirms the login-status record.
func (c *Client) CheckValidity(ctx context.Context) bool {
	if !c.probe.AccessPresent() {
		return false
	}
	status, _, err := c.get(ctx, checkPath, c.checkTimeout)
	if err != nil {
		c.log.Debug().Err(err).Msg("validity check failed")
		return false
	}
	if status != http.StatusOK {
		return false
	}
	if err := c.store.Save(credentials.NewRecord(true, c.nowTime(), c.ttl)); err != nil {
		c.log.Err(err).Msg("failed to persist login-status record after validity check")
		return false
	}
	return true
}

// Refresh exchanges the refresh cookie for new session cookies. A missing
// refresh cookie short-circuits to failure, clearing any cached record. A
// 401/403 response also clears the record; any other failure leaves
// clearing to the caller's state transition.
func (c *Client) Refresh(ctx context.Context) bool {
	if !c.probe.RefreshPresent() {
		_ = c.store.Clear()
		return false
	}
	status, _, err := c.post(ctx, refreshPath, nil, c.refreshTimeout)
	if err != nil {
		c.log.Debug().Err(err).Msg("refresh request failed")
		return false
	}
	switch status {
	case http.StatusOK:
		if err := c.store.Save(credentials.NewRecord(true, c.nowTime(), c.ttl)); err != nil {
			c.log.Err(err).Msg("failed to persist login-status record after refresh")
			return false
		}
		return true
	case http.StatusUnauthorized, http.StatusForbidden:
		_ = c.store.Clear()
		return false
	default:
		return false
	}
}

// Logout notifies the backend, best effort. Skipped when no access cookie
// is present; failures are swallowed so logout never blocks local cleanup.
func (c *Client) Logout(ctx context.Context) {
	if !c.probe.AccessPresent() {
		return
	}
	if _, _, err := c.post(ctx, logoutPath, nil, c.requestTimeout); err != nil {
		c.log.Debug().Err(err).Msg("logout notification failed")
	}
}

type findEmailRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type findEmailResponse struct {
	Email string `json:"email"`
}

// FindEmail looks up the admin account email registered for a phone number.
func (c *Client) FindEmail(ctx context.Context, phoneNumber string) (string, Outcome) {
	status, body, err := c.post(ctx, findEmailPath, findEmailRequest{PhoneNumber: phoneNumber}, c.requestTimeout)
	if err != nil {
		c.log.Debug().Err(err).Msg("find-email request failed")
		return "", OutcomeNetworkOrServerError
	}
	if outcome := outcomeFromStatus(status); outcome != OutcomeSuccess {
		return "", outcome
	}
	var response findEmailResponse
	if err := json.Unmarshal(body, &response); err != nil {
		c.log.Debug().Err(err).Msg("find-email response unreadable")
		return "", OutcomeNetworkOrServerError
	}
	return response.Email, OutcomeSuccess
}

type findPasswordRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

// FindPassword triggers a password reset for the account matching the phone
// number and email pair. A 400 means the pair does not match and maps to
// the invalid-credentials variant for user-facing copy.
func (c *Client) FindPassword(ctx context.Context, phoneNumber, email string) Outcome {
	status, _, err := c.post(ctx, findPasswordPath, findPasswordRequest{PhoneNumber: phoneNumber, Email: email}, c.requestTimeout)
	if err != nil {
		c.log.Debug().Err(err).Msg("find-password request failed")
		return OutcomeNetworkOrServerError
	}
	if status == http.StatusBadRequest {
		return OutcomeInvalidCredentials
	}
	return outcomeFromStatus(status)
}

func (c *Client) post(ctx context.Context, path string, payload any, timeout time.Duration) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, errors.Wrap(err, "[Client.post] json.Marshal")
		}
		body = bytes.NewReader(raw)
	}
	return c.do(ctx, http.MethodPost, path, body, timeout)
}

func (c *Client) get(ctx context.Context, path string, timeout time.Duration) (int, []byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, timeout)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "[Client.do] http.NewRequestWithContext")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "[Client.do] %s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, errors.Wrapf(err, "[Client.do] reading %s response", path)
	}
	return resp.StatusCode, raw, nil
}
