package gateway_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/storefront-tools/admin-console/credentials"
	"github.com/storefront-tools/admin-console/credentials/storefakes"
	"github.com/storefront-tools/admin-console/gateway"
	"github.com/stretchr/testify/require"
)

// stubBackend scripts status codes per path and counts hits.
type stubBackend struct {
	status map[string]int
	delay  time.Duration
	hits   atomic.Int32
}

func (b *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.hits.Add(1)
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	status, ok := b.status[r.URL.Path]
	if !ok {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

type clientFixture struct {
	backend *stubBackend
	server  *httptest.Server
	store   *storefakes.FakeStore
	jar     http.CookieJar
	client  *gateway.Client
}

func setupClient(t *testing.T, backend *stubBackend, options ...gateway.Option) *clientFixture {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	store := storefakes.NewFakeStore()

	options = append([]gateway.Option{gateway.WithCookieJar(jar)}, options...)
	client, err := gateway.New(server.URL, store, options...)
	require.NoError(t, err)

	return &clientFixture{backend: backend, server: server, store: store, jar: jar, client: client}
}

// seedCookie plants a session cookie the way a backend response would.
func (f *clientFixture) seedCookie(t *testing.T, name string) {
	t.Helper()
	u, err := url.Parse(f.server.URL)
	require.NoError(t, err)
	f.jar.SetCookies(u, []*http.Cookie{{Name: name, Value: "opaque", Path: "/"}})
}

func TestLoginOutcomeMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		outcome gateway.Outcome
	}{
		{"success", http.StatusOK, gateway.OutcomeSuccess},
		{"invalid credentials", http.StatusUnauthorized, gateway.OutcomeInvalidCredentials},
		{"not an admin", http.StatusForbidden, gateway.OutcomeNotAuthorized},
		{"server error", http.StatusInternalServerError, gateway.OutcomeNetworkOrServerError},
		{"bad gateway", http.StatusBadGateway, gateway.OutcomeNetworkOrServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupClient(t, &stubBackend{status: map[string]int{"/admin/auth/login": tc.status}})

			outcome := f.client.Login(context.Background(), "admin@example.com", "password123")
			require.Equal(t, tc.outcome, outcome)

			if tc.outcome == gateway.OutcomeSuccess {
				record, ok, err := f.store.Load()
				require.NoError(t, err)
				require.True(t, ok)
				require.True(t, record.Authenticated)
				require.WithinDuration(t, time.Now().Add(credentials.DefaultTTL), record.ExpiresAt, 2*time.Second)
			} else {
				require.True(t, f.store.Empty())
			}
		})
	}
}

func TestLoginTimeout(t *testing.T) {
	f := setupClient(t,
		&stubBackend{delay: 200 * time.Millisecond},
		gateway.WithTimeouts(30*time.Millisecond, 30*time.Millisecond, 30*time.Millisecond),
	)

	outcome := f.client.Login(context.Background(), "admin@example.com", "password123")
	require.Equal(t, gateway.OutcomeNetworkOrServerError, outcome)
	require.True(t, f.store.Empty())
}

func TestCheckValidityShortCircuitsWithoutAccessCookie(t *testing.T) {
	f := setupClient(t, &stubBackend{})

	require.False(t, f.client.CheckValidity(context.Background()))
	require.Zero(t, f.backend.hits.Load(), "missing cookie must not cause a network call")
}

func TestCheckValiditySuccessReconfirmsRecord(t *testing.T) {
	f := setupClient(t, &stubBackend{})
	f.seedCookie(t, gateway.DefaultAccessCookieName)

	require.True(t, f.client.CheckValidity(context.Background()))
	record, ok, err := f.store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, record.Authenticated)
}

func TestCheckValidityFailure(t *testing.T) {
	f := setupClient(t, &stubBackend{status: map[string]int{"/admin/auth/check": http.StatusUnauthorized}})
	f.seedCookie(t, gateway.DefaultAccessCookieName)

	require.False(t, f.client.CheckValidity(context.Background()))
	require.True(t, f.store.Empty())
}

func TestRefreshShortCircuitsAndClearsWithoutCookie(t *testing.T) {
	f := setupClient(t, &stubBackend{})
	require.NoError(t, f.store.Save(credentials.NewRecord(true, time.Now(), credentials.DefaultTTL)))

	require.False(t, f.client.Refresh(context.Background()))
	require.True(t, f.store.Empty(), "short-circuited refresh must clear the cached record")
	require.Zero(t, f.backend.hits.Load())
}

func TestRefreshSuccessPersistsRecord(t *testing.T) {
	f := setupClient(t, &stubBackend{})
	f.seedCookie(t, gateway.DefaultRefreshCookieName)

	require.True(t, f.client.Refresh(context.Background()))
	record, ok, err := f.store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, record.Authenticated)
}

func TestRefreshRejectionClearsRecord(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		f := setupClient(t, &stubBackend{status: map[string]int{"/admin/auth/refresh": status}})
		f.seedCookie(t, gateway.DefaultRefreshCookieName)
		require.NoError(t, f.store.Save(credentials.NewRecord(true, time.Now(), credentials.DefaultTTL)))

		require.False(t, f.client.Refresh(context.Background()))
		require.True(t, f.store.Empty())
	}
}

func TestRefreshServerErrorLeavesRecord(t *testing.T) {
	f := setupClient(t, &stubBackend{status: map[string]int{"/admin/auth/refresh": http.StatusInternalServerError}})
	f.seedCookie(t, gateway.DefaultRefreshCookieName)
	require.NoError(t, f.store.Save(credentials.NewRecord(true, time.Now(), credentials.DefaultTTL)))

	require.False(t, f.client.Refresh(context.Background()))
	// Clearing on non-auth failures is the session manager's transition
	require.False(t, f.store.Empty())
}

func TestRefreshTimeout(t *testing.T) {
	f := setupClient(t,
		&stubBackend{delay: 200 * time.Millisecond},
		gateway.WithTimeouts(30*time.Millisecond, 30*time.Millisecond, 30*time.Millisecond),
	)
	f.seedCookie(t, gateway.DefaultRefreshCookieName)

	start := time.Now()
	require.False(t, f.client.Refresh(context.Background()))
	require.Less(t, time.Since(start), 150*time.Millisecond, "timeout must fire before the backend responds")
}

func TestLogoutSkippedWithoutAccessCookie(t *testing.T) {
	f := setupClient(t, &stubBackend{})

	f.client.Logout(context.Background())
	require.Zero(t, f.backend.hits.Load())
}

func TestLogoutSwallowsFailure(t *testing.T) {
	f := setupClient(t, &stubBackend{status: map[string]int{"/admin/auth/logout": http.StatusInternalServerError}})
	f.seedCookie(t, gateway.DefaultAccessCookieName)

	f.client.Logout(context.Background())
	require.Equal(t, int32(1), f.backend.hits.Load())
}

func TestFindEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/auth/find-email", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"admin@example.com"}`))
	}))
	defer server.Close()

	client, err := gateway.New(server.URL, storefakes.NewFakeStore())
	require.NoError(t, err)

	email, outcome := client.FindEmail(context.Background(), "010-0000-0000")
	require.Equal(t, gateway.OutcomeSuccess, outcome)
	require.Equal(t, "admin@example.com", email)
}

func TestFindPasswordPhoneMismatch(t *testing.T) {
	f := setupClient(t, &stubBackend{status: map[string]int{"/admin/auth/find-password": http.StatusBadRequest}})

	outcome := f.client.FindPassword(context.Background(), "010-9999-9999", "admin@example.com")
	require.Equal(t, gateway.OutcomeInvalidCredentials, outcome)
}

func TestNewValidation(t *testing.T) {
	_, err := gateway.New("http://api.shop.test", nil)
	require.Error(t, err)

	_, err = gateway.New("http://api.shop.test", storefakes.NewFakeStore(),
		gateway.WithHTTPClient(&http.Client{}))
	require.Error(t, err, "a client without a cookie jar must be rejected")
}
