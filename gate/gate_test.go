package gate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/storefront-tools/admin-console/gate"
	"github.com/storefront-tools/admin-console/session"
	"github.com/stretchr/testify/require"
)

const testLoginPath = "/login"

type fakeSessions struct {
	state  session.State
	result bool
	calls  atomic.Int32
}

func (f *fakeSessions) State() session.State {
	return f.state
}

func (f *fakeSessions) IsAuthenticated(ctx context.Context) bool {
	f.calls.Add(1)
	return f.result
}

func protectedHandler(served *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		served.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("dashboard"))
	}
}

func TestOptimisticAdmitSkipsResolution(t *testing.T) {
	sessions := &fakeSessions{state: session.StateLoggedIn}
	g := gate.New(sessions, testLoginPath)

	var served atomic.Int32
	recorder := httptest.NewRecorder()
	g.Protect(protectedHandler(&served))(recorder, httptest.NewRequest(http.MethodGet, "/admin/products", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, int32(1), served.Load())
	require.Zero(t, sessions.calls.Load(), "optimistic path must not trigger verification")
}

func TestBlockedRequestAdmittedOnResolution(t *testing.T) {
	sessions := &fakeSessions{state: session.StateLoggedOut, result: true}
	g := gate.New(sessions, testLoginPath)

	var served atomic.Int32
	recorder := httptest.NewRecorder()
	g.Protect(protectedHandler(&served))(recorder, httptest.NewRequest(http.MethodGet, "/admin/products", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, int32(1), served.Load())
	require.Equal(t, int32(1), sessions.calls.Load())
}

func TestUnauthenticatedRequestRedirected(t *testing.T) {
	sessions := &fakeSessions{state: session.StateLoggedOut, result: false}
	g := gate.New(sessions, testLoginPath)

	var served atomic.Int32
	recorder := httptest.NewRecorder()
	g.Protect(protectedHandler(&served))(recorder, httptest.NewRequest(http.MethodGet, "/admin/products", nil))

	require.Equal(t, http.StatusSeeOther, recorder.Code)
	require.Equal(t, testLoginPath, recorder.Header().Get("Location"))
	require.Zero(t, served.Load(), "protected content must never render alongside the redirect")
}

func TestVerifyingStateBlocksUntilResolved(t *testing.T) {
	sessions := &fakeSessions{state: session.StateVerifying, result: false}
	g := gate.New(sessions, testLoginPath)

	var served atomic.Int32
	recorder := httptest.NewRecorder()
	g.Protect(protectedHandler(&served))(recorder, httptest.NewRequest(http.MethodGet, "/admin/products", nil))

	require.Equal(t, http.StatusSeeOther, recorder.Code)
	require.Equal(t, int32(1), sessions.calls.Load())
}

func TestCheck(t *testing.T) {
	require.True(t, gate.New(&fakeSessions{state: session.StateLoggedIn}, testLoginPath).Check(context.Background()))
	require.True(t, gate.New(&fakeSessions{state: session.StateLoggedOut, result: true}, testLoginPath).Check(context.Background()))
	require.False(t, gate.New(&fakeSessions{state: session.StateLoggedOut, result: false}, testLoginPath).Check(context.Background()))
}
