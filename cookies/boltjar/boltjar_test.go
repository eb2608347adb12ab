package boltjar_test

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"github.com/storefront-tools/admin-console/cookies/boltjar"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://api.shop.test"

func openTestDB(t *testing.T, path string) *bbolt.DB {
	t.Helper()
	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func baseURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(testBaseURL)
	require.NoError(t, err)
	return u
}

func TestCookiesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	u := baseURL(t)

	db := openTestDB(t, path)
	jar, err := boltjar.New(db, testBaseURL)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{
		{Name: "refreshToken", Value: "opaque", Path: "/", Expires: time.Now().Add(24 * time.Hour)},
	})
	require.NoError(t, db.Close())

	db = openTestDB(t, path)
	reopened, err := boltjar.New(db, testBaseURL)
	require.NoError(t, err)

	got := reopened.Cookies(u)
	require.Len(t, got, 1)
	require.Equal(t, "refreshToken", got[0].Name)
	require.Equal(t, "opaque", got[0].Value)
}

func TestExpiredCookiesNotRestored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	u := baseURL(t)
	past := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	db := openTestDB(t, path)
	jar, err := boltjar.New(db, testBaseURL, boltjar.WithNowTime(func() time.Time { return past }))
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{
		{Name: "accessToken", Value: "opaque", Path: "/", Expires: past.Add(time.Hour)},
	})
	require.NoError(t, db.Close())

	db = openTestDB(t, path)
	reopened, err := boltjar.New(db, testBaseURL) // real clock, long after expiry
	require.NoError(t, err)
	require.Empty(t, reopened.Cookies(u))
}

func TestDeletionRemovesPersistedCookie(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	u := baseURL(t)

	db := openTestDB(t, path)
	jar, err := boltjar.New(db, testBaseURL)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{
		{Name: "refreshToken", Value: "opaque", Path: "/", Expires: time.Now().Add(24 * time.Hour)},
	})
	jar.SetCookies(u, []*http.Cookie{
		{Name: "refreshToken", Value: "", Path: "/", MaxAge: -1},
	})
	require.NoError(t, db.Close())

	db = openTestDB(t, path)
	reopened, err := boltjar.New(db, testBaseURL)
	require.NoError(t, err)
	require.Empty(t, reopened.Cookies(u))
}

func TestOtherHostsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	other, err := url.Parse("http://elsewhere.test")
	require.NoError(t, err)

	db := openTestDB(t, path)
	jar, err2 := boltjar.New(db, testBaseURL)
	require.NoError(t, err2)
	jar.SetCookies(other, []*http.Cookie{
		{Name: "tracking", Value: "x", Path: "/", Expires: time.Now().Add(24 * time.Hour)},
	})
	require.NoError(t, db.Close())

	db = openTestDB(t, path)
	reopened, err := boltjar.New(db, testBaseURL)
	require.NoError(t, err)
	require.Empty(t, reopened.Cookies(other))
}
