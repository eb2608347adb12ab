package boltstore_test

import (
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"github.com/storefront-tools/admin-console/credentials"
	"github.com/storefront-tools/admin-console/credentials/boltstore"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T, path string) *boltstore.Store {
	t.Helper()
	store, err := boltstore.Open(path, boltstore.WithNowTime(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveLoadClear(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "state.db"))

	_, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)

	record := credentials.NewRecord(true, testNow, credentials.DefaultTTL)
	require.NoError(t, store.Save(record))

	loaded, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Authenticated)
	require.Equal(t, record.ExpiresAt.UnixMilli(), loaded.ExpiresAt.UnixMilli())

	require.NoError(t, store.Clear())
	_, ok, err = store.Load()
	require.NoError(t, err)
	require.False(t, ok)

	// Clearing an empty store is not an error
	require.NoError(t, store.Clear())
}

func TestDurableAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store := openTestStore(t, path)
	require.NoError(t, store.Save(credentials.NewRecord(true, testNow, credentials.DefaultTTL)))
	require.NoError(t, store.Close())

	reopened := openTestStore(t, path)
	loaded, ok, err := reopened.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Authenticated)
}

func TestLegacyValueUpgradedOnFirstLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	// Seed the legacy bare-string form the way an older build wrote it
	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte("credentials"))
		if err != nil {
			return err
		}
		return b.Put([]byte("admin_login_status"), []byte("true"))
	}))
	require.NoError(t, db.Close())

	store := openTestStore(t, path)
	loaded, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Authenticated)
	require.Equal(t, testNow.Add(30*time.Minute), loaded.ExpiresAt.UTC())

	// The upgrade is persisted: the raw value is now structured JSON
	require.NoError(t, store.Close())
	db, err = bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte("credentials")).Get([]byte("admin_login_status"))
		require.NotNil(t, raw)
		require.Equal(t, byte('{'), raw[0])
		return nil
	}))
}

func TestSharedDatabase(t *testing.T) {
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "state.db"), 0600, nil)
	require.NoError(t, err)
	defer db.Close()

	store := boltstore.New(db)
	require.NoError(t, store.Save(credentials.NewRecord(true, testNow, credentials.DefaultTTL)))

	// Close is a no-op for a store that does not own its database
	require.NoError(t, store.Close())
	_, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
}
