// Package boltstore provides a BBolt-backed login-status record store.
package boltstore

import (
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/storefront-tools/admin-console/credentials"
)

const (
	bucketName = "credentials"
	recordKey  = "admin_login_status"
)

// Store implements credentials.Store backed by a BBolt database.
type Store struct {
	db      *bbolt.DB
	ownsDB  bool
	nowTime func() time.Time
	ttl     time.Duration
}

var _ credentials.Store = (*Store)(nil)

// Option modifies a Store instance.
type Option func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// WithTTL sets the freshness window used when upgrading legacy records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// New returns a Store backed by the given BBolt database.
func New(db *bbolt.DB, options ...Option) *Store {
	s := &Store{
		db:      db,
		nowTime: time.Now,
		ttl:     credentials.DefaultTTL,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Open opens a BBolt database at the given path and returns a Store that
// owns it. Close releases the database.
func Open(path string, options ...Option) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[boltstore.Open] bbolt.Open")
	}
	s := New(db, options...)
	s.ownsDB = true
	return s, nil
}

// DB exposes the underlying database so other local state (e.g. the
// persisted cookie jar) can share a single file.
func (s *Store) DB() *bbolt.DB {
	return s.db
}

// Close closes the underlying database when the Store owns it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// Save writes the record in its structured wire form.
func (s *Store) Save(record credentials.Record) error {
	raw, err := credentials.EncodeRecord(record)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] EncodeRecord")
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return b.Put([]byte(recordKey), raw)
	})
	return errors.Wrap(err, "[Store.Save] db.Update")
}

// Load reads the current record. A legacy bare-string value is decoded with
// a fresh expiry and immediately re-persisted in the structured form so the
// one-shot assumption is never repeated.
func (s *Store) Load() (credentials.Record, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if data := b.Get([]byte(recordKey)); data != nil {
			raw = append(raw, data...)
		}
		return nil
	})
	if err != nil {
		return credentials.Record{}, false, errors.Wrap(err, "[Store.Load] db.View")
	}
	if raw == nil {
		return credentials.Record{}, false, nil
	}

	record, encoding, err := credentials.DecodeRecord(raw, s.nowTime(), s.ttl)
	if err != nil {
		return credentials.Record{}, false, errors.Wrap(err, "[Store.Load] DecodeRecord")
	}
	if encoding == credentials.EncodingLegacyUpgraded {
		if err := s.Save(record); err != nil {
			return credentials.Record{}, false, errors.Wrap(err, "[Store.Load] persisting upgraded record")
		}
	}
	return record, true, nil
}

// Clear deletes the record. Never errors when nothing is stored.
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(recordKey))
	})
	return errors.Wrap(err, "[Store.Clear] db.Update")
}
