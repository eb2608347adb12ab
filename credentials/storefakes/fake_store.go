package storefakes

import (
	"sync"
	"time"

	"github.com/storefront-tools/admin-console/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store for tests. Raw values can be
// seeded with SetRaw to exercise the legacy decode path, and errors can be
// injected per operation.
type FakeStore struct {
	lock    sync.RWMutex
	raw     []byte
	nowTime func() time.Time
	ttl     time.Duration

	SaveErr  error
	LoadErr  error
	ClearErr error

	SaveCalls  int
	LoadCalls  int
	ClearCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		nowTime: time.Now,
		ttl:     credentials.DefaultTTL,
	}
}

// SetNowTime overrides the clock used for legacy upgrades.
func (fs *FakeStore) SetNowTime(nowFunc func() time.Time) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.nowTime = nowFunc
}

// SetRaw seeds the stored bytes directly, bypassing encoding.
func (fs *FakeStore) SetRaw(raw []byte) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.raw = append([]byte(nil), raw...)
}

// Raw returns the stored bytes, or nil when empty.
func (fs *FakeStore) Raw() []byte {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	if fs.raw == nil {
		return nil
	}
	return append([]byte(nil), fs.raw...)
}

// Empty reports whether nothing is stored.
func (fs *FakeStore) Empty() bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.raw == nil
}

func (fs *FakeStore) Save(record credentials.Record) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.SaveCalls++
	if fs.SaveErr != nil {
		return fs.SaveErr
	}
	raw, err := credentials.EncodeRecord(record)
	if err != nil {
		return err
	}
	fs.raw = raw
	return nil
}

func (fs *FakeStore) Load() (credentials.Record, bool, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.LoadCalls++
	if fs.LoadErr != nil {
		return credentials.Record{}, false, fs.LoadErr
	}
	if fs.raw == nil {
		return credentials.Record{}, false, nil
	}
	record, encoding, err := credentials.DecodeRecord(fs.raw, fs.nowTime(), fs.ttl)
	if err != nil {
		return credentials.Record{}, false, err
	}
	if encoding == credentials.EncodingLegacyUpgraded {
		raw, err := credentials.EncodeRecord(record)
		if err != nil {
			return credentials.Record{}, false, err
		}
		fs.raw = raw
	}
	return record, true, nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.ClearCalls++
	if fs.ClearErr != nil {
		return fs.ClearErr
	}
	fs.raw = nil
	return nil
}
