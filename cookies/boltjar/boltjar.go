// Package boltjar provides a cookie jar that persists the backend session
// cookies in a BBolt database, so a short-lived console process sees the
// cookies a previous invocation was granted.
package boltjar

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

const bucketName = "cookies"

// storedCookie is the persisted subset of http.Cookie. Enough to restore
// the cookie into a fresh in-memory jar and to apply server-side expiry.
type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// Jar implements http.CookieJar. Reads are served from an in-memory
// cookiejar.Jar; writes for the configured backend host are additionally
// persisted.
type Jar struct {
	db      *bbolt.DB
	base    *url.URL
	nowTime func() time.Time

	mu     sync.Mutex
	inner  *cookiejar.Jar
	byName map[string]storedCookie
}

var _ http.CookieJar = (*Jar)(nil)

// Option modifies a Jar instance.
type Option func(*Jar)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(j *Jar) {
		j.nowTime = nowFunc
	}
}

// New returns a Jar persisting cookies for baseURL into db, restoring any
// previously persisted, unexpired cookies.
func New(db *bbolt.DB, baseURL string, options ...Option) (*Jar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[boltjar.New] url.Parse")
	}
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[boltjar.New] cookiejar.New")
	}
	j := &Jar{
		db:      db,
		base:    base,
		nowTime: time.Now,
		inner:   inner,
		byName:  make(map[string]storedCookie),
	}
	for _, opt := range options {
		opt(j)
	}
	if err := j.restore(); err != nil {
		return nil, errors.Wrap(err, "[boltjar.New] restore")
	}
	return j, nil
}

func (j *Jar) restore() error {
	var raw []byte
	err := j.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if data := b.Get([]byte(j.base.Host)); data != nil {
			raw = append(raw, data...)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	var stored []storedCookie
	if err := json.Unmarshal(raw, &stored); err != nil {
		// An unreadable jar is not fatal; the next login rewrites it
		return nil
	}

	now := j.nowTime()
	restored := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		if !sc.Expires.IsZero() && !now.Before(sc.Expires) {
			continue
		}
		j.byName[sc.Name] = sc
		restored = append(restored, &http.Cookie{
			Name:    sc.Name,
			Value:   sc.Value,
			Path:    sc.Path,
			Expires: sc.Expires,
		})
	}
	if len(restored) > 0 {
		j.inner.SetCookies(j.base, restored)
	}
	return nil
}

func (j *Jar) persistLocked() {
	stored := make([]storedCookie, 0, len(j.byName))
	for _, sc := range j.byName {
		stored = append(stored, sc)
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return
	}
	_ = j.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return b.Put([]byte(j.base.Host), raw)
	})
}

// SetCookies forwards to the in-memory jar, persisting cookies set for the
// backend host. Deletions (MaxAge<0 or an expiry in the past) remove the
// persisted copy.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	if u.Host != j.base.Host {
		return
	}
	now := j.nowTime()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !now.Before(c.Expires)) {
			delete(j.byName, c.Name)
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.byName[c.Name] = storedCookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Expires: expires,
		}
	}
	j.persistLocked()
}

// Cookies returns the unexpired cookies the in-memory jar would send to u.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}
