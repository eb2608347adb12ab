// Package credentials holds the persisted login-status record: a durable,
// client-local cache of the last confirmed authentication state. The record
// is a cache of cookie-backed truth, not an independent source of
// authentication; only the session manager mutates it.
package credentials

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// DefaultTTL is how long a record stays fresh after being (re)confirmed by a
// successful login, refresh, or background validity check.
const DefaultTTL = 30 * time.Minute

var ErrUnreadableRecord = errors.New("unreadable login-status record")

// Record is the login-status record.
type Record struct {
	Authenticated bool
	ExpiresAt     time.Time
}

// NewRecord returns a confirmed record expiring ttl from now.
func NewRecord(authenticated bool, now time.Time, ttl time.Duration) Record {
	return Record{Authenticated: authenticated, ExpiresAt: now.Add(ttl)}
}

// Expired reports whether the record must be treated as stale.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Encoding tags which on-disk form a record was decoded from.
type Encoding int

const (
	// EncodingStructured is the current JSON form {"value":...,"expire":...}
	EncodingStructured Encoding = iota
	// EncodingLegacyUpgraded marks a record read from the legacy bare-string
	// form and upgraded with a freshly computed expiry. The assumption is
	// made for exactly one read; callers persist the structured form so it
	// is never repeated.
	EncodingLegacyUpgraded
)

// legacyTrue is the pre-record encoding: the bare string "true" with no
// expiry attached.
var legacyTrue = []byte("true")

// wireRecord is the JSON wire form. Value keeps the flag as a string and
// Expire is epoch milliseconds, matching what older console builds wrote.
type wireRecord struct {
	Value  string `json:"value"`
	Expire int64  `json:"expire"`
}

// EncodeRecord serialises a record into its structured wire form.
func EncodeRecord(r Record) ([]byte, error) {
	value := "false"
	if r.Authenticated {
		value = "true"
	}
	raw, err := json.Marshal(wireRecord{Value: value, Expire: r.ExpiresAt.UnixMilli()})
	if err != nil {
		return nil, errors.Wrap(err, "[EncodeRecord] json.Marshal")
	}
	return raw, nil
}

// DecodeRecord parses a stored record, falling back to the legacy bare-string
// encoding. A legacy "true" decodes as authenticated with ExpiresAt set to
// now+ttl and is tagged EncodingLegacyUpgraded so the upgrade is observable.
func DecodeRecord(raw []byte, now time.Time, ttl time.Duration) (Record, Encoding, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Record{}, EncodingStructured, errors.Wrap(ErrUnreadableRecord, "[DecodeRecord] empty value")
	}

	var wire wireRecord
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return Record{}, EncodingStructured, errors.Wrap(err, "[DecodeRecord] json.Unmarshal")
		}
		return Record{
			Authenticated: wire.Value == "true",
			ExpiresAt:     time.UnixMilli(wire.Expire),
		}, EncodingStructured, nil
	}

	// Legacy bare-string flag written by older console builds. Treat as
	// unknown-but-assume-fresh for this single read.
	if bytes.Equal(trimmed, legacyTrue) || bytes.Equal(trimmed, []byte(`"true"`)) {
		return NewRecord(true, now, ttl), EncodingLegacyUpgraded, nil
	}

	return Record{}, EncodingStructured, errors.Wrapf(ErrUnreadableRecord, "[DecodeRecord] %q", trimmed)
}
