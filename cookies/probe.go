// Package cookies inspects the client's cookie jar for the presence of the
// backend session cookies. Values are opaque to the console; only presence
// is checked, the authoritative expiry lives in the login-status record.
package cookies

import (
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Probe checks the live cookie jar for named cookies. It never caches:
// cookies can be invalidated or renewed by the server independent of any
// in-memory state.
type Probe struct {
	jar         http.CookieJar
	base        *url.URL
	accessName  string
	refreshName string
}

// NewProbe returns a probe scoped to the cookies the jar would send to
// baseURL.
func NewProbe(jar http.CookieJar, baseURL, accessName, refreshName string) (*Probe, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewProbe] url.Parse")
	}
	return &Probe{
		jar:         jar,
		base:        base,
		accessName:  accessName,
		refreshName: refreshName,
	}, nil
}

// Has reports whether a non-empty cookie with the given name is currently
// in the jar.
func (p *Probe) Has(name string) bool {
	for _, c := range p.jar.Cookies(p.base) {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

// AccessPresent reports whether the short-lived access cookie is present.
func (p *Probe) AccessPresent() bool {
	return p.Has(p.accessName)
}

// RefreshPresent reports whether the longer-lived refresh cookie is present.
func (p *Probe) RefreshPresent() bool {
	return p.Has(p.refreshName)
}
