// Package marker reads the session cookie pair that marks a logged-in client.
package marker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"

	"user-hub/internal/domain"
)

// FromCookies builds a marker from a cookie lookup. Both cookies must exist;
// their values are not inspected beyond decoding the username hint.
func FromCookies(lookup func(name string) (*http.Cookie, bool)) domain.SessionMarker {
	user, hasUser := lookup(domain.UserCookieName)
	_, hasSig := lookup(domain.SigCookieName)
	if !hasUser || !hasSig {
		return domain.SessionMarker{}
	}
	return domain.SessionMarker{
		Present:      true,
		UsernameHint: domain.DecodeUsername(user.Value),
	}
}

// FromCookieList builds a marker from a list of cookies, such as those
// captured from an earlier request.
func FromCookieList(cookies []*http.Cookie) domain.SessionMarker {
	return FromCookies(func(name string) (*http.Cookie, bool) {
		for _, c := range cookies {
			if c.Name == name {
				return c, true
			}
		}
		return nil, false
	})
}

// FromRequest reads the marker carried by an inbound request.
func FromRequest(r *http.Request) domain.SessionMarker {
	return FromCookies(requestLookup(r))
}

func requestLookup(r *http.Request) func(string) (*http.Cookie, bool) {
	return func(name string) (*http.Cookie, bool) {
		c, err := r.Cookie(name)
		if err != nil {
			return nil, false
		}
		return c, true
	}
}

// SessionKey returns a stable, non-reversible key for the request's session
// cookies, including any of the extra named cookies it carries. ok is false
// when the request carries no session.
func SessionKey(r *http.Request, extra ...string) (key string, ok bool) {
	cookies := SessionCookies(r, extra...)
	if cookies == nil {
		return "", false
	}

	values := []string{cookies[0].Value, cookies[1].Value}
	for _, c := range cookies[2:] {
		values = append(values, c.Name+"="+c.Value)
	}
	return KeyFor(values...), true
}

// KeyFor hashes cookie values into a session key.
func KeyFor(values ...string) string {
	h := sha256.New()
	for i, v := range values {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(v))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SessionCookies returns the request's session cookie pair followed by any of
// the extra named cookies present, or nil when the request carries no session.
func SessionCookies(r *http.Request, extra ...string) []*http.Cookie {
	lookup := requestLookup(r)
	user, hasUser := lookup(domain.UserCookieName)
	sig, hasSig := lookup(domain.SigCookieName)
	if !hasUser || !hasSig {
		return nil
	}

	cookies := []*http.Cookie{
		{Name: user.Name, Value: user.Value},
		{Name: sig.Name, Value: sig.Value},
	}
	for _, name := range extra {
		if c, ok := lookup(name); ok {
			cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return cookies
}

// Static returns a fixed marker.
type Static domain.SessionMarker

// Read implements domain.MarkerReader.
func (s Static) Read(context.Context) domain.SessionMarker {
	return domain.SessionMarker(s)
}

// JarReader reads the marker from a cookie jar, as seen by requests to u.
type JarReader struct {
	jar http.CookieJar
	u   *url.URL
}

// NewJarReader creates a reader over the cookies jar would send to u.
func NewJarReader(jar http.CookieJar, u *url.URL) *JarReader {
	return &JarReader{jar: jar, u: u}
}

// Read implements domain.MarkerReader.
func (jr *JarReader) Read(context.Context) domain.SessionMarker {
	return FromCookieList(jr.jar.Cookies(jr.u))
}
