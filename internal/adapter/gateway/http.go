package gateway

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// snippetBytes is how much of an undecodable body is kept as error detail.
const snippetBytes = 256

// NewHTTPClient returns a client with a tuned transport. jar may be nil.
func NewHTTPClient(timeout time.Duration, jar http.CookieJar) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		Jar:       jar,
	}
}

// NewSessionJar returns a cookie jar holding cookies for each of the given
// endpoints. Invalid endpoints are skipped.
func NewSessionJar(cookies []*http.Cookie, endpoints ...string) (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	for _, endpoint := range endpoints {
		u, err := url.Parse(endpoint)
		if err != nil || u.Host == "" {
			continue
		}
		jar.SetCookies(u, cookies)
	}
	return jar, nil
}

// readBody reads at most maxBodyBytes of r.
func readBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBodyBytes))
}

// snippet truncates an undecodable body for use as error detail.
func snippet(body []byte) string {
	if len(body) > snippetBytes {
		return string(body[:snippetBytes])
	}
	return string(body)
}

// WithJar returns a copy of base that sends cookies from jar. The copy shares
// base's transport.
func WithJar(base *http.Client, jar http.CookieJar) *http.Client {
	c := *base
	c.Jar = jar
	return &c
}
