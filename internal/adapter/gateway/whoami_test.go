package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"user-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fooUserJSON = `{
	"success": true,
	"value": {
		"username": "foo@bar.com",
		"itemname": "@fooey",
		"screenname": "Foo-Bar",
		"privs": ["/"],
		"image_info": {"name": "foo.jpg", "mtime": "1624061460", "size": "12 KB", "rotation": "nope"}
	}
}`

func serveJSON(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

func TestWhoamiGateway_Success(t *testing.T) {
	server := serveJSON(t, http.StatusOK, fooUserJSON)

	gw := NewWhoamiGateway(server.URL, "", NewHTTPClient(5*time.Second, nil))
	fetched, err := gw.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "foo@bar.com", fetched.Identity.Username)
	assert.Equal(t, "@fooey", fetched.Identity.ItemName)
	assert.Equal(t, "fooey", fetched.Identity.UserKey)
	assert.Equal(t, "Foo-Bar", fetched.Identity.ScreenName)
	assert.Equal(t, []string{"/"}, fetched.Identity.Privileges)
	assert.False(t, fetched.Identity.IsPrimaryDomainUser)

	info := fetched.Identity.ImageInfo
	require.NotNil(t, info.MTime)
	assert.Equal(t, float64(1624061460), *info.MTime)
	require.NotNil(t, info.Size)
	assert.Equal(t, int64(12*1024), *info.Size)
	assert.Nil(t, info.Rotation)

	assert.Equal(t, "12 KB", fetched.Raw.ImageInfo.Size, "raw record is kept verbatim")
}

func TestWhoamiGateway_SendsSessionCookies(t *testing.T) {
	var gotUser, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(domain.UserCookieName); err == nil {
			gotUser = c.Value
		}
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fooUserJSON))
	}))
	defer server.Close()

	jar, err := NewSessionJar([]*http.Cookie{
		{Name: domain.UserCookieName, Value: "foo%40bar.com"},
		{Name: domain.SigCookieName, Value: "sig"},
	}, server.URL, "::not a url")
	require.NoError(t, err)

	gw := NewWhoamiGateway(server.URL, "", NewHTTPClient(5*time.Second, jar))
	_, err = gw.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "foo%40bar.com", gotUser)
	assert.Equal(t, "application/json", gotAccept)
}

func TestWhoamiGateway_NotLoggedIn(t *testing.T) {
	server := serveJSON(t, http.StatusUnauthorized, `{"success": false, "error": "Authentication failed"}`)

	gw := NewWhoamiGateway(server.URL, "", NewHTTPClient(5*time.Second, nil))
	fetched, err := gw.Fetch(context.Background())

	assert.Nil(t, fetched)
	var rerr *domain.ResolutionError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, domain.KindNotLoggedIn, rerr.Kind)
	assert.Equal(t, "Authentication failed", rerr.Message)
	assert.Equal(t, "Authentication failed", rerr.Detail)
}

func TestWhoamiGateway_SuccessWithoutValue(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"success": true}`)

	gw := NewWhoamiGateway(server.URL, "", NewHTTPClient(5*time.Second, nil))
	_, err := gw.Fetch(context.Background())

	assert.True(t, errors.Is(err, domain.ErrNotLoggedIn))
}

func TestWhoamiGateway_NetworkError(t *testing.T) {
	client := &http.Client{Transport: failingTransport{err: errors.New("oh dear")}}

	gw := NewWhoamiGateway("https://example.invalid/whoami", "", client)
	_, err := gw.Fetch(context.Background())

	var rerr *domain.ResolutionError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, domain.KindNetwork, rerr.Kind)
	assert.Equal(t, "oh dear", rerr.Message)
}

func TestWhoamiGateway_DecodingError(t *testing.T) {
	server := serveJSON(t, http.StatusOK, "boop")

	gw := NewWhoamiGateway(server.URL, "", NewHTTPClient(5*time.Second, nil))
	_, err := gw.Fetch(context.Background())

	var rerr *domain.ResolutionError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, domain.KindDecoding, rerr.Kind)
	assert.NotEmpty(t, rerr.Message)
	assert.Equal(t, "boop", rerr.Detail)
}

func TestWhoamiGateway_PrimaryDomain(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"success": true, "value": {"username": "boop@archive.org", "itemname": "@boop"}}`)

	gw := NewWhoamiGateway(server.URL, "", NewHTTPClient(5*time.Second, nil))
	fetched, err := gw.Fetch(context.Background())

	require.NoError(t, err)
	assert.True(t, fetched.Identity.IsPrimaryDomainUser)
}

func TestWhoamiGateway_DefaultEndpoint(t *testing.T) {
	gw := NewWhoamiGateway("", "", NewHTTPClient(time.Second, nil))
	assert.Equal(t, DefaultWhoamiURL, gw.Endpoint())

	custom := NewWhoamiGateway("https://foo.org/whoami", "", NewHTTPClient(time.Second, nil))
	assert.Equal(t, "https://foo.org/whoami", custom.Endpoint())
}
