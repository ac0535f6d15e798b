package domain

import (
	"net/url"
	"strings"

	"user-hub/internal/domain/fieldparse"
)

// Cookie names that together mark a browser session.
const (
	UserCookieName = "logged-in-user"
	SigCookieName  = "logged-in-sig"
)

// DefaultPrimaryDomain is the email domain that marks staff accounts.
const DefaultPrimaryDomain = "archive.org"

// SessionMarker describes the client-held session signals. It is read fresh on
// every resolution and never stored.
type SessionMarker struct {
	Present      bool
	UsernameHint string
}

// RawImageInfo is the wire form of a profile picture record. Numeric fields
// arrive string-encoded.
type RawImageInfo struct {
	Name     string `json:"name,omitempty"`
	Source   string `json:"source,omitempty"`
	MTime    string `json:"mtime,omitempty"`
	Size     string `json:"size,omitempty"`
	MD5      string `json:"md5,omitempty"`
	CRC32    string `json:"crc32,omitempty"`
	SHA1     string `json:"sha1,omitempty"`
	Format   string `json:"format,omitempty"`
	Rotation string `json:"rotation,omitempty"`
}

// RawIdentity is the whoami payload as sent by the server. It is what gets
// cached, so that a later read re-derives the Identity the same way.
type RawIdentity struct {
	Username   string        `json:"username"`
	ItemName   string        `json:"itemname"`
	ScreenName string        `json:"screenname"`
	Privs      []string      `json:"privs"`
	ImageInfo  *RawImageInfo `json:"image_info,omitempty"`
}

// ImageInfo describes the user's profile picture. Nil numeric fields were
// absent or unparsable on the wire.
type ImageInfo struct {
	Name     string   `json:"name,omitempty"`
	Source   string   `json:"source,omitempty"`
	MTime    *float64 `json:"mtime,omitempty"`
	Size     *int64   `json:"size,omitempty"`
	MD5      string   `json:"md5,omitempty"`
	CRC32    string   `json:"crc32,omitempty"`
	SHA1     string   `json:"sha1,omitempty"`
	Format   string   `json:"format,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// Identity is the resolved current user. All derived fields are computed once
// in NewIdentity.
type Identity struct {
	Username            string    `json:"username"`
	ItemName            string    `json:"itemname"`
	UserKey             string    `json:"userid"`
	ScreenName          string    `json:"screenname"`
	Privileges          []string  `json:"privs"`
	ImageInfo           ImageInfo `json:"image_info"`
	IsPrimaryDomainUser bool      `json:"is_primary_domain_user"`
}

// Fetched is a successful whoami round-trip: the derived identity plus the
// raw record the caller may persist.
type Fetched struct {
	Identity *Identity
	Raw      RawIdentity
}

// NewIdentity derives an Identity from its wire record.
func NewIdentity(raw RawIdentity, primaryDomain string) *Identity {
	if primaryDomain == "" {
		primaryDomain = DefaultPrimaryDomain
	}

	privs := make([]string, len(raw.Privs))
	copy(privs, raw.Privs)

	return &Identity{
		Username:            raw.Username,
		ItemName:            raw.ItemName,
		UserKey:             strings.TrimPrefix(raw.ItemName, "@"),
		ScreenName:          raw.ScreenName,
		Privileges:          privs,
		ImageInfo:           NewImageInfo(raw.ImageInfo),
		IsPrimaryDomainUser: strings.HasSuffix(raw.Username, "@"+primaryDomain),
	}
}

// NewImageInfo coerces the string-encoded fields of raw. A nil raw record
// yields the zero ImageInfo.
func NewImageInfo(raw *RawImageInfo) ImageInfo {
	if raw == nil {
		return ImageInfo{}
	}

	info := ImageInfo{
		Name:   raw.Name,
		Source: raw.Source,
		MD5:    raw.MD5,
		CRC32:  raw.CRC32,
		SHA1:   raw.SHA1,
		Format: raw.Format,
	}
	if v, ok := fieldparse.ParseNumber(raw.MTime); ok {
		info.MTime = &v
	}
	if v, ok := fieldparse.ParseBytes(raw.Size); ok {
		info.Size = &v
	}
	if v, ok := fieldparse.ParseNumber(raw.Rotation); ok {
		info.Rotation = &v
	}
	return info
}

// DecodeUsername reverses the URL encoding browsers apply to the
// logged-in-user cookie. Malformed escapes leave the value untouched.
func DecodeUsername(v string) string {
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}

// UsernameMatches reports whether a cached username belongs to the session
// whose hint was already decoded by the marker reader.
func UsernameMatches(username, hint string) bool {
	return username == hint
}
