package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"user-hub/internal/domain"

	kratos "github.com/ory/kratos-client-go"
)

// DefaultUsernameTrait is the identity trait reported as the username.
const DefaultUsernameTrait = "email"

// KratosGateway implements domain.IdentityFetcher against Kratos
// /sessions/whoami for deployments where Kratos issues the session. The
// username comes from a single identity trait, which must hold the same value
// as the logged-in-user cookie for cached identities to be reused.
type KratosGateway struct {
	client        *kratos.APIClient
	cookie        string
	primaryDomain string
	usernameTrait string
}

// KratosOption configures a KratosGateway.
type KratosOption func(*KratosGateway)

// WithUsernameTrait selects the identity trait used as the username.
func WithUsernameTrait(trait string) KratosOption {
	return func(g *KratosGateway) {
		if trait != "" {
			g.usernameTrait = trait
		}
	}
}

// NewKratosGateway creates a gateway that forwards cookies to Kratos at
// baseURL. cookies must include the Kratos session cookie.
func NewKratosGateway(baseURL, primaryDomain string, httpClient *http.Client, cookies []*http.Cookie, opts ...KratosOption) *KratosGateway {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}
	configuration.HTTPClient = httpClient

	g := &KratosGateway{
		client:        kratos.NewAPIClient(configuration),
		cookie:        cookieHeader(cookies),
		primaryDomain: primaryDomain,
		usernameTrait: DefaultUsernameTrait,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fetch resolves the forwarded session into an identity.
func (g *KratosGateway) Fetch(ctx context.Context) (*domain.Fetched, error) {
	req := g.client.FrontendAPI.ToSession(ctx)
	if g.cookie != "" {
		req = req.Cookie(g.cookie)
	}

	session, resp, err := req.Execute()
	if err != nil {
		if resp == nil {
			return nil, domain.NewNetworkError(domain.TransportMessage(err))
		}
		switch {
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return nil, domain.NewNotLoggedIn("session rejected by kratos", resp.Status)
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil, domain.NewDecodingError(err.Error(), nil)
		default:
			return nil, domain.NewNetworkError(fmt.Sprintf("kratos returned status %d", resp.StatusCode))
		}
	}

	if session.Active != nil && !*session.Active {
		return nil, domain.NewNotLoggedIn("session inactive", nil)
	}
	if session.Identity == nil {
		return nil, domain.NewNotLoggedIn("session has no identity", nil)
	}

	raw := rawIdentityFromKratos(session.Identity, g.usernameTrait)
	return &domain.Fetched{
		Identity: domain.NewIdentity(raw, g.primaryDomain),
		Raw:      raw,
	}, nil
}

func rawIdentityFromKratos(identity *kratos.Identity, usernameTrait string) domain.RawIdentity {
	var raw domain.RawIdentity
	if traits, ok := identity.GetTraits().(map[string]interface{}); ok {
		raw.Username = stringField(traits, usernameTrait)
		raw.ItemName = stringField(traits, "itemname")
		raw.ScreenName = stringField(traits, "screenname")
	}
	if raw.ItemName == "" {
		raw.ItemName = "@" + identity.Id
	}

	if meta, ok := identity.GetMetadataPublic().(map[string]interface{}); ok {
		if privs, ok := meta["privs"].([]interface{}); ok {
			for _, p := range privs {
				if s, ok := p.(string); ok {
					raw.Privs = append(raw.Privs, s)
				}
			}
		}
	}
	return raw
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func cookieHeader(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
