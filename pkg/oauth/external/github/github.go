// Package github authorizes GitHub users by the permission they hold on a repository.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	gogithub "github.com/google/go-github/v56/github"
	"golang.org/x/oauth2"
	oauth2github "golang.org/x/oauth2/github"
	"k8s.io/klog/v2"

	"github.com/openshift/oauth-resource-server/pkg/api"
	"github.com/openshift/oauth-resource-server/pkg/config"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external/lookupcache"
	"github.com/openshift/oauth-resource-server/pkg/usermapper"
)

const (
	githubAPIURL = "https://api.github.com/"

	// Enterprise installations serve OAuth and the API from their own host
	githubEnterpriseAuthorizeURL = "https://%s/login/oauth/authorize"
	githubEnterpriseTokenURL     = "https://%s/login/oauth/access_token"
	githubEnterpriseAPIURL       = "https://%s/api/v3/"
)

// read:user to read the profile, user:email for users hiding their address
var defaultScopes = []string{"read:user", "user:email"}

// Provider is a GitHub (or GitHub Enterprise) identity provider.
type Provider struct {
	providerName string
	oauthConfig  *oauth2.Config
	apiURL       *url.URL
	transport    http.RoundTripper

	owner    string
	repo     string
	settings external.ProjectSettings
}

var _ external.Provider = &Provider{}

// NewProvider returns a Provider for cfg. When transport is nil, http.DefaultTransport is used
// for server to server calls.
func NewProvider(cfg *config.ProviderConfig, transport http.RoundTripper, hasher usermapper.PasswordHasher) (*Provider, error) {
	endpoint := oauth2github.Endpoint
	apiURL := githubAPIURL
	if len(cfg.Hostname) > 0 {
		endpoint = oauth2.Endpoint{
			AuthURL:   fmt.Sprintf(githubEnterpriseAuthorizeURL, cfg.Hostname),
			TokenURL:  fmt.Sprintf(githubEnterpriseTokenURL, cfg.Hostname),
			AuthStyle: oauth2.AuthStyleInParams,
		}
		apiURL = fmt.Sprintf(githubEnterpriseAPIURL, cfg.Hostname)
	}

	parsedAPIURL, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid hostname %q: %w", cfg.Hostname, err)
	}

	scopes := defaultScopes
	if len(cfg.Scopes) > 0 {
		scopes = cfg.Scopes
	}

	if hasher == nil {
		hasher = usermapper.BcryptHasher{}
	}

	owner, repo := cfg.ProjectPath()
	p := &Provider{
		providerName: cfg.Name,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
		},
		apiURL:    parsedAPIURL,
		transport: transport,
		owner:     owner,
		repo:      repo,
	}
	p.settings = external.ProjectSettings{
		ProviderName:     cfg.Name,
		Project:          cfg.Project,
		AdminLevel:       cfg.AdminPermissionLevel(),
		UserOption:       cfg.UserOption,
		Placement:        cfg.Placement,
		Hasher:           hasher,
		Cache:            lookupcache.New(cfg.PermissionCacheTTL.Duration),
		AuthorizationURL: p.AuthorizationURL,
		CheckIdentity: func(identity api.RemoteIdentity) error {
			_, err := p.identity(identity)
			return err
		},
	}
	return p, nil
}

func (p *Provider) Name() string {
	return p.providerName
}

func (p *Provider) AuthorizationURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state)
}

func (p *Provider) ExchangeCodeForIdentity(ctx context.Context, code string) (api.RemoteIdentity, error) {
	token, err := p.oauthConfig.Exchange(p.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return p.IdentityFor(ctx, token)
}

// IdentityFor returns the identity of the user token was issued to.
func (p *Provider) IdentityFor(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	client := p.apiClient(ctx, token)

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("get authenticated user: %w", err)
	}

	identity := &Identity{
		ProviderName: p.providerName,
		ID:           user.GetID(),
		Login:        user.GetLogin(),
		Name:         user.GetName(),
		Email:        user.GetEmail(),
		Token:        token,
	}

	// users hiding their address on the profile still expose it to user:email
	if len(identity.Email) == 0 {
		email, err := primaryEmail(ctx, client)
		if err != nil {
			klog.FromContext(ctx).V(4).Info("could not get e-mail of github user", "login", identity.Login, "err", err)
		}
		identity.Email = email
	}

	return identity, nil
}

func (p *Provider) NewResourceServer(ctx context.Context, identity api.RemoteIdentity) (external.ResourceServer, error) {
	ghIdentity, err := p.identity(identity)
	if err != nil {
		return nil, err
	}

	var lookup external.PermissionLookup
	if len(p.settings.Project) > 0 {
		permissions := NewPermissionGetter(p.apiClient(ctx, ghIdentity.Token))
		lookup = func(ctx context.Context, identity api.RemoteIdentity) (*api.PermissionRecord, error) {
			return permissions.GetCollaboratorPermission(ctx, p.owner, p.repo, identity.GetHandle())
		}
	}
	return external.NewProjectResourceServer(p.settings, lookup), nil
}

// identity narrows identity to the type this provider produces.
func (p *Provider) identity(identity api.RemoteIdentity) (*Identity, error) {
	ghIdentity, ok := identity.(*Identity)
	if !ok || ghIdentity == nil || ghIdentity.ProviderName != p.providerName {
		return nil, &api.IdentityTypeError{Provider: p.providerName, Identity: identity}
	}
	return ghIdentity, nil
}

// clientContext carries the provider transport into the oauth2 library.
func (p *Provider) clientContext(ctx context.Context) context.Context {
	if p.transport == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: p.transport})
}

func (p *Provider) apiClient(ctx context.Context, token *oauth2.Token) *gogithub.Client {
	client := gogithub.NewClient(oauth2.NewClient(p.clientContext(ctx), oauth2.StaticTokenSource(token)))
	client.BaseURL = p.apiURL
	return client
}

// primaryEmail prefers the primary verified address, then any verified one, then whatever
// comes first.
func primaryEmail(ctx context.Context, client *gogithub.Client) (string, error) {
	emails, _, err := client.Users.ListEmails(ctx, nil)
	if err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.GetPrimary() && e.GetVerified() {
			return e.GetEmail(), nil
		}
	}
	for _, e := range emails {
		if e.GetVerified() {
			return e.GetEmail(), nil
		}
	}
	if len(emails) > 0 {
		return emails[0].GetEmail(), nil
	}
	return "", fmt.Errorf("no e-mail address found")
}
