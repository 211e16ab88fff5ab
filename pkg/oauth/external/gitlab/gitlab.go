// Package gitlab authorizes GitLab users by the role they hold on a project.
package gitlab

import (
	"context"
	"fmt"
	"net/http"

	gogitlab "github.com/xanzy/go-gitlab"
	"golang.org/x/oauth2"
	oauth2gitlab "golang.org/x/oauth2/gitlab"

	"github.com/openshift/oauth-resource-server/pkg/api"
	"github.com/openshift/oauth-resource-server/pkg/config"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external/lookupcache"
	"github.com/openshift/oauth-resource-server/pkg/usermapper"
)

const (
	gitlabAPIURL = "https://gitlab.com/api/v4"

	gitlabSelfHostedAuthorizeURL = "https://%s/oauth/authorize"
	gitlabSelfHostedTokenURL     = "https://%s/oauth/token"
	gitlabSelfHostedAPIURL       = "https://%s/api/v4"
)

var defaultScopes = []string{"read_user", "read_api"}

// Provider is a gitlab.com or self-hosted GitLab identity provider.
type Provider struct {
	providerName string
	oauthConfig  *oauth2.Config
	apiURL       string
	transport    http.RoundTripper

	settings external.ProjectSettings
}

var _ external.Provider = &Provider{}

// NewProvider returns a Provider for cfg. A nil transport uses http.DefaultTransport.
func NewProvider(cfg *config.ProviderConfig, transport http.RoundTripper, hasher usermapper.PasswordHasher) (*Provider, error) {
	endpoint := oauth2gitlab.Endpoint
	apiURL := gitlabAPIURL
	if len(cfg.Hostname) > 0 {
		endpoint = oauth2.Endpoint{
			AuthURL:  fmt.Sprintf(gitlabSelfHostedAuthorizeURL, cfg.Hostname),
			TokenURL: fmt.Sprintf(gitlabSelfHostedTokenURL, cfg.Hostname),
		}
		apiURL = fmt.Sprintf(gitlabSelfHostedAPIURL, cfg.Hostname)
	}

	scopes := defaultScopes
	if len(cfg.Scopes) > 0 {
		scopes = cfg.Scopes
	}
	if hasher == nil {
		hasher = usermapper.BcryptHasher{}
	}

	p := &Provider{
		providerName: cfg.Name,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
		},
		apiURL:    apiURL,
		transport: transport,
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
	exchangeCtx := ctx
	if p.transport != nil {
		exchangeCtx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: p.transport})
	}
	token, err := p.oauthConfig.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return p.IdentityFor(ctx, token)
}

// IdentityFor returns the identity of the user token was issued to.
func (p *Provider) IdentityFor(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	client, err := p.apiClient(token)
	if err != nil {
		return nil, err
	}

	user, _, err := client.Users.CurrentUser(gogitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get authenticated user: %w", err)
	}

	email := user.Email
	if len(email) == 0 {
		email = user.PublicEmail
	}
	return &Identity{
		ProviderName: p.providerName,
		ID:           user.ID,
		Username:     user.Username,
		Name:         user.Name,
		Email:        email,
		Token:        token,
	}, nil
}

func (p *Provider) NewResourceServer(ctx context.Context, identity api.RemoteIdentity) (external.ResourceServer, error) {
	glIdentity, err := p.identity(identity)
	if err != nil {
		return nil, err
	}

	var lookup external.PermissionLookup
	if len(p.settings.Project) > 0 {
		client, err := p.apiClient(glIdentity.Token)
		if err != nil {
			return nil, err
		}
		members := NewMemberGetter(client)
		lookup = func(ctx context.Context, identity api.RemoteIdentity) (*api.PermissionRecord, error) {
			return members.GetProjectMemberPermission(ctx, p.settings.Project, identity.(*Identity).ID)
		}
	}
	return external.NewProjectResourceServer(p.settings, lookup), nil
}

func (p *Provider) identity(identity api.RemoteIdentity) (*Identity, error) {
	glIdentity, ok := identity.(*Identity)
	if !ok || glIdentity == nil || glIdentity.ProviderName != p.providerName {
		return nil, &api.IdentityTypeError{Provider: p.providerName, Identity: identity}
	}
	return glIdentity, nil
}

func (p *Provider) apiClient(token *oauth2.Token) (*gogitlab.Client, error) {
	var accessToken string
	if token != nil {
		accessToken = token.AccessToken
	}

	options := []gogitlab.ClientOptionFunc{gogitlab.WithBaseURL(p.apiURL)}
	if p.transport != nil {
		options = append(options, gogitlab.WithHTTPClient(&http.Client{Transport: p.transport}))
	}
	client, err := gogitlab.NewOAuthClient(accessToken, options...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}
	return client, nil
}
