package resourceserver

import (
	"fmt"
	"net/http"

	"github.com/openshift/oauth-resource-server/pkg/config"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external/github"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external/gitlab"
	"github.com/openshift/oauth-resource-server/pkg/usermapper"
)

// NewProvider builds the provider implementation selected by cfg.Type.
func NewProvider(cfg *config.ProviderConfig, transport http.RoundTripper) (external.Provider, error) {
	hasher := usermapper.BcryptHasher{}

	switch cfg.Type {
	case config.ProviderTypeGitHub:
		p, err := github.NewProvider(cfg, transport, hasher)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderTypeGitLab:
		p, err := gitlab.NewProvider(cfg, transport, hasher)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q", cfg.Type)
	}
}

func loadProvider(configFile, name string, transport http.RoundTripper) (*config.ProviderConfig, external.Provider, error) {
	c, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := c.Provider(name)
	if err != nil {
		return nil, nil, err
	}
	p, err := NewProvider(cfg, transport)
	if err != nil {
		return nil, nil, err
	}
	return cfg, p, nil
}
