package resourceserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/openshift/oauth-resource-server/pkg/api"
	"github.com/openshift/oauth-resource-server/pkg/authenticator"
	"github.com/openshift/oauth-resource-server/pkg/crypto"
)

type AuthURLOptions struct {
	ConfigFile string
	Provider   string
	State      string
}

func NewAuthURLCommand(out io.Writer) (*cobra.Command, error) {
	options := &AuthURLOptions{}

	cmd := &cobra.Command{
		Use:   "auth-url",
		Short: "Print the URL a user authenticates at",
		RunE: func(c *cobra.Command, args []string) error {
			if err := options.Validate(); err != nil {
				return err
			}
			return options.Run(out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&options.State, "state", "", "OAuth state to embed in the URL. A random state is generated when empty.")
	if err := addProviderFlags(cmd, &options.ConfigFile, &options.Provider); err != nil {
		return nil, err
	}

	return cmd, nil
}

func (o *AuthURLOptions) Validate() error {
	return validateProviderFlags(o.ConfigFile, o.Provider)
}

func (o *AuthURLOptions) Run(out io.Writer) error {
	_, p, err := loadProvider(o.ConfigFile, o.Provider, nil)
	if err != nil {
		return err
	}

	state := o.State
	if len(state) == 0 {
		if state, err = crypto.RandomState(); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(out, p.AuthorizationURL(state))
	return err
}

type AuthorizeOptions struct {
	ConfigFile string
	Provider   string
	Code       string
	// RecordFile holds the current local record as YAML or JSON
	RecordFile string

	RequireActive      bool
	ApplyDefaultGroups bool

	// Transport overrides the transport used to reach the provider
	Transport http.RoundTripper
}

func NewAuthorizeCommand(ctx context.Context, out io.Writer) (*cobra.Command, error) {
	options := &AuthorizeOptions{RequireActive: true}

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Exchange an authorization code and authorize the user it belongs to",
		RunE: func(c *cobra.Command, args []string) error {
			if err := options.Validate(); err != nil {
				return err
			}
			return withExitCode(options.Run(ctx, out))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&options.Code, "code", "", "Authorization code returned to the redirect URI.")
	flags.StringVar(&options.RecordFile, "record", "", "Location of the current local user record.")
	flags.BoolVar(&options.RequireActive, "require-active", options.RequireActive, "Deny users without read access to the configured project.")
	flags.BoolVar(&options.ApplyDefaultGroups, "apply-default-groups", options.ApplyDefaultGroups, "Place the user in the default groups of the provider.")
	if err := cmd.MarkFlagRequired("code"); err != nil {
		return nil, err
	}
	if err := cmd.MarkFlagFilename("record", "yaml", "yml", "json"); err != nil {
		return nil, err
	}
	if err := addProviderFlags(cmd, &options.ConfigFile, &options.Provider); err != nil {
		return nil, err
	}

	return cmd, nil
}

func (o *AuthorizeOptions) Validate() error {
	if err := validateProviderFlags(o.ConfigFile, o.Provider); err != nil {
		return err
	}
	if len(o.Code) == 0 {
		return errors.New("--code is required for this command")
	}
	return nil
}

func (o *AuthorizeOptions) Run(ctx context.Context, out io.Writer) error {
	cfg, p, err := loadProvider(o.ConfigFile, o.Provider, o.Transport)
	if err != nil {
		return err
	}

	var current api.LocalRecord
	if len(o.RecordFile) > 0 {
		content, err := os.ReadFile(o.RecordFile)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(content, &current); err != nil {
			return fmt.Errorf("decode record %s: %w", o.RecordFile, err)
		}
	}

	identity, err := p.ExchangeCodeForIdentity(ctx, o.Code)
	if err != nil {
		return err
	}
	rs, err := p.NewResourceServer(ctx, identity)
	if err != nil {
		return err
	}

	authorizer := &authenticator.Authorizer{
		ProviderName:       p.Name(),
		RequireActive:      o.RequireActive,
		ApplyDefaultGroups: o.ApplyDefaultGroups,
		DefaultGroups:      cfg.Groups(),
	}
	result, err := authorizer.Authorize(ctx, rs, identity, current)
	if err != nil {
		return err
	}

	content, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	_, err = out.Write(content)
	return err
}

func addProviderFlags(cmd *cobra.Command, configFile, provider *string) error {
	flags := cmd.Flags()
	flags.StringVar(configFile, "config", "", "Location of the provider configuration file.")
	flags.StringVar(provider, "provider", "", "Name of the configured provider to use.")
	if err := cmd.MarkFlagFilename("config", "yaml", "yml"); err != nil {
		return err
	}
	if err := cmd.MarkFlagRequired("config"); err != nil {
		return err
	}
	return cmd.MarkFlagRequired("provider")
}

func validateProviderFlags(configFile, provider string) error {
	if len(configFile) == 0 {
		return errors.New("--config is required for this command")
	}
	if len(provider) == 0 {
		return errors.New("--provider is required for this command")
	}
	return nil
}
