// Package config loads the identity provider configuration of the resource server.
package config

import (
	"fmt"
	"os"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"

	"github.com/openshift/oauth-resource-server/pkg/api"
)

const (
	ProviderTypeGitHub = "github"
	ProviderTypeGitLab = "gitlab"

	DefaultAdminLevel = "write"
	DefaultPlacement  = "users"
)

var knownProviderTypes = sets.NewString(ProviderTypeGitHub, ProviderTypeGitLab)

// Config is the root of the configuration file.
type Config struct {
	Providers []ProviderConfig `json:"providers"`
}

// ProviderConfig describes one configured identity provider. It is built once at startup and
// treated as immutable afterwards.
type ProviderConfig struct {
	// Name distinguishes this provider instance and namespaces the identifiers it produces.
	Name string `json:"name"`
	// Type selects the implementation, one of "github" or "gitlab".
	Type string `json:"type"`

	ClientID     string `json:"clientID"`
	ClientSecret string `json:"clientSecret,omitempty"`
	// ClientSecretEnv names an environment variable holding the client secret.
	ClientSecretEnv string `json:"clientSecretEnv,omitempty"`
	RedirectURI     string `json:"redirectURI"`

	// Hostname points at an enterprise or self-hosted installation. Empty means the public service.
	Hostname string `json:"hostname,omitempty"`
	// Scopes overrides the minimal scopes requested by the provider.
	Scopes []string `json:"scopes,omitempty"`

	// Project is the "owner/name" path of the project whose permissions gate the user.
	// Permission checks are skipped entirely when empty.
	Project string `json:"project,omitempty"`
	// AdminLevel is the lowest project permission that makes a user an administrator.
	AdminLevel string `json:"adminLevel,omitempty"`

	// DefaultGroups is a comma separated list of groups new users may be placed in.
	DefaultGroups string `json:"defaultGroups,omitempty"`
	// UserOption is stamped onto every merged local record.
	UserOption int `json:"userOption"`
	// Placement is stored on freshly created local records.
	Placement string `json:"placement,omitempty"`

	// PermissionCacheTTL enables sharing successful permission lookups across
	// authentication transactions. Zero disables it.
	PermissionCacheTTL metav1.Duration `json:"permissionCacheTTL,omitempty"`
}

// Load reads, defaults and validates the configuration file at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(content)
}

// Parse decodes YAML or JSON content, applies defaults and validates the result.
func Parse(content []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.UnmarshalStrict(content, c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	for i := range c.Providers {
		c.Providers[i].setDefaults()
	}

	if errs := c.Validate(); len(errs) > 0 {
		return nil, errs.ToAggregate()
	}
	return c, nil
}

func (p *ProviderConfig) setDefaults() {
	if len(p.AdminLevel) == 0 {
		p.AdminLevel = DefaultAdminLevel
	}
	if len(p.Placement) == 0 {
		p.Placement = DefaultPlacement
	}
	if len(p.ClientSecret) == 0 && len(p.ClientSecretEnv) > 0 {
		p.ClientSecret = os.Getenv(p.ClientSecretEnv)
	}
	p.Project = strings.Trim(strings.TrimSpace(p.Project), "/")
}

// Validate returns every problem found in the configuration.
func (c *Config) Validate() field.ErrorList {
	allErrs := field.ErrorList{}
	providersPath := field.NewPath("providers")

	if len(c.Providers) == 0 {
		allErrs = append(allErrs, field.Required(providersPath, "at least one provider must be configured"))
	}

	names := sets.NewString()
	for i := range c.Providers {
		fldPath := providersPath.Index(i)
		p := &c.Providers[i]

		if names.Has(p.Name) {
			allErrs = append(allErrs, field.Duplicate(fldPath.Child("name"), p.Name))
		}
		names.Insert(p.Name)

		allErrs = append(allErrs, p.Validate(fldPath)...)
	}
	return allErrs
}

// Validate checks a single provider configuration.
func (p *ProviderConfig) Validate(fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}

	switch {
	case len(p.Name) == 0:
		allErrs = append(allErrs, field.Required(fldPath.Child("name"), ""))
	case strings.Contains(p.Name, "|"):
		// "|" separates the provider name from the remote id in identifiers
		allErrs = append(allErrs, field.Invalid(fldPath.Child("name"), p.Name, `must not contain "|"`))
	}

	if !knownProviderTypes.Has(p.Type) {
		allErrs = append(allErrs, field.NotSupported(fldPath.Child("type"), p.Type, knownProviderTypes.List()))
	}

	if len(p.ClientID) == 0 {
		allErrs = append(allErrs, field.Required(fldPath.Child("clientID"), ""))
	}
	if len(p.ClientSecret) == 0 {
		allErrs = append(allErrs, field.Required(fldPath.Child("clientSecret"), "set clientSecret or clientSecretEnv"))
	}

	switch level, ok := api.ParsePermissionLevel(p.AdminLevel); {
	case !ok:
		allErrs = append(allErrs, field.Invalid(fldPath.Child("adminLevel"), p.AdminLevel, "unknown permission level"))
	case level == api.PermissionNone:
		// every project member would become an administrator
		allErrs = append(allErrs, field.Invalid(fldPath.Child("adminLevel"), p.AdminLevel, "must be read or above"))
	}

	if len(p.Project) > 0 {
		owner, name := p.ProjectPath()
		switch {
		case len(owner) == 0 || len(name) == 0:
			allErrs = append(allErrs, field.Invalid(fldPath.Child("project"), p.Project, "must be of the form owner/name"))
		case p.Type != ProviderTypeGitLab && strings.Contains(owner, "/"):
			// only GitLab nests projects in subgroups
			allErrs = append(allErrs, field.Invalid(fldPath.Child("project"), p.Project, "must be of the form owner/name, nested groups are only supported by gitlab"))
		}
	}

	if p.PermissionCacheTTL.Duration < 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("permissionCacheTTL"), p.PermissionCacheTTL.Duration.String(), "must not be negative"))
	}

	return allErrs
}

// ProjectPath splits Project into the owner namespace and the project name. Nested GitLab
// groups stay part of the owner.
func (p *ProviderConfig) ProjectPath() (owner, name string) {
	i := strings.LastIndex(p.Project, "/")
	if i < 0 {
		return "", p.Project
	}
	return p.Project[:i], p.Project[i+1:]
}

// AdminPermissionLevel returns the parsed admin threshold.
func (p *ProviderConfig) AdminPermissionLevel() api.PermissionLevel {
	level, ok := api.ParsePermissionLevel(p.AdminLevel)
	if !ok {
		return api.PermissionAdmin
	}
	return level
}

// Groups returns the parsed DefaultGroups list.
func (p *ProviderConfig) Groups() []string {
	return ParseGroupList(p.DefaultGroups)
}

// ParseGroupList splits a comma separated list, trimming entries and dropping empty ones.
func ParseGroupList(list string) []string {
	groups := []string{}
	for _, g := range strings.Split(list, ",") {
		if g = strings.TrimSpace(g); len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// Provider returns the configuration of the named provider.
func (c *Config) Provider(name string) (*ProviderConfig, error) {
	for i := range c.Providers {
		if c.Providers[i].Name == name {
			return &c.Providers[i], nil
		}
	}
	return nil, fmt.Errorf("no provider named %q is configured", name)
}
