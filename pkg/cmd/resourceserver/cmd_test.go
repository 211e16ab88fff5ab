package resourceserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/openshift/oauth-resource-server/pkg/api"
	"github.com/openshift/oauth-resource-server/pkg/authenticator"
	"github.com/openshift/oauth-resource-server/pkg/config"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external/github"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external/gitlab"
)

const testConfig = `
providers:
- name: gh
  type: github
  clientID: my_client_id
  clientSecret: my_client_secret
  redirectURI: https://example.org/oauth2callback/gh
  project: openshift/oauth-server
  defaultGroups: "developers, users"
- name: gl
  type: gitlab
  clientID: my_client_id
  clientSecret: my_client_secret
`

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (rt roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req)
}

// newGithubFixture serves a user with the given repository permission.
func newGithubFixture(permission string) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		var v interface{}
		switch req.URL.Path {
		case "/login/oauth/access_token":
			v = map[string]string{"access_token": "my_token", "token_type": "bearer"}
		case "/user":
			v = map[string]interface{}{"id": 12345, "login": "hello", "name": "Hello World", "email": "hello@example.com"}
		case "/repos/openshift/oauth-server/collaborators/hello/permission":
			v = map[string]interface{}{"permission": permission}
		default:
			return nil, fmt.Errorf("this fixture does not serve the requested path: %s", req.URL.Path)
		}

		body := new(bytes.Buffer)
		if err := json.NewEncoder(body).Encode(v); err != nil {
			return nil, err
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     http.StatusText(http.StatusOK),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(body),
			Request:    req,
		}, nil
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewProvider(t *testing.T) {
	c, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)

	gh, err := NewProvider(&c.Providers[0], nil)
	require.NoError(t, err)
	require.IsType(t, &github.Provider{}, gh)
	require.Equal(t, "gh", gh.Name())

	gl, err := NewProvider(&c.Providers[1], nil)
	require.NoError(t, err)
	require.IsType(t, &gitlab.Provider{}, gl)

	_, err = NewProvider(&config.ProviderConfig{Name: "x", Type: "bitbucket"}, nil)
	require.Error(t, err)
}

func TestAuthURL(t *testing.T) {
	configFile := writeFile(t, "config.yaml", testConfig)

	out := &bytes.Buffer{}
	o := &AuthURLOptions{ConfigFile: configFile, Provider: "gh", State: "my_state"}
	require.NoError(t, o.Validate())
	require.NoError(t, o.Run(out))

	authURL, err := url.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Equal(t, "github.com", authURL.Host)
	require.Equal(t, "my_state", authURL.Query().Get("state"))

	out.Reset()
	o.State = ""
	require.NoError(t, o.Run(out))
	authURL, err = url.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Len(t, authURL.Query().Get("state"), 32)

	o.Provider = "missing"
	require.Error(t, o.Run(out))
}

func TestAuthorize(t *testing.T) {
	configFile := writeFile(t, "config.yaml", testConfig)
	recordFile := writeFile(t, "record.yaml", "password: $2a$10$existing\ngroups: [admins]\nlastLogin: yesterday\n")

	for _, tc := range [...]struct {
		name       string
		permission string
		record     string
		groups     bool

		wantDenied bool
		check      func(t *testing.T, result *authenticator.Result)
	}{
		{
			name:       "admin with new record",
			permission: "admin",
			check: func(t *testing.T, result *authenticator.Result) {
				require.True(t, result.Admin)
				require.True(t, result.Active)
				require.Equal(t, "gh|12345", result.Identifier)
				require.Equal(t, "gh_hello", result.Username)
				require.Equal(t, "users", result.Record[api.FieldPlacement])
				require.True(t, strings.HasPrefix(result.Record.GetString(api.FieldPassword), "$2a$"))
				require.NotContains(t, result.Record, api.FieldGroups)
			},
		},
		{
			name:       "reader with existing record and default groups",
			permission: "read",
			record:     recordFile,
			groups:     true,
			check: func(t *testing.T, result *authenticator.Result) {
				require.False(t, result.Admin)
				require.True(t, result.Active)
				require.Equal(t, "$2a$10$existing", result.Record[api.FieldPassword])
				require.Equal(t, "yesterday", result.Record["lastLogin"])
				require.Equal(t, []interface{}{"admins", "developers", "users"}, result.Record[api.FieldGroups])
			},
		},
		{
			name:       "no permission denied",
			permission: "none",
			wantDenied: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			o := &AuthorizeOptions{
				ConfigFile:         configFile,
				Provider:           "gh",
				Code:               "my_code",
				RecordFile:         tc.record,
				RequireActive:      true,
				ApplyDefaultGroups: tc.groups,
				Transport:          newGithubFixture(tc.permission),
			}
			require.NoError(t, o.Validate())

			err := o.Run(context.Background(), out)
			if tc.wantDenied {
				var denied api.AuthorizationDeniedError
				require.ErrorAs(t, err, &denied)
				return
			}
			require.NoError(t, err)

			result := &authenticator.Result{}
			require.NoError(t, yaml.Unmarshal(out.Bytes(), result))
			tc.check(t, result)
		})
	}
}

func TestValidate(t *testing.T) {
	require.Error(t, (&AuthURLOptions{Provider: "gh"}).Validate())
	require.Error(t, (&AuthURLOptions{ConfigFile: "c.yaml"}).Validate())
	require.Error(t, (&AuthorizeOptions{ConfigFile: "c.yaml", Provider: "gh"}).Validate())
	require.NoError(t, (&AuthorizeOptions{ConfigFile: "c.yaml", Provider: "gh", Code: "c"}).Validate())
}

func TestExitCode(t *testing.T) {
	denied := api.NewAuthorizationDeniedError(nil, fmt.Errorf("user gh_hello has no access to the project"))

	for _, tc := range [...]struct {
		name string
		err  error
		want int
	}{
		{name: "success", want: 0},
		{name: "failure", err: fmt.Errorf("exchange authorization code: boom"), want: 1},
		{name: "denied", err: withExitCode(fmt.Errorf("authorize: %w", denied)), want: DeniedExitCode},
		{name: "failure keeps its code", err: withExitCode(fmt.Errorf("boom")), want: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestAuthorizeCommandDenied(t *testing.T) {
	configFile := writeFile(t, "config.yaml", testConfig)
	o := &AuthorizeOptions{
		ConfigFile:    configFile,
		Provider:      "gh",
		Code:          "my_code",
		RequireActive: true,
		Transport:     newGithubFixture("none"),
	}

	err := withExitCode(o.Run(context.Background(), &bytes.Buffer{}))
	require.Equal(t, DeniedExitCode, ExitCode(err))

	var denied api.AuthorizationDeniedError
	require.ErrorAs(t, err, &denied)
}
