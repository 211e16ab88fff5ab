package github

import (
	"strconv"

	"golang.org/x/oauth2"

	"github.com/openshift/oauth-resource-server/pkg/api"
)

// Identity is a GitHub user authenticated through a Provider.
type Identity struct {
	ProviderName string
	ID           int64
	Login        string
	Name         string
	Email        string

	// Token authenticates calls to the GitHub API on behalf of the user.
	Token *oauth2.Token `json:"-"`
}

var _ api.RemoteIdentity = &Identity{}

func (i *Identity) GetProviderName() string { return i.ProviderName }
func (i *Identity) GetRemoteID() string     { return strconv.FormatInt(i.ID, 10) }
func (i *Identity) GetName() string         { return i.Name }
func (i *Identity) GetEmail() string        { return i.Email }
func (i *Identity) GetHandle() string       { return i.Login }
