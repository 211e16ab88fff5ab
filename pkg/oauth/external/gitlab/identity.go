package gitlab

import (
	"strconv"

	"golang.org/x/oauth2"

	"github.com/openshift/oauth-resource-server/pkg/api"
)

// Identity is a GitLab user authenticated through a Provider.
type Identity struct {
	ProviderName string
	ID           int
	Username     string
	Name         string
	Email        string

	Token *oauth2.Token `json:"-"`
}

var _ api.RemoteIdentity = &Identity{}

func (i *Identity) GetProviderName() string { return i.ProviderName }
func (i *Identity) GetRemoteID() string     { return strconv.Itoa(i.ID) }
func (i *Identity) GetName() string         { return i.Name }
func (i *Identity) GetEmail() string        { return i.Email }
func (i *Identity) GetHandle() string       { return i.Username }
