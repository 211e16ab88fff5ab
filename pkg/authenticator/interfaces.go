package authenticator

import (
	"context"

	"github.com/openshift/oauth-resource-server/pkg/api"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external"
)

// IdentityAuthorizer decides whether an authenticated remote identity may log in and
// prepares the local record it logs in as.
type IdentityAuthorizer interface {
	Authorize(ctx context.Context, rs external.ResourceServer, identity api.RemoteIdentity, current api.LocalRecord) (*Result, error)
}
