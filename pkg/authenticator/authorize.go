// Package authenticator runs the authorization steps a host performs once a remote identity
// has authenticated.
package authenticator

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"

	"github.com/openshift/oauth-resource-server/pkg/api"
	"github.com/openshift/oauth-resource-server/pkg/audit"
	"github.com/openshift/oauth-resource-server/pkg/groupmapper"
	"github.com/openshift/oauth-resource-server/pkg/metrics"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external"
)

// Result is what the host needs to persist and log the user in.
type Result struct {
	Identifier string          `json:"identifier"`
	Username   string          `json:"username"`
	Email      string          `json:"email,omitempty"`
	Admin      bool            `json:"admin"`
	Active     bool            `json:"active"`
	ExpiresAt  metav1.Time     `json:"expiresAt,omitempty"`
	Expires    bool            `json:"expires"`
	Record     api.LocalRecord `json:"record"`

	// AddedGroups are the default groups the record was placed in by this authorization.
	AddedGroups []string `json:"addedGroups,omitempty"`
}

// Authorizer is the default IdentityAuthorizer.
type Authorizer struct {
	// ProviderName labels audit entries and metrics.
	ProviderName string
	// RequireActive denies identities without read access to the project.
	RequireActive bool
	// ApplyDefaultGroups places the record into DefaultGroups after merging.
	ApplyDefaultGroups bool
	DefaultGroups      []string
}

var _ IdentityAuthorizer = &Authorizer{}

// Authorize asks rs about identity and merges identity into current. Denials are returned as
// api.AuthorizationDeniedError, failures after the identity was known as
// api.AuthorizationFailedError.
func (a *Authorizer) Authorize(ctx context.Context, rs external.ResourceServer, identity api.RemoteIdentity, current api.LocalRecord) (*Result, error) {
	result, err := a.authorize(ctx, rs, identity, current)

	decision := audit.DecisionFor(err)
	username := ""
	if result != nil {
		username = result.Username
	}
	audit.Record(ctx, a.ProviderName, username, decision)
	metrics.RecordAuthorization(a.ProviderName, string(decision))

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *Authorizer) authorize(ctx context.Context, rs external.ResourceServer, identity api.RemoteIdentity, current api.LocalRecord) (*Result, error) {
	if err := rs.LoadUserDetails(ctx, identity); err != nil {
		return nil, err
	}

	result := &Result{
		Identifier: rs.OAuthIdentifier(identity),
		Username:   rs.UsernameFromUser(identity),
		Email:      rs.EmailFromUser(identity),
	}

	active, err := rs.UserIsActive(ctx, identity)
	if err != nil {
		return result, err
	}
	result.Active = active
	if !active && a.RequireActive {
		return result, api.NewAuthorizationDeniedError(identity, fmt.Errorf("user %s has no access to the project", result.Username))
	}

	admin, err := rs.UserShouldBeAdmin(ctx, identity)
	if err != nil {
		return result, err
	}
	result.Admin = admin

	if expiresAt, expires := rs.UserExpiresAt(identity); expires {
		result.ExpiresAt = metav1.NewTime(expiresAt)
		result.Expires = true
	}

	record, err := rs.UpdateUserRecord(ctx, identity, current)
	if err != nil {
		return result, api.NewAuthorizationFailedError(identity, fmt.Errorf("update local record of %s: %w", result.Username, err))
	}
	if a.ApplyDefaultGroups {
		if missing := groupmapper.MissingGroups(record, a.DefaultGroups); len(missing) > 0 {
			klog.FromContext(ctx).V(2).Info("adding user to default groups", "provider", a.ProviderName, audit.UsernameKey, result.Username, "groups", missing)
			result.AddedGroups = missing
		}
		record = groupmapper.ApplyDefaultGroups(record, a.DefaultGroups)
	}
	result.Record = record

	return result, nil
}
