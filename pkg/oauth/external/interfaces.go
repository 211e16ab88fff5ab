// Package external implements authorization of users authenticated by an external OAuth
// identity provider against the provider platform's project permissions.
package external

import (
	"context"
	"time"

	"github.com/openshift/oauth-resource-server/pkg/api"
)

// Provider is a configured external OAuth identity provider. It is long lived and shared
// between requests; every authentication transaction gets its own ResourceServer.
type Provider interface {
	// Name returns the configured provider name
	Name() string
	// AuthorizationURL returns the URL the user is sent to in order to authenticate
	AuthorizationURL(state string) string
	// ExchangeCodeForIdentity trades the authorization code for the authenticated identity.
	// Errors are returned unchanged to the host.
	ExchangeCodeForIdentity(ctx context.Context, code string) (api.RemoteIdentity, error)
	// NewResourceServer returns a resource server for one authentication transaction of identity.
	// It returns an *api.IdentityTypeError when identity was produced by another implementation.
	NewResourceServer(ctx context.Context, identity api.RemoteIdentity) (ResourceServer, error)
}

// ResourceServer determines who an authenticated identity is locally and what it may do.
// An instance serves exactly one authentication transaction and is not safe for concurrent use.
//
// Methods taking an identity return an *api.IdentityTypeError when handed an identity of a
// type the implementation does not produce. No other error escapes the authorization
// predicates: failing to determine a permission is the same as having none.
type ResourceServer interface {
	// AuthorizationURL returns the URL requesting the minimal scopes the resource server needs
	AuthorizationURL(state string) string
	// OAuthIdentifier returns an identifier that is stable and unique across all configured providers
	OAuthIdentifier(identity api.RemoteIdentity) string

	// LoadUserDetails resolves the project permissions of identity. It performs the lookup at
	// most once per instance, memoizing failures as well as successes.
	LoadUserDetails(ctx context.Context, identity api.RemoteIdentity) error
	// UserShouldBeAdmin reports whether identity holds the configured admin permission level
	UserShouldBeAdmin(ctx context.Context, identity api.RemoteIdentity) (bool, error)
	// UserIsActive reports whether identity may read the configured project
	UserIsActive(ctx context.Context, identity api.RemoteIdentity) (bool, error)
	// UserExpiresAt returns the time the local account expires, if it does
	UserExpiresAt(identity api.RemoteIdentity) (time.Time, bool)

	// UsernameFromUser returns the local username for identity
	UsernameFromUser(identity api.RemoteIdentity) string
	// EmailFromUser returns the e-mail address of identity
	EmailFromUser(identity api.RemoteIdentity) string
	// UpdateUserRecord merges identity into current, initializing a new record when current is
	// absent or malformed. The record is not persisted.
	UpdateUserRecord(ctx context.Context, identity api.RemoteIdentity, current api.LocalRecord) (api.LocalRecord, error)
}
