package external

import (
	"context"
	"errors"
	"time"

	"k8s.io/klog/v2"

	"github.com/openshift/oauth-resource-server/pkg/api"
	"github.com/openshift/oauth-resource-server/pkg/metrics"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external/lookupcache"
	"github.com/openshift/oauth-resource-server/pkg/usermapper"
)

// PermissionLookup fetches the permission record of identity on the configured project.
// identity has already been checked to be of the provider's own type.
type PermissionLookup func(ctx context.Context, identity api.RemoteIdentity) (*api.PermissionRecord, error)

// ProjectSettings is the provider configuration a ProjectResourceServer works with.
type ProjectSettings struct {
	ProviderName string
	// Project is empty when users are only authenticated, never gated.
	Project    string
	AdminLevel api.PermissionLevel
	UserOption int
	Placement  string

	Hasher usermapper.PasswordHasher
	Cache  *lookupcache.Cache

	// AuthorizationURL builds the provider's authorization URL
	AuthorizationURL func(state string) string
	// CheckIdentity returns an *api.IdentityTypeError for identities of a foreign provider
	CheckIdentity func(identity api.RemoteIdentity) error
}

// ProjectResourceServer authorizes identities by their permission on a single project. The
// platform specific part is the PermissionLookup.
type ProjectResourceServer struct {
	settings ProjectSettings
	lookup   PermissionLookup
	cell     PermissionCell
}

var _ ResourceServer = &ProjectResourceServer{}

// NewProjectResourceServer returns a resource server for one authentication transaction.
// A nil lookup or an empty project skips permission lookups altogether.
func NewProjectResourceServer(settings ProjectSettings, lookup PermissionLookup) *ProjectResourceServer {
	return &ProjectResourceServer{settings: settings, lookup: lookup}
}

func (r *ProjectResourceServer) AuthorizationURL(state string) string {
	return r.settings.AuthorizationURL(state)
}

func (r *ProjectResourceServer) OAuthIdentifier(identity api.RemoteIdentity) string {
	return OAuthIdentifier(r.settings.ProviderName, identity.GetRemoteID())
}

// LoadUserDetails looks up the permission of identity on the project. The lookup runs at most
// once; failures count as holding no permission.
func (r *ProjectResourceServer) LoadUserDetails(ctx context.Context, identity api.RemoteIdentity) error {
	if err := r.settings.CheckIdentity(identity); err != nil {
		return err
	}
	if r.cell.Resolved() {
		return nil
	}

	s := r.settings
	if r.lookup == nil || len(s.Project) == 0 {
		r.cell.ResolveWithoutRecord()
		metrics.RecordPermissionLookup(s.ProviderName, metrics.SkippedResult)
		return nil
	}

	cached := false
	err := r.cell.Resolve(func() (*api.PermissionRecord, error) {
		record, hit, err := s.Cache.Lookup(lookupcache.Key(s.Project, identity.GetRemoteID()), func() (*api.PermissionRecord, error) {
			record, err := r.lookup(ctx, identity)
			if err != nil {
				return nil, &LookupError{Provider: s.ProviderName, Project: s.Project, Handle: identity.GetHandle(), Err: err}
			}
			return record, nil
		})
		cached = hit
		return record, err
	})

	logger := klog.FromContext(ctx)
	var lookupErr *LookupError
	switch {
	case errors.As(err, &lookupErr):
		logger.V(2).Info("treating user as having no permission", "provider", lookupErr.Provider, "project", lookupErr.Project, "handle", lookupErr.Handle, "err", lookupErr.Err)
		metrics.RecordPermissionLookup(s.ProviderName, metrics.FailResult)
		return nil
	case cached:
		metrics.RecordPermissionLookup(s.ProviderName, metrics.CachedResult)
	default:
		metrics.RecordPermissionLookup(s.ProviderName, metrics.SuccessResult)
	}

	record, _ := r.cell.Record()
	logger.V(4).Info("resolved project permission", "provider", s.ProviderName, "project", s.Project, "handle", identity.GetHandle(), "permission", record.Highest().String(), "cached", cached)
	return nil
}

func (r *ProjectResourceServer) UserShouldBeAdmin(ctx context.Context, identity api.RemoteIdentity) (bool, error) {
	if err := r.LoadUserDetails(ctx, identity); err != nil {
		return false, err
	}
	return r.cell.Grants(r.settings.AdminLevel), nil
}

// UserIsActive reports whether identity may read the project. Every level above read implies it.
func (r *ProjectResourceServer) UserIsActive(ctx context.Context, identity api.RemoteIdentity) (bool, error) {
	if err := r.LoadUserDetails(ctx, identity); err != nil {
		return false, err
	}
	return r.cell.Grants(api.PermissionRead), nil
}

// UserExpiresAt always reports no expiry.
func (r *ProjectResourceServer) UserExpiresAt(identity api.RemoteIdentity) (time.Time, bool) {
	return time.Time{}, false
}

func (r *ProjectResourceServer) UsernameFromUser(identity api.RemoteIdentity) string {
	return Username(r.settings.ProviderName, identity.GetHandle())
}

func (r *ProjectResourceServer) EmailFromUser(identity api.RemoteIdentity) string {
	return identity.GetEmail()
}

func (r *ProjectResourceServer) UpdateUserRecord(ctx context.Context, identity api.RemoteIdentity, current api.LocalRecord) (api.LocalRecord, error) {
	if err := r.settings.CheckIdentity(identity); err != nil {
		return nil, err
	}
	return usermapper.Merge(current, usermapper.Fields{
		Email:    r.EmailFromUser(identity),
		RealName: identity.GetName(),
		Username: r.UsernameFromUser(identity),
		Options:  r.settings.UserOption,
	}, r.settings.Placement, r.settings.Hasher)
}
