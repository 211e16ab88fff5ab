package github

import (
	"context"
	"errors"
	"fmt"

	gogithub "github.com/google/go-github/v56/github"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/openshift/oauth-resource-server/pkg/api"
)

// PermissionGetter looks up the permission a user holds on a repository.
type PermissionGetter interface {
	GetCollaboratorPermission(ctx context.Context, owner, repo, login string) (*api.PermissionRecord, error)
}

// collaboratorPermissions maps the boolean permissions GitHub reports for a
// collaborator onto permission names.
var collaboratorPermissions = map[string]string{
	"pull":     api.PermissionRead.String(),
	"triage":   api.PermissionTriage.String(),
	"push":     api.PermissionWrite.String(),
	"maintain": api.PermissionMaintain.String(),
	"admin":    api.PermissionAdmin.String(),
}

type collaboratorClient struct {
	client *gogithub.Client
}

// NewPermissionGetter returns a PermissionGetter backed by the collaborator permission endpoint.
func NewPermissionGetter(client *gogithub.Client) PermissionGetter {
	return &collaboratorClient{client: client}
}

func (c *collaboratorClient) GetCollaboratorPermission(ctx context.Context, owner, repo, login string) (*api.PermissionRecord, error) {
	level, _, err := c.client.Repositories.GetPermissionLevel(ctx, owner, repo, login)
	if err != nil {
		return nil, fmt.Errorf("get collaborator permission: %w", err)
	}
	if level == nil {
		return nil, errors.New("empty collaborator permission")
	}
	return permissionRecordFor(level), nil
}

func permissionRecordFor(level *gogithub.RepositoryPermissionLevel) *api.PermissionRecord {
	permissions := sets.NewString()
	if p := level.GetPermission(); len(p) > 0 && p != api.PermissionNone.String() {
		permissions.Insert(p)
	}
	if level.User != nil {
		for name, granted := range level.User.Permissions {
			if mapped, ok := collaboratorPermissions[name]; ok && granted {
				permissions.Insert(mapped)
			}
		}
	}
	return &api.PermissionRecord{Permissions: permissions}
}
