package gitlab

import (
	"context"
	"fmt"

	gogitlab "github.com/xanzy/go-gitlab"

	"github.com/openshift/oauth-resource-server/pkg/api"
)

// MemberGetter looks up the access a user has on a project, including access
// inherited from parent groups.
type MemberGetter interface {
	GetProjectMemberPermission(ctx context.Context, project string, userID int) (*api.PermissionRecord, error)
}

type memberClient struct {
	client *gogitlab.Client
}

// NewMemberGetter returns a MemberGetter backed by the inherited project member endpoint.
func NewMemberGetter(client *gogitlab.Client) MemberGetter {
	return &memberClient{client: client}
}

func (c *memberClient) GetProjectMemberPermission(ctx context.Context, project string, userID int) (*api.PermissionRecord, error) {
	member, _, err := c.client.ProjectMembers.GetInheritedProjectMember(project, userID, gogitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get inherited member %d: %w", userID, err)
	}
	return permissionRecordFor(member.AccessLevel), nil
}

// permissionRecordFor translates a GitLab role into the permissions it implies.
// Reporters can read, developers can push.
func permissionRecordFor(level gogitlab.AccessLevelValue) *api.PermissionRecord {
	switch {
	case level >= gogitlab.OwnerPermissions:
		return api.NewPermissionRecord(api.PermissionAdmin.String())
	case level >= gogitlab.MaintainerPermissions:
		return api.NewPermissionRecord(api.PermissionMaintain.String())
	case level >= gogitlab.DeveloperPermissions:
		return api.NewPermissionRecord(api.PermissionWrite.String())
	case level >= gogitlab.ReporterPermissions:
		return api.NewPermissionRecord(api.PermissionRead.String())
	default:
		return api.NewPermissionRecord()
	}
}
