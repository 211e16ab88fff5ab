package external

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"

	"github.com/openshift/oauth-resource-server/pkg/api"
	"github.com/openshift/oauth-resource-server/pkg/oauth/external/lookupcache"
)

type testIdentity struct {
	provider string
	handle   string
}

func (i testIdentity) GetProviderName() string { return i.provider }
func (i testIdentity) GetRemoteID() string     { return "12345" }
func (i testIdentity) GetName() string         { return "Hello World" }
func (i testIdentity) GetEmail() string        { return "hello@example.com" }
func (i testIdentity) GetHandle() string       { return i.handle }

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func newTestSettings() ProjectSettings {
	return ProjectSettings{
		ProviderName:     "gh",
		Project:          "openshift/oauth-server",
		AdminLevel:       api.PermissionWrite,
		UserOption:       1,
		Placement:        "users",
		Hasher:           fakeHasher{},
		AuthorizationURL: func(state string) string { return "https://example.org/authorize?state=" + state },
		CheckIdentity: func(identity api.RemoteIdentity) error {
			if i, ok := identity.(testIdentity); !ok || i.provider != "gh" {
				return &api.IdentityTypeError{Provider: "gh", Identity: identity}
			}
			return nil
		},
	}
}

// countingLookup returns record or err and counts its invocations.
func countingLookup(record *api.PermissionRecord, err error) (PermissionLookup, *int) {
	calls := 0
	return func(context.Context, api.RemoteIdentity) (*api.PermissionRecord, error) {
		calls++
		return record, err
	}, &calls
}

// logCapture collects the log lines written through the context logger.
type logCapture struct {
	lock  sync.Mutex
	lines []string
}

func (c *logCapture) context() context.Context {
	logger := funcr.New(func(prefix, args string) {
		c.lock.Lock()
		defer c.lock.Unlock()
		c.lines = append(c.lines, args)
	}, funcr.Options{Verbosity: 4})
	return klog.NewContext(context.Background(), logger)
}

func (c *logCapture) find(msg string) string {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, line := range c.lines {
		if strings.Contains(line, msg) {
			return line
		}
	}
	return ""
}

func TestProjectResourceServerPredicates(t *testing.T) {
	for _, tc := range [...]struct {
		name       string
		project    string
		record     *api.PermissionRecord
		err        error
		wantAdmin  bool
		wantActive bool
		wantCalls  int
	}{
		{name: "read and write", project: "o/r", record: api.NewPermissionRecord("read", "write"), wantAdmin: true, wantActive: true, wantCalls: 1},
		{name: "read only", project: "o/r", record: api.NewPermissionRecord("read"), wantActive: true, wantCalls: 1},
		{name: "admin implies read", project: "o/r", record: api.NewPermissionRecord("admin"), wantAdmin: true, wantActive: true, wantCalls: 1},
		{name: "lookup error", project: "o/r", err: errors.New("404 Not Found"), wantCalls: 1},
		{name: "nil record", project: "o/r", wantCalls: 1},
		{name: "no project", record: api.NewPermissionRecord("admin"), wantCalls: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			settings := newTestSettings()
			settings.Project = tc.project
			lookup, calls := countingLookup(tc.record, tc.err)
			rs := NewProjectResourceServer(settings, lookup)
			identity := testIdentity{provider: "gh", handle: "hello"}

			for i := 0; i < 3; i++ {
				admin, err := rs.UserShouldBeAdmin(context.Background(), identity)
				require.NoError(t, err)
				require.Equal(t, tc.wantAdmin, admin)

				active, err := rs.UserIsActive(context.Background(), identity)
				require.NoError(t, err)
				require.Equal(t, tc.wantActive, active)
			}
			require.Equal(t, tc.wantCalls, *calls)
		})
	}
}

func TestProjectResourceServerLogsLookupFailure(t *testing.T) {
	lookup, _ := countingLookup(nil, errors.New("connection reset by peer"))
	rs := NewProjectResourceServer(newTestSettings(), lookup)

	logs := &logCapture{}
	require.NoError(t, rs.LoadUserDetails(logs.context(), testIdentity{provider: "gh", handle: "hello"}))

	line := logs.find("treating user as having no permission")
	require.NotEmpty(t, line)
	require.Contains(t, line, `"provider"="gh"`)
	require.Contains(t, line, `"project"="openshift/oauth-server"`)
	require.Contains(t, line, `"handle"="hello"`)
	require.Contains(t, line, "connection reset by peer")
}

func TestProjectResourceServerLogsHighestPermission(t *testing.T) {
	lookup, _ := countingLookup(api.NewPermissionRecord("read", "triage", "maintain"), nil)
	rs := NewProjectResourceServer(newTestSettings(), lookup)

	logs := &logCapture{}
	require.NoError(t, rs.LoadUserDetails(logs.context(), testIdentity{provider: "gh", handle: "hello"}))

	line := logs.find("resolved project permission")
	require.Contains(t, line, `"permission"="maintain"`)
}

func TestProjectResourceServerSharedCache(t *testing.T) {
	settings := newTestSettings()
	settings.Cache = lookupcache.New(time.Minute)
	lookup, calls := countingLookup(api.NewPermissionRecord("write"), nil)
	identity := testIdentity{provider: "gh", handle: "hello"}

	for i := 0; i < 3; i++ {
		rs := NewProjectResourceServer(settings, lookup)
		admin, err := rs.UserShouldBeAdmin(context.Background(), identity)
		require.NoError(t, err)
		require.True(t, admin)
	}
	require.Equal(t, 1, *calls)
}

func TestProjectResourceServerIdentityType(t *testing.T) {
	lookup, calls := countingLookup(api.NewPermissionRecord("admin"), nil)
	rs := NewProjectResourceServer(newTestSettings(), lookup)
	foreign := testIdentity{provider: "gl", handle: "hello"}

	var typeErr *api.IdentityTypeError
	require.ErrorAs(t, rs.LoadUserDetails(context.Background(), foreign), &typeErr)
	_, err := rs.UserShouldBeAdmin(context.Background(), foreign)
	require.ErrorAs(t, err, &typeErr)
	_, err = rs.UserIsActive(context.Background(), foreign)
	require.ErrorAs(t, err, &typeErr)
	_, err = rs.UpdateUserRecord(context.Background(), foreign, nil)
	require.ErrorAs(t, err, &typeErr)
	require.Zero(t, *calls)
}

func TestProjectResourceServerProjection(t *testing.T) {
	rs := NewProjectResourceServer(newTestSettings(), nil)
	identity := testIdentity{provider: "gh", handle: strings.Repeat("x", 60)}

	require.Equal(t, "https://example.org/authorize?state=s", rs.AuthorizationURL("s"))
	require.Equal(t, "gh|12345", rs.OAuthIdentifier(identity))
	require.Len(t, rs.UsernameFromUser(identity), MaxUsernameLength)
	require.Equal(t, "hello@example.com", rs.EmailFromUser(identity))

	expiresAt, expires := rs.UserExpiresAt(identity)
	require.False(t, expires)
	require.True(t, expiresAt.IsZero())

	record, err := rs.UpdateUserRecord(context.Background(), identity, nil)
	require.NoError(t, err)
	require.Equal(t, "users", record[api.FieldPlacement])
	require.True(t, strings.HasPrefix(record.GetString(api.FieldPassword), "hashed:"))
	require.Equal(t, 1, record[api.FieldOptions])
}

func TestLookupError(t *testing.T) {
	cause := errors.New("404 Not Found")
	var err error = &LookupError{Provider: "gh", Project: "openshift/oauth-server", Handle: "hello", Err: cause}

	require.ErrorIs(t, err, cause)
	require.Equal(t, "provider gh could not look up the permission of hello on openshift/oauth-server: 404 Not Found", err.Error())

	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	require.Equal(t, "hello", lookupErr.Handle)
}
