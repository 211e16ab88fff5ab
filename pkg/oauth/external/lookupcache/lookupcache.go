// Package lookupcache shares successful permission lookups between authentication
// transactions of one provider for a bounded time.
package lookupcache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/openshift/oauth-resource-server/pkg/api"
)

// Cache holds permission records keyed by project and user. It is safe for concurrent use.
// A nil *Cache is a valid, always empty cache.
type Cache struct {
	records *gocache.Cache
}

// New returns a cache keeping records for ttl, or nil when ttl is not positive.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		return nil
	}
	return &Cache{records: gocache.New(ttl, 2*ttl)}
}

// Key builds the cache key of user on project.
func Key(project, user string) string {
	return strings.ToLower(project) + "\x00" + strings.ToLower(user)
}

// Get returns the cached record for key.
func (c *Cache) Get(key string) (*api.PermissionRecord, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.records.Get(key)
	if !ok {
		return nil, false
	}
	return copyRecord(v.(*api.PermissionRecord)), true
}

// Add stores record under key. Nil records are never stored.
func (c *Cache) Add(key string, record *api.PermissionRecord) {
	if c == nil || record == nil {
		return
	}
	c.records.SetDefault(key, copyRecord(record))
}

// Lookup returns the record cached under key, or runs lookup and caches its result when it
// succeeds. Errors are never cached, so a failed lookup is retried by the next transaction.
func (c *Cache) Lookup(key string, lookup func() (*api.PermissionRecord, error)) (record *api.PermissionRecord, cached bool, err error) {
	if record, ok := c.Get(key); ok {
		return record, true, nil
	}
	record, err = lookup()
	if err != nil {
		return nil, false, err
	}
	c.Add(key, record)
	return record, false, nil
}

// Len returns the number of cached records, including expired ones not yet evicted.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.records.ItemCount()
}

func copyRecord(r *api.PermissionRecord) *api.PermissionRecord {
	return &api.PermissionRecord{Permissions: r.Permissions.Union(nil)}
}
