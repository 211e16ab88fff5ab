package external

import (
	"github.com/openshift/oauth-resource-server/pkg/api"
)

type resolution int

const (
	unresolved resolution = iota
	resolvedWithRecord
	resolvedWithoutRecord
)

// PermissionCell memoizes the permission lookup of one authentication transaction.
// Once resolved it never resolves again, whatever the outcome was.
// The zero value is unresolved and ready to use.
type PermissionCell struct {
	state  resolution
	record *api.PermissionRecord
}

// Resolve runs lookup unless the cell is already resolved. A lookup error or a nil record
// resolves the cell without a record; the error is returned for logging only.
func (c *PermissionCell) Resolve(lookup func() (*api.PermissionRecord, error)) error {
	if c.state != unresolved {
		return nil
	}

	record, err := lookup()
	if err != nil || record == nil {
		c.state = resolvedWithoutRecord
		return err
	}
	c.state = resolvedWithRecord
	c.record = record
	return nil
}

// ResolveWithoutRecord resolves the cell to "no permission record" without a lookup.
func (c *PermissionCell) ResolveWithoutRecord() {
	if c.state == unresolved {
		c.state = resolvedWithoutRecord
	}
}

// Resolved reports whether a resolution happened.
func (c *PermissionCell) Resolved() bool {
	return c.state != unresolved
}

// Record returns the resolved permission record, if there is one.
func (c *PermissionCell) Record() (*api.PermissionRecord, bool) {
	return c.record, c.state == resolvedWithRecord
}

// Grants reports whether the resolved record grants level. Unresolved cells and cells
// resolved without a record grant nothing.
func (c *PermissionCell) Grants(level api.PermissionLevel) bool {
	record, ok := c.Record()
	return ok && record.Grants(level)
}
