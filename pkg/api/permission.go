package api

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// PermissionLevel orders the permissions a platform can grant on a project.
// A higher level implies every lower one.
type PermissionLevel int

const (
	PermissionNone PermissionLevel = iota
	PermissionRead
	PermissionTriage
	PermissionWrite
	PermissionMaintain
	PermissionAdmin
)

var permissionNames = map[PermissionLevel]string{
	PermissionNone:     "none",
	PermissionRead:     "read",
	PermissionTriage:   "triage",
	PermissionWrite:    "write",
	PermissionMaintain: "maintain",
	PermissionAdmin:    "admin",
}

func (l PermissionLevel) String() string {
	if name, ok := permissionNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParsePermissionLevel parses a level name case-insensitively.
func ParsePermissionLevel(name string) (PermissionLevel, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for level, n := range permissionNames {
		if n == name {
			return level, true
		}
	}
	return PermissionNone, false
}

// PermissionRecord is the result of a permission lookup for one user on one project.
type PermissionRecord struct {
	// Permissions holds the permission names reported by the platform, e.g. "read", "write".
	Permissions sets.String
}

// NewPermissionRecord returns a record holding the given permission names.
func NewPermissionRecord(permissions ...string) *PermissionRecord {
	return &PermissionRecord{Permissions: sets.NewString(permissions...)}
}

// Grants reports whether any held permission is at or above level.
// Unknown permission names grant nothing.
func (r *PermissionRecord) Grants(level PermissionLevel) bool {
	if r == nil {
		return false
	}
	for name := range r.Permissions {
		held, ok := ParsePermissionLevel(name)
		if ok && held != PermissionNone && held >= level {
			return true
		}
	}
	return false
}

// Highest returns the strongest known permission in the record.
func (r *PermissionRecord) Highest() PermissionLevel {
	highest := PermissionNone
	if r == nil {
		return highest
	}
	for name := range r.Permissions {
		if held, ok := ParsePermissionLevel(name); ok && held > highest {
			highest = held
		}
	}
	return highest
}
