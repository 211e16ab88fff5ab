// Package groupmapper places local user records into the default groups configured for an
// identity provider. It is an explicit step the host application opts into; merging a record
// never assigns groups on its own.
package groupmapper

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/openshift/oauth-resource-server/pkg/api"
)

// GroupsFor returns the groups currently stored on record. Both []string and []interface{}
// values are understood, the latter being what decoded YAML or JSON records carry.
func GroupsFor(record api.LocalRecord) sets.String {
	groups := sets.NewString()
	switch v := record[api.FieldGroups].(type) {
	case []string:
		groups.Insert(v...)
	case []interface{}:
		for _, g := range v {
			if s, ok := g.(string); ok {
				groups.Insert(s)
			}
		}
	case string:
		if len(v) > 0 {
			groups.Insert(v)
		}
	}
	return groups
}

// ApplyDefaultGroups adds defaultGroups to the groups of record, keeping groups the record
// already belongs to. The record is updated in place and returned. Nil records are left alone.
func ApplyDefaultGroups(record api.LocalRecord, defaultGroups []string) api.LocalRecord {
	if record == nil || len(defaultGroups) == 0 {
		return record
	}

	groups := GroupsFor(record).Union(sets.NewString(defaultGroups...))
	record[api.FieldGroups] = groups.List()
	return record
}

// MissingGroups returns the default groups record does not belong to yet, sorted.
func MissingGroups(record api.LocalRecord, defaultGroups []string) []string {
	return sets.NewString(defaultGroups...).Difference(GroupsFor(record)).List()
}
