// Package usermapper merges remote identity information into local user records.
package usermapper

import (
	"fmt"

	"github.com/openshift/oauth-resource-server/pkg/api"
	"github.com/openshift/oauth-resource-server/pkg/crypto"
)

// Fields are the values a resource server derives from a remote identity.
type Fields struct {
	Email    string
	RealName string
	Username string
	Options  int
}

// NewRecord returns a fresh record shell. Provider authenticated accounts never use their
// local password, but the storage schema requires a hash, so one is computed from a random seed.
func NewRecord(placement string, hasher PasswordHasher) (api.LocalRecord, error) {
	seed, err := crypto.RandomSeed()
	if err != nil {
		return nil, fmt.Errorf("generate password seed: %w", err)
	}
	hash, err := hasher.Hash(seed)
	if err != nil {
		return nil, fmt.Errorf("hash password seed: %w", err)
	}
	return api.LocalRecord{
		api.FieldPlacement: placement,
		api.FieldPassword:  hash,
	}, nil
}

// Merge overlays fields onto current. Absent or malformed records are replaced by a shell from
// NewRecord; valid records are updated in place and every other field is preserved.
// The result is not persisted.
func Merge(current api.LocalRecord, fields Fields, placement string, hasher PasswordHasher) (api.LocalRecord, error) {
	record := current
	if !record.IsValid() {
		shell, err := NewRecord(placement, hasher)
		if err != nil {
			return nil, err
		}
		record = shell
	}

	record[api.FieldEmail] = fields.Email
	record[api.FieldRealName] = fields.RealName
	record[api.FieldUsername] = fields.Username
	record[api.FieldOptions] = fields.Options

	return record, nil
}
