package api

// RemoteIdentity is the authenticated user as described by an external OAuth identity provider.
// Implementations are provider specific and immutable for the lifetime of one authentication.
type RemoteIdentity interface {
	// GetProviderName returns the name of the configured provider that produced the identity
	GetProviderName() string
	// GetRemoteID returns the identifier of the user in the provider's user space
	GetRemoteID() string
	// GetName returns the display name, which may be empty
	GetName() string
	// GetEmail returns the e-mail address, which may be empty
	GetEmail() string
	// GetHandle returns the provider specific login or nickname
	GetHandle() string
}

// Well known fields of a LocalRecord.
const (
	FieldUsername  = "username"
	FieldEmail     = "email"
	FieldRealName  = "realname"
	FieldOptions   = "options"
	FieldPassword  = "password"
	FieldPlacement = "placement"
	FieldGroups    = "groups"
)

// LocalRecord is the host application's representation of a user account, keyed by field name.
// Fields the resource server does not know about are carried through untouched.
type LocalRecord map[string]interface{}

// IsValid reports whether the record can be merged in place. A record without a password hash
// was never initialized and is replaced by a fresh shell.
func (r LocalRecord) IsValid() bool {
	if r == nil {
		return false
	}
	hash, ok := r[FieldPassword].(string)
	return ok && len(hash) > 0
}

// GetString returns the string value of field, or "" when it is unset or not a string.
func (r LocalRecord) GetString(field string) string {
	s, _ := r[field].(string)
	return s
}
