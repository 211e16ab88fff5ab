package external

import "fmt"

// LookupError is a permission lookup that could not be completed. Resource servers treat it
// as holding no permission and only log it.
type LookupError struct {
	Provider string
	Project  string
	Handle   string

	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("provider %s could not look up the permission of %s on %s: %v", e.Provider, e.Handle, e.Project, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
