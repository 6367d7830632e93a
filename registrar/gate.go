package registrar

import (
	"fmt"
)

// Gate wraps op so it runs only after v verifies fp. denial returns
// ErrPermissionDenied without touching op, so a rejected call has no
// side effects.
func Gate(v *IdentityVerifier, fp string, op func() error) func() error {
	return func() error {
		if !v.Verify(fp) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, fp)
		}
		return op()
	}
}
