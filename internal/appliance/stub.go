//go:build !guestfs

package appliance

import (
	"fmt"

	"github.com/jbweber/anvil/internal/errdefs"
	"github.com/jbweber/anvil/internal/session"
)

// Factory is a session.Factory that always fails because this binary was
// built without libguestfs support.
func Factory() (session.Appliance, error) {
	return nil, fmt.Errorf("%w: built without the guestfs tag", errdefs.ErrBackendUnavailable)
}
