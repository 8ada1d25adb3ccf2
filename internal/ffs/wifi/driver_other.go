//go:build !linux

package wifi

import (
	"fmt"

	"github.com/ffs-wifi/provisionee/internal/iostreams"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// NewPlatformDriver is only implemented for Linux NetworkManager hosts.
func NewPlatformDriver(logger *iostreams.Logger) (Driver, error) {
	_ = logger
	return nil, fmt.Errorf("%w: no Wi-Fi driver for this platform", model.ErrNotImplemented)
}
