// Package cmdutil provides shared infrastructure for CLI commands. It
// follows the gh CLI pattern of a lazily-initialized dependency factory
// so commands stay testable.
package cmdutil

import (
	"github.com/spf13/viper"

	"github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
)

// Factory provides dependencies to commands through lazy initialization.
type Factory struct {
	// IOStreams provides access to stdin/stdout/stderr and terminal
	// capabilities.
	IOStreams func() *iostreams.IOStreams

	// ConfigMap provides the device configuration map.
	ConfigMap func() *configmap.Manager

	ioStreams *iostreams.IOStreams
	configMap *configmap.Manager
}

// NewFactory creates a Factory with production dependencies.
func NewFactory() *Factory {
	f := &Factory{}

	f.IOStreams = func() *iostreams.IOStreams {
		if f.ioStreams == nil {
			f.ioStreams = iostreams.System()
		}
		return f.ioStreams
	}

	f.ConfigMap = func() *configmap.Manager {
		if f.configMap == nil {
			f.configMap = configmap.NewManager(viper.GetString("configmap"))
		}
		return f.configMap
	}

	return f
}

// NewTestFactory creates a Factory wired to the given doubles.
func NewTestFactory(ios *iostreams.IOStreams, cfg *configmap.Manager) *Factory {
	return &Factory{
		IOStreams: func() *iostreams.IOStreams { return ios },
		ConfigMap: func() *configmap.Manager { return cfg },
	}
}
