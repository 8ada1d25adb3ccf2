// Package configmap provides the configmap command group for inspecting
// and seeding the device configuration map.
package configmap

import (
	"github.com/spf13/cobra"

	"github.com/ffs-wifi/provisionee/internal/cmd/configmap/get"
	"github.com/ffs-wifi/provisionee/internal/cmd/configmap/list"
	"github.com/ffs-wifi/provisionee/internal/cmd/configmap/set"
	"github.com/ffs-wifi/provisionee/internal/cmdutil"
)

// NewCommand creates the configmap command group.
func NewCommand(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "configmap",
		Aliases: []string{"cm"},
		Short:   "Manage the device configuration map",
		Long: `Manage the device configuration map: the typed store of device
identity, locale and Device Setup Service entries the provisioning
session reads and writes.`,
	}

	cmd.AddCommand(get.NewCommand(f))
	cmd.AddCommand(set.NewCommand(f))
	cmd.AddCommand(list.NewCommand(f))

	return cmd
}
