// Package list provides the configmap list subcommand.
package list

import (
	"github.com/spf13/cobra"

	"github.com/ffs-wifi/provisionee/internal/cmdutil"
	ffsconfig "github.com/ffs-wifi/provisionee/internal/ffs/configmap"
)

// NewCommand creates the configmap list command.
func NewCommand(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configuration map entries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}

	return cmd
}

func run(f *cmdutil.Factory) error {
	ios := f.IOStreams()
	cfg := f.ConfigMap()

	keys, err := cfg.Keys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		ios.Info("Configuration map is empty")
		return nil
	}

	for _, key := range keys {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		ios.Printf("%-45s %s\n", key, ffsconfig.FormatValue(value))
	}
	ios.Count("key", len(keys))
	return nil
}
