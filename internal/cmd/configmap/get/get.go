// Package get provides the configmap get subcommand.
package get

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ffs-wifi/provisionee/internal/cmdutil"
	ffsconfig "github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// NewCommand creates the configmap get command.
func NewCommand(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration map value",
		Example: `  # Read the device serial number
  ffsprovisionee configmap get DeviceInformation.SerialNumber

  # Read the persisted DSS host
  ffsprovisionee configmap get DSS.Host`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f, args[0])
		},
	}

	return cmd
}

func run(f *cmdutil.Factory, key string) error {
	ios := f.IOStreams()

	value, err := f.ConfigMap().Get(key)
	if err != nil {
		if errors.Is(err, model.ErrNotImplemented) {
			return fmt.Errorf("configuration key %q not set", key)
		}
		return err
	}

	switch value.Type {
	case ffsconfig.TypeBytes:
		ios.Printf("%s\n", base64.StdEncoding.EncodeToString(value.Bytes))
	default:
		ios.Printf("%s\n", ffsconfig.FormatValue(value))
	}
	return nil
}
