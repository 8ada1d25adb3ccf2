// Package set provides the configmap set subcommand.
package set

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ffs-wifi/provisionee/internal/cmdutil"
	ffsconfig "github.com/ffs-wifi/provisionee/internal/ffs/configmap"
)

// NewCommand creates the configmap set command.
func NewCommand(f *cmdutil.Factory) *cobra.Command {
	var valueType string

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration map value",
		Long: `Set a typed configuration map value. Bytes values are given as
base64; the product index, for example, is the base64 of its 4 raw
octets.`,
		Example: `  # Seed the device identity
  ffsprovisionee configmap set DeviceInformation.ManufacturerName Amazon
  ffsprovisionee configmap set DeviceInformation.SerialNumber G030JU0660540206
  ffsprovisionee configmap set DeviceInformation.ProductIndex Q2J0Tg== --type bytes

  # Point the client at a test endpoint
  ffsprovisionee configmap set DSS.Port 8443 --type integer`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f, args[0], args[1], valueType)
		},
	}

	cmd.Flags().StringVarP(&valueType, "type", "t", "string", "value type (string|integer|boolean|bytes)")

	return cmd
}

func run(f *cmdutil.Factory, key, raw, valueType string) error {
	ios := f.IOStreams()

	var value ffsconfig.Value
	switch valueType {
	case "string":
		value = ffsconfig.StringValue(raw)
	case "integer", "int":
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing integer value: %w", err)
		}
		value = ffsconfig.IntegerValue(parsed)
	case "boolean", "bool":
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parsing boolean value: %w", err)
		}
		value = ffsconfig.BooleanValue(parsed)
	case "bytes":
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return fmt.Errorf("decoding base64 value: %w", err)
		}
		value = ffsconfig.BytesValue(decoded)
	default:
		return fmt.Errorf("unknown value type %q", valueType)
	}

	if err := f.ConfigMap().Set(key, value); err != nil {
		return err
	}
	ios.Success("Set %s", key)
	return nil
}
