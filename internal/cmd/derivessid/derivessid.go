// Package derivessid provides the derive-ssid subcommand, an offline
// utility for bench-testing the setup-network derivation.
package derivessid

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ffs-wifi/provisionee/internal/cmdutil"
	"github.com/ffs-wifi/provisionee/internal/ffs/crypto"
	"github.com/ffs-wifi/provisionee/internal/ffs/setupnet"
)

// NewCommand creates the derive-ssid command.
func NewCommand(f *cmdutil.Factory) *cobra.Command {
	var (
		privateKeyPath   string
		privateKeyFormat string
	)

	cmd := &cobra.Command{
		Use:   "derive-ssid",
		Short: "Derive the encoded setup network offline",
		Long: `Derive the 1P Amazon encoded setup-network SSID and passphrase from
the configuration map and the device private key, without talking to
the Device Setup Service. The device public key, device-type public key
and product index must already be present in the configuration map.`,
		Example: `  ffsprovisionee derive-ssid --private-key device.key`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f, privateKeyPath, privateKeyFormat)
		},
	}

	cmd.Flags().StringVar(&privateKeyPath, "private-key", "", "device private key file (required)")
	cmdutil.AddKeyFormatFlag(cmd.Flags(), &privateKeyFormat, "private-key-format", "private key format (pem|der)")
	_ = cmd.MarkFlagRequired("private-key")

	return cmd
}

func run(f *cmdutil.Factory, privateKeyPath, privateKeyFormat string) error {
	ios := f.IOStreams()

	keyType, err := crypto.ParseKeyType(privateKeyFormat)
	if err != nil {
		return err
	}
	keyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", privateKeyPath, err)
	}
	privateKey, err := crypto.ParsePrivateKey(keyData, keyType)
	if err != nil {
		return err
	}

	network, err := setupnet.Derive(f.ConfigMap(), privateKey, nil)
	if err != nil {
		return err
	}

	ios.Printf("SSID:       %s\n", network.SSID)
	ios.Printf("Passphrase: %s\n", network.Key)
	ios.Printf("Security:   %s, hidden\n", network.Security)
	return nil
}
