// Package cli implements the command-line interface for ffsprovisionee.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configmapcmd "github.com/ffs-wifi/provisionee/internal/cmd/configmap"
	"github.com/ffs-wifi/provisionee/internal/cmd/derivessid"
	"github.com/ffs-wifi/provisionee/internal/cmd/run"
	"github.com/ffs-wifi/provisionee/internal/cmdutil"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
	"github.com/ffs-wifi/provisionee/internal/version"
)

var (
	cfgFile   string
	configMap string
	noColor   bool
	verbosity int
	quiet     bool
	logAsJSON bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ffsprovisionee",
	Short: "Device-side Frustration-Free Setup Wi-Fi provisioning agent",
	Long: `ffsprovisionee runs the device side of Amazon's Frustration-Free
Setup Wi-Fi provisioning protocol: it derives the ephemeral setup
network, exchanges signed requests with the Device Setup Service
through a nearby provisioner, and transitions the device onto the
customer's home Wi-Fi with no user-entered credentials.

Get started:
  ffsprovisionee configmap set DeviceInformation.SerialNumber <serial>
  ffsprovisionee derive-ssid --private-key device.key
  ffsprovisionee run --private-key device.key --public-key device.pub \
      --device-type-public-key dpss.pub`,
	Version: version.Short(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		iostreams.ConfigureLogger()
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/ffsprovisionee/config.yaml)")

	// Configuration map path
	rootCmd.PersistentFlags().StringVar(&configMap, "configmap", "", "configuration map file (default: ~/.config/ffsprovisionee/configmap.yaml)")
	_ = viper.BindPFlag("configmap", rootCmd.PersistentFlags().Lookup("configmap"))

	// No color flag
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))

	// Verbosity flag
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v, -vv, -vvv)")
	_ = viper.BindPFlag("verbosity", rootCmd.PersistentFlags().Lookup("verbose"))

	// Quiet flag
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	// JSON log rendering
	rootCmd.PersistentFlags().BoolVar(&logAsJSON, "log-json", false, "render log lines as JSON")
	_ = viper.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("log-json"))

	// Version template
	rootCmd.SetVersionTemplate(version.Long() + "\n")

	// Add subcommands
	f := cmdutil.NewFactory()
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(run.NewCommand(f))
	rootCmd.AddCommand(configmapcmd.NewCommand(f))
	rootCmd.AddCommand(derivessid.NewCommand(f))
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version.Short())
			} else {
				fmt.Println(version.Long())
			}
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")

	return cmd
}

// initConfig reads in the config file and environment variables if set.
func initConfig() error {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		configDir := filepath.Join(home, ".config", "ffsprovisionee")
		viper.AddConfigPath(configDir)
		viper.AddConfigPath(home)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Default the configuration map next to the config file.
		viper.SetDefault("configmap", filepath.Join(configDir, "configmap.yaml"))
	}

	viper.SetEnvPrefix("FFS")
	viper.AutomaticEnv()

	// A missing config file is fine; everything has defaults.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}
