// Package run provides the run subcommand that executes one complete
// provisioning session.
package run

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ffs-wifi/provisionee/internal/cmdutil"
	"github.com/ffs-wifi/provisionee/internal/errutil"
	"github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/ffs/crypto"
	"github.com/ffs-wifi/provisionee/internal/ffs/provisionee"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
	"github.com/ffs-wifi/provisionee/internal/model"
)

type options struct {
	privateKeyPath      string
	privateKeyFormat    string
	publicKeyPath       string
	publicKeyFormat     string
	deviceTypeKeyPath   string
	deviceTypeKeyFormat string
	certificatePath     string
	certificateFormat   string
	dssHost             string
	dssPort             int
	probeHost           string
}

// NewCommand creates the run command.
func NewCommand(f *cmdutil.Factory) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one provisioning session",
		Long: `Run one complete Frustration-Free Setup provisioning session:
derive the setup network, talk to the Device Setup Service and join the
customer's Wi-Fi.

The device identity (manufacturer, model, serial, product index) is read
from the configuration map; seed it with "ffsprovisionee configmap set"
before the first run.`,
		Example: `  # Provision with PEM key material
  ffsprovisionee run --private-key device.key --public-key device.pub \
      --device-type-public-key dpss.pub

  # Target a test endpoint
  ffsprovisionee run --private-key device.key --public-key device.pub \
      --device-type-public-key dpss.pub --dss-host localhost --dss-port 8443`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, f, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.privateKeyPath, "private-key", "", "device private key file (required)")
	cmdutil.AddKeyFormatFlag(flags, &opts.privateKeyFormat, "private-key-format", "private key format (pem|der)")
	flags.StringVar(&opts.publicKeyPath, "public-key", "", "device public key file (required)")
	cmdutil.AddKeyFormatFlag(flags, &opts.publicKeyFormat, "public-key-format", "public key format (pem|der)")
	flags.StringVar(&opts.deviceTypeKeyPath, "device-type-public-key", "", "device-type cloud public key file (required)")
	cmdutil.AddKeyFormatFlag(flags, &opts.deviceTypeKeyFormat, "device-type-public-key-format", "device-type key format (pem|der)")
	flags.StringVar(&opts.certificatePath, "certificate", "", "device certificate chain file (PEM)")
	cmdutil.AddKeyFormatFlag(flags, &opts.certificateFormat, "certificate-format", "certificate format (must be pem)")
	flags.StringVar(&opts.dssHost, "dss-host", "", "override the Device Setup Service host")
	flags.IntVar(&opts.dssPort, "dss-port", 0, "override the Device Setup Service port")
	flags.StringVar(&opts.probeHost, "probe-host", "", "host resolved to verify connectivity after association")

	_ = cmd.MarkFlagRequired("private-key")
	_ = cmd.MarkFlagRequired("public-key")
	_ = cmd.MarkFlagRequired("device-type-public-key")

	return cmd
}

func loadKeyMaterial(path, format string) (provisionee.KeyMaterial, error) {
	if path == "" {
		return provisionee.KeyMaterial{}, nil
	}
	keyType, err := crypto.ParseKeyType(format)
	if err != nil {
		return provisionee.KeyMaterial{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return provisionee.KeyMaterial{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return provisionee.KeyMaterial{Data: data, Type: keyType}, nil
}

func runSession(cmd *cobra.Command, f *cmdutil.Factory, opts *options) error {
	ios := f.IOStreams()
	cfg := f.ConfigMap()

	privateKey, err := loadKeyMaterial(opts.privateKeyPath, opts.privateKeyFormat)
	if err != nil {
		return err
	}
	publicKey, err := loadKeyMaterial(opts.publicKeyPath, opts.publicKeyFormat)
	if err != nil {
		return err
	}
	deviceTypeKey, err := loadKeyMaterial(opts.deviceTypeKeyPath, opts.deviceTypeKeyFormat)
	if err != nil {
		return err
	}
	certificate, err := loadKeyMaterial(opts.certificatePath, opts.certificateFormat)
	if err != nil {
		return err
	}

	if opts.dssHost != "" {
		if err := cfg.Set(configmap.KeyDSSHost, configmap.StringValue(opts.dssHost)); err != nil {
			return err
		}
	}
	if opts.dssPort != 0 {
		if err := cfg.Set(configmap.KeyDSSPort, configmap.IntegerValue(int64(opts.dssPort))); err != nil {
			return err
		}
	}

	// The pre-session phase (setup-network derivation, association, the
	// first scan) runs under a spinner; once the DSS conversation starts,
	// one progress line per session state takes over.
	joining := iostreams.SetupNetworkSpinner(ios.ErrOut)
	if ios.IsStderrTTY() {
		joining.Start()
	}

	sessionStates := []model.ProvisioneeState{
		model.StateStartProvisioning,
		model.StateStartPinBasedSetup,
		model.StateComputeConfigurationData,
		model.StatePostWifiScanData,
		model.StateGetWifiCredentials,
		model.StateConnectToUserNetwork,
	}
	var mw *iostreams.MultiWriter

	result, err := provisionee.ProvisionDevice(cmd.Context(), provisionee.Args{
		PrivateKey:          privateKey,
		PublicKey:           publicKey,
		DeviceTypePublicKey: deviceTypeKey,
		Certificate:         certificate,
		Config:              cfg,
		ProbeHost:           opts.probeHost,
		Logger:              ios.Logger(),
		Callbacks: provisionee.Callbacks{
			OnStateTransition: func(from, to model.ProvisioneeState, outcome model.ReportResult) {
				if mw == nil {
					// First transition: the setup network is up and the
					// session is live.
					if ios.IsStderrTTY() {
						joining.StopWithSuccess("Setup network joined")
					}
					mw = iostreams.NewMultiWriter(ios.Out, ios.IsStdoutTTY())
					for _, state := range sessionStates {
						mw.AddLine(state.String(), "waiting")
					}
				}
				if outcome == model.ReportResultSuccess {
					mw.UpdateLine(from.String(), iostreams.StatusSuccess, "done")
				} else {
					mw.UpdateLine(from.String(), iostreams.StatusError, "failed")
				}
				if !to.Terminal() {
					mw.UpdateLine(to.String(), iostreams.StatusRunning, "in progress")
				}
			},
		},
	})
	if mw == nil {
		if ios.IsStderrTTY() {
			joining.StopWithError("Session ended early")
		}
	} else {
		mw.Finalize()
	}

	switch result {
	case model.Provisioned:
		ios.Success("Device provisioned")
		return nil
	case model.NotProvisioned:
		ios.Warning("Device not provisioned")
		hint(ios, err)
		if err != nil {
			return err
		}
		return fmt.Errorf("session ended without credentials")
	default:
		ios.Error("Provisioning failed: %s", result)
		hint(ios, err)
		if err != nil {
			return err
		}
		return fmt.Errorf("provisioning failed: %s", result)
	}
}

// hint points at the likely fault domain of a failed session.
func hint(ios *iostreams.IOStreams, err error) {
	if err == nil {
		return
	}
	switch errutil.Categorize(err) {
	case errutil.CategoryDNS, errutil.CategoryNetwork:
		ios.Info("The Device Setup Service was unreachable; check that a provisioner is in range and relaying")
	case errutil.CategoryTimeout:
		ios.Info("The session timed out; move the device closer to the provisioner and retry")
	case errutil.CategoryAuth:
		ios.Info("The service rejected the device identity; verify the key material matches the registered device type")
	}
}
