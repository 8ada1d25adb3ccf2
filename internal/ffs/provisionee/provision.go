package provisionee

import (
	"context"
	"crypto/x509"
	"errors"
	"net/http"

	"github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/ffs/crypto"
	"github.com/ffs-wifi/provisionee/internal/ffs/dss"
	"github.com/ffs-wifi/provisionee/internal/ffs/wifi"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// Args is the host embedding surface: the key material for one device
// plus the session collaborators. Every key carries its explicit
// encoding; the certificate chain must be PEM.
type Args struct {
	PrivateKey          KeyMaterial
	PublicKey           KeyMaterial
	DeviceTypePublicKey KeyMaterial
	Certificate         KeyMaterial

	// Config is the device configuration map. Required.
	Config *configmap.Manager

	// WifiDriver overrides the platform Wi-Fi backend, for tests and
	// bench rigs. Nil selects the platform driver.
	WifiDriver wifi.Driver

	// RootCAs anchors the DSS TLS chain; nil uses the system pool. The
	// production chain anchors to the Starfield Class 2 CA.
	RootCAs *x509.CertPool

	// HTTPClient overrides the transport entirely; it takes precedence
	// over Certificate and RootCAs.
	HTTPClient *http.Client

	// ProbeHost overrides the post-association reachability probe.
	ProbeHost string

	// Resolver overrides the probe's DNS resolution, for tests and hosts
	// with their own connectivity checks.
	Resolver wifi.Resolver

	Logger    *iostreams.Logger
	Callbacks Callbacks
}

// ProvisionDevice runs one complete provisioning session and returns the
// terminal exit value. Argument errors surface as InvalidArgument,
// setup faults as InitError; the session itself ends Provisioned,
// NotProvisioned or InternalError.
func ProvisionDevice(ctx context.Context, args Args) (model.ProvisioningResult, error) {
	if args.Config == nil {
		return model.InvalidArgument, errors.New("configuration map is required")
	}
	if args.Certificate.Data != nil && args.Certificate.Type != crypto.KeyTypePEM {
		return model.InvalidArgument, errors.New("certificate chain must be PEM")
	}

	driver := args.WifiDriver
	if driver == nil {
		var err error
		driver, err = wifi.NewPlatformDriver(args.Logger)
		if err != nil {
			return model.InitError, err
		}
	}

	managerOpts := []wifi.ManagerOption{}
	if args.Logger != nil {
		managerOpts = append(managerOpts, wifi.WithManagerLogger(args.Logger))
	}
	if args.ProbeHost != "" {
		managerOpts = append(managerOpts, wifi.WithProbeHost(args.ProbeHost))
	}
	if args.Resolver != nil {
		managerOpts = append(managerOpts, wifi.WithResolver(args.Resolver))
	}
	manager := wifi.NewManager(driver, managerOpts...)
	defer func() {
		if err := manager.Close(context.WithoutCancel(ctx)); err != nil {
			iostreams.Log(iostreams.LevelWarn, iostreams.CategoryWifi, "closing wifi manager: %v", err)
		}
	}()

	var dssOpts []dss.Option
	switch {
	case args.HTTPClient != nil:
		dssOpts = append(dssOpts, dss.WithHTTPClient(args.HTTPClient))
	case args.Certificate.Data != nil || args.RootCAs != nil:
		httpClient, err := buildTLSClient(args)
		if err != nil {
			return model.InvalidArgument, err
		}
		dssOpts = append(dssOpts, dss.WithHTTPClient(httpClient))
	}

	uc, err := NewUserContext(args.PrivateKey, args.PublicKey, args.DeviceTypePublicKey,
		args.Certificate, args.Config, manager, args.Logger, args.Callbacks, dssOpts...)
	if err != nil {
		if model.ResultFromError(err) == model.ResultInvalidArgument {
			return model.InvalidArgument, err
		}
		return model.InitError, err
	}

	return New(uc).Run(ctx)
}

// buildTLSClient wires the device certificate and trust anchors into an
// HTTPS client. The private key half of the client certificate is the
// device private key.
func buildTLSClient(args Args) (*http.Client, error) {
	var certPEM, keyPEM []byte
	if args.Certificate.Data != nil {
		certPEM = args.Certificate.Data
		keyPEM = args.PrivateKey.Data
		if args.PrivateKey.Type != crypto.KeyTypePEM {
			// tls.X509KeyPair needs PEM; fall back to server-auth TLS.
			certPEM, keyPEM = nil, nil
		}
	}
	return NewTLSClient(certPEM, keyPEM, args.RootCAs)
}
