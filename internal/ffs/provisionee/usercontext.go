package provisionee

import (
	"crypto/ecdh"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"

	"github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/ffs/crypto"
	"github.com/ffs-wifi/provisionee/internal/ffs/dss"
	"github.com/ffs-wifi/provisionee/internal/ffs/wifi"
	"github.com/ffs-wifi/provisionee/internal/iostreams"
	"github.com/ffs-wifi/provisionee/internal/model"
)

// KeyMaterial is one caller-supplied key or certificate blob with its
// explicit encoding.
type KeyMaterial struct {
	Data []byte
	Type crypto.KeyType
}

// Callbacks let the embedding host steer the session. Every field is
// optional; nil fields get the default policy.
type Callbacks struct {
	// CanProceed is asked at each state boundary; false terminates the
	// session gracefully after the current state.
	CanProceed func() bool

	// CanPostWifiScanData bounds the scan-data loop. The sequence starts
	// at 1 and resets each time the machine re-enters the state.
	CanPostWifiScanData func(sequence uint32, totalCredentialsFound int, allCredentialsFound bool) bool

	// CanGetWifiCredentials bounds the credentials loop.
	CanGetWifiCredentials func(sequence uint32, allCredentialsReturned bool) bool

	// GetSetupNetworkConfiguration supplies a custom setup network.
	// Returning ErrNotImplemented selects the derived 1P network.
	GetSetupNetworkConfiguration func() (model.WifiConfiguration, error)

	// SaveRegistrationDetails receives a non-null registration token.
	SaveRegistrationDetails func(details dss.RegistrationDetails) error

	// OnStateTransition observes each completed state and the server's
	// advised successor, for progress display.
	OnStateTransition func(from, to model.ProvisioneeState, outcome model.ReportResult)
}

// Default loop bounds when the host does not supply a policy.
const (
	defaultMaxScanDataPosts     = 5
	defaultMaxCredentialFetches = 5
)

// UserContext owns everything with session lifetime: key material, the
// DSS client, the Wi-Fi manager and the configuration map. Created
// before the session starts and closed after teardown.
type UserContext struct {
	PrivateKey        *ecdh.PrivateKey
	DevicePublicDER   []byte
	CloudPublicDER    []byte
	CertificateChain  []*x509.Certificate
	CertificateKeyPEM []byte

	Config    *configmap.Manager
	Wifi      *wifi.Manager
	DSS       *dss.Client
	Logger    *iostreams.Logger
	Callbacks Callbacks
}

// NewUserContext validates the key material, stores the public keys in
// the configuration map and wires up the DSS client.
func NewUserContext(privateKey, publicKey, deviceTypePublicKey, certificate KeyMaterial,
	cfg *configmap.Manager, wifiManager *wifi.Manager, logger *iostreams.Logger,
	callbacks Callbacks, dssOpts ...dss.Option) (*UserContext, error) {

	if certificate.Data != nil && certificate.Type != crypto.KeyTypePEM {
		return nil, fmt.Errorf("%w: certificate chain must be PEM", model.ErrInvalidArgument)
	}

	priv, err := crypto.ParsePrivateKey(privateKey.Data, privateKey.Type)
	if err != nil {
		return nil, fmt.Errorf("parsing device private key: %w", err)
	}
	deviceDER, err := crypto.NormalizePublicKeyDER(publicKey.Data, publicKey.Type)
	if err != nil {
		return nil, fmt.Errorf("parsing device public key: %w", err)
	}
	cloudDER, err := crypto.NormalizePublicKeyDER(deviceTypePublicKey.Data, deviceTypePublicKey.Type)
	if err != nil {
		return nil, fmt.Errorf("parsing device-type public key: %w", err)
	}

	var chain []*x509.Certificate
	if certificate.Data != nil {
		chain, err = crypto.ParseCertificatesPEM(certificate.Data, certificate.Type)
		if err != nil {
			return nil, fmt.Errorf("parsing certificate chain: %w", err)
		}
	}

	// The derivation and the device-details assembly read both keys
	// through the configuration map.
	if err := cfg.Set(configmap.KeyDevicePublicKey, configmap.BytesValue(deviceDER)); err != nil {
		return nil, err
	}
	if err := cfg.Set(configmap.KeyCloudPublicKey, configmap.BytesValue(cloudDER)); err != nil {
		return nil, err
	}

	uc := &UserContext{
		PrivateKey:       priv,
		DevicePublicDER:  deviceDER,
		CloudPublicDER:   cloudDER,
		CertificateChain: chain,
		Config:           cfg,
		Wifi:             wifiManager,
		Logger:           logger,
		Callbacks:        callbacks,
	}

	opts := append([]dss.Option(nil), dssOpts...)
	if logger != nil {
		opts = append(opts, dss.WithLogger(logger))
	}
	client, err := dss.NewClient(cfg, cloudDER, opts...)
	if err != nil {
		return nil, err
	}
	uc.DSS = client
	return uc, nil
}

// NewTLSClient builds an HTTPS client presenting the device certificate
// when one was supplied. rootCAs may be nil to use the system pool; the
// production anchor is the Starfield Class 2 CA.
func NewTLSClient(certificatePEM, privateKeyPEM []byte, rootCAs *x509.CertPool) (*http.Client, error) {
	tlsConfig := &tls.Config{
		RootCAs:    rootCAs,
		MinVersion: tls.VersionTLS12,
	}
	if certificatePEM != nil && privateKeyPEM != nil {
		cert, err := tls.X509KeyPair(certificatePEM, privateKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("%w: loading client certificate: %v", model.ErrInvalidArgument, err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return &http.Client{
		Transport: &http.Transport{TLSClientConfig: tlsConfig},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// canProceed applies the host's cancellation policy.
func (uc *UserContext) canProceed() bool {
	if uc.Callbacks.CanProceed == nil {
		return true
	}
	return uc.Callbacks.CanProceed()
}

func (uc *UserContext) canPostWifiScanData(sequence uint32, totalFound int, allFound bool) bool {
	if uc.Callbacks.CanPostWifiScanData == nil {
		return sequence <= defaultMaxScanDataPosts
	}
	return uc.Callbacks.CanPostWifiScanData(sequence, totalFound, allFound)
}

func (uc *UserContext) canGetWifiCredentials(sequence uint32, allReturned bool) bool {
	if uc.Callbacks.CanGetWifiCredentials == nil {
		return sequence <= defaultMaxCredentialFetches
	}
	return uc.Callbacks.CanGetWifiCredentials(sequence, allReturned)
}

func (uc *UserContext) logf(level iostreams.LogLevel, category iostreams.LogCategory, format string, args ...any) {
	if uc.Logger != nil {
		uc.Logger.Log(level, category, format, args...)
		return
	}
	iostreams.Log(level, category, format, args...)
}
