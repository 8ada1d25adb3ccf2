package setupnet

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/ffs/crypto"
	"github.com/ffs-wifi/provisionee/internal/model"
)

type fixture struct {
	cfg        *configmap.Manager
	devicePriv *ecdsa.PrivateKey
	cloudPriv  *ecdsa.PrivateKey
	deviceDER  []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	devicePriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	cloudPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	deviceDER, err := x509.MarshalPKIXPublicKey(&devicePriv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	cloudDER, err := x509.MarshalPKIXPublicKey(&cloudPriv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	cfg := configmap.NewTestManager(map[string]configmap.Value{
		configmap.KeyDevicePublicKey: configmap.BytesValue(deviceDER),
		configmap.KeyCloudPublicKey:  configmap.BytesValue(cloudDER),
		configmap.KeyProductIndex:    configmap.BytesValue([]byte("CbtN")),
	})

	return &fixture{cfg: cfg, devicePriv: devicePriv, cloudPriv: cloudPriv, deviceDER: deviceDER}
}

func (f *fixture) derive(t *testing.T, nonce []byte) model.WifiConfiguration {
	t.Helper()
	priv, err := f.devicePriv.ECDH()
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Derive(f.cfg, priv, nonce)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	return cfg
}

func TestDerive_Shape(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	network := f.derive(t, nil)

	if len(network.SSID) != 32 {
		t.Errorf("SSID length = %d, want 32", len(network.SSID))
	}
	if network.Security != model.SecurityWPAPSK {
		t.Errorf("security = %v, want WPA-PSK", network.Security)
	}
	if !network.Hidden {
		t.Error("setup network should be hidden")
	}
	// base64 of a 32-byte MAC, unwrapped.
	if len(network.Key) != 44 {
		t.Errorf("passphrase length = %d, want 44", len(network.Key))
	}
	if _, err := base64.StdEncoding.DecodeString(string(network.Key)); err != nil {
		t.Errorf("passphrase is not valid base64: %v", err)
	}
}

func TestDerive_SSIDPrefix(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	nonce := bytes.Repeat([]byte{0x11}, 12)
	network := f.derive(t, nonce)

	// The first two characters carry the control nibble (zero) and the
	// first byte of the auth material index, i.e. the first byte of the
	// last 9 bytes of SHA256(device public key DER).
	hash := crypto.Sha256(f.deviceDER)
	auth0 := hash[len(hash)-9]
	word := []byte{(auth0 >> 4) & 0x0f, (auth0 << 4) & 0xf0}
	want := base64.StdEncoding.EncodeToString(word)[:2]

	if got := string(network.SSID[:2]); got != want {
		t.Errorf("SSID prefix = %q, want %q", got, want)
	}
}

func TestDerive_DeterministicForFixedNonce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	nonce := bytes.Repeat([]byte{0x42}, 12)

	a := f.derive(t, nonce)
	b := f.derive(t, nonce)

	if !bytes.Equal(a.SSID, b.SSID) || !bytes.Equal(a.Key, b.Key) {
		t.Error("derivation with a fixed nonce should be deterministic")
	}
}

func TestDerive_FreshNoncesDiffer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.derive(t, nil)
	b := f.derive(t, nil)

	if bytes.Equal(a.SSID, b.SSID) {
		t.Error("two sessions derived the same SSID")
	}
	if bytes.Equal(a.Key, b.Key) {
		t.Error("two sessions derived the same passphrase")
	}
}

func TestDerive_PassphraseMatchesCloudSide(t *testing.T) {
	t.Parallel()

	// The cloud derives the same passphrase from its private key and the
	// device public key; the provisioner gets it from DSS. Reproduce the
	// cloud-side computation and compare.
	f := newFixture(t)
	nonce := bytes.Repeat([]byte{0x07}, 12)
	network := f.derive(t, nonce)

	cloudPriv, err := f.cloudPriv.ECDH()
	if err != nil {
		t.Fatal(err)
	}
	secret, err := crypto.ComputeECDHSecret(cloudPriv, f.deviceDER)
	if err != nil {
		t.Fatal(err)
	}
	mac := crypto.HmacSha256(secret, nonce)
	want := base64.StdEncoding.EncodeToString(mac)

	if string(network.Key) != want {
		t.Errorf("passphrase = %q, want cloud-side %q", network.Key, want)
	}
}

func TestDerive_BadNonceLength(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	priv, err := f.devicePriv.ECDH()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Derive(f.cfg, priv, []byte("short")); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Derive(short nonce) = %v, want invalid argument", err)
	}
}

func TestDerive_MissingConfig(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	priv, err := f.devicePriv.ECDH()
	if err != nil {
		t.Fatal(err)
	}

	empty := configmap.NewTestManager(nil)
	if _, err := Derive(empty, priv, nil); !errors.Is(err, model.ErrNotImplemented) {
		t.Errorf("Derive without device key = %v, want not implemented", err)
	}
}

func TestDerive_BadProductIndex(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.cfg.Set(configmap.KeyProductIndex, configmap.BytesValue([]byte("toolong!"))); err != nil {
		t.Fatal(err)
	}
	priv, err := f.devicePriv.ECDH()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Derive(f.cfg, priv, nil); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Derive(bad product index) = %v, want invalid argument", err)
	}
}
