// Package setupnet derives the one-shot 1P Amazon encoded setup network:
// the hidden WPA-PSK network an unconfigured device broadcasts so a
// nearby provisioner can find it and relay to the Device Setup Service.
package setupnet

import (
	"crypto/ecdh"
	"fmt"

	"github.com/ffs-wifi/provisionee/internal/ffs/codec"
	"github.com/ffs-wifi/provisionee/internal/ffs/configmap"
	"github.com/ffs-wifi/provisionee/internal/ffs/crypto"
	"github.com/ffs-wifi/provisionee/internal/ffs/stream"
	"github.com/ffs-wifi/provisionee/internal/model"
)

const (
	// controlByte is the reserved control field in the SSID's high nibble.
	controlByte = (0x00 << 4) & 0xf0

	productIndexSize      = 4
	clientNonceSize       = 12
	authMaterialIndexSize = 9

	base85SourceSize = (authMaterialIndexSize - 1) + productIndexSize + clientNonceSize
	ssidSize         = 2 + (base85SourceSize/4)*5
)

// Derive computes the encoded setup network configuration. The device
// public key and product index are read from the configuration map; the
// 12-byte nonce must be the same bytes used for both the SSID and the
// passphrase within a session. Pass a nil nonce to generate a fresh one.
func Derive(cfg *configmap.Manager, privateKey *ecdh.PrivateKey, nonce []byte) (model.WifiConfiguration, error) {
	if nonce == nil {
		fresh, err := crypto.RandomBytes(clientNonceSize)
		if err != nil {
			return model.WifiConfiguration{}, err
		}
		nonce = fresh
	}
	if len(nonce) != clientNonceSize {
		return model.WifiConfiguration{}, fmt.Errorf("%w: nonce length %d, want %d",
			model.ErrInvalidArgument, len(nonce), clientNonceSize)
	}

	ssid, err := computeSSID(cfg, nonce)
	if err != nil {
		return model.WifiConfiguration{}, fmt.Errorf("computing setup SSID: %w", err)
	}

	passphrase, err := computePassphrase(cfg, privateKey, nonce)
	if err != nil {
		return model.WifiConfiguration{}, fmt.Errorf("computing setup passphrase: %w", err)
	}

	return model.WifiConfiguration{
		SSID:     ssid,
		Security: model.SecurityWPAPSK,
		Key:      passphrase,
		Hidden:   true,
	}, nil
}

// computeAuthMaterialIndex hashes the device's DER public key and keeps
// the last 9 bytes.
func computeAuthMaterialIndex(cfg *configmap.Manager) ([]byte, error) {
	devicePublicKey, err := cfg.GetBytes(configmap.KeyDevicePublicKey)
	if err != nil {
		return nil, err
	}
	hash := crypto.Sha256(devicePublicKey)
	return hash[len(hash)-authMaterialIndexSize:], nil
}

// computeSSID assembles the 32-character SSID: 2 characters of base64
// carrying the control nibble and the first auth-material byte, then 30
// characters of base85 over the remaining auth material, product index
// and nonce.
func computeSSID(cfg *configmap.Manager, nonce []byte) ([]byte, error) {
	authMaterial, err := computeAuthMaterialIndex(cfg)
	if err != nil {
		return nil, err
	}

	ssid := stream.NewOutput(ssidSize)

	// First 2 characters: base64 of a 2-byte word spreading the first
	// auth-material byte around the reserved control nibble, padding
	// dropped.
	word := stream.NewOutput(2)
	if err := word.WriteByte(controlByte | (authMaterial[0]>>4)&0x0f); err != nil {
		return nil, err
	}
	if err := word.WriteByte((authMaterial[0] << 4) & 0xf0); err != nil {
		return nil, err
	}
	encoded := stream.NewOutput(4)
	if err := codec.EncodeBase64(word, encoded, 0, ""); err != nil {
		return nil, err
	}
	prefix, err := encoded.Read(2)
	if err != nil {
		return nil, err
	}
	if err := ssid.Write(prefix); err != nil {
		return nil, err
	}

	// Last 30 characters: base85 of auth material [1..9) || product
	// index || nonce.
	productIndex, err := cfg.GetBytes(configmap.KeyProductIndex)
	if err != nil {
		return nil, err
	}
	if len(productIndex) != productIndexSize {
		return nil, fmt.Errorf("%w: product index length %d, want %d",
			model.ErrInvalidArgument, len(productIndex), productIndexSize)
	}

	source := stream.NewOutput(base85SourceSize)
	if err := source.Write(authMaterial[1:]); err != nil {
		return nil, err
	}
	if err := source.Write(productIndex); err != nil {
		return nil, err
	}
	if err := source.Write(nonce); err != nil {
		return nil, err
	}
	if err := codec.EncodeBase85(source, ssid); err != nil {
		return nil, err
	}

	return append([]byte(nil), ssid.Data()...), nil
}

// computePassphrase derives the WPA passphrase: base64, with no line
// breaks, of HMAC-SHA256(SHA256(ECDH shared secret), nonce).
func computePassphrase(cfg *configmap.Manager, privateKey *ecdh.PrivateKey, nonce []byte) ([]byte, error) {
	cloudPublicKey, err := cfg.GetBytes(configmap.KeyCloudPublicKey)
	if err != nil {
		return nil, err
	}

	secret, err := crypto.ComputeECDHSecret(privateKey, cloudPublicKey)
	if err != nil {
		return nil, err
	}
	mac := crypto.HmacSha256(secret, nonce)

	return []byte(codec.AppendBase64(mac)), nil
}
