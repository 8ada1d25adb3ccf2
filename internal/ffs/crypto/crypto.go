package crypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"github.com/ffs-wifi/provisionee/internal/model"
)

// Sha256 returns the SHA-256 digest of data.
func Sha256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// HmacSha256 returns the HMAC-SHA-256 of data under key.
func HmacSha256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// ComputeECDHSecret performs P-256 ECDH against the DER-encoded peer
// public key and returns the SHA-256 hash of the shared secret, which is
// the session secret used for the setup-network passphrase.
func ComputeECDHSecret(privateKey *ecdh.PrivateKey, peerPublicKeyDER []byte) ([]byte, error) {
	parsed, err := x509.ParsePKIXPublicKey(peerPublicKeyDER)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable peer public key", model.ErrInvalidArgument)
	}
	ecPub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: peer public key is not an EC key", model.ErrInvalidArgument)
	}
	peer, err := ecPub.ECDH()
	if err != nil {
		return nil, fmt.Errorf("%w: converting peer public key: %v", model.ErrInvalidArgument, err)
	}

	shared, err := privateKey.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("computing ECDH secret: %w", err)
	}
	return Sha256(shared), nil
}

// VerifyCloudSignature checks an ECDSA-P256-SHA256 signature over payload
// against the DER-encoded cloud public key. The signature is ASN.1 DER as
// delivered in the x-amzn-dss-signature header (after base64 decoding).
func VerifyCloudSignature(payload, signature, cloudPublicKeyDER []byte) (bool, error) {
	parsed, err := x509.ParsePKIXPublicKey(cloudPublicKeyDER)
	if err != nil {
		return false, fmt.Errorf("%w: unparseable cloud public key", model.ErrInvalidArgument)
	}
	ecPub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return false, fmt.Errorf("%w: cloud public key is not an EC key", model.ErrInvalidArgument)
	}

	digest := sha256.Sum256(payload)
	return ecdsa.VerifyASN1(ecPub, digest[:], signature), nil
}

// RandomBytes fills a new n-byte slice from the secure RNG.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}
	return buf, nil
}
