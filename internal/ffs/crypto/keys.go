// Package crypto wraps the key parsing, hashing, key agreement and
// signature verification primitives used by the provisioning session.
// All curves are NIST P-256; public keys travel as DER SubjectPublicKeyInfo.
package crypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/ffs-wifi/provisionee/internal/model"
)

// KeyType identifies the encoding of caller-supplied key material.
type KeyType int

const (
	// KeyTypePEM is PEM-armored key material.
	KeyTypePEM KeyType = iota
	// KeyTypeDER is raw DER key material.
	KeyTypeDER
)

// String returns the key type name.
func (t KeyType) String() string {
	if t == KeyTypePEM {
		return "PEM"
	}
	return "DER"
}

// ParseKeyType maps a flag value to a KeyType.
func ParseKeyType(s string) (KeyType, error) {
	switch s {
	case "pem", "PEM":
		return KeyTypePEM, nil
	case "der", "DER":
		return KeyTypeDER, nil
	default:
		return KeyTypePEM, fmt.Errorf("%w: key type %q", model.ErrInvalidArgument, s)
	}
}

func pemToDER(data []byte, wantTypes ...string) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", model.ErrInvalidArgument)
	}
	for _, want := range wantTypes {
		if block.Type == want {
			return block.Bytes, nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected PEM block type %q", model.ErrInvalidArgument, block.Type)
}

// ParsePrivateKey parses a P-256 private key from PEM or DER, accepting
// SEC 1 and PKCS #8 encodings, and returns it in ECDH form.
func ParsePrivateKey(data []byte, keyType KeyType) (*ecdh.PrivateKey, error) {
	der := data
	if keyType == KeyTypePEM {
		var err error
		der, err = pemToDER(data, "EC PRIVATE KEY", "PRIVATE KEY")
		if err != nil {
			return nil, err
		}
	}

	var ecKey *ecdsa.PrivateKey
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		ecKey = key
	} else if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		ec, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private key is not an EC key", model.ErrInvalidArgument)
		}
		ecKey = ec
	} else {
		return nil, fmt.Errorf("%w: unparseable private key", model.ErrInvalidArgument)
	}

	ecdhKey, err := ecKey.ECDH()
	if err != nil {
		return nil, fmt.Errorf("%w: converting private key: %v", model.ErrInvalidArgument, err)
	}
	return ecdhKey, nil
}

// NormalizePublicKeyDER parses a P-256 public key from PEM or DER and
// returns its DER SubjectPublicKeyInfo encoding, the form hashed by the
// setup-network derivation and stored in the configuration map.
func NormalizePublicKeyDER(data []byte, keyType KeyType) ([]byte, error) {
	der := data
	if keyType == KeyTypePEM {
		var err error
		der, err = pemToDER(data, "PUBLIC KEY")
		if err != nil {
			return nil, err
		}
	}

	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable public key", model.ErrInvalidArgument)
	}
	if _, ok := key.(*ecdsa.PublicKey); !ok {
		return nil, fmt.Errorf("%w: public key is not an EC key", model.ErrInvalidArgument)
	}
	return der, nil
}

// ParseCertificatesPEM parses a PEM certificate chain. DER input is
// rejected: the certificate chain must always be PEM.
func ParseCertificatesPEM(data []byte, keyType KeyType) ([]*x509.Certificate, error) {
	if keyType != KeyTypePEM {
		return nil, fmt.Errorf("%w: certificate chain must be PEM", model.ErrInvalidArgument)
	}

	var certs []*x509.Certificate
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing certificate: %v", model.ErrInvalidArgument, err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("%w: no certificates found", model.ErrInvalidArgument)
	}
	return certs, nil
}
