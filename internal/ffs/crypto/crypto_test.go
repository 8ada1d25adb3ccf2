package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"

	"github.com/ffs-wifi/provisionee/internal/model"
)

func generateKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func marshalPublicDER(t *testing.T, key *ecdsa.PublicKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		t.Fatal(err)
	}
	return der
}

func TestParsePrivateKey_Encodings(t *testing.T) {
	t.Parallel()

	key := generateKey(t)

	sec1, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	sec1PEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: sec1})
	pkcs8PEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})

	tests := []struct {
		name    string
		data    []byte
		keyType KeyType
	}{
		{"sec1 der", sec1, KeyTypeDER},
		{"pkcs8 der", pkcs8, KeyTypeDER},
		{"sec1 pem", sec1PEM, KeyTypePEM},
		{"pkcs8 pem", pkcs8PEM, KeyTypePEM},
	}

	want, err := key.ECDH()
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePrivateKey(tt.data, tt.keyType)
			if err != nil {
				t.Fatalf("ParsePrivateKey: %v", err)
			}
			if !got.Equal(want) {
				t.Error("parsed key differs from original")
			}
		})
	}
}

func TestParsePrivateKey_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := ParsePrivateKey([]byte("not a key"), KeyTypeDER); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("ParsePrivateKey(garbage) = %v, want invalid argument", err)
	}
	if _, err := ParsePrivateKey([]byte("not a key"), KeyTypePEM); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("ParsePrivateKey(garbage PEM) = %v, want invalid argument", err)
	}
}

func TestNormalizePublicKeyDER(t *testing.T) {
	t.Parallel()

	key := generateKey(t)
	der := marshalPublicDER(t, &key.PublicKey)
	pemData := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	fromDER, err := NormalizePublicKeyDER(der, KeyTypeDER)
	if err != nil {
		t.Fatal(err)
	}
	fromPEM, err := NormalizePublicKeyDER(pemData, KeyTypePEM)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(fromDER, fromPEM) {
		t.Error("PEM and DER forms normalize differently")
	}
	if !bytes.Equal(fromDER, der) {
		t.Error("DER form should pass through unchanged")
	}
}

func TestParseCertificatesPEM_RejectsDER(t *testing.T) {
	t.Parallel()

	if _, err := ParseCertificatesPEM([]byte{0x30, 0x82}, KeyTypeDER); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("ParseCertificatesPEM(DER) = %v, want invalid argument", err)
	}
}

func TestComputeECDHSecret_Symmetric(t *testing.T) {
	t.Parallel()

	deviceKey := generateKey(t)
	cloudKey := generateKey(t)

	devicePriv, err := deviceKey.ECDH()
	if err != nil {
		t.Fatal(err)
	}
	cloudPriv, err := cloudKey.ECDH()
	if err != nil {
		t.Fatal(err)
	}

	fromDevice, err := ComputeECDHSecret(devicePriv, marshalPublicDER(t, &cloudKey.PublicKey))
	if err != nil {
		t.Fatal(err)
	}
	fromCloud, err := ComputeECDHSecret(cloudPriv, marshalPublicDER(t, &deviceKey.PublicKey))
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(fromDevice, fromCloud) {
		t.Error("ECDH secret is not symmetric")
	}
	if len(fromDevice) != sha256.Size {
		t.Errorf("secret length = %d, want %d", len(fromDevice), sha256.Size)
	}
}

func TestVerifyCloudSignature(t *testing.T) {
	t.Parallel()

	cloudKey := generateKey(t)
	cloudDER := marshalPublicDER(t, &cloudKey.PublicKey)

	payload := []byte(`{"canProceed":true}`)
	digest := sha256.Sum256(payload)
	signature, err := ecdsa.SignASN1(rand.Reader, cloudKey, digest[:])
	if err != nil {
		t.Fatal(err)
	}

	ok, err := VerifyCloudSignature(payload, signature, cloudDER)
	if err != nil || !ok {
		t.Errorf("valid signature rejected: ok=%t err=%v", ok, err)
	}

	ok, err = VerifyCloudSignature([]byte(`{"canProceed":false}`), signature, cloudDER)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("signature over different payload accepted")
	}

	otherKey := generateKey(t)
	ok, err = VerifyCloudSignature(payload, signature, marshalPublicDER(t, &otherKey.PublicKey))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("signature accepted under wrong key")
	}
}

func TestRandomBytes(t *testing.T) {
	t.Parallel()

	a, err := RandomBytes(16)
	if err != nil || len(a) != 16 {
		t.Fatalf("RandomBytes(16) = %d bytes, %v", len(a), err)
	}
	b, err := RandomBytes(16)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("two random draws are identical")
	}
}

func TestHmacSha256(t *testing.T) {
	t.Parallel()

	// RFC 4231 test case 2.
	got := HmacSha256([]byte("Jefe"), []byte("what do ya want for nothing?"))
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if hex := fmtHex(got); hex != want {
		t.Errorf("HmacSha256 = %s, want %s", hex, want)
	}
}

func fmtHex(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&0xf])
	}
	return string(out)
}
