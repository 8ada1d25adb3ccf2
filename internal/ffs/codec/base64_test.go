package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/ffs-wifi/provisionee/internal/ffs/stream"
	"github.com/ffs-wifi/provisionee/internal/model"
)

func encode(t *testing.T, p []byte, lineLength int, terminator string) string {
	t.Helper()
	src := stream.NewInput(p)
	dst := stream.NewOutput(EncodedBase64Size(len(p)) + len(p)*len(terminator))
	if err := EncodeBase64(src, dst, lineLength, terminator); err != nil {
		t.Fatalf("EncodeBase64: %v", err)
	}
	return string(dst.Data())
}

func TestEncodeBase64_MatchesStdlib(t *testing.T) {
	t.Parallel()

	payloads := [][]byte{
		{},
		{0x00},
		{0x00, 0x01},
		{0x00, 0x01, 0x02},
		{0x00, 0x01, 0x02, 0x03},
		[]byte("any carnal pleasure."),
		bytes.Repeat([]byte{0xff}, 57),
	}

	for _, p := range payloads {
		want := base64.StdEncoding.EncodeToString(p)
		if got := encode(t, p, 0, ""); got != want {
			t.Errorf("EncodeBase64(%x) = %q, want %q", p, got, want)
		}
	}
}

func TestEncodeBase64_LineWrap(t *testing.T) {
	t.Parallel()

	p := bytes.Repeat([]byte{0xab}, 12) // 16 output chars
	got := encode(t, p, 4, "\r\n")

	want := "q6ur\r\nq6ur\r\nq6ur\r\nq6ur"
	if got != want {
		t.Errorf("wrapped output = %q, want %q", got, want)
	}
}

func TestDecodeBase64_RoundTrip(t *testing.T) {
	t.Parallel()

	payloads := [][]byte{
		{},
		{0x42},
		[]byte("pleasure"),
		bytes.Repeat([]byte{0x5a}, 100),
	}
	wraps := []struct {
		lineLength int
		terminator string
	}{
		{0, ""},
		{4, "\n"},
		{7, "\r\n"},
	}

	for _, p := range payloads {
		for _, w := range wraps {
			text := encode(t, p, w.lineLength, w.terminator)
			got, err := DecodeBase64String(text)
			if err != nil {
				t.Fatalf("DecodeBase64String(%q): %v", text, err)
			}
			if !bytes.Equal(got, p) {
				t.Errorf("round trip of %x via %q = %x", p, text, got)
			}
		}
	}
}

func TestDecodeBase64_SkipsNonAlphabet(t *testing.T) {
	t.Parallel()

	// Interleaved junk is skipped.
	got, err := DecodeBase64String("AAE#CAw{==")
	if err != nil {
		t.Fatalf("DecodeBase64String: %v", err)
	}
	want, err := DecodeBase64String("AAECAw==")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("tolerant decode = %x, want %x", got, want)
	}

	// Whitespace and newlines are likewise skipped.
	got, err = DecodeBase64String(" AA EC\nAw== ")
	if err != nil {
		t.Fatalf("DecodeBase64String with whitespace: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("whitespace decode = %x, want %x", got, want)
	}
}

func TestDecodeBase64_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"too many pads", "AAECAw==="},
		{"data after pads", "AAECAw==AA"},
		{"data after single pad", "AA=B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := DecodeBase64String(tt.text); !errors.Is(err, model.ErrInvalidArgument) {
				t.Errorf("DecodeBase64String(%q) = %v, want invalid argument", tt.text, err)
			}
		})
	}
}

func TestDecodeBase64_AfterMoveDataToEnd(t *testing.T) {
	t.Parallel()

	// Decode a stream whose data was shifted to the buffer tail, the
	// setup step for in-place transforms. The output must match the
	// non-overlapping case.
	text := base64.StdEncoding.EncodeToString([]byte("overlap me"))
	buf := stream.NewOutput(len(text) + 4)
	if err := buf.WriteString(text); err != nil {
		t.Fatal(err)
	}
	buf.MoveDataToEnd()

	dst := stream.NewOutput(len(text))
	if err := DecodeBase64(buf, dst); err != nil {
		t.Fatal(err)
	}
	if string(dst.Data()) != "overlap me" {
		t.Errorf("in-place decode = %q", dst.Data())
	}
}
