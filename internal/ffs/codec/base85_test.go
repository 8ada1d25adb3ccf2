package codec

import (
	"bytes"
	"testing"

	"github.com/ffs-wifi/provisionee/internal/ffs/stream"
)

func encode85(t *testing.T, p []byte) string {
	t.Helper()
	src := stream.NewInput(p)
	dst := stream.NewOutput(EncodedBase85Size(len(p)))
	if err := EncodeBase85(src, dst); err != nil {
		t.Fatalf("EncodeBase85: %v", err)
	}
	return string(dst.Data())
}

func TestEncodeBase85_KnownVector(t *testing.T) {
	t.Parallel()

	if got := encode85(t, []byte{0x4d, 0x61, 0x6e, 0x61}); got != "O<`_f" {
		t.Errorf("EncodeBase85(Mana) = %q, want %q", got, "O<`_f")
	}
}

func TestEncodeBase85_BlockSize(t *testing.T) {
	t.Parallel()

	for _, k := range []int{0, 1, 2, 3, 8} {
		p := bytes.Repeat([]byte{0x17}, 4*k)
		if got := len(encode85(t, p)); got != 5*k {
			t.Errorf("len(encode(%d bytes)) = %d, want %d", 4*k, got, 5*k)
		}
	}
}

func TestEncodeBase85_PartialGroup(t *testing.T) {
	t.Parallel()

	// Partial trailing groups still emit 5 characters, zero-extended.
	for _, n := range []int{1, 2, 3, 5, 6, 7} {
		p := bytes.Repeat([]byte{0xee}, n)
		want := EncodedBase85Size(n)
		if got := len(encode85(t, p)); got != want {
			t.Errorf("len(encode(%d bytes)) = %d, want %d", n, got, want)
		}
	}

	// A zero-extended partial group matches the full group with zeros.
	partial := encode85(t, []byte{0x4d, 0x61})
	full := encode85(t, []byte{0x4d, 0x61, 0x00, 0x00})
	if partial != full {
		t.Errorf("partial group %q != zero-extended group %q", partial, full)
	}
}

func TestEncodeBase85_AlphabetSize(t *testing.T) {
	t.Parallel()

	if len(base85Alphabet) != 85 {
		t.Fatalf("alphabet length = %d, want 85", len(base85Alphabet))
	}
	seen := map[byte]bool{}
	for i := 0; i < len(base85Alphabet); i++ {
		if seen[base85Alphabet[i]] {
			t.Fatalf("duplicate alphabet character %q", base85Alphabet[i])
		}
		seen[base85Alphabet[i]] = true
	}
}
