package codec

import (
	"github.com/ffs-wifi/provisionee/internal/ffs/stream"
)

// base85Alphabet is the RFC 1924 character set: digits, upper case,
// lower case, then punctuation.
const base85Alphabet = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"!#$%&()*+-;<=>?@^_`{|}~"

// EncodeBase85 encodes the readable portion of src into dst, consuming
// src. Each 4-byte big-endian group becomes 5 characters; a partial
// trailing group of 1-3 bytes is zero-extended and still emits 5
// characters. There is no decoder; the setup-network SSID is consumed
// by the provisioner, never parsed back.
func EncodeBase85(src, dst *stream.Stream) error {
	for !src.IsEmpty() {
		var word uint32
		for shift := 24; shift >= 0 && !src.IsEmpty(); shift -= 8 {
			b, err := src.ReadByte()
			if err != nil {
				return err
			}
			word |= uint32(b) << uint(shift)
		}

		var group [5]byte
		for i := 4; i >= 0; i-- {
			group[i] = base85Alphabet[word%85]
			word /= 85
		}
		if err := dst.Write(group[:]); err != nil {
			return err
		}
	}

	return nil
}

// EncodedBase85Size returns the base85 length for n source bytes.
func EncodedBase85Size(n int) int {
	return (n + 3) / 4 * 5
}
