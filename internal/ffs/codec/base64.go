// Package codec implements the wire encodings used by the DSS protocol
// and the setup-network derivation: padded base64 with optional line
// wrapping, a whitespace-tolerant base64 decoder, and the RFC 1924
// base85 alphabet.
package codec

import (
	"fmt"

	"github.com/ffs-wifi/provisionee/internal/ffs/stream"
	"github.com/ffs-wifi/provisionee/internal/model"
)

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const base64Pad = '='

// base64Reverse maps an ASCII byte to its 6-bit value, or -1 for bytes
// outside the alphabet.
var base64Reverse = func() [256]int8 {
	var table [256]int8
	for i := range table {
		table[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		table[base64Alphabet[i]] = int8(i)
	}
	return table
}()

// EncodeBase64 encodes the readable portion of src into dst, consuming
// src. With lineLength > 0 the output is broken with terminator after
// every lineLength characters; the final line is not terminated.
func EncodeBase64(src, dst *stream.Stream, lineLength int, terminator string) error {
	written := 0

	emit := func(b byte) error {
		if lineLength > 0 && written > 0 && written%lineLength == 0 {
			if err := dst.WriteString(terminator); err != nil {
				return err
			}
		}
		written++
		return dst.WriteByte(b)
	}

	for !src.IsEmpty() {
		n := src.DataSize()
		if n > 3 {
			n = 3
		}
		group, err := src.Read(n)
		if err != nil {
			return err
		}

		var word uint32
		for i := 0; i < 3; i++ {
			word <<= 8
			if i < n {
				word |= uint32(group[i])
			}
		}

		chars := n + 1
		for i := 0; i < 4; i++ {
			var c byte
			if i < chars {
				c = base64Alphabet[(word>>uint(18-6*i))&0x3f]
			} else {
				c = base64Pad
			}
			if err := emit(c); err != nil {
				return err
			}
		}
	}

	return nil
}

// DecodeBase64 decodes the readable portion of src into dst, consuming
// src. Non-alphabet characters are skipped (tolerant to whitespace and
// header artifacts). Decoding fails if more than two pad characters
// appear or if alphabet characters follow a pad.
func DecodeBase64(src, dst *stream.Stream) error {
	var word uint32
	bits := 0
	pads := 0

	for !src.IsEmpty() {
		c, err := src.ReadByte()
		if err != nil {
			return err
		}

		if c == base64Pad {
			pads++
			if pads > 2 {
				return fmt.Errorf("%w: more than two base64 pad characters", model.ErrInvalidArgument)
			}
			continue
		}

		value := base64Reverse[c]
		if value < 0 {
			continue
		}
		if pads > 0 {
			return fmt.Errorf("%w: base64 data after pad character", model.ErrInvalidArgument)
		}

		word = word<<6 | uint32(value)
		bits += 6
		if bits >= 8 {
			bits -= 8
			if err := dst.WriteByte(byte(word >> uint(bits))); err != nil {
				return err
			}
		}
	}

	return nil
}

// EncodedBase64Size returns the padded base64 length for n source bytes,
// ignoring line breaks.
func EncodedBase64Size(n int) int {
	return (n + 2) / 3 * 4
}

// AppendBase64 is a convenience wrapper encoding p and returning the text.
func AppendBase64(p []byte) string {
	src := stream.NewInput(p)
	dst := stream.NewOutput(EncodedBase64Size(len(p)))
	// Encoding into a correctly sized buffer cannot fail.
	if err := EncodeBase64(src, dst, 0, ""); err != nil {
		panic(err)
	}
	return string(dst.Data())
}

// DecodeBase64String is a convenience wrapper decoding text to bytes.
func DecodeBase64String(text string) ([]byte, error) {
	src := stream.NewInputString(text)
	dst := stream.NewOutput(len(text)*3/4 + 3)
	if err := DecodeBase64(src, dst); err != nil {
		return nil, err
	}
	return append([]byte(nil), dst.Data()...), nil
}
