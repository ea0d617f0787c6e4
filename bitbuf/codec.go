package bitbuf

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Pack packs bits into bytes, eight at a time and most significant bit first.
// A final group of fewer than eight bits is padded on the right with zeros, so
// the original bit count cannot be recovered from the output.
func Pack(bits []uint8) []byte {
	out := make([]byte, 0, BytesFor(len(bits)))
	var cur byte
	for i, bit := range bits {
		cur <<= 1
		if bit != 0 {
			cur |= 1
		}
		if (i+1)%byteSize == 0 {
			out = append(out, cur)
			cur = 0
		}
	}
	if rem := len(bits) % byteSize; rem != 0 {
		out = append(out, cur<<(byteSize-rem))
	}
	return out
}

// Unpack expands data into n bits, most significant bit first. It is the
// inverse of Pack when n is the original bit count.
func Unpack(data []byte, n int) ([]uint8, error) {
	if n < 0 || n > len(data)*byteSize {
		return nil, fmt.Errorf("unpacking %d bits from %d bytes", n, len(data))
	}
	bits := make([]uint8, n)
	for i := range bits {
		bits[i] = (data[i/byteSize] >> (byteSize - 1 - i%byteSize)) & 1
	}
	return bits, nil
}

// Hex packs bits and renders them as lowercase hex, two characters per byte.
func Hex(bits []uint8) string {
	return hex.EncodeToString(Pack(bits))
}

// ASCII packs bits and renders each byte as a printable character when it
// falls in [32, 126], and as a \xNN escape otherwise.
func ASCII(bits []uint8) string {
	var sb strings.Builder
	for _, b := range Pack(bits) {
		if b >= 32 && b <= 126 {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, `\x%02x`, b)
	}
	return sb.String()
}
