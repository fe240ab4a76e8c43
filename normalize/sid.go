package normalize

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// revision, sub-authority count, 6 authority bytes
const sidHeaderLen = 8

// DecodeSID converts a binary security identifier to its S-R-A-S... string
// form. Layout: revision (1 byte, must be 1), sub-authority count N (1 byte),
// authority (6 bytes, big-endian), then exactly N little-endian uint32
// sub-authorities and nothing else.
func DecodeSID(b []byte) (string, error) {
	if len(b) < sidHeaderLen {
		return "", fmt.Errorf("invalid SID: %d bytes, need at least %d", len(b), sidHeaderLen)
	}

	revision := b[0]
	if revision != 1 {
		return "", fmt.Errorf("invalid SID: unsupported revision %d", revision)
	}

	count := int(b[1])
	if len(b)-sidHeaderLen != 4*count {
		return "", fmt.Errorf("invalid SID: %d trailing bytes for %d sub-authorities", len(b)-sidHeaderLen, count)
	}

	authority := binary.BigEndian.Uint64(append([]byte{0, 0}, b[2:sidHeaderLen]...))

	var sid strings.Builder
	fmt.Fprintf(&sid, "S-%d-%d", revision, authority)
	for i := 0; i < count; i++ {
		offset := sidHeaderLen + 4*i
		fmt.Fprintf(&sid, "-%d", binary.LittleEndian.Uint32(b[offset:offset+4]))
	}
	return sid.String(), nil
}
