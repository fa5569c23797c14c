package mac

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Size is the length of an Ethernet hardware address in bytes.
const Size = 6

var ErrBadFormat = errors.New("invalid MAC address")

// MAC is a 48-bit Ethernet hardware address. The zero value is 00:00:00:00:00:00.
type MAC [Size]byte

// Broadcast is ff:ff:ff:ff:ff:ff.
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Parse accepts colon or dash separated hex octets, or 12 bare hex digits.
func Parse(s string) (MAC, error) {
	var m MAC
	clean := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	if len(clean) != Size*2 {
		return m, fmt.Errorf("%w: %q", ErrBadFormat, s)
	}
	if _, err := hex.Decode(m[:], []byte(clean)); err != nil {
		return m, fmt.Errorf("%w: %q", ErrBadFormat, s)
	}
	return m, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) MAC {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromBytes copies the first six bytes of b.
func FromBytes(b []byte) (MAC, error) {
	var m MAC
	if len(b) < Size {
		return m, fmt.Errorf("%w: %d bytes", ErrBadFormat, len(b))
	}
	copy(m[:], b[:Size])
	return m, nil
}

// FromUint64 takes the low 48 bits of v, most significant octet first.
func FromUint64(v uint64) MAC {
	var m MAC
	for i := Size - 1; i >= 0; i-- {
		m[i] = byte(v)
		v >>= 8
	}
	return m
}

func (m MAC) Uint64() uint64 {
	var v uint64
	for _, b := range m {
		v = v<<8 | uint64(b)
	}
	return v
}

// IsMulticast reports whether the group bit of the first octet is set.
// Broadcast is multicast too.
func (m MAC) IsMulticast() bool {
	return m[0]&0x01 != 0
}

func (m MAC) IsBroadcast() bool {
	return m == Broadcast
}

func (m MAC) IsZero() bool {
	return m == MAC{}
}

func (m MAC) Compare(o MAC) int {
	a, b := m.Uint64(), o.Uint64()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// DashedUpper renders AA-BB-CC-DD-EE-FF, the form Windows expects in NetworkAddress.
func (m MAC) DashedUpper() string {
	return fmt.Sprintf("%02X-%02X-%02X-%02X-%02X-%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

func (m MAC) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MAC) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
