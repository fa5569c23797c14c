package nwid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadNetworkID = errors.New("invalid network id")

// ID identifies one virtual network membership.
type ID uint64

// Parse accepts up to 16 hex digits, with or without a 0x prefix.
func Parse(s string) (ID, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if s == "" || len(s) > 16 {
		return 0, fmt.Errorf("%w: %q", ErrBadNetworkID, s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNetworkID, s)
	}
	return ID(v), nil
}

// String renders the id as 16 lower-case hex digits. This is also the tag
// persisted on platforms that reuse devices across restarts.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
