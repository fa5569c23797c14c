package bridge

import (
	"encoding/binary"
	"errors"
	"fmt"

	"ethertap/domain/network/ethernet"
	"ethertap/domain/network/nwid"
)

// HeaderSize is the network id that prefixes every frame on the wire.
const HeaderSize = 8

var ErrShortDatagram = errors.New("datagram too short")

// Encapsulate prefixes frame with the big-endian network id.
func Encapsulate(networkID nwid.ID, frame []byte) []byte {
	data := make([]byte, HeaderSize+len(frame))
	binary.BigEndian.PutUint64(data, uint64(networkID))
	copy(data[HeaderSize:], frame)
	return data
}

// Decapsulate splits a datagram into its network id and frame. The frame
// aliases data.
func Decapsulate(data []byte) (nwid.ID, []byte, error) {
	if len(data) < HeaderSize+ethernet.HeaderSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrShortDatagram, len(data))
	}
	return nwid.ID(binary.BigEndian.Uint64(data)), data[HeaderSize:], nil
}
