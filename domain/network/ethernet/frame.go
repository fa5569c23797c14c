package ethernet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"ethertap/domain/network/mac"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// HeaderSize is destination MAC, source MAC and EtherType.
	HeaderSize = 14
	// TagSize is the 802.1Q TPID and TCI inserted after the source MAC.
	TagSize = 4
	// MaxMTU is the largest payload a tap device will carry.
	MaxMTU = 4096
	// MinMTU is the IPv4 minimum.
	MinMTU = 68
)

var ErrTooShort = errors.New("ethernet frame too short")

// Header is the part of a frame the upper layers route on.
type Header struct {
	Dst       mac.MAC
	Src       mac.MAC
	EtherType uint16
	// VLAN is the 802.1Q identifier, zero for untagged frames.
	VLAN uint16
}

// Encode builds an untagged frame. The result is exactly HeaderSize+len(payload)
// bytes; tap devices do not want minimum-length padding.
func Encode(from, to mac.MAC, etherType uint16, payload []byte) []byte {
	frame := make([]byte, HeaderSize+len(payload))
	copy(frame[0:6], to[:])
	copy(frame[6:12], from[:])
	binary.BigEndian.PutUint16(frame[12:14], etherType)
	copy(frame[HeaderSize:], payload)
	return frame
}

// EncodeTagged builds an 802.1Q frame carrying vlan. Priority and DEI are zero.
func EncodeTagged(from, to mac.MAC, vlan, etherType uint16, payload []byte) []byte {
	frame := make([]byte, HeaderSize+TagSize+len(payload))
	copy(frame[0:6], to[:])
	copy(frame[6:12], from[:])
	binary.BigEndian.PutUint16(frame[12:14], uint16(layers.EthernetTypeDot1Q))
	binary.BigEndian.PutUint16(frame[14:16], vlan&0x0fff)
	binary.BigEndian.PutUint16(frame[16:18], etherType)
	copy(frame[HeaderSize+TagSize:], payload)
	return frame
}

// Decode parses the header of data and returns the payload as a subslice of it.
// For 802.1Q frames the tag is stripped, VLAN is set and EtherType is the inner type.
func Decode(data []byte) (Header, []byte, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(data))
	}

	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return h, nil, fmt.Errorf("failed to decode ethernet header: %w", err)
	}
	copy(h.Dst[:], eth.DstMAC)
	copy(h.Src[:], eth.SrcMAC)
	// 802.3 length frames come back as LLC; keep the raw field.
	h.EtherType = binary.BigEndian.Uint16(data[12:14])
	payload := eth.Payload

	if eth.EthernetType == layers.EthernetTypeDot1Q {
		var tag layers.Dot1Q
		if err := tag.DecodeFromBytes(eth.Payload, gopacket.NilDecodeFeedback); err != nil {
			return h, nil, fmt.Errorf("failed to decode 802.1Q tag: %w", err)
		}
		h.VLAN = tag.VLANIdentifier
		h.EtherType = uint16(tag.Type)
		payload = tag.Payload
	}

	return h, payload, nil
}
