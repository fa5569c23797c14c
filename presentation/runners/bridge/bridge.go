package bridge

import (
	"net/netip"
	"sync/atomic"

	"ethertap/application/logging"
	"ethertap/domain/network/ethernet"
	"ethertap/domain/network/mac"
	"ethertap/domain/network/nwid"
	"ethertap/infrastructure/demarc"
)

// Sender is the part of the Demarc the bridge writes through.
type Sender interface {
	Send(from demarc.Port, to netip.AddrPort, data []byte, hopLimit int) demarc.Port
}

// Peers lists the current outbound destinations.
type Peers interface {
	Addrs() []netip.AddrPort
}

// Stats counts what the bridge moved in each direction.
type Stats struct {
	FramesOut    uint64
	DatagramsOut uint64
	SendFailures uint64
	DatagramsIn  uint64
	FramesIn     uint64
	Dropped      uint64
}

// Bridge carries Ethernet frames of one network between a tap and UDP peers.
type Bridge struct {
	networkID nwid.ID
	sender    Sender
	peers     Peers
	hopLimit  int
	log       logging.Logger

	local atomic.Uint64

	framesOut    atomic.Uint64
	datagramsOut atomic.Uint64
	sendFailures atomic.Uint64
	datagramsIn  atomic.Uint64
	framesIn     atomic.Uint64
	dropped      atomic.Uint64
}

func NewBridge(networkID nwid.ID, sender Sender, peers Peers, hopLimit int, log logging.Logger) *Bridge {
	return &Bridge{
		networkID: networkID,
		sender:    sender,
		peers:     peers,
		hopLimit:  hopLimit,
		log:       log,
	}
}

// Attach sets the Demarc port of the local tap. Inbound frames are dropped
// until it is called.
func (b *Bridge) Attach(port demarc.Port) {
	b.local.Store(uint64(port))
}

// HandleFrame is the tap's FrameHandler.
func (b *Bridge) HandleFrame(networkID nwid.ID, from, to mac.MAC, etherType, vlan uint16, payload []byte) {
	if networkID != b.networkID {
		b.dropped.Add(1)
		return
	}
	b.framesOut.Add(1)

	frame := ethernet.Encode(from, to, etherType, payload)
	if vlan != 0 {
		frame = ethernet.EncodeTagged(from, to, vlan, etherType, payload)
	}
	data := Encapsulate(networkID, frame)
	for _, peer := range b.peers.Addrs() {
		if b.sender.Send(demarc.AnyPort, peer, data, b.hopLimit) == demarc.NullPort {
			b.sendFailures.Add(1)
			b.log.Debugf("no port could reach %s", peer)
			continue
		}
		b.datagramsOut.Add(1)
	}
}

// HandleDatagram is the Demarc's InboundHandler.
func (b *Bridge) HandleDatagram(port demarc.Port, from netip.AddrPort, data []byte) {
	b.datagramsIn.Add(1)

	networkID, frame, err := Decapsulate(data)
	if err != nil {
		b.dropped.Add(1)
		b.log.Debugf("dropping datagram from %s on port %s: %v", from, port, err)
		return
	}
	if networkID != b.networkID {
		b.dropped.Add(1)
		b.log.Debugf("dropping datagram from %s for network %s", from, networkID)
		return
	}
	local := demarc.Port(b.local.Load())
	if local == demarc.AnyPort {
		b.dropped.Add(1)
		return
	}
	if b.sender.Send(local, netip.AddrPort{}, frame, -1) == demarc.NullPort {
		b.dropped.Add(1)
		return
	}
	b.framesIn.Add(1)
}

func (b *Bridge) Stats() Stats {
	return Stats{
		FramesOut:    b.framesOut.Load(),
		DatagramsOut: b.datagramsOut.Load(),
		SendFailures: b.sendFailures.Load(),
		DatagramsIn:  b.datagramsIn.Load(),
		FramesIn:     b.framesIn.Load(),
		Dropped:      b.dropped.Load(),
	}
}
