package bridge

import (
	"net/netip"
	"sync"
	"testing"

	"ethertap/domain/network/ethernet"
	"ethertap/domain/network/mac"
	"ethertap/domain/network/nwid"
	"ethertap/infrastructure/demarc"
	infraLogging "ethertap/infrastructure/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	from     demarc.Port
	to       netip.AddrPort
	data     []byte
	hopLimit int
}

type fakeSender struct {
	mu    sync.Mutex
	sends []sent
	fail  map[netip.AddrPort]bool
}

func (s *fakeSender) Send(from demarc.Port, to netip.AddrPort, data []byte, hopLimit int) demarc.Port {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, sent{from: from, to: to, data: append([]byte(nil), data...), hopLimit: hopLimit})
	if s.fail[to] {
		return demarc.NullPort
	}
	if from == demarc.AnyPort {
		return demarc.Port(1)
	}
	return from
}

type staticPeers []netip.AddrPort

func (p staticPeers) Addrs() []netip.AddrPort { return p }

const testNetwork = nwid.ID(0x8056c2e21c000001)

var (
	hostA = mac.MustParse("02:00:00:00:00:0a")
	hostB = mac.MustParse("02:00:00:00:00:0b")
	peer1 = netip.MustParseAddrPort("192.0.2.1:9993")
	peer2 = netip.MustParseAddrPort("[2001:db8::2]:9993")
)

func TestHandleFrame_SendsToEveryPeer(t *testing.T) {
	sender := &fakeSender{}
	b := NewBridge(testNetwork, sender, staticPeers{peer1, peer2}, 3, infraLogging.NewDiscardLogger())

	b.HandleFrame(testNetwork, hostA, hostB, 0x0800, 0, []byte{1, 2, 3})

	want := Encapsulate(testNetwork, ethernet.Encode(hostA, hostB, 0x0800, []byte{1, 2, 3}))
	require.Len(t, sender.sends, 2)
	for i, peer := range []netip.AddrPort{peer1, peer2} {
		assert.Equal(t, demarc.AnyPort, sender.sends[i].from)
		assert.Equal(t, peer, sender.sends[i].to)
		assert.Equal(t, want, sender.sends[i].data)
		assert.Equal(t, 3, sender.sends[i].hopLimit)
	}
	assert.Equal(t, Stats{FramesOut: 1, DatagramsOut: 2}, b.Stats())
}

func TestHandleFrame_KeepsVLANTag(t *testing.T) {
	sender := &fakeSender{}
	b := NewBridge(testNetwork, sender, staticPeers{peer1}, -1, infraLogging.NewDiscardLogger())

	b.HandleFrame(testNetwork, hostA, hostB, 0x0800, 42, []byte{7})

	require.Len(t, sender.sends, 1)
	_, frame, err := Decapsulate(sender.sends[0].data)
	require.NoError(t, err)
	h, payload, err := ethernet.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), h.VLAN)
	assert.Equal(t, uint16(0x0800), h.EtherType)
	assert.Equal(t, []byte{7}, payload)
}

func TestHandleFrame_CountsFailuresAndForeignNetworks(t *testing.T) {
	sender := &fakeSender{fail: map[netip.AddrPort]bool{peer2: true}}
	b := NewBridge(testNetwork, sender, staticPeers{peer1, peer2}, -1, infraLogging.NewDiscardLogger())

	b.HandleFrame(testNetwork, hostA, hostB, 0x0800, 0, nil)
	b.HandleFrame(testNetwork+1, hostA, hostB, 0x0800, 0, nil)

	assert.Equal(t, Stats{FramesOut: 1, DatagramsOut: 1, SendFailures: 1, Dropped: 1}, b.Stats())
}

func TestHandleDatagram(t *testing.T) {
	frame := ethernet.Encode(hostB, hostA, 0x86dd, []byte{9, 9})

	t.Run("delivered to the attached port", func(t *testing.T) {
		sender := &fakeSender{}
		b := NewBridge(testNetwork, sender, staticPeers{}, -1, infraLogging.NewDiscardLogger())
		b.Attach(demarc.Port(7))

		b.HandleDatagram(demarc.Port(1), peer1, Encapsulate(testNetwork, frame))

		require.Len(t, sender.sends, 1)
		assert.Equal(t, demarc.Port(7), sender.sends[0].from)
		assert.Equal(t, frame, sender.sends[0].data)
		assert.Equal(t, -1, sender.sends[0].hopLimit)
		assert.Equal(t, Stats{DatagramsIn: 1, FramesIn: 1}, b.Stats())
	})

	t.Run("dropped", func(t *testing.T) {
		sender := &fakeSender{}
		b := NewBridge(testNetwork, sender, staticPeers{}, -1, infraLogging.NewDiscardLogger())

		// not attached yet
		b.HandleDatagram(demarc.Port(1), peer1, Encapsulate(testNetwork, frame))
		b.Attach(demarc.Port(7))
		b.HandleDatagram(demarc.Port(1), peer1, Encapsulate(testNetwork+1, frame))
		b.HandleDatagram(demarc.Port(1), peer1, []byte{1, 2, 3})

		assert.Empty(t, sender.sends)
		assert.Equal(t, Stats{DatagramsIn: 3, Dropped: 3}, b.Stats())
	})
}
