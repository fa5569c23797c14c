package tap

import "sync/atomic"

// Stats counts what the tap did with frames besides moving them.
type Stats struct {
	Delivered        uint64
	DroppedDisabled  uint64
	DroppedShort     uint64
	DroppedOversize  uint64
	DroppedMalformed uint64
	WriteErrors      uint64
	Reopens          uint64
}

type counters struct {
	delivered        atomic.Uint64
	droppedDisabled  atomic.Uint64
	droppedShort     atomic.Uint64
	droppedOversize  atomic.Uint64
	droppedMalformed atomic.Uint64
	writeErrors      atomic.Uint64
	reopens          atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Delivered:        c.delivered.Load(),
		DroppedDisabled:  c.droppedDisabled.Load(),
		DroppedShort:     c.droppedShort.Load(),
		DroppedOversize:  c.droppedOversize.Load(),
		DroppedMalformed: c.droppedMalformed.Load(),
		WriteErrors:      c.writeErrors.Load(),
		Reopens:          c.reopens.Load(),
	}
}
