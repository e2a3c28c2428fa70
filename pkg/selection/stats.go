package selection

import "sync/atomic"

// collector accumulates counters for one pass using atomics, so a snapshot
// can be taken from another goroutine while the pass runs.
type collector struct {
	recordsIn     atomic.Uint64
	recordsOut    atomic.Uint64
	recordsFrozen atomic.Uint64
	bytesWritten  atomic.Uint64
	runsEmitted   atomic.Uint64
}

// Stats is a point-in-time snapshot of a pass.
type Stats struct {
	// RecordsIn is the number of records decoded from the input.
	RecordsIn uint64
	// RecordsOut is the number of records written to run files.
	RecordsOut uint64
	// RecordsFrozen is the number of records deferred to a later run
	// because their key fell below the last emitted key.
	RecordsFrozen uint64
	// BytesWritten is the logical byte count across all run files.
	BytesWritten uint64
	// RunsEmitted is the number of finalized run files.
	RunsEmitted uint64
}

func (c *collector) snapshot() Stats {
	return Stats{
		RecordsIn:     c.recordsIn.Load(),
		RecordsOut:    c.recordsOut.Load(),
		RecordsFrozen: c.recordsFrozen.Load(),
		BytesWritten:  c.bytesWritten.Load(),
		RunsEmitted:   c.runsEmitted.Load(),
	}
}
