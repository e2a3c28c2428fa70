// Package record defines the fixed-format sort record and the heap item
// that orders records during run generation.
package record

import "bytes"

const (
	// KeySize is the fixed key width in bytes.
	KeySize = 10
	// PayloadSize is the fixed payload width in bytes.
	PayloadSize = 90
	// Size is the on-disk size of one input record.
	Size = KeySize + PayloadSize
	// FrameSize is the size of one self-describing output frame:
	// two u32 length prefixes plus key and payload.
	FrameSize = 4 + KeySize + 4 + PayloadSize
)

// Record is one fixed-format record: a 10-byte key followed by a 90-byte
// payload. The array types enforce the sizes at construction; a Record can
// never hold a short or oversized field.
type Record struct {
	Key     [KeySize]byte
	Payload [PayloadSize]byte
}

// NewRecord creates a record from a key and payload.
func NewRecord(key [KeySize]byte, payload [PayloadSize]byte) Record {
	return Record{Key: key, Payload: payload}
}

// Compare orders records by key as unsigned byte sequences.
// It returns -1, 0, or 1.
func (r *Record) Compare(other *Record) int {
	return bytes.Compare(r.Key[:], other.Key[:])
}

// Item wraps a record queued for output. Generation partitions the queue
// between the run currently being emitted and records frozen for a later
// run; Seq breaks ties so duplicate keys leave the queue in insertion order.
type Item struct {
	Rec Record
	Gen uint64
	Seq uint64
}

// Less reports whether i sorts before other: generation ascending, then key
// ascending, then sequence ascending. Draining strictly by this order is what
// keeps every run internally sorted and every frozen record out of the
// current run.
func (i *Item) Less(other *Item) bool {
	if i.Gen != other.Gen {
		return i.Gen < other.Gen
	}
	if c := bytes.Compare(i.Rec.Key[:], other.Rec.Key[:]); c != 0 {
		return c < 0
	}
	return i.Seq < other.Seq
}
