// Package sortio implements the record and frame codecs for run generation:
// decoding fixed 100-byte records from a flat input stream and encoding the
// length-prefixed frames written to run files.
package sortio

import (
	"errors"
	"fmt"
	"io"

	"github.com/rotaki/runsort/pkg/record"
)

var (
	// ErrTruncatedRecord is returned when the input stream ends partway
	// through a record: mid-key, or after the key but before the full
	// payload. A stream whose length is an exact multiple of the record
	// size never produces it.
	ErrTruncatedRecord = errors.New("truncated record")

	// ErrInvalidFrame is returned when a frame's embedded length prefixes
	// do not match the fixed key and payload sizes.
	ErrInvalidFrame = errors.New("invalid frame")
)

// ReadRecord decodes the next record from r into rec. It returns io.EOF if
// the stream is exhausted before any byte of the key is read (clean end of
// input), and an error wrapping ErrTruncatedRecord if the stream ends inside
// a record. rec is only valid when the returned error is nil.
func ReadRecord(r io.Reader, rec *record.Record) error {
	if _, err := io.ReadFull(r, rec.Key[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: EOF mid-key", ErrTruncatedRecord)
		}
		return fmt.Errorf("failed to read record key: %w", err)
	}

	if _, err := io.ReadFull(r, rec.Payload[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: payload missing after key", ErrTruncatedRecord)
		}
		return fmt.Errorf("failed to read record payload: %w", err)
	}

	return nil
}
