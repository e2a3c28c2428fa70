package sortio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rotaki/runsort/pkg/record"
)

// Frame layout, all multi-byte values little-endian:
//
//	u32 key length (always 10) | key | u32 payload length (always 90) | payload
//
// The lengths are not consulted when this codec reads frames back; they make
// run files self-describing for downstream consumers such as a merge phase.

// AppendFrame appends the 108-byte frame encoding of rec to dst and returns
// the extended slice.
func AppendFrame(dst []byte, rec *record.Record) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, record.KeySize)
	dst = append(dst, rec.Key[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, record.PayloadSize)
	dst = append(dst, rec.Payload[:]...)
	return dst
}

// EncodeFrame returns the frame encoding of rec as a fresh slice.
func EncodeFrame(rec *record.Record) []byte {
	return AppendFrame(make([]byte, 0, record.FrameSize), rec)
}

// ReadFrame decodes one frame from r into rec, validating the embedded
// lengths. It returns io.EOF at a clean frame boundary and an error wrapping
// ErrTruncatedRecord if the stream ends inside a frame.
func ReadFrame(r io.Reader, rec *record.Record) error {
	var buf [record.FrameSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: EOF mid-frame", ErrTruncatedRecord)
		}
		return fmt.Errorf("failed to read frame: %w", err)
	}

	keyLen := binary.LittleEndian.Uint32(buf[0:4])
	if keyLen != record.KeySize {
		return fmt.Errorf("%w: key length %d, want %d", ErrInvalidFrame, keyLen, record.KeySize)
	}
	payloadLen := binary.LittleEndian.Uint32(buf[4+record.KeySize : 8+record.KeySize])
	if payloadLen != record.PayloadSize {
		return fmt.Errorf("%w: payload length %d, want %d", ErrInvalidFrame, payloadLen, record.PayloadSize)
	}

	copy(rec.Key[:], buf[4:4+record.KeySize])
	copy(rec.Payload[:], buf[8+record.KeySize:])
	return nil
}
