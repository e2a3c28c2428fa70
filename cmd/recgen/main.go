// Command recgen generates flat streams of fixed 100-byte records for
// exercising run generation: deterministic pseudo-random, ascending, or
// descending keys, optionally compressed.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/rotaki/runsort/pkg/record"
	"github.com/rotaki/runsort/pkg/sortio"
)

var (
	count   = flag.Uint64("n", 1000, "number of records to generate")
	seed    = flag.Uint64("seed", 0, "seed for the pseudo-random key stream")
	order   = flag.String("order", "random", "key order: random, asc or desc")
	codec   = flag.String("codec", "none", "output compression: none, zstd or snappy")
	outPath = flag.String("o", "", "output file (default stdout)")
)

func main() {
	flag.Parse()

	c, err := sortio.ParseCodec(*codec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	bw := bufio.NewWriterSize(out, 64*1024)
	cw, err := sortio.NewCompressWriter(bw, c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := generate(cw, *count, *seed, *order); err != nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		os.Exit(1)
	}
	if err := cw.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush output: %v\n", err)
		os.Exit(1)
	}
	if err := bw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush output: %v\n", err)
		os.Exit(1)
	}
}

func generate(w io.Writer, n, seed uint64, order string) error {
	var rec record.Record
	for i := uint64(0); i < n; i++ {
		switch order {
		case "asc":
			binary.BigEndian.PutUint64(rec.Key[2:], i)
		case "desc":
			binary.BigEndian.PutUint64(rec.Key[2:], n-1-i)
		case "random":
			deriveKey(&rec.Key, seed, i)
		default:
			return fmt.Errorf("unknown order %q", order)
		}

		// The record's ordinal rides in the payload so output runs can be
		// traced back to the input position.
		binary.LittleEndian.PutUint64(rec.Payload[:8], i)

		if _, err := w.Write(rec.Key[:]); err != nil {
			return err
		}
		if _, err := w.Write(rec.Payload[:]); err != nil {
			return err
		}
	}
	return nil
}

// deriveKey fills key with 10 bytes derived from (seed, i). The same seed
// always yields the same key stream.
func deriveKey(key *[record.KeySize]byte, seed, i uint64) {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], seed)
	binary.LittleEndian.PutUint64(buf[8:16], i)

	h := xxhash.Sum64(buf[:])
	binary.BigEndian.PutUint64(key[0:8], h)

	binary.LittleEndian.PutUint64(buf[0:8], h)
	binary.BigEndian.PutUint16(key[8:10], uint16(xxhash.Sum64(buf[:])))
}
