// Command rundump decodes run files and verifies that their frames are
// non-decreasing by key.
package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rotaki/runsort/pkg/record"
	"github.com/rotaki/runsort/pkg/sortio"
)

var printKeys = flag.Bool("keys", false, "print each frame's key in hex")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <run-file>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	ok := true
	for _, path := range flag.Args() {
		if err := dump(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			ok = false
		}
	}
	if !ok {
		os.Exit(1)
	}
}

func dump(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)

	var (
		rec     record.Record
		lastKey [record.KeySize]byte
		count   int
	)
	for {
		err := sortio.ReadFrame(r, &rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", count, err)
		}

		if *printKeys {
			fmt.Printf("%s %8d %s\n", path, count, hex.EncodeToString(rec.Key[:]))
		}
		if count > 0 && bytes.Compare(rec.Key[:], lastKey[:]) < 0 {
			return fmt.Errorf("frame %d: key out of order", count)
		}
		lastKey = rec.Key
		count++
	}

	fmt.Printf("%s: %d frames, sorted\n", path, count)
	return nil
}
