// Package selection implements replacement selection, the run-generation
// phase of an external merge sort. A bounded min-heap turns an unbounded
// stream of fixed-format records into disk-resident sorted runs, using
// memory for at most HeapCapacity resident records. Partially ordered input
// yields runs longer than the heap capacity.
package selection

import (
	"bufio"
	"bytes"
	"container/heap"
	"fmt"
	"io"
	"os"

	"github.com/rotaki/runsort/pkg/common/log"
	"github.com/rotaki/runsort/pkg/config"
	"github.com/rotaki/runsort/pkg/record"
	"github.com/rotaki/runsort/pkg/runfile"
	"github.com/rotaki/runsort/pkg/sortio"
)

const inputBufferSize = 64 * 1024

// Sorter runs replacement selection over one input stream. It is
// single-threaded by design: correctness depends on the strict global
// ordering of generations, and disk and heap work dominate the cost.
type Sorter struct {
	cfg   *config.Config
	log   log.Logger
	stats collector
}

// SorterOption configures a Sorter.
type SorterOption func(*Sorter)

// WithLogger sets the logger used for per-run diagnostics.
func WithLogger(logger log.Logger) SorterOption {
	return func(s *Sorter) {
		s.log = logger
	}
}

// NewSorter creates a Sorter for the given configuration.
func NewSorter(cfg *config.Config, options ...SorterOption) (*Sorter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Sorter{
		cfg: cfg,
		log: log.GetDefaultLogger(),
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// Stats returns a snapshot of the pass counters.
func (s *Sorter) Stats() Stats {
	return s.stats.snapshot()
}

// RunFile runs replacement selection over the record stream in the file at
// path, decompressing it with the configured input codec. It returns the
// number of runs written.
func (s *Sorter) RunFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	cr, err := sortio.NewCompressReader(bufio.NewReaderSize(f, inputBufferSize), s.cfg.Codec())
	if err != nil {
		return 0, err
	}
	defer cr.Close()

	return s.Run(cr)
}

// Run consumes the record stream r and writes sorted runs
// <RunPrefix>_<NNN>.bin under OutputDir. It returns the number of runs
// written: zero for empty input, in which case no file is created.
//
// Within one run, emitted keys are non-decreasing: a record is only admitted
// to the current generation when its key is at least the last emitted key,
// and the heap always surfaces the minimum of the current generation next.
// Records that cannot extend the run are frozen into the next generation and
// drained after the current one is exhausted.
func (s *Sorter) Run(r io.Reader) (runs int, err error) {
	var (
		items      itemHeap
		seq        uint64
		currentGen uint64
		runIdx     int
		lastKey    [record.KeySize]byte
		haveLast   bool
		rec        record.Record
	)

	// Prime the heap with up to HeapCapacity records, all generation 0.
	for items.Len() < s.cfg.HeapCapacity {
		rerr := sortio.ReadRecord(r, &rec)
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, rerr
		}
		heap.Push(&items, &record.Item{Rec: rec, Gen: 0, Seq: seq})
		seq++
		s.stats.recordsIn.Add(1)
	}

	if items.Len() == 0 {
		return 0, nil
	}

	if s.cfg.OutputDir != "" {
		if err := os.MkdirAll(s.cfg.OutputDir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	fileSet := runfile.NewFileSet(s.cfg.OutputDir, s.cfg.RunPrefix, s.cfg.BlockSize, s.cfg.DirectIO)
	writer, err := fileSet.Create(runIdx)
	if err != nil {
		return 0, err
	}

	// The active writer's pad-and-truncate must happen on every exit path,
	// error returns included. Finalize is idempotent, so the success path
	// finalizing explicitly is fine.
	defer func() {
		if writer == nil {
			return
		}
		if ferr := writer.Finalize(); ferr != nil && err == nil {
			runs, err = 0, ferr
		}
	}()

	frame := make([]byte, 0, record.FrameSize)
	emitted := 0

	for items.Len() > 0 {
		// A minimum from a later generation means the current generation
		// is fully drained: close the run and rotate.
		if items[0].Gen != currentGen {
			if emitted > 0 {
				if err := s.closeRun(writer, runIdx, emitted); err != nil {
					writer = nil
					return 0, err
				}
				runIdx++
				currentGen++
				haveLast = false
				emitted = 0
				writer = nil
				w, werr := fileSet.Create(runIdx)
				if werr != nil {
					return 0, werr
				}
				writer = w
			} else {
				// Unreachable in normal operation: priming always leaves
				// generation-0 items in a non-empty heap. Kept as a
				// safety net; nothing depends on this branch.
				s.log.Warn("generation %d exhausted with empty run", currentGen)
				currentGen++
			}
			continue
		}

		item := heap.Pop(&items).(*record.Item)
		frame = sortio.AppendFrame(frame[:0], &item.Rec)
		if _, werr := writer.Write(frame); werr != nil {
			return 0, werr
		}
		emitted++
		lastKey = item.Rec.Key
		haveLast = true
		s.stats.recordsOut.Add(1)

		// One replacement read. A key below the last emitted key cannot
		// extend this run in sorted order, so it is frozen into the next
		// generation. On EOF the heap simply drains.
		rerr := sortio.ReadRecord(r, &rec)
		if rerr == io.EOF {
			continue
		}
		if rerr != nil {
			return 0, rerr
		}
		gen := currentGen
		if haveLast && bytes.Compare(rec.Key[:], lastKey[:]) < 0 {
			gen = currentGen + 1
			s.stats.recordsFrozen.Add(1)
		}
		heap.Push(&items, &record.Item{Rec: rec, Gen: gen, Seq: seq})
		seq++
		s.stats.recordsIn.Add(1)
	}

	w := writer
	writer = nil
	if err := s.closeRun(w, runIdx, emitted); err != nil {
		return 0, err
	}
	return runIdx + 1, nil
}

// closeRun finalizes one run file and records its stats.
func (s *Sorter) closeRun(w *runfile.Writer, idx, emitted int) error {
	size := w.LogicalSize()
	if err := w.Finalize(); err != nil {
		return err
	}
	s.stats.bytesWritten.Add(uint64(size))
	s.stats.runsEmitted.Add(1)
	s.log.Debug("run %03d closed: %d records, %d bytes", idx, emitted, size)
	return nil
}
