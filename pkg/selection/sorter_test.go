package selection

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rotaki/runsort/pkg/config"
	"github.com/rotaki/runsort/pkg/record"
	"github.com/rotaki/runsort/pkg/sortio"
)

// encodeKeys builds a flat input stream of 100-byte records whose first key
// byte carries the identity; all other bytes are zero.
func encodeKeys(keys []byte) []byte {
	buf := make([]byte, 0, len(keys)*record.Size)
	for _, k := range keys {
		var rec [record.Size]byte
		rec[0] = k
		buf = append(buf, rec[:]...)
	}
	return buf
}

func newTestConfig(dir string, heapCap int) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.HeapCapacity = heapCap
	cfg.OutputDir = dir
	return cfg
}

func runSorter(t *testing.T, dir string, heapCap int, keys []byte) (int, *Sorter) {
	t.Helper()
	sorter, err := NewSorter(newTestConfig(dir, heapCap))
	if err != nil {
		t.Fatalf("Failed to create sorter: %v", err)
	}
	runs, err := sorter.Run(bytes.NewReader(encodeKeys(keys)))
	if err != nil {
		t.Fatalf("Run generation failed: %v", err)
	}
	return runs, sorter
}

// runFiles returns the run file paths under dir in run order.
func runFiles(t *testing.T, dir string) []string {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(dir, "run_*.bin"))
	if err != nil {
		t.Fatalf("Failed to list run files: %v", err)
	}
	sort.Strings(paths)
	return paths
}

// readRunKeys decodes a run file's frames and returns the first key byte of
// each record.
func readRunKeys(t *testing.T, path string) []byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open run file: %v", err)
	}
	defer f.Close()

	var keys []byte
	var rec record.Record
	r := bufio.NewReader(f)
	for {
		err := sortio.ReadFrame(r, &rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read frame from %s: %v", path, err)
		}
		keys = append(keys, rec.Key[0])
	}
	return keys
}

func checkSorted(t *testing.T, path string, keys []byte) {
	t.Helper()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("%s: keys out of order at %d: %d > %d", path, i, keys[i-1], keys[i])
		}
	}
}

func keyCounts(keys []byte) map[byte]int {
	counts := make(map[byte]int)
	for _, k := range keys {
		counts[k]++
	}
	return counts
}

// checkRuns verifies every run is sorted and that the union of all runs is
// exactly the input multiset. It returns the per-run key slices.
func checkRuns(t *testing.T, dir string, runs int, input []byte) [][]byte {
	t.Helper()
	paths := runFiles(t, dir)
	if len(paths) != runs {
		t.Fatalf("Expected %d run files, found %d", runs, len(paths))
	}

	var all []byte
	perRun := make([][]byte, 0, runs)
	for _, path := range paths {
		keys := readRunKeys(t, path)
		checkSorted(t, path, keys)
		all = append(all, keys...)
		perRun = append(perRun, keys)
	}

	want := keyCounts(input)
	got := keyCounts(all)
	if len(got) != len(want) {
		t.Errorf("Output key set differs from input: got %v, want %v", got, want)
	}
	for k, n := range want {
		if got[k] != n {
			t.Errorf("Key %d: appears %d times in output, %d in input", k, got[k], n)
		}
	}
	if len(all) != len(input) {
		t.Errorf("Output has %d records, input had %d", len(all), len(input))
	}
	return perRun
}

func TestEmptyInput(t *testing.T) {
	dir := t.TempDir()
	runs, _ := runSorter(t, dir, 10, nil)

	if runs != 0 {
		t.Errorf("Expected 0 runs for empty input, got %d", runs)
	}
	if paths := runFiles(t, dir); len(paths) != 0 {
		t.Errorf("Expected no run files, found %v", paths)
	}
}

func TestSingleRecord(t *testing.T) {
	dir := t.TempDir()
	runs, _ := runSorter(t, dir, 10, []byte{42})

	if runs != 1 {
		t.Fatalf("Expected 1 run, got %d", runs)
	}
	keys := readRunKeys(t, filepath.Join(dir, "run_000.bin"))
	if len(keys) != 1 || keys[0] != 42 {
		t.Errorf("Expected single key 42, got %v", keys)
	}
}

func TestSortedInputSingleRun(t *testing.T) {
	// Ascending input yields one run regardless of heap capacity.
	dir := t.TempDir()
	runs, _ := runSorter(t, dir, 3, []byte{1, 2, 3, 4, 5})

	if runs != 1 {
		t.Fatalf("Expected 1 run for sorted input, got %d", runs)
	}
	keys := readRunKeys(t, filepath.Join(dir, "run_000.bin"))
	if !bytes.Equal(keys, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("Expected keys [1 2 3 4 5], got %v", keys)
	}
}

func TestSortedInputHeapCapacityOne(t *testing.T) {
	dir := t.TempDir()
	input := make([]byte, 20)
	for i := range input {
		input[i] = byte(i + 1)
	}
	runs, _ := runSorter(t, dir, 1, input)

	if runs != 1 {
		t.Errorf("Expected 1 run for sorted input at capacity 1, got %d", runs)
	}
	checkRuns(t, dir, runs, input)
}

func TestReverseSortedChunking(t *testing.T) {
	// Strictly descending distinct keys are the worst case: every
	// replacement read freezes, so N records at capacity H give
	// ceil(N/H) runs.
	dir := t.TempDir()
	input := []byte{5, 4, 3, 2, 1}
	runs, _ := runSorter(t, dir, 2, input)

	if runs != 3 {
		t.Errorf("Expected ceil(5/2)=3 runs, got %d", runs)
	}
	checkRuns(t, dir, runs, input)
}

func TestRunCountMonotonicInCapacity(t *testing.T) {
	input := []byte{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}

	prev := len(input) + 1
	for _, heapCap := range []int{1, 2, 3, 5, 10} {
		dir := t.TempDir()
		runs, _ := runSorter(t, dir, heapCap, input)

		want := (len(input) + heapCap - 1) / heapCap
		if runs != want {
			t.Errorf("Capacity %d: expected %d runs, got %d", heapCap, want, runs)
		}
		if runs > prev {
			t.Errorf("Capacity %d: run count %d increased from %d", heapCap, runs, prev)
		}
		prev = runs
		checkRuns(t, dir, runs, input)
	}
}

func TestPartiallyOrderedInput(t *testing.T) {
	// The classic scenario: keys 3,1,4,1,5,9,2,6,5,3 at capacity 4.
	dir := t.TempDir()
	input := []byte{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
	runs, _ := runSorter(t, dir, 4, input)

	if runs < 1 {
		t.Fatalf("Expected at least 1 run, got %d", runs)
	}
	checkRuns(t, dir, runs, input)
}

func TestDuplicateKeysPreserved(t *testing.T) {
	dir := t.TempDir()
	input := []byte{2, 2, 1, 2, 1, 1, 2}
	runs, _ := runSorter(t, dir, 2, input)
	checkRuns(t, dir, runs, input)
}

func TestRunsLongerThanHeap(t *testing.T) {
	// Partial order lets replacement selection admit post-priming records
	// into the open run, producing runs longer than the heap capacity.
	dir := t.TempDir()
	input := []byte{2, 1, 3, 4, 6, 5, 8, 7, 10, 9}
	runs, _ := runSorter(t, dir, 2, input)

	perRun := checkRuns(t, dir, runs, input)
	longest := 0
	for _, keys := range perRun {
		if len(keys) > longest {
			longest = len(keys)
		}
	}
	if longest <= 2 {
		t.Errorf("Expected a run longer than the heap capacity, longest was %d", longest)
	}
}

func TestRunFileExactLength(t *testing.T) {
	// Run files hold nothing but whole frames; no alignment padding
	// survives finalize.
	dir := t.TempDir()
	runs, _ := runSorter(t, dir, 4, []byte{3, 1, 4, 1, 5})

	for _, path := range runFiles(t, dir) {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Failed to stat %s: %v", path, err)
		}
		if info.Size()%record.FrameSize != 0 {
			t.Errorf("%s: size %d is not a multiple of the frame size", path, info.Size())
		}
	}
	_ = runs
}

func TestTruncatedInputDuringPriming(t *testing.T) {
	dir := t.TempDir()
	sorter, err := NewSorter(newTestConfig(dir, 10))
	if err != nil {
		t.Fatalf("Failed to create sorter: %v", err)
	}

	// One full record plus half of a second one.
	input := append(encodeKeys([]byte{1}), make([]byte, 50)...)
	_, err = sorter.Run(bytes.NewReader(input))
	if !errors.Is(err, sortio.ErrTruncatedRecord) {
		t.Errorf("Expected ErrTruncatedRecord, got %v", err)
	}
	if paths := runFiles(t, dir); len(paths) != 0 {
		t.Errorf("Expected no run files after priming failure, found %v", paths)
	}
}

func TestTruncatedInputMidRun(t *testing.T) {
	dir := t.TempDir()
	sorter, err := NewSorter(newTestConfig(dir, 1))
	if err != nil {
		t.Fatalf("Failed to create sorter: %v", err)
	}

	// Two full records then a truncated third. Capacity 1 forces both full
	// records through the writer before the truncation is hit.
	input := append(encodeKeys([]byte{1, 2}), make([]byte, 30)...)
	_, err = sorter.Run(bytes.NewReader(input))
	if !errors.Is(err, sortio.ErrTruncatedRecord) {
		t.Fatalf("Expected ErrTruncatedRecord, got %v", err)
	}

	// The in-flight writer must still have been finalized: exact logical
	// length, no padding left behind.
	info, err := os.Stat(filepath.Join(dir, "run_000.bin"))
	if err != nil {
		t.Fatalf("Failed to stat run file: %v", err)
	}
	if info.Size() != 2*record.FrameSize {
		t.Errorf("Expected file size %d after error finalize, got %d", 2*record.FrameSize, info.Size())
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	input := []byte{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
	runs, sorter := runSorter(t, dir, 4, input)

	st := sorter.Stats()
	if st.RecordsIn != uint64(len(input)) {
		t.Errorf("Expected %d records in, got %d", len(input), st.RecordsIn)
	}
	if st.RecordsOut != uint64(len(input)) {
		t.Errorf("Expected %d records out, got %d", len(input), st.RecordsOut)
	}
	if st.RunsEmitted != uint64(runs) {
		t.Errorf("Expected %d runs emitted, got %d", runs, st.RunsEmitted)
	}
	if want := uint64(len(input) * record.FrameSize); st.BytesWritten != want {
		t.Errorf("Expected %d bytes written, got %d", want, st.BytesWritten)
	}
}

func TestRunFileCompressedInput(t *testing.T) {
	// A zstd-compressed input file sorts identically to a flat one.
	dir := t.TempDir()
	input := []byte{5, 4, 3, 2, 1, 6, 7, 8, 9, 10}

	inputPath := filepath.Join(dir, "input.zst")
	f, err := os.Create(inputPath)
	if err != nil {
		t.Fatalf("Failed to create input file: %v", err)
	}
	cw, err := sortio.NewCompressWriter(f, sortio.CodecZstd)
	if err != nil {
		t.Fatalf("Failed to create compress writer: %v", err)
	}
	if _, err := cw.Write(encodeKeys(input)); err != nil {
		t.Fatalf("Failed to write compressed input: %v", err)
	}
	if err := cw.Close(); err != nil {
		t.Fatalf("Failed to close compress writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close input file: %v", err)
	}

	cfg := newTestConfig(dir, 3)
	cfg.InputCodec = "zstd"
	sorter, err := NewSorter(cfg)
	if err != nil {
		t.Fatalf("Failed to create sorter: %v", err)
	}
	runs, err := sorter.RunFile(inputPath)
	if err != nil {
		t.Fatalf("Run generation failed: %v", err)
	}
	checkRuns(t, dir, runs, input)
}

func TestRunFileMissingInput(t *testing.T) {
	sorter, err := NewSorter(newTestConfig(t.TempDir(), 10))
	if err != nil {
		t.Fatalf("Failed to create sorter: %v", err)
	}
	if _, err := sorter.RunFile("/nonexistent/input.bin"); err == nil {
		t.Errorf("Expected error for missing input file")
	}
}

func TestNewSorterInvalidConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.HeapCapacity = 0
	if _, err := NewSorter(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
