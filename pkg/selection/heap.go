package selection

import "github.com/rotaki/runsort/pkg/record"

// itemHeap is a min-heap of queued records ordered by the composite
// (generation, key, sequence) tuple. A single heap with this comparator
// models both the run being emitted and the records frozen for later runs;
// no second container is needed.
type itemHeap []*record.Item

// Implement heap.Interface
func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	return h[i].Less(h[j])
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *itemHeap) Push(x interface{}) {
	*h = append(*h, x.(*record.Item))
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	*h = old[0 : n-1]
	return item
}
