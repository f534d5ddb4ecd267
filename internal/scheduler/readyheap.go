package scheduler

import "container/heap"

// orderItem is one name waiting to be folded into the topological order,
// ranked by its position in the caller's original to_run list.
//
// Adapted from the teacher's time-keyed scheduler heap
// (internal/infrastructure/processmgr/scheduler.go): same min-heap shape
// with a per-item index field, repurposed from "next timer to fire" to
// "next zero-indegree env to fold into the topological order". The
// frontier only pushes and pops; it keeps no name→item map and never
// removes or re-ranks an item in place. Ranking by input position is
// what gives DependencyScheduler its stable, input-order
// tie-break (spec §4.4).
type orderItem struct {
	name  string
	order int
	index int
}

type orderHeap []*orderItem

func (h orderHeap) Len() int { return len(h) }

func (h orderHeap) Less(i, j int) bool { return h[i].order < h[j].order }

func (h orderHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *orderHeap) Push(x any) {
	it := x.(*orderItem)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *orderHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	it.index = -1
	*h = old[:n-1]
	return it
}

// frontier is a small wrapper giving push/pop-lowest-order semantics used
// while folding zero-indegree nodes into the topological order.
type frontier struct {
	h orderHeap
}

func newFrontier() *frontier {
	f := &frontier{}
	heap.Init(&f.h)
	return f
}

func (f *frontier) push(name string, order int) {
	heap.Push(&f.h, &orderItem{name: name, order: order})
}

func (f *frontier) len() int { return f.h.Len() }

func (f *frontier) popLowest() string {
	it := heap.Pop(&f.h).(*orderItem)
	return it.name
}
