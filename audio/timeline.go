package audio

import "container/heap"

type entry struct {
	at        float64
	seq       uint64
	transport bool
	fn        func()
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// Timeline orders pending events by audio time, then by insertion.
// Not safe for concurrent use.
type Timeline struct {
	h   entryHeap
	seq uint64
}

// Add queues fn at time at. Transport entries are the ones CancelTransport drops.
func (t *Timeline) Add(at float64, transport bool, fn func()) {
	t.seq++
	heap.Push(&t.h, &entry{at: at, seq: t.seq, transport: transport, fn: fn})
}

// Due pops every entry at or before now, in time order
func (t *Timeline) Due(now float64) []func() {
	var out []func()
	for len(t.h) > 0 && t.h[0].at <= now {
		e := heap.Pop(&t.h).(*entry)
		out = append(out, e.fn)
	}
	return out
}

// Next reports the time of the earliest pending entry
func (t *Timeline) Next() (float64, bool) {
	if len(t.h) == 0 {
		return 0, false
	}
	return t.h[0].at, true
}

// CancelTransport drops every pending transport entry
func (t *Timeline) CancelTransport() { t.filter(false) }

// CancelDirect drops every pending direct note event
func (t *Timeline) CancelDirect() { t.filter(true) }

func (t *Timeline) filter(keepTransport bool) {
	kept := t.h[:0]
	for _, e := range t.h {
		if e.transport == keepTransport {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(t.h); i++ {
		t.h[i] = nil
	}
	t.h = kept
	heap.Init(&t.h)
}

func (t *Timeline) Len() int { return len(t.h) }
