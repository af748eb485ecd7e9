package jobs

import "container/heap"

// stoppedHeap is a max-heap of job ids waiting to be resumed.
type stoppedHeap []int

func (h stoppedHeap) Len() int           { return len(h) }
func (h stoppedHeap) Less(i, j int) bool { return h[i] > h[j] }
func (h stoppedHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *stoppedHeap) Push(x interface{}) {
	*h = append(*h, x.(int))
}

func (h *stoppedHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (h stoppedHeap) contains(jobID int) bool {
	for _, id := range h {
		if id == jobID {
			return true
		}
	}
	return false
}

func (h *stoppedHeap) add(jobID int) {
	if h.contains(jobID) {
		return
	}
	heap.Push(h, jobID)
}

func (h *stoppedHeap) remove(jobID int) {
	for i, id := range *h {
		if id == jobID {
			heap.Remove(h, i)
			return
		}
	}
}

func (h stoppedHeap) top() (int, bool) {
	if len(h) == 0 {
		return 0, false
	}
	return h[0], true
}
