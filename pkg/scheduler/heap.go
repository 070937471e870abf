package scheduler

import (
	"time"

	"github.com/cuemby/moorcore/pkg/task"
)

// wakeItem is one entry in the scheduler's wake-up priority queue: a
// suspended task and the time it should next run.
type wakeItem struct {
	resumeAt time.Time
	id       task.ID
	index    int
}

// wakeHeap is a container/heap.Interface ordering wakeItems by resumeAt,
// earliest first.
type wakeHeap []*wakeItem

func (h wakeHeap) Len() int { return len(h) }

func (h wakeHeap) Less(i, j int) bool { return h[i].resumeAt.Before(h[j].resumeAt) }

func (h wakeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *wakeHeap) Push(x any) {
	item := x.(*wakeItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *wakeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
