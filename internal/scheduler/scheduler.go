package scheduler

import (
	"container/heap"
)

type Kind uint8

const (
	// KindValidate re-checks a target after an admitted interaction.
	KindValidate Kind = iota
	// KindContinue applies a chosen response once the host menu has closed.
	KindContinue
)

func (k Kind) String() string {
	switch k {
	case KindValidate:
		return `validate`
	case KindContinue:
		return `continue`
	}
	return `unknown`
}

type key struct {
	characterId string
	kind        Kind
}

type task struct {
	key      key
	due      uint64
	seq      uint64
	run      func()
	canceled bool
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due == h[j].due {
		return h[i].seq < h[j].seq
	}
	return h[i].due < h[j].due
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Queue holds work that must run a number of world ticks in the future.
// At most one task exists per (characterId, Kind). Tasks run on whatever
// goroutine calls Advance, which must be the world thread.
type Queue struct {
	now     uint64
	seq     uint64
	tasks   taskHeap
	pending map[key]*task
}

func New() *Queue {
	return &Queue{
		pending: map[key]*task{},
	}
}

// Now returns the last tick passed to Advance.
func (q *Queue) Now() uint64 {
	return q.now
}

// Schedule runs fn delayTicks after the current tick. A delay of zero is
// treated as one tick. An existing task with the same character and kind
// is replaced; the return value reports whether that happened.
func (q *Queue) Schedule(characterId string, kind Kind, delayTicks uint64, fn func()) (replaced bool) {
	if delayTicks == 0 {
		delayTicks = 1
	}

	k := key{characterId, kind}
	if old, ok := q.pending[k]; ok {
		old.canceled = true
		replaced = true
	}

	q.seq++
	t := &task{
		key: k,
		due: q.now + delayTicks,
		seq: q.seq,
		run: fn,
	}
	q.pending[k] = t
	heap.Push(&q.tasks, t)

	return replaced
}

// Due reports the tick a pending task will run at.
func (q *Queue) Due(characterId string, kind Kind) (uint64, bool) {
	if t, ok := q.pending[key{characterId, kind}]; ok {
		return t.due, true
	}
	return 0, false
}

func (q *Queue) Cancel(characterId string, kind Kind) bool {
	k := key{characterId, kind}
	t, ok := q.pending[k]
	if !ok {
		return false
	}
	t.canceled = true
	delete(q.pending, k)
	return true
}

// Advance moves the clock to tick and runs everything due, oldest first.
// Tasks scheduled while running are due no earlier than tick+1.
// Returns the number of tasks run.
func (q *Queue) Advance(tick uint64) int {
	if tick > q.now {
		q.now = tick
	}

	ran := 0
	for len(q.tasks) > 0 && q.tasks[0].due <= q.now {
		t := heap.Pop(&q.tasks).(*task)
		if t.canceled {
			continue
		}
		delete(q.pending, t.key)
		ran++
		t.run()
	}
	return ran
}

func (q *Queue) Len() int {
	return len(q.pending)
}

// Reset drops all tasks. The tick counter is kept.
func (q *Queue) Reset() {
	q.tasks = nil
	q.pending = map[key]*task{}
}
