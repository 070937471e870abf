package scheduler

import (
	"github.com/cuemby/moorcore/pkg/task"
	"github.com/cuemby/moorcore/pkg/types"
)

// ResultKind tags which field of a Result is meaningful: either a plain
// value or notice that the subscribed task was replaced by another.
type ResultKind uint8

const (
	ResultValue ResultKind = iota
	ResultReplaced
)

// Result is what a TaskHandle's subscription eventually delivers.
type Result struct {
	Kind       ResultKind
	Value      types.Var
	Err        error
	ReplacedBy task.ID
}

// Handle is returned by every submit_*_task call: a task id plus a
// one-shot subscription to its eventual outcome.
type Handle struct {
	ID task.ID
	ch chan Result
}

// Wait blocks until the task's terminal Result is available.
func (h *Handle) Wait() Result {
	return <-h.ch
}

// Subscribe returns the channel the task's Result will arrive on. The
// channel is closed immediately after the single send.
func (h *Handle) Subscribe() <-chan Result {
	return h.ch
}
