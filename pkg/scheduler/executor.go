package scheduler

import (
	"github.com/cuemby/moorcore/pkg/session"
	"github.com/cuemby/moorcore/pkg/task"
	"github.com/cuemby/moorcore/pkg/types"
	"github.com/cuemby/moorcore/pkg/worldstate"
)

// Executor runs one task attempt to completion or to its next suspension
// point. It is called on its own goroutine and must not return until the
// task has either terminated (sending exactly one terminal FromTaskMsg:
// Success/Exception/AbortCancelled/AbortLimitsReached/CommandError/
// VerbNotFound/ConflictRetry) or suspended (sending Suspend/RequestFork/
// RequestInput and then blocking on toTask for the matching Resume, at
// which point it continues with the Resume's fresh transaction).
//
// resumeValue is the value a prior Resume handed back in (zero on first
// launch). The compiler and VM that interpret a task's program live outside
// this package; a host wires a real Executor at startup.
type Executor func(
	id task.ID,
	start task.Start,
	tx *worldstate.Transaction,
	resumeValue types.Var,
	sess session.Session,
	toTask <-chan ToTaskMsg,
	out chan<- FromTaskMsg,
)
