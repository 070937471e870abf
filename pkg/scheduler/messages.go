package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/moorcore/pkg/task"
	"github.com/cuemby/moorcore/pkg/types"
	"github.com/cuemby/moorcore/pkg/worldstate"
)

// ToTaskKind tags a scheduler-to-task control message.
type ToTaskKind uint8

const (
	ToTaskResume ToTaskKind = iota
	ToTaskAbort
)

// ToTaskMsg is sent on a task's private control channel. Resume always
// carries a freshly begun transaction, since one is never held across a
// suspension.
type ToTaskMsg struct {
	Kind      ToTaskKind
	Tx        *worldstate.Transaction
	Value     types.Var
	InputText string
}

// FromTaskKind tags a task-to-scheduler control message, one per outcome
// the control loop dispatches on.
type FromTaskKind uint8

const (
	FromTaskSuccess FromTaskKind = iota
	FromTaskException
	FromTaskAbortCancelled
	FromTaskAbortLimitsReached
	FromTaskCommandError
	FromTaskVerbNotFound
	FromTaskConflictRetry
	FromTaskRequestFork
	FromTaskSuspend
	FromTaskRequestInput
)

// FromTaskMsg is sent on the scheduler's shared inbox by whichever task
// goroutine currently holds the floor. Only the fields relevant to Kind are
// populated.
type FromTaskMsg struct {
	TaskID task.ID
	Kind   FromTaskKind

	Value types.Var
	Err   error

	Reason task.AbortLimitReason

	Fork          task.ForkDescriptor
	ForkSuspended bool
	ForkReply     chan task.ID

	ResumeAt *time.Time

	InputID uuid.UUID
}

// killMsg is KillTask's wire form on the admin channel.
type killMsg struct {
	victim      task.ID
	senderPerms types.Obj
	reply       chan error
}

// resumeTaskMsg is ResumeTask's wire form.
type resumeTaskMsg struct {
	id          task.ID
	senderPerms types.Obj
	returnValue types.Var
	reply       chan error
}

// bootMsg is BootPlayer's wire form.
type bootMsg struct {
	player types.Obj
	caller task.ID
}

// describeMsg is DescribeOtherTasks's wire form.
type describeMsg struct {
	reply chan []task.Description
}

// forceGCMsg requests an out-of-band sweep through the engine's
// GarbageCollector.
type forceGCMsg struct{}

// shutdownMsg requests an orderly stop; done closes once every task has
// been sent Abort and the control loop has exited.
type shutdownMsg struct {
	done chan struct{}
}

// submitInputMsg is submit_requested_input's wire form.
type submitInputMsg struct {
	player types.Obj
	id     uuid.UUID
	text   string
	reply  chan error
}
