package task

import (
	"time"

	"github.com/cuemby/moorcore/pkg/types"
)

// ID identifies a task within a running scheduler. Zero is never issued.
type ID int64

// Command is a raw command line plus the verb token the parser split off
// it. Full command-to-verb-argument dispatch (prepositions, dobj/iobj
// string matching) is not done by the scheduler, which passes Command to the
// Executor unchanged; Command only carries what a StartCommand/StartDoCommand
// needs to replay.
type Command struct {
	Raw  string
	Verb string
	Args []string
}

// Kind tags which fields of a Start are meaningful.
type Kind uint8

const (
	KindCommand Kind = iota
	KindVerb
	KindFork
	KindEval
	KindDoCommand
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindVerb:
		return "verb"
	case KindFork:
		return "fork"
	case KindEval:
		return "eval"
	case KindDoCommand:
		return "do_command"
	default:
		return "unknown"
	}
}

// ForkDescriptor is the payload of a TaskRequestFork control message: the
// verb invocation a forked task should run, and how long the scheduler
// should hold it suspended before starting it.
type ForkDescriptor struct {
	Player types.Obj
	This   types.Obj
	Verb   string
	Args   []types.Var
	Delay  time.Duration
}

// Start is the immutable description used to (re)launch a task, one
// variant per way a task can begin. Conflict-retry replays a task by handing its
// saved Start back to the scheduler's launch path under a fresh
// transaction, so Start must carry everything launch needs and nothing a
// transaction would have produced.
type Start struct {
	Kind Kind

	// KindCommand, KindDoCommand
	Player  types.Obj
	Command Command

	// KindVerb
	This types.Obj
	Verb string
	Args []types.Var

	// KindFork
	Fork      ForkDescriptor
	Suspended bool

	// KindEval
	Program []byte
	Env     map[string]types.Var
}

// StartCommand builds a Start that parses and dispatches a typed command
// line on behalf of player.
func StartCommand(player types.Obj, cmd Command) Start {
	return Start{Kind: KindCommand, Player: player, Command: cmd}
}

// StartDoCommand builds a Start for the pre-parse $do_command hook, which
// runs before the built-in command parser gets a chance at the line.
func StartDoCommand(player types.Obj, cmd Command) Start {
	return Start{Kind: KindDoCommand, Player: player, Command: cmd}
}

// StartVerb builds a Start that invokes a verb directly, bypassing command
// parsing.
func StartVerb(player, this types.Obj, verb string, args []types.Var) Start {
	return Start{Kind: KindVerb, Player: player, This: this, Verb: verb, Args: args}
}

// StartFork builds a Start for a task spawned by the `fork` builtin.
// suspended records whether the fork was itself created in suspended state
// (distinct from fork.Delay, which governs the wake deadline).
func StartFork(fork ForkDescriptor, suspended bool) Start {
	return Start{Kind: KindFork, Player: fork.Player, Fork: fork, Suspended: suspended}
}

// StartEval builds a Start for an ad hoc program submitted for evaluation,
// e.g. from an admin `eval` command. env seeds local variables visible to
// the program.
func StartEval(player types.Obj, program []byte, env map[string]types.Var) Start {
	return Start{Kind: KindEval, Player: player, Program: program, Env: env}
}

// AbortLimitReason distinguishes which of a task's two resource budgets was
// exhausted.
type AbortLimitReason uint8

const (
	AbortLimitTicks AbortLimitReason = iota
	AbortLimitTime
)

func (r AbortLimitReason) String() string {
	if r == AbortLimitTime {
		return "time"
	}
	return "ticks"
}

// Description is the record DescribeOtherTasks reports for one suspended
// task.
type Description struct {
	ID        ID
	Player    types.Obj
	This      types.Obj
	Verb      string
	StartedAt time.Time
	ResumeAt  *time.Time
	Suspended bool
	Kind      Kind
}
