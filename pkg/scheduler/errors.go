package scheduler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cuemby/moorcore/pkg/task"
)

// TaskNotFoundError reports a kill/resume/input-submit naming an id the
// scheduler has no record of (already finished, or never existed).
type TaskNotFoundError struct {
	ID task.ID
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("scheduler: task %d not found", e.ID)
}

// InputRequestNotFoundError reports submit_requested_input naming a UUID no
// task is waiting on.
type InputRequestNotFoundError struct {
	ID uuid.UUID
}

func (e *InputRequestNotFoundError) Error() string {
	return fmt.Sprintf("scheduler: input request %s not found", e.ID)
}

// CouldNotStartTaskError reports a launch failure, including exhausting the
// automatic conflict-retry budget.
type CouldNotStartTaskError struct {
	Reason string
}

func (e *CouldNotStartTaskError) Error() string {
	return fmt.Sprintf("scheduler: could not start task: %s", e.Reason)
}

// EvalCompilationError reports a StartEval program that failed to compile.
type EvalCompilationError struct {
	Details string
}

func (e *EvalCompilationError) Error() string {
	return fmt.Sprintf("scheduler: eval compilation failed: %s", e.Details)
}

// CommandExecutionError reports a StartCommand/StartDoCommand that failed
// during parsing or dispatch, distinct from an in-program MOO exception.
type CommandExecutionError struct {
	Details string
}

func (e *CommandExecutionError) Error() string {
	return fmt.Sprintf("scheduler: command execution failed: %s", e.Details)
}

// TaskAbortedLimitError reports a task that exhausted its tick or wall-clock
// resource budget.
type TaskAbortedLimitError struct {
	Reason task.AbortLimitReason
}

func (e *TaskAbortedLimitError) Error() string {
	return fmt.Sprintf("scheduler: task aborted, %s limit reached", e.Reason)
}

// TaskAbortedError reports an engine error surfaced to the task that it did
// not catch.
type TaskAbortedError struct {
	Cause error
}

func (e *TaskAbortedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scheduler: task aborted: %v", e.Cause)
	}
	return "scheduler: task aborted"
}

func (e *TaskAbortedError) Unwrap() error { return e.Cause }

// TaskAbortedExceptionError reports an uncaught in-program exception.
type TaskAbortedExceptionError struct {
	Traceback string
}

func (e *TaskAbortedExceptionError) Error() string {
	return fmt.Sprintf("scheduler: task aborted with uncaught exception: %s", e.Traceback)
}

// TaskAbortedCancelledError reports a task that was killed or booted.
type TaskAbortedCancelledError struct{}

func (e *TaskAbortedCancelledError) Error() string {
	return "scheduler: task cancelled"
}
