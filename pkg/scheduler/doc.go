/*
Package scheduler implements a cooperative task scheduler: a
single control thread that owns a table of running tasks, a wake-up priority
queue for suspended tasks, and an inbox of control messages from both the
tasks themselves and external callers (kill, resume, boot, describe).

Each task runs on its own goroutine, holding at most one open world-state
transaction at a time. Transactions never span a suspension: on suspend the
task's transaction is rolled back (discarding any buffered session narrative
with it); on wake, fork, or conflict-retry the scheduler hands the task a
freshly begun one. The compiler and VM that actually interpret a task's
program live outside this repo; Executor is the seam a host
plugs a real one into.
*/
package scheduler
