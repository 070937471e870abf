/*
Package session implements the narrative-sink collaborator: the
only legitimate destination for user-visible side effects a task produces
while it holds an open transaction. A Session buffers events until the
task's transaction commits; on conflict-retry or error the scheduler rolls
the buffer back instead of delivering it, so a replayed task never narrates
its discarded attempt twice.
*/
package session
