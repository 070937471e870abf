/*
Package log provides structured logging for moorcore using zerolog.

A single global Logger is configured once via Init, then component-scoped
child loggers are created with WithComponent, WithTaskID, WithRelation, and
WithPlayer so every subsystem's log lines carry the right context without
repeating fields at every call site.
*/
package log
