/*
Package task defines the shape of a running user-program activation: its
identity, the immutable TaskStart describing how to (re)launch it, fork
requests, resource-limit reasons, and the description records reported to
DescribeOtherTasks. The scheduler (pkg/scheduler) owns the lifecycle; this
package only holds the value types both it and task execution glue share.
*/
package task
