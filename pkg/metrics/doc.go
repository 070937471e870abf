/*
Package metrics provides Prometheus metrics collection and exposition for
moorcore: transaction commit/conflict counters, relation size gauges, and
scheduler task-state gauges and histograms. Metrics are exposed via an HTTP
handler for scraping by a Prometheus server.

All metrics are package-level variables registered at init; callers update
them directly (Inc/Set/Observe) or via the Timer helper, same as the rest of
the corpus's Prometheus instrumentation.
*/
package metrics
