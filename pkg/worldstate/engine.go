package worldstate

import (
	"context"
	"fmt"
)

// Engine is a thin operational façade over a WorldState: the checkpoint
// and garbage-collection entry points a host (the scheduler's shutdown and
// force-gc admin messages) calls through, kept separate from WorldState
// itself so adding an operational concern never touches the transaction
// API.
type Engine struct {
	ws *WorldState
}

// NewEngine wraps ws.
func NewEngine(ws *WorldState) *Engine {
	return &Engine{ws: ws}
}

// Checkpoint flushes every relation's provider to durable storage in turn,
// stopping early if ctx is cancelled. Intended to run once, synchronously,
// during an orderly shutdown, after in-flight tasks have been told to abort
// so no further writes land mid-flush.
func (e *Engine) Checkpoint(ctx context.Context) error {
	for _, r := range e.ws.all() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := r.Checkpoint(); err != nil {
			return fmt.Errorf("worldstate: checkpoint %s: %w", r.Name(), err)
		}
	}
	return nil
}

// GarbageCollector is satisfied by anything that can sweep objects out of
// the engine that are no longer reachable from any named root. The
// scheduler's ForceGC calls through this interface rather than a concrete
// type, so a real collector can be substituted without scheduler changes.
type GarbageCollector interface {
	CollectGarbage(ctx context.Context) (collected int, err error)
}

// CollectGarbage implements GarbageCollector. Anonymous objects are not
// minted by anything in this repo yet, so there is nothing to reclaim;
// this reports zero rather than leaving ForceGC with no collector to call.
func (e *Engine) CollectGarbage(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	return 0, nil
}
