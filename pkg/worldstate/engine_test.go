package worldstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineCheckpointFlushesEveryRelation(t *testing.T) {
	ws := newTestWorld(t)
	tx := ws.Begin(nil)
	_, err := tx.CreateObject(nil, CreateObjectAttrs{Name: "room"})
	require.NoError(t, err)
	committed, err := tx.Commit()
	require.NoError(t, err)
	require.True(t, committed)

	engine := NewEngine(ws)
	require.NoError(t, engine.Checkpoint(context.Background()))
}

func TestEngineCheckpointHonorsCancelledContext(t *testing.T) {
	ws := newTestWorld(t)
	engine := NewEngine(ws)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, engine.Checkpoint(ctx), context.Canceled)
}

func TestEngineCollectGarbageReportsZero(t *testing.T) {
	ws := newTestWorld(t)
	engine := NewEngine(ws)

	var collector GarbageCollector = engine
	n, err := collector.CollectGarbage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
