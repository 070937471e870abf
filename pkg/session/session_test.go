package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/moorcore/pkg/types"
)

func TestBufferedSessionDeliversOnlyOnCommit(t *testing.T) {
	var delivered []Event
	s := NewBufferedSession(func(player types.Obj, events []Event) error {
		delivered = append(delivered, events...)
		return nil
	})
	player := types.NewObjID(1)
	s.Connect(player, "test-conn")

	s.SendEvent(player, Event{Text: "hello"})
	s.SendEvent(player, Event{Text: "world"})
	assert.Empty(t, delivered)

	require.NoError(t, s.Commit(player))
	assert.Len(t, delivered, 2)

	require.NoError(t, s.Commit(player))
	assert.Len(t, delivered, 2, "a second commit with nothing buffered delivers nothing new")
}

func TestBufferedSessionRollbackDiscards(t *testing.T) {
	var delivered []Event
	s := NewBufferedSession(func(player types.Obj, events []Event) error {
		delivered = append(delivered, events...)
		return nil
	})
	player := types.NewObjID(2)
	s.Connect(player, "test-conn")

	s.SendEvent(player, Event{Text: "doomed"})
	s.Rollback(player)
	require.NoError(t, s.Commit(player))
	assert.Empty(t, delivered)
}

func TestBufferedSessionDisconnect(t *testing.T) {
	s := NewBufferedSession(nil)
	player := types.NewObjID(3)
	s.Connect(player, "conn")
	assert.True(t, s.Connected(player))

	require.NoError(t, s.Disconnect(player))
	assert.False(t, s.Connected(player))
}
