package relation

import (
	"testing"

	"github.com/cuemby/moorcore/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringCodec struct{}

func (stringCodec) Encode(v Value) ([]byte, error) { return []byte(v.(string)), nil }
func (stringCodec) Decode(b []byte) (Value, error) { return string(b), nil }

type testClock struct{ n int64 }

func (c *testClock) Next() int64 { c.n++; return c.n }

func newTestRelation(secondary func(Value) ([]byte, bool)) *Relation {
	return NewRelation("widgets", storage.NewMemProvider(), stringCodec{}, secondary)
}

func TestInsertThenGet(t *testing.T) {
	rel := newTestRelation(nil)
	tx := rel.Begin()
	require.NoError(t, tx.Insert([]byte("k1"), "v1"))

	v, ok, err := tx.Get([]byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	clock := &testClock{}
	committed, err := NewCoordinator(Participant{Relation: rel, Txn: tx, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, int64(1), clock.n)

	tx2 := rel.Begin()
	v, ok, err = tx2.Get([]byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", v)
}

func TestEmptyCommitIsNoOp(t *testing.T) {
	rel := newTestRelation(nil)
	tx := rel.Begin()
	clock := &testClock{}
	committed, err := NewCoordinator(Participant{Relation: rel, Txn: tx, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)
	assert.False(t, committed)
	assert.Equal(t, int64(0), clock.n)
}

func TestInsertDuplicateConflictsUnderFailOnConflict(t *testing.T) {
	rel := newTestRelation(nil)
	clock := &testClock{}

	first := rel.Begin()
	require.NoError(t, first.Insert([]byte("k1"), "v1"))
	committed, err := NewCoordinator(Participant{Relation: rel, Txn: first, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)
	require.True(t, committed)

	second := rel.Begin()
	require.NoError(t, second.Insert([]byte("k1"), "v2"))
	_, err = NewCoordinator(Participant{Relation: rel, Txn: second, Resolver: FailOnConflict{}}).Commit(clock)
	require.Error(t, err)
	conflict, ok := err.(*Conflict)
	require.True(t, ok)
	assert.Equal(t, ConflictInsertDuplicate, conflict.Kind)
}

func TestUpdateAgainstStaleReadConflictsThenRetrySucceeds(t *testing.T) {
	rel := newTestRelation(nil)
	clock := &testClock{}

	setup := rel.Begin()
	require.NoError(t, setup.Insert([]byte("k1"), "v1"))
	_, err := NewCoordinator(Participant{Relation: rel, Txn: setup, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)

	reader := rel.Begin()
	present, err := reader.Update([]byte("k1"), "reader-update") // base is the ts=1 entry
	require.NoError(t, err)
	require.True(t, present)

	writer := rel.Begin()
	present, err = writer.Update([]byte("k1"), "writer-update")
	require.NoError(t, err)
	require.True(t, present)
	_, err = NewCoordinator(Participant{Relation: rel, Txn: writer, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)

	_, err = NewCoordinator(Participant{Relation: rel, Txn: reader, Resolver: FailOnConflict{}}).Commit(clock)
	require.Error(t, err)
	conflict, ok := err.(*Conflict)
	require.True(t, ok)
	assert.Equal(t, ConflictConcurrentWrite, conflict.Kind)

	retry := rel.Begin()
	present, err = retry.Update([]byte("k1"), "reader-update")
	require.NoError(t, err)
	require.True(t, present)
	committed, err := NewCoordinator(Participant{Relation: rel, Txn: retry, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)
	assert.True(t, committed)
}

func TestAcceptIdenticalToleratesMatchingConcurrentWrite(t *testing.T) {
	rel := newTestRelation(nil)
	clock := &testClock{}

	a := rel.Begin()
	require.NoError(t, a.Insert([]byte("k1"), "same"))
	b := rel.Begin()
	require.NoError(t, b.Insert([]byte("k1"), "same"))

	committed, err := NewCoordinator(Participant{Relation: rel, Txn: a, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)
	require.True(t, committed)

	committed, err = NewCoordinator(Participant{Relation: rel, Txn: b, Resolver: AcceptIdentical{}}).Commit(clock)
	require.NoError(t, err)
	assert.True(t, committed)
}

func TestUpdateOnAbsentKeyIsNoOp(t *testing.T) {
	rel := newTestRelation(nil)
	tx := rel.Begin()
	present, err := tx.Update([]byte("missing"), "v")
	require.NoError(t, err)
	assert.False(t, present)
	assert.True(t, tx.Empty())
}

func TestUpdateNonExistentConflictsOnConcurrentDelete(t *testing.T) {
	rel := newTestRelation(nil)
	clock := &testClock{}

	setup := rel.Begin()
	require.NoError(t, setup.Insert([]byte("k1"), "v1"))
	_, err := NewCoordinator(Participant{Relation: rel, Txn: setup, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)

	updater := rel.Begin()
	present, err := updater.Update([]byte("k1"), "v2")
	require.NoError(t, err)
	require.True(t, present)

	deleter := rel.Begin()
	require.NoError(t, deleter.Delete([]byte("k1")))
	_, err = NewCoordinator(Participant{Relation: rel, Txn: deleter, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)

	_, err = NewCoordinator(Participant{Relation: rel, Txn: updater, Resolver: FailOnConflict{}}).Commit(clock)
	require.Error(t, err)
	conflict, ok := err.(*Conflict)
	require.True(t, ok)
	assert.Equal(t, ConflictUpdateNonExistent, conflict.Kind)
}

func TestSecondaryIndexTracksCurrentMapping(t *testing.T) {
	rel := newTestRelation(func(v Value) ([]byte, bool) { return []byte(v.(string)), true })
	clock := &testClock{}

	tx := rel.Begin()
	require.NoError(t, tx.Insert([]byte("child1"), "parent-a"))
	require.NoError(t, tx.Insert([]byte("child2"), "parent-a"))
	_, err := NewCoordinator(Participant{Relation: rel, Txn: tx, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)

	children, err := rel.ByCodomain([]byte("parent-a"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"child1", "child2"}, toStrings(children))

	move := rel.Begin()
	present, err := move.Update([]byte("child1"), "parent-b")
	require.NoError(t, err)
	require.True(t, present)
	_, err = NewCoordinator(Participant{Relation: rel, Txn: move, Resolver: FailOnConflict{}}).Commit(clock)
	require.NoError(t, err)

	children, err = rel.ByCodomain([]byte("parent-a"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"child2"}, toStrings(children))

	children, err = rel.ByCodomain([]byte("parent-b"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"child1"}, toStrings(children))
}

func toStrings(keys [][]byte) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

func TestLoadReplaysFromProvider(t *testing.T) {
	provider := storage.NewMemProvider()
	require.NoError(t, provider.Put(1, []byte("k1"), []byte("v1")))
	require.NoError(t, provider.Put(2, []byte("k2"), []byte("v2")))
	require.NoError(t, provider.Delete(3, []byte("k2")))

	rel := NewRelation("widgets", provider, stringCodec{}, nil)
	require.NoError(t, rel.Load())

	tx := rel.Begin()
	v, ok, err := tx.Get([]byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	_, ok, err = tx.Get([]byte("k2"))
	require.NoError(t, err)
	assert.False(t, ok)
}
