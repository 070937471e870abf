package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/moorcore/pkg/session"
	"github.com/cuemby/moorcore/pkg/task"
	"github.com/cuemby/moorcore/pkg/types"
	"github.com/cuemby/moorcore/pkg/worldstate"
)

func newTestWorld(t *testing.T) *worldstate.WorldState {
	t.Helper()
	ws, err := worldstate.New(worldstate.MemProviders(), 16)
	require.NoError(t, err)
	return ws
}

// echoExecutor is a minimal Executor stand-in for the out-of-scope
// compiler/VM: it runs the supplied callback once against the task's
// transaction and forwards whatever FromTaskMsg it returns.
func echoExecutor(run func(tx *worldstate.Transaction) FromTaskMsg) Executor {
	return func(id task.ID, start task.Start, tx *worldstate.Transaction, resumeValue types.Var, sess session.Session, toTask <-chan ToTaskMsg, out chan<- FromTaskMsg) {
		msg := run(tx)
		msg.TaskID = id
		out <- msg
	}
}

// startKindExecutor dispatches to a different run callback per task.Kind,
// letting a single Executor stand in for distinct behavior across a fork
// child and an unrelated sibling task.
func startKindExecutor(byKind map[task.Kind]func(tx *worldstate.Transaction) FromTaskMsg) Executor {
	return func(id task.ID, start task.Start, tx *worldstate.Transaction, resumeValue types.Var, sess session.Session, toTask <-chan ToTaskMsg, out chan<- FromTaskMsg) {
		run := byKind[start.Kind]
		msg := run(tx)
		msg.TaskID = id
		out <- msg
	}
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestSubmitCommandTaskDeliversSuccessResult(t *testing.T) {
	ws := newTestWorld(t)
	sess := session.NewBufferedSession(nil)

	exec := echoExecutor(func(tx *worldstate.Transaction) FromTaskMsg {
		committed, err := tx.Commit()
		require.NoError(t, err)
		require.False(t, committed, "nothing was written, so the commit is a no-op")
		return FromTaskMsg{Kind: FromTaskSuccess, Value: types.NewInt(42)}
	})

	sched := NewScheduler(ws, sess, exec, Config{RetryLimit: 3})
	sched.Start()
	defer sched.Stop()

	player := types.NewObjID(0)
	handle := sched.SubmitCommandTask(player, task.Command{Raw: "look"})

	result := handle.Wait()
	assert.Equal(t, ResultValue, result.Kind)
	got, err := result.Value.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
	assert.NoError(t, result.Err)
}

// TestConflictRetryRestartsFromSavedStart covers S7's restart scenario: a
// task reporting FromTaskConflictRetry is relaunched, under a fresh
// transaction, from the Start it was originally submitted with.
func TestConflictRetryRestartsFromSavedStart(t *testing.T) {
	ws := newTestWorld(t)
	sess := session.NewBufferedSession(nil)

	var attempts int
	var mu sync.Mutex

	exec := echoExecutor(func(tx *worldstate.Transaction) FromTaskMsg {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()

		if n < 3 {
			return FromTaskMsg{Kind: FromTaskConflictRetry}
		}
		committed, err := tx.Commit()
		require.NoError(t, err)
		require.False(t, committed, "nothing was written, so the commit is a no-op")
		return FromTaskMsg{Kind: FromTaskSuccess, Value: types.NewInt(int64(n))}
	})

	sched := NewScheduler(ws, sess, exec, Config{RetryLimit: 5})
	sched.Start()
	defer sched.Stop()

	handle := sched.SubmitCommandTask(types.NewObjID(0), task.Command{Raw: "dig"})
	result := handle.Wait()

	assert.Equal(t, ResultValue, result.Kind)
	got, err := result.Value.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}

func TestConflictRetryExhaustsBudget(t *testing.T) {
	ws := newTestWorld(t)
	sess := session.NewBufferedSession(nil)

	exec := echoExecutor(func(tx *worldstate.Transaction) FromTaskMsg {
		return FromTaskMsg{Kind: FromTaskConflictRetry}
	})

	sched := NewScheduler(ws, sess, exec, Config{RetryLimit: 2})
	sched.Start()
	defer sched.Stop()

	handle := sched.SubmitCommandTask(types.NewObjID(0), task.Command{Raw: "dig"})
	result := handle.Wait()

	require.Error(t, result.Err)
	var retryErr *CouldNotStartTaskError
	assert.ErrorAs(t, result.Err, &retryErr)
}

// TestForkTaskWakesNoSoonerThanDelay covers S7: a forked task submitted with
// a delay does not run before that delay elapses.
func TestForkTaskWakesNoSoonerThanDelay(t *testing.T) {
	ws := newTestWorld(t)
	sess := session.NewBufferedSession(nil)

	ranAt := make(chan time.Time, 1)
	exec := echoExecutor(func(tx *worldstate.Transaction) FromTaskMsg {
		ranAt <- time.Now()
		committed, err := tx.Commit()
		require.NoError(t, err)
		require.False(t, committed, "nothing was written, so the commit is a no-op")
		return FromTaskMsg{Kind: FromTaskSuccess, Value: types.NewBool(true)}
	})

	sched := NewScheduler(ws, sess, exec, Config{RetryLimit: 1})
	sched.Start()
	defer sched.Stop()

	submittedAt := time.Now()
	handle := sched.SubmitForkTask(task.ForkDescriptor{
		Player: types.NewObjID(0),
		This:   types.NewObjID(0),
		Verb:   "announce",
		Delay:  100 * time.Millisecond,
	}, false)

	result := handle.Wait()
	assert.Equal(t, ResultValue, result.Kind)

	select {
	case at := <-ranAt:
		assert.GreaterOrEqual(t, at.Sub(submittedAt), 100*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("forked task never ran")
	}
}

// TestParentTaskUnaffectedByChildFailure covers S7: a failing forked task
// does not propagate its error to an unrelated task submitted afterward.
func TestParentTaskUnaffectedByChildFailure(t *testing.T) {
	ws := newTestWorld(t)
	sess := session.NewBufferedSession(nil)

	exec := startKindExecutor(map[task.Kind]func(tx *worldstate.Transaction) FromTaskMsg{
		task.KindFork: func(tx *worldstate.Transaction) FromTaskMsg {
			return FromTaskMsg{Kind: FromTaskException, Err: assertErr("boom")}
		},
		task.KindCommand: func(tx *worldstate.Transaction) FromTaskMsg {
			committed, err := tx.Commit()
			require.NoError(t, err)
			require.False(t, committed, "nothing was written, so the commit is a no-op")
			return FromTaskMsg{Kind: FromTaskSuccess, Value: types.NewBool(true)}
		},
	})

	sched := NewScheduler(ws, sess, exec, Config{RetryLimit: 1})
	sched.Start()
	defer sched.Stop()

	childHandle := sched.SubmitForkTask(task.ForkDescriptor{
		Player: types.NewObjID(0),
		This:   types.NewObjID(0),
		Verb:   "explode",
	}, false)

	childResult := childHandle.Wait()
	require.Error(t, childResult.Err)

	parentHandle := sched.SubmitCommandTask(types.NewObjID(0), task.Command{Raw: "look"})
	parentResult := parentHandle.Wait()
	assert.NoError(t, parentResult.Err)
}

// TestStopCheckpointsBeforeReturning covers the orderly-shutdown path:
// Stop must flush the engine's checkpoint as well as abort running tasks,
// and must not hang or error doing so even when no task is in flight.
func TestStopCheckpointsBeforeReturning(t *testing.T) {
	ws := newTestWorld(t)
	sess := session.NewBufferedSession(nil)
	exec := echoExecutor(func(tx *worldstate.Transaction) FromTaskMsg {
		return FromTaskMsg{Kind: FromTaskSuccess, Value: types.NewBool(true)}
	})

	sched := NewScheduler(ws, sess, exec, Config{RetryLimit: 1})
	sched.Start()

	done := make(chan struct{})
	go func() {
		sched.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop never returned")
	}
}

// TestForceGCRunsWithoutBlockingTheControlLoop covers ForceGC's admin-channel
// round trip: the control loop must keep servicing other admin requests
// after handling it.
func TestForceGCRunsWithoutBlockingTheControlLoop(t *testing.T) {
	ws := newTestWorld(t)
	sess := session.NewBufferedSession(nil)
	exec := echoExecutor(func(tx *worldstate.Transaction) FromTaskMsg {
		return FromTaskMsg{Kind: FromTaskSuccess, Value: types.NewBool(true)}
	})

	sched := NewScheduler(ws, sess, exec, Config{RetryLimit: 1})
	sched.Start()
	defer sched.Stop()

	sched.ForceGC()

	handle := sched.SubmitCommandTask(types.NewObjID(0), task.Command{Raw: "look"})
	result := handle.Wait()
	assert.NoError(t, result.Err)
}
