package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/moorcore/pkg/log"
	"github.com/cuemby/moorcore/pkg/metrics"
	"github.com/cuemby/moorcore/pkg/relation"
	"github.com/cuemby/moorcore/pkg/session"
	"github.com/cuemby/moorcore/pkg/task"
	"github.com/cuemby/moorcore/pkg/types"
	"github.com/cuemby/moorcore/pkg/worldstate"
)

// taskRecord is the scheduler's per-task bookkeeping: player,
// the Start that launched it (kept for conflict-retry replay), its private
// control channel, suspension state, and one-shot result subscribers.
type taskRecord struct {
	id     task.ID
	player types.Obj
	start  task.Start
	toTask chan ToTaskMsg

	suspended    bool
	resumeAt     *time.Time
	waitingInput *uuid.UUID

	subscribers []chan Result
	startedAt   time.Time
	retries     int
}

// Scheduler owns every running task, the wake-up priority queue, and the
// input-request table. A single goroutine (run) services the
// inbox and admin channel; each task executes on its own goroutine.
type Scheduler struct {
	ws       *worldstate.WorldState
	engine   *worldstate.Engine
	sess     session.Session
	exec     Executor
	resolver relation.Resolver
	logger   zerolog.Logger

	retryLimit int

	mu            sync.Mutex
	tasks         map[task.ID]*taskRecord
	wake          wakeHeap
	inputRequests map[uuid.UUID]task.ID
	nextID        int64

	inbox chan FromTaskMsg
	admin chan any
}

// Config bundles the knobs NewScheduler needs beyond the world-state store
// and session sink.
// Tick and wall-clock resource budgets are the
// Executor's responsibility to enforce and report via FromTaskAbortLimitsReached;
// a host closes over whatever budget values it wants when constructing its
// Executor, so Config carries only what the control loop itself needs.
type Config struct {
	Resolver   relation.Resolver // nil defaults to relation.FailOnConflict{}
	RetryLimit int               // automatic conflict-retry budget; 0 defaults to 3, negative values become 1
}

// NewScheduler creates a Scheduler over ws, delivering narrative output to
// sess and running tasks with exec.
func NewScheduler(ws *worldstate.WorldState, sess session.Session, exec Executor, cfg Config) *Scheduler {
	if cfg.RetryLimit == 0 {
		log.Warn("scheduler: retry limit unset, defaulting to 3")
		cfg.RetryLimit = 3
	}
	if cfg.RetryLimit < 1 {
		cfg.RetryLimit = 1
	}
	return &Scheduler{
		ws:            ws,
		engine:        worldstate.NewEngine(ws),
		sess:          sess,
		exec:          exec,
		resolver:      cfg.Resolver,
		logger:        log.WithComponent("scheduler"),
		retryLimit:    cfg.RetryLimit,
		tasks:         make(map[task.ID]*taskRecord),
		inputRequests: make(map[uuid.UUID]task.ID),
		inbox:         make(chan FromTaskMsg, 64),
		admin:         make(chan any, 16),
	}
}

// Start begins the scheduler's control loop.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop requests an orderly shutdown and blocks until every task has been
// sent Abort and the control loop has exited.
func (s *Scheduler) Stop() {
	done := make(chan struct{})
	s.admin <- shutdownMsg{done: done}
	<-done
}

// run is the single-threaded control loop.
func (s *Scheduler) run() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			timer := metrics.NewTimer()
			s.wakeDue()
			timer.ObserveDuration(metrics.SchedulerTickDuration)
		case msg := <-s.inbox:
			s.handleFromTask(msg)
		case m := <-s.admin:
			if s.handleAdmin(m) {
				return
			}
		}
	}
}

// wakeDue wakes every suspended task whose resume_at has passed, handing
// each a fresh transaction.
func (s *Scheduler) wakeDue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for len(s.wake) > 0 {
		top := s.wake[0]
		if top.resumeAt.After(now) {
			break
		}
		heap.Pop(&s.wake)

		rec, ok := s.tasks[top.id]
		if !ok || !rec.suspended {
			continue
		}
		rec.suspended = false
		rec.resumeAt = nil
		metrics.TasksSuspended.Dec()
		metrics.TasksRunning.Inc()
		tx := s.ws.Begin(s.resolver)
		rec.toTask <- ToTaskMsg{Kind: ToTaskResume, Tx: tx, Value: types.NewInt(0)}
	}
}

// nextTaskID allocates a monotone task.ID. Callers must hold s.mu.
func (s *Scheduler) nextTaskID() task.ID {
	s.nextID++
	return task.ID(s.nextID)
}

// launch spawns a fresh executor goroutine for rec, starting from its saved
// Start under a newly begun transaction. Used for initial submission, fork
// start, and conflict-retry restart. Callers must hold s.mu.
func (s *Scheduler) launch(rec *taskRecord, resumeValue types.Var) {
	tx := s.ws.Begin(s.resolver)
	metrics.TasksStartedTotal.WithLabelValues(rec.start.Kind.String()).Inc()
	metrics.TasksRunning.Inc()
	go s.exec(rec.id, rec.start, tx, resumeValue, s.sess, rec.toTask, s.inbox)
}

// submit registers a new task and launches it, returning a Handle the
// caller can wait on.
func (s *Scheduler) submit(start task.Start) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextTaskID()
	rec := &taskRecord{
		id:        id,
		player:    start.Player,
		start:     start,
		toTask:    make(chan ToTaskMsg, 1),
		startedAt: time.Now(),
	}
	resultCh := make(chan Result, 1)
	rec.subscribers = append(rec.subscribers, resultCh)
	s.tasks[id] = rec
	s.launch(rec, types.Var{})

	return &Handle{ID: id, ch: resultCh}
}

// SubmitCommandTask submits a raw command line for parsing and dispatch.
func (s *Scheduler) SubmitCommandTask(player types.Obj, cmd task.Command) *Handle {
	return s.submit(task.StartCommand(player, cmd))
}

// SubmitOutOfBandTask submits a command line through the $do_command
// pre-parse hook.
func (s *Scheduler) SubmitOutOfBandTask(player types.Obj, cmd task.Command) *Handle {
	return s.submit(task.StartDoCommand(player, cmd))
}

// SubmitVerbTask submits a direct verb invocation, bypassing command
// parsing.
func (s *Scheduler) SubmitVerbTask(player, this types.Obj, verb string, args []types.Var) *Handle {
	return s.submit(task.StartVerb(player, this, verb, args))
}

// SubmitEvalTask submits an ad hoc program for evaluation.
func (s *Scheduler) SubmitEvalTask(player types.Obj, program []byte, env map[string]types.Var) *Handle {
	return s.submit(task.StartEval(player, program, env))
}

// SubmitForkTask submits a fork request directly, outside of a running
// task's `fork` builtin (e.g. a host-scheduled recurring job).
func (s *Scheduler) SubmitForkTask(fork task.ForkDescriptor, suspended bool) *Handle {
	return s.submit(task.StartFork(fork, suspended))
}

// SubmitRequestedInput delivers text for the input request id, resuming the
// waiting task with a fresh transaction and the submitted text.
func (s *Scheduler) SubmitRequestedInput(player types.Obj, id uuid.UUID, text string) error {
	reply := make(chan error, 1)
	s.admin <- submitInputMsg{player: player, id: id, text: text, reply: reply}
	return <-reply
}

// KillTask sends Abort to victim if senderPerms is a wizard or owns it.
func (s *Scheduler) KillTask(victim task.ID, senderPerms types.Obj) error {
	reply := make(chan error, 1)
	s.admin <- killMsg{victim: victim, senderPerms: senderPerms, reply: reply}
	return <-reply
}

// ResumeTask resumes a suspended task with returnValue if senderPerms is a
// wizard or owns it.
func (s *Scheduler) ResumeTask(id task.ID, senderPerms types.Obj, returnValue types.Var) error {
	reply := make(chan error, 1)
	s.admin <- resumeTaskMsg{id: id, senderPerms: senderPerms, returnValue: returnValue, reply: reply}
	return <-reply
}

// BootPlayer disconnects player's session and aborts every other task of
// theirs.
func (s *Scheduler) BootPlayer(player types.Obj, caller task.ID) {
	s.admin <- bootMsg{player: player, caller: caller}
}

// DescribeOtherTasks gathers a Description for every currently suspended
// task.
func (s *Scheduler) DescribeOtherTasks() []task.Description {
	reply := make(chan []task.Description, 1)
	s.admin <- describeMsg{reply: reply}
	return <-reply
}

// ForceGC requests an immediate off-cycle sweep through the engine's
// GarbageCollector.
func (s *Scheduler) ForceGC() {
	s.admin <- forceGCMsg{}
}

// finish removes rec from the task table, settles its session buffer, and
// delivers result to every subscriber. committed reports whether the
// underlying world-state transaction committed: the session only commits
// its buffered narrative then, and rolls back otherwise, so a task that
// never reached a successful commit never narrates a discarded attempt.
// Callers must hold s.mu.
func (s *Scheduler) finish(rec *taskRecord, committed bool, result Result, outcome string) {
	delete(s.tasks, rec.id)
	metrics.TasksRunning.Dec()
	metrics.TasksFinishedTotal.WithLabelValues(outcome).Inc()
	metrics.TaskExecutionDuration.Observe(time.Since(rec.startedAt).Seconds())

	if committed {
		if err := s.sess.Commit(rec.player); err != nil {
			log.WithTaskID(int64(rec.id)).Error().Err(err).Msg("session commit failed")
		}
	} else {
		s.sess.Rollback(rec.player)
	}

	for _, sub := range rec.subscribers {
		sub <- result
		close(sub)
	}
}

func (s *Scheduler) handleFromTask(msg FromTaskMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[msg.TaskID]
	if !ok {
		return
	}

	switch msg.Kind {
	case FromTaskSuccess:
		metrics.TransactionsCommitted.Inc()
		s.finish(rec, true, Result{Kind: ResultValue, Value: msg.Value}, "success")

	case FromTaskException:
		s.finish(rec, false, Result{Err: &TaskAbortedExceptionError{Traceback: msg.Err.Error()}}, "exception")

	case FromTaskAbortCancelled:
		s.finish(rec, false, Result{Err: &TaskAbortedCancelledError{}}, "cancelled")

	case FromTaskAbortLimitsReached:
		s.finish(rec, false, Result{Err: &TaskAbortedLimitError{Reason: msg.Reason}}, "limit")

	case FromTaskCommandError:
		s.finish(rec, false, Result{Err: &CommandExecutionError{Details: msg.Err.Error()}}, "command_error")

	case FromTaskVerbNotFound:
		s.finish(rec, false, Result{Err: &CommandExecutionError{Details: msg.Err.Error()}}, "verb_not_found")

	case FromTaskConflictRetry:
		s.sess.Rollback(rec.player)
		rec.retries++
		metrics.TaskConflictRetries.Inc()
		if rec.retries >= s.retryLimit {
			log.WithTaskID(int64(rec.id)).Warn().Int("retries", rec.retries).Msg("approaching conflict retry limit")
		}
		if rec.retries > s.retryLimit {
			s.finish(rec, false, Result{Err: &CouldNotStartTaskError{Reason: "conflict retry limit exceeded"}}, "retry_exhausted")
			return
		}
		s.launch(rec, types.Var{})

	case FromTaskRequestFork:
		childID := s.nextTaskID()
		child := &taskRecord{
			id:        childID,
			player:    msg.Fork.Player,
			start:     task.StartFork(msg.Fork, msg.ForkSuspended),
			toTask:    make(chan ToTaskMsg, 1),
			startedAt: time.Now(),
		}
		s.tasks[childID] = child
		if msg.Fork.Delay > 0 {
			at := time.Now().Add(msg.Fork.Delay)
			child.suspended = true
			child.resumeAt = &at
			heap.Push(&s.wake, &wakeItem{resumeAt: at, id: childID})
			metrics.TasksSuspended.Inc()
		} else {
			s.launch(child, types.Var{})
		}
		if msg.ForkReply != nil {
			msg.ForkReply <- childID
		}

	case FromTaskSuspend:
		rec.suspended = true
		rec.resumeAt = msg.ResumeAt
		metrics.TasksRunning.Dec()
		metrics.TasksSuspended.Inc()
		if msg.ResumeAt != nil {
			heap.Push(&s.wake, &wakeItem{resumeAt: *msg.ResumeAt, id: rec.id})
		}

	case FromTaskRequestInput:
		s.inputRequests[msg.InputID] = rec.id
		rec.waitingInput = &msg.InputID
		rec.suspended = true
		metrics.TasksRunning.Dec()
		metrics.TasksSuspended.Inc()
		if err := s.sess.RequestInput(rec.player, msg.InputID); err != nil {
			log.WithTaskID(int64(rec.id)).Error().Err(err).Msg("request_input failed")
		}
	}
}

// handleAdmin processes one message from the admin channel. It returns true
// when the scheduler should stop (Shutdown).
func (s *Scheduler) handleAdmin(m any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg := m.(type) {
	case killMsg:
		victim, ok := s.tasks[msg.victim]
		if !ok {
			msg.reply <- &TaskNotFoundError{ID: msg.victim}
			return false
		}
		if !s.permittedFor(msg.senderPerms, victim.player) {
			msg.reply <- &CouldNotStartTaskError{Reason: "permission denied"}
			return false
		}
		victim.toTask <- ToTaskMsg{Kind: ToTaskAbort}
		msg.reply <- nil

	case resumeTaskMsg:
		rec, ok := s.tasks[msg.id]
		if !ok {
			msg.reply <- &TaskNotFoundError{ID: msg.id}
			return false
		}
		if !s.permittedFor(msg.senderPerms, rec.player) {
			msg.reply <- &CouldNotStartTaskError{Reason: "permission denied"}
			return false
		}
		if !rec.suspended {
			msg.reply <- &CouldNotStartTaskError{Reason: "task is not suspended"}
			return false
		}
		rec.suspended = false
		rec.resumeAt = nil
		metrics.TasksSuspended.Dec()
		metrics.TasksRunning.Inc()
		tx := s.ws.Begin(s.resolver)
		rec.toTask <- ToTaskMsg{Kind: ToTaskResume, Tx: tx, Value: msg.returnValue}
		msg.reply <- nil

	case bootMsg:
		for id, rec := range s.tasks {
			if id == msg.caller || !rec.player.Equal(msg.player) {
				continue
			}
			rec.toTask <- ToTaskMsg{Kind: ToTaskAbort}
		}
		if err := s.sess.Disconnect(msg.player); err != nil {
			log.WithPlayer(msg.player.String()).Error().Err(err).Msg("disconnect failed")
		}

	case describeMsg:
		var descs []task.Description
		for id, rec := range s.tasks {
			if !rec.suspended {
				continue
			}
			descs = append(descs, task.Description{
				ID:        id,
				Player:    rec.player,
				This:      rec.start.This,
				Verb:      rec.start.Verb,
				StartedAt: rec.startedAt,
				ResumeAt:  rec.resumeAt,
				Suspended: true,
				Kind:      rec.start.Kind,
			})
		}
		msg.reply <- descs

	case forceGCMsg:
		if collected, err := s.engine.CollectGarbage(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("force gc failed")
		} else if collected > 0 {
			s.logger.Info().Int("collected", collected).Msg("force gc collected objects")
		}

	case submitInputMsg:
		taskID, ok := s.inputRequests[msg.id]
		if !ok {
			msg.reply <- &InputRequestNotFoundError{ID: msg.id}
			return false
		}
		rec, ok := s.tasks[taskID]
		if !ok || rec.waitingInput == nil || *rec.waitingInput != msg.id {
			msg.reply <- &InputRequestNotFoundError{ID: msg.id}
			return false
		}
		delete(s.inputRequests, msg.id)
		rec.waitingInput = nil
		rec.suspended = false
		metrics.TasksSuspended.Dec()
		metrics.TasksRunning.Inc()
		tx := s.ws.Begin(s.resolver)
		rec.toTask <- ToTaskMsg{Kind: ToTaskResume, Tx: tx, InputText: msg.text}
		msg.reply <- nil

	case shutdownMsg:
		for _, rec := range s.tasks {
			select {
			case rec.toTask <- ToTaskMsg{Kind: ToTaskAbort}:
			default:
			}
		}
		if err := s.engine.Checkpoint(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("checkpoint on shutdown failed")
		}
		close(msg.done)
		return true
	}
	return false
}

// permittedFor reports whether senderPerms may kill/resume a task belonging
// to player: the sender must be a wizard or own the task.
func (s *Scheduler) permittedFor(senderPerms, player types.Obj) bool {
	if senderPerms.Equal(player) {
		return true
	}
	tx := s.ws.Begin(nil)
	flags, err := tx.Flags(senderPerms)
	if err != nil {
		return false
	}
	return flags.Has(types.FlagWizard)
}
