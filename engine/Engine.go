// Package engine validates submitted atoms with a constraint machine and commits the
// accepted ones to the ledger store on a single worker.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/settings"
	"github.com/atomledger/atomengine/stores/ledger"
	"github.com/atomledger/atomengine/tracing"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/atomledger/atomengine/util"
	"github.com/atomledger/atomengine/util/retry"
	"github.com/looplab/fsm"
	"go.uber.org/atomic"
)

type actionKind int

const (
	actionStore actionKind = iota
	actionDelete
)

type action struct {
	kind     actionKind
	atom     *model.Atom
	listener AtomEventListener
}

type Option func(e *RadixEngine)

// WithAtomEventListener registers a listener notified of every atom's outcome.
func WithAtomEventListener(l AtomEventListener) Option {
	return func(e *RadixEngine) {
		e.AddAtomEventListener(l)
	}
}

func WithCMSuccessHook(hook CMSuccessHook) Option {
	return func(e *RadixEngine) {
		e.AddCMSuccessHook(hook)
	}
}

// WithDefaultPermissionLevel overrides the level Store validates with.
func WithDefaultPermissionLevel(level constraintmachine.PermissionLevel) Option {
	return func(e *RadixEngine) {
		e.defaultLevel = level
	}
}

type RadixEngine struct {
	logger       ulogger.Logger
	settings     *settings.Settings
	cm           *constraintmachine.ConstraintMachine
	store        ledger.Store
	defaultLevel constraintmachine.PermissionLevel
	listeners    atomic.Pointer[[]AtomEventListener]
	hooks        atomic.Pointer[[]CMSuccessHook]
	queue        *util.LockFreeQ[action]
	wake         chan struct{}
	lifecycle    *fsm.FSM
	lifecycleMu  sync.RWMutex
	cancel       context.CancelFunc
	done         chan struct{}
}

func New(logger ulogger.Logger, tSettings *settings.Settings, cm *constraintmachine.ConstraintMachine, store ledger.Store, opts ...Option) (*RadixEngine, error) {
	initPrometheusMetrics()

	level, err := constraintmachine.ParsePermissionLevel(tSettings.Engine.DefaultPermissionLevel)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid engine_defaultPermissionLevel", err)
	}

	e := &RadixEngine{
		logger:       logger,
		settings:     tSettings,
		cm:           cm,
		store:        store,
		defaultLevel: level,
		queue:        util.NewLockFreeQ[action](),
		wake:         make(chan struct{}, 1),
	}

	e.lifecycle = newLifecycle(fsm.Callbacks{
		"enter_state": func(_ context.Context, ev *fsm.Event) {
			e.logger.Debugf("[RadixEngine] %s -> %s", ev.Src, ev.Dst)
		},
	})

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// AddAtomEventListener may be called concurrently with notifications.
func (e *RadixEngine) AddAtomEventListener(l AtomEventListener) {
	for {
		current := e.listeners.Load()

		var next []AtomEventListener
		if current != nil {
			next = make([]AtomEventListener, len(*current), len(*current)+1)
			copy(next, *current)
		}

		next = append(next, l)

		if e.listeners.CompareAndSwap(current, &next) {
			return
		}
	}
}

func (e *RadixEngine) AddCMSuccessHook(hook CMSuccessHook) {
	for {
		current := e.hooks.Load()

		var next []CMSuccessHook
		if current != nil {
			next = make([]CMSuccessHook, len(*current), len(*current)+1)
			copy(next, *current)
		}

		next = append(next, hook)

		if e.hooks.CompareAndSwap(current, &next) {
			return
		}
	}
}

func (e *RadixEngine) atomEventListeners() []AtomEventListener {
	if l := e.listeners.Load(); l != nil {
		return *l
	}

	return nil
}

func (e *RadixEngine) cmSuccessHooks() []CMSuccessHook {
	if h := e.hooks.Load(); h != nil {
		return *h
	}

	return nil
}

// State returns the lifecycle state, one of StateIdle, StateRunning, StateStopping or StateStopped.
func (e *RadixEngine) State() string {
	return e.lifecycle.Current()
}

// CommitQueueSize returns the number of actions the commit worker has not picked up yet.
func (e *RadixEngine) CommitQueueSize() int64 {
	return e.queue.Len()
}

// Start launches the commit worker. Actions queued before Start are committed once it runs.
func (e *RadixEngine) Start(ctx context.Context) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if err := e.lifecycle.Event(ctx, eventStart); err != nil {
		return errors.NewServiceError("cannot start engine in state %s", e.lifecycle.Current(), err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	go e.worker(workerCtx)

	e.logger.Infof("[RadixEngine] started, default permission %s", e.defaultLevel)

	return nil
}

// Stop cancels the commit worker and waits for it to exit. Queued actions are committed
// first when engine_drainOnStop is set, otherwise they are abandoned. Submissions in
// flight when Stop is called are queued before the worker drains.
func (e *RadixEngine) Stop() error {
	ctx := context.Background()

	e.lifecycleMu.Lock()

	wasRunning := e.lifecycle.Is(StateRunning)

	if err := e.lifecycle.Event(ctx, eventStop); err != nil {
		e.lifecycleMu.Unlock()
		return errors.NewServiceError("cannot stop engine in state %s", e.lifecycle.Current(), err)
	}

	e.lifecycleMu.Unlock()

	// listeners called by the worker may still submit, they see STOPPING and are refused
	if wasRunning {
		e.cancel()
		<-e.done
	}

	if abandoned := e.queue.Len(); abandoned > 0 {
		e.logger.Warnf("[RadixEngine] stopped with %d actions abandoned", abandoned)
	}

	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	return e.lifecycle.Event(ctx, eventStopped)
}

func (e *RadixEngine) accepting() error {
	switch state := e.lifecycle.Current(); state {
	case StateStopping, StateStopped:
		return errors.NewServiceUnavailableError("engine is %s", state)
	default:
		return nil
	}
}

// Store validates atom with the default permission level.
func (e *RadixEngine) Store(ctx context.Context, atom *model.Atom, listener AtomEventListener) error {
	return e.StoreWithPermission(ctx, atom, e.defaultLevel, listener)
}

// StoreWithPermission validates atom and runs the success hooks on the calling goroutine.
// A rejected atom is reported through OnCMError and returned as a *constraintmachine.CMError.
// An accepted atom is queued for commit and reported through OnCMSuccess; its commit
// outcome arrives later on the OnState callbacks. listener may be nil and must not call
// Stop from OnCMSuccess or OnCMError.
func (e *RadixEngine) StoreWithPermission(ctx context.Context, atom *model.Atom, level constraintmachine.PermissionLevel, listener AtomEventListener) (err error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "RadixEngine:Store",
		tracing.WithHistogram(prometheusEngineSubmit),
		tracing.WithCounter(prometheusEngineSubmitted),
	)
	defer func() {
		deferFn(err)
	}()

	// Stop waits for submissions in flight, so an accepted atom is either queued before
	// the worker drains or refused.
	e.lifecycleMu.RLock()
	defer e.lifecycleMu.RUnlock()

	if err = e.accepting(); err != nil {
		return err
	}

	if cmErr := e.cm.Validate(ctx, e.store, atom, level); cmErr != nil {
		e.reject(atom, listener, cmErr)
		return cmErr
	}

	for _, hook := range e.cmSuccessHooks() {
		if hookErr := hook(ctx, atom); hookErr != nil {
			cmErr := constraintmachine.NewCMError(constraintmachine.PointerToAtom(), constraintmachine.ErrCodeHookError, hookErr.Error(), hookErr)
			e.reject(atom, listener, cmErr)

			return cmErr
		}
	}

	e.notify(listener, func(l AtomEventListener) {
		l.OnCMSuccess(atom)
	})

	e.enqueue(action{kind: actionStore, atom: atom, listener: listener})

	return nil
}

// Delete queues the removal of atom without validating it.
func (e *RadixEngine) Delete(atom *model.Atom) error {
	e.lifecycleMu.RLock()
	defer e.lifecycleMu.RUnlock()

	if err := e.accepting(); err != nil {
		return err
	}

	e.enqueue(action{kind: actionDelete, atom: atom})

	return nil
}

func (e *RadixEngine) reject(atom *model.Atom, listener AtomEventListener, cmErr *constraintmachine.CMError) {
	prometheusEngineRejected.WithLabelValues(string(cmErr.Code)).Inc()

	e.logger.Debugf("[RadixEngine] atom %s rejected: %v", atom.ID(), cmErr)

	e.notify(listener, func(l AtomEventListener) {
		l.OnCMError(atom, cmErr)
	})
}

func (e *RadixEngine) enqueue(a action) {
	e.queue.Enqueue(a)
	prometheusEngineQueueSize.Set(float64(e.queue.Len()))

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// notify calls the per-atom listener first, then the registered ones.
func (e *RadixEngine) notify(listener AtomEventListener, fn func(l AtomEventListener)) {
	if listener != nil {
		fn(listener)
	}

	for _, l := range e.atomEventListeners() {
		fn(l)
	}
}

func (e *RadixEngine) worker(ctx context.Context) {
	defer close(e.done)

	idleWait := e.settings.Engine.CommitIdleWait
	if idleWait <= 0 {
		idleWait = 100 * time.Millisecond
	}

	ticker := time.NewTicker(idleWait)
	defer ticker.Stop()

	for {
		e.drain(ctx)

		select {
		case <-ctx.Done():
			if e.settings.Engine.DrainOnStop {
				e.drain(context.WithoutCancel(ctx))
			}

			return
		case <-e.wake:
		case <-ticker.C:
		}
	}
}

// drain commits queued actions until the queue is empty or ctx is cancelled.
func (e *RadixEngine) drain(ctx context.Context) {
	for ctx.Err() == nil {
		a := e.queue.Dequeue()
		if a == nil {
			return
		}

		prometheusEngineQueueSize.Set(float64(e.queue.Len()))

		e.commit(ctx, *a)
	}
}

func (e *RadixEngine) commit(ctx context.Context, a action) {
	switch a.kind {
	case actionStore:
		e.commitStore(ctx, a)
	case actionDelete:
		e.commitDelete(ctx, a)
	}
}

func (e *RadixEngine) commitStore(ctx context.Context, a action) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "RadixEngine:commitStore",
		tracing.WithHistogram(prometheusEngineCommit),
		tracing.WithTag("atom", a.atom.ID().String()),
	)
	defer deferFn()

	instructions, err := a.atom.MicroInstructions()
	if err != nil {
		panic(errors.NewInvariantError("micro instructions of accepted atom %s", a.atom.ID(), err))
	}

	// the live store may have moved on since the atom was validated
	store := e.cm.VirtualStore(e.store)

	for _, instruction := range instructions {
		if !instruction.IsCheckSpin() {
			continue
		}

		claim := instruction.SpunParticle()

		result, err := constraintmachine.CheckTransition(ctx, store, instruction.Particle, instruction.CheckSpin, instruction.Spin)
		if err != nil {
			e.commitFailed(a, errors.NewStorageError("failed to read state of %s", claim, err))
			return
		}

		switch result {
		case constraintmachine.TransitionOkay:
			continue
		case constraintmachine.TransitionConflict:
			e.conflict(ctx, a, claim)
			return
		case constraintmachine.TransitionMissingDependency:
			prometheusEngineMissingDependencies.Inc()
			e.logger.Infof("[RadixEngine] atom %s is missing dependency %s", a.atom.ID(), claim)

			e.notify(a.listener, func(l AtomEventListener) {
				l.OnStateMissingDependency(a.atom, claim)
			})

			return
		default:
			panic(errors.NewInvariantError("%s for %s of accepted atom %s", result, claim, a.atom.ID()))
		}
	}

	if err = e.withRetry(ctx, "store", a.atom, func() error { return e.store.StoreAtom(ctx, a.atom) }); err != nil {
		var data *errors.SpinConflictErrData
		if errors.Is(err, errors.ErrConflict) && errors.AsData(err, &data) {
			if claim, ok := claimOf(a.atom, data); ok {
				e.conflict(ctx, a, claim)
				return
			}
		}

		e.commitFailed(a, err)

		return
	}

	prometheusEngineCommitted.Inc()
	e.logger.Debugf("[RadixEngine] atom %s stored", a.atom.ID())

	e.notify(a.listener, func(l AtomEventListener) {
		l.OnStateStore(a.atom)
	})
}

// conflict reports claim with the atom that already holds the particle at or past the claimed spin.
func (e *RadixEngine) conflict(ctx context.Context, a action, claim model.SpunParticle) {
	prometheusEngineConflicts.Inc()

	conflicting, err := e.store.GetAtomContaining(ctx, claim)
	if err == nil && conflicting == nil && claim.Spin != model.SpinDown {
		conflicting, err = e.store.GetAtomContaining(ctx, model.Down(claim.Particle))
	}

	if err != nil {
		e.logger.Errorf("[RadixEngine] failed to fetch atom conflicting with %s: %v", claim, err)
	}

	var conflictingID string
	if conflicting != nil {
		conflictingID = conflicting.ID().String()
	}

	e.logger.Infof("[RadixEngine] atom %s conflicts on %s with atom %s", a.atom.ID(), claim, conflictingID)

	e.notify(a.listener, func(l AtomEventListener) {
		l.OnStateConflict(a.atom, claim, conflicting)
	})
}

func claimOf(atom *model.Atom, data *errors.SpinConflictErrData) (model.SpunParticle, bool) {
	for _, claim := range ledger.Claims(atom) {
		if claim.ParticleID().String() == data.ParticleHash && claim.Spin.String() == data.Spin {
			return claim, true
		}
	}

	return model.SpunParticle{}, false
}

func (e *RadixEngine) commitDelete(ctx context.Context, a action) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "RadixEngine:commitDelete",
		tracing.WithHistogram(prometheusEngineCommit),
		tracing.WithCounter(prometheusEngineDeleted),
	)
	defer deferFn()

	if err := e.withRetry(ctx, "delete", a.atom, func() error { return e.store.DeleteAtom(ctx, a.atom) }); err != nil {
		e.commitFailed(a, err)
		return
	}

	e.logger.Debugf("[RadixEngine] atom %s deleted", a.atom.ID())
}

// withRetry retries transient store failures. Conflicts are final.
func (e *RadixEngine) withRetry(ctx context.Context, op string, atom *model.Atom, f func() error) error {
	attempts := e.settings.Engine.CommitRetries
	if attempts < 1 {
		attempts = 1
	}

	call := func() (struct{}, error) {
		return struct{}{}, f()
	}

	_, err := retry.Retry(ctx, e.logger, call,
		retry.WithRetryCount(attempts),
		retry.WithBackoffDurationType(e.settings.Engine.CommitRetryBackoff),
		retry.WithExponentialBackoff(2.0, 5*time.Second),
		retry.WithRetryable(func(err error) bool { return !errors.Is(err, errors.ErrConflict) }),
		retry.WithMessage("[RadixEngine] failed to "+op+" atom "+atom.ID().String()),
	)

	return err
}

func (e *RadixEngine) commitFailed(a action, err error) {
	prometheusEngineCommitErrors.Inc()
	e.logger.Errorf("[RadixEngine] failed to commit atom %s: %v", a.atom.ID(), err)

	e.notify(a.listener, func(l AtomEventListener) {
		if cl, ok := l.(CommitErrorListener); ok {
			cl.OnCommitError(a.atom, err)
		}
	})
}
