package engine

import (
	"context"

	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/model"
)

// AtomEventListener receives the outcome of a submitted atom. OnCMSuccess and OnCMError
// are called on the submitting goroutine, the OnState callbacks on the commit worker.
type AtomEventListener interface {
	OnCMSuccess(atom *model.Atom)
	OnCMError(atom *model.Atom, cmErr *constraintmachine.CMError)
	OnStateStore(atom *model.Atom)
	// OnStateConflict reports the claim that collided. conflictingAtom is nil when the
	// stored claim belongs to no atom, e.g. a virtual particle consumed by a deleted atom.
	OnStateConflict(atom *model.Atom, claim model.SpunParticle, conflictingAtom *model.Atom)
	OnStateMissingDependency(atom *model.Atom, claim model.SpunParticle)
}

// CommitErrorListener is implemented by listeners that want store failures during commit.
type CommitErrorListener interface {
	OnCommitError(atom *model.Atom, err error)
}

// CMSuccessHook runs after the constraint machine accepted an atom and before it is
// queued. A non-nil error rejects the atom.
type CMSuccessHook func(ctx context.Context, atom *model.Atom) error

// ListenerFuncs adapts optional functions to an AtomEventListener.
type ListenerFuncs struct {
	CMSuccess              func(atom *model.Atom)
	CMError                func(atom *model.Atom, cmErr *constraintmachine.CMError)
	StateStore             func(atom *model.Atom)
	StateConflict          func(atom *model.Atom, claim model.SpunParticle, conflictingAtom *model.Atom)
	StateMissingDependency func(atom *model.Atom, claim model.SpunParticle)
	CommitError            func(atom *model.Atom, err error)
}

func (l *ListenerFuncs) OnCMSuccess(atom *model.Atom) {
	if l.CMSuccess != nil {
		l.CMSuccess(atom)
	}
}

func (l *ListenerFuncs) OnCMError(atom *model.Atom, cmErr *constraintmachine.CMError) {
	if l.CMError != nil {
		l.CMError(atom, cmErr)
	}
}

func (l *ListenerFuncs) OnStateStore(atom *model.Atom) {
	if l.StateStore != nil {
		l.StateStore(atom)
	}
}

func (l *ListenerFuncs) OnStateConflict(atom *model.Atom, claim model.SpunParticle, conflictingAtom *model.Atom) {
	if l.StateConflict != nil {
		l.StateConflict(atom, claim, conflictingAtom)
	}
}

func (l *ListenerFuncs) OnStateMissingDependency(atom *model.Atom, claim model.SpunParticle) {
	if l.StateMissingDependency != nil {
		l.StateMissingDependency(atom, claim)
	}
}

func (l *ListenerFuncs) OnCommitError(atom *model.Atom, err error) {
	if l.CommitError != nil {
		l.CommitError(atom, err)
	}
}
