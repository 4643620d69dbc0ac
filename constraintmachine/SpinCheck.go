package constraintmachine

import (
	"context"

	"github.com/atomledger/atomengine/model"
)

type TransitionCheckResult int

const (
	TransitionOkay TransitionCheckResult = iota
	TransitionIllegal
	TransitionMissingState
	TransitionConflict
	TransitionMissingDependency
)

func (r TransitionCheckResult) String() string {
	switch r {
	case TransitionOkay:
		return "OKAY"
	case TransitionIllegal:
		return "ILLEGAL_TRANSITION_TO"
	case TransitionMissingState:
		return "MISSING_STATE"
	case TransitionConflict:
		return "CONFLICT"
	case TransitionMissingDependency:
		return "MISSING_DEPENDENCY"
	default:
		return "UNKNOWN"
	}
}

// IsFatal reports results that stateless validation must have made impossible.
func (r TransitionCheckResult) IsFatal() bool {
	return r == TransitionIllegal || r == TransitionMissingState
}

// StateReader is the read side of the engine store.
type StateReader interface {
	Exists(ctx context.Context, sp model.SpunParticle) (bool, error)
}

// CMStore resolves the current spin of a particle.
type CMStore interface {
	// Supports is false for particle types the store cannot hold, a claim on such a
	// particle is a MISSING_STATE defect.
	Supports(t model.ParticleType) bool
	GetSpin(ctx context.Context, p model.Particle) (model.Spin, error)
}

// VirtualStore layers particle definitions over a StateReader: only registered types
// are supported and particles matching a definition's Virtualize predicate are UP
// without a stored claim.
type VirtualStore struct {
	base        StateReader
	definitions map[model.ParticleType]ParticleDefinition
}

func NewVirtualStore(base StateReader, definitions map[model.ParticleType]ParticleDefinition) *VirtualStore {
	return &VirtualStore{base: base, definitions: definitions}
}

func (v *VirtualStore) Supports(t model.ParticleType) bool {
	_, ok := v.definitions[t]
	return ok
}

func (v *VirtualStore) GetSpin(ctx context.Context, p model.Particle) (model.Spin, error) {
	down, err := v.base.Exists(ctx, model.Down(p))
	if err != nil {
		return model.SpinNeutral, err
	}

	if down {
		return model.SpinDown, nil
	}

	up, err := v.base.Exists(ctx, model.Up(p))
	if err != nil {
		return model.SpinNeutral, err
	}

	if up {
		return model.SpinUp, nil
	}

	if def, ok := v.definitions[p.ParticleType()]; ok && def.Virtualize != nil && def.Virtualize(p) {
		return model.SpinUp, nil
	}

	return model.SpinNeutral, nil
}

// CheckTransition compares a claim that p moves from checkSpin to nextSpin with the
// spin the store currently holds for p.
func CheckTransition(ctx context.Context, store CMStore, p model.Particle, checkSpin, nextSpin model.Spin) (TransitionCheckResult, error) {
	if !store.Supports(p.ParticleType()) {
		return TransitionMissingState, nil
	}

	next, err := model.Next(checkSpin)
	if err != nil || next != nextSpin {
		return TransitionIllegal, nil
	}

	current, err := store.GetSpin(ctx, p)
	if err != nil {
		return TransitionOkay, err
	}

	switch {
	case current == checkSpin:
		return TransitionOkay, nil
	case current > checkSpin:
		return TransitionConflict, nil
	default:
		return TransitionMissingDependency, nil
	}
}
