package constraintmachine

import (
	"context"
	"fmt"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/tracing"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// ParticleDefinition is the registration of one particle type.
type ParticleDefinition struct {
	Type model.ParticleType
	// StaticCheck validates the particle's own fields.
	StaticCheck func(p model.Particle) error
	// Virtualize reports particles that are UP without any stored claim.
	Virtualize func(p model.Particle) bool
}

// Config is the immutable rule set of a constraint machine.
type Config struct {
	Particles       map[model.ParticleType]ParticleDefinition
	Procedures      map[TransitionToken]TransitionProcedure
	GroupProcedures []GroupProcedure
}

type typePair struct {
	input  model.ParticleType
	output model.ParticleType
}

type ConstraintMachine struct {
	logger          ulogger.Logger
	particles       map[model.ParticleType]ParticleDefinition
	procedures      map[TransitionToken]TransitionProcedure
	groupProcedures []GroupProcedure
	linked          map[typePair]struct{}
}

func New(logger ulogger.Logger, cfg Config) *ConstraintMachine {
	initPrometheusMetrics()

	cm := &ConstraintMachine{
		logger:          logger,
		particles:       make(map[model.ParticleType]ParticleDefinition, len(cfg.Particles)),
		procedures:      make(map[TransitionToken]TransitionProcedure, len(cfg.Procedures)),
		groupProcedures: append([]GroupProcedure(nil), cfg.GroupProcedures...),
		linked:          make(map[typePair]struct{}),
	}

	for t, def := range cfg.Particles {
		cm.particles[t] = def
	}

	for token, proc := range cfg.Procedures {
		cm.procedures[token] = proc
		cm.linked[typePair{token.InputType, token.OutputType}] = struct{}{}
	}

	return cm
}

// VirtualStore wraps reader with this machine's particle definitions.
func (cm *ConstraintMachine) VirtualStore(reader StateReader) *VirtualStore {
	return NewVirtualStore(reader, cm.particles)
}

func (cm *ConstraintMachine) ParticleDefinition(t model.ParticleType) (ParticleDefinition, bool) {
	def, ok := cm.particles[t]
	return def, ok
}

// Validate runs the stateless, spin and procedure stages against the state seen through
// reader. It returns nil when the atom is valid. Spin conflicts and missing dependencies
// are not reported here, they are decided when the atom is committed.
func (cm *ConstraintMachine) Validate(ctx context.Context, reader StateReader, atom *model.Atom, level PermissionLevel) (cmErr *CMError) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "ConstraintMachine:Validate",
		tracing.WithHistogram(prometheusCMValidate),
	)
	defer func() {
		if cmErr != nil {
			prometheusCMErrors.WithLabelValues(string(cmErr.Code)).Inc()
			deferFn(cmErr)

			return
		}

		deferFn()
	}()

	if cmErr = cm.statelessCheck(atom); cmErr != nil {
		return cmErr
	}

	if cmErr = cm.spinCheck(ctx, cm.VirtualStore(reader), atom); cmErr != nil {
		return cmErr
	}

	witness := atom.Witness()

	for g, group := range atom.Groups {
		if cmErr = cm.validateGroup(g, group, witness, level); cmErr != nil {
			return cmErr
		}
	}

	return nil
}

func (cm *ConstraintMachine) statelessCheck(atom *model.Atom) *CMError {
	if atom == nil || len(atom.Groups) == 0 {
		return NewCMError(PointerToAtom(), ErrCodeEmptyAtom, "atom has no particle groups")
	}

	lastSpin := make(map[chainhash.Hash]model.Spin)

	for g, group := range atom.Groups {
		if len(group.Particles) == 0 {
			return NewCMError(PointerToGroup(g), ErrCodeEmptyParticleGroup, "particle group is empty")
		}

		for i, sp := range group.Particles {
			pointer := PointerToParticle(g, i)

			if sp.Particle == nil {
				return NewCMError(pointer, ErrCodeInvalidParticle, "particle is nil")
			}

			if !sp.Spin.Valid() || sp.Spin == model.SpinNeutral {
				return NewCMError(pointer, ErrCodeInvalidSpin, fmt.Sprintf("particle cannot be claimed with spin %s", sp.Spin))
			}

			def, ok := cm.particles[sp.Particle.ParticleType()]
			if !ok {
				return NewCMError(pointer, ErrCodeUnknownParticle, fmt.Sprintf("unknown particle type %s", sp.Particle.ParticleType()))
			}

			if def.StaticCheck != nil {
				if err := def.StaticCheck(sp.Particle); err != nil {
					return NewCMError(pointer, ErrCodeInvalidParticle, errorMessage(err), err)
				}
			}

			id := model.ParticleID(sp.Particle)
			if previous, seen := lastSpin[id]; seen {
				if next, err := model.Next(previous); err != nil || next != sp.Spin {
					return NewCMError(pointer, ErrCodeInternalSpinConflict,
						fmt.Sprintf("particle claimed %s after %s in the same atom", sp.Spin, previous))
				}
			}

			lastSpin[id] = sp.Spin
		}
	}

	return nil
}

func (cm *ConstraintMachine) spinCheck(ctx context.Context, store CMStore, atom *model.Atom) *CMError {
	instructions, err := atom.MicroInstructions()
	if err != nil {
		// unreachable after the stateless check
		panic(errors.NewInvariantError("micro instructions of a stateless-valid atom", err))
	}

	for _, instruction := range instructions {
		if !instruction.IsCheckSpin() {
			continue
		}

		result, err := CheckTransition(ctx, store, instruction.Particle, instruction.CheckSpin, instruction.Spin)
		if err != nil {
			return NewCMError(PointerToParticle(instruction.Group, instruction.Index), ErrCodeStateAccessError, "failed to read particle state", err)
		}

		if result.IsFatal() {
			panic(errors.NewInvariantError("%s for %s at group %d particle %d passed stateless validation",
				result, instruction.SpunParticle(), instruction.Group, instruction.Index))
		}
	}

	return nil
}

func (cm *ConstraintMachine) governedByGroupProcedure(t model.ParticleType) bool {
	for _, gp := range cm.groupProcedures {
		if gp.Governs(t) {
			return true
		}
	}

	return false
}

type pendingParticle struct {
	index    int
	particle model.Particle
	spin     model.Spin
	used     UsedData
}

// tokenFor builds the token pairing the pending particle with sp, false if both claim the same spin.
func tokenFor(pending *pendingParticle, sp model.SpunParticle) (TransitionToken, bool) {
	switch {
	case pending.spin == model.SpinDown && sp.Spin == model.SpinUp:
		return NewTransitionToken(pending.particle.ParticleType(), UsedTypeOf(pending.used), sp.Particle.ParticleType(), VoidUsedType), true
	case pending.spin == model.SpinUp && sp.Spin == model.SpinDown:
		return NewTransitionToken(sp.Particle.ParticleType(), VoidUsedType, pending.particle.ParticleType(), UsedTypeOf(pending.used)), true
	default:
		return TransitionToken{}, false
	}
}

func (cm *ConstraintMachine) pairable(a, b model.SpunParticle) bool {
	switch {
	case a.Spin == model.SpinDown && b.Spin == model.SpinUp:
		_, ok := cm.linked[typePair{a.Particle.ParticleType(), b.Particle.ParticleType()}]
		return ok
	case a.Spin == model.SpinUp && b.Spin == model.SpinDown:
		_, ok := cm.linked[typePair{b.Particle.ParticleType(), a.Particle.ParticleType()}]
		return ok
	default:
		return false
	}
}

// validateGroup walks the group pairing each claim with the single pending claim.
// Claims of a type governed by a group procedure stay out of the walk unless a
// registered transition links them with their neighbour; group procedures then
// validate whatever the walk left behind.
func (cm *ConstraintMachine) validateGroup(g int, group model.ParticleGroup, witness WitnessData, level PermissionLevel) *CMError {
	var (
		pending   *pendingParticle
		remaining []IndexedParticle
	)

	for i, sp := range group.Particles {
		governed := cm.governedByGroupProcedure(sp.Particle.ParticleType())

		if pending == nil {
			if governed && (i+1 >= len(group.Particles) || !cm.pairable(sp, group.Particles[i+1])) {
				remaining = append(remaining, IndexedParticle{Index: i, SpunParticle: sp})
				continue
			}

			pending = &pendingParticle{index: i, particle: sp.Particle, spin: sp.Spin}

			continue
		}

		token, opposite := tokenFor(pending, sp)

		if governed {
			if _, ok := cm.procedures[token]; !opposite || !ok {
				remaining = append(remaining, IndexedParticle{Index: i, SpunParticle: sp})
				continue
			}
		}

		if !opposite {
			return NewCMError(PointerToParticle(g, i), ErrCodeParticleSpinMismatch,
				fmt.Sprintf("%s %s cannot follow %s %s", sp.Particle.ParticleType(), sp.Spin, pending.particle.ParticleType(), pending.spin))
		}

		next, cmErr := cm.applyTransition(g, i, token, pending, sp, witness, level)
		if cmErr != nil {
			return cmErr
		}

		pending = next
	}

	if pending != nil {
		return NewCMError(PointerToParticle(g, pending.index), ErrCodeUnequalInputOutput,
			fmt.Sprintf("%s %s is not fully matched", pending.particle.ParticleType(), pending.spin))
	}

	view := GroupView{Index: g, Remaining: remaining, Group: group}

	for _, gp := range cm.groupProcedures {
		if cmErr := gp.Validate(view, witness); cmErr != nil {
			return cmErr
		}
	}

	return nil
}

func (cm *ConstraintMachine) applyTransition(g, i int, token TransitionToken, pending *pendingParticle, sp model.SpunParticle,
	witness WitnessData, level PermissionLevel) (*pendingParticle, *CMError) {
	pointer := PointerToParticle(g, i)

	proc, ok := cm.procedures[token]
	if !ok {
		return nil, NewCMError(pointer, ErrCodeMissingTransitionProcedure, "no procedure registered").withToken(token)
	}

	var (
		input, output           model.Particle
		inputUsed, outputUsed   UsedData
		inputIndex, outputIndex int
	)

	if pending.spin == model.SpinDown {
		input, inputUsed, inputIndex = pending.particle, pending.used, pending.index
		output, outputIndex = sp.Particle, i
	} else {
		output, outputUsed, outputIndex = pending.particle, pending.used, pending.index
		input, inputIndex = sp.Particle, i
	}

	if err := proc.Precondition(input, inputUsed, output, outputUsed); err != nil {
		return nil, NewCMError(pointer, ErrCodeTransitionPreconditionFailed, errorMessage(err), err).withToken(token)
	}

	if required := proc.RequiredPermissionLevel(); required > level {
		return nil, NewCMError(pointer, ErrCodeInvalidExecutionPermission,
			fmt.Sprintf("requires %s permission but caller has %s", required, level)).withToken(token)
	}

	nextInputUsed, inputRemains := proc.InputUsedCompute(input, inputUsed, output, outputUsed)
	nextOutputUsed, outputRemains := proc.OutputUsedCompute(input, inputUsed, output, outputUsed)

	if inputRemains && outputRemains {
		return nil, NewCMError(pointer, ErrCodeUsedDataInconsistency, "input and output both have remaining used data").withToken(token)
	}

	if !inputRemains {
		if err := proc.InputWitnessValidator(input, witness); err != nil {
			return nil, NewCMError(PointerToParticle(g, inputIndex), ErrCodeWitnessError, errorMessage(err), err).withToken(token)
		}
	}

	if !outputRemains {
		if err := proc.OutputWitnessValidator(output, witness); err != nil {
			return nil, NewCMError(PointerToParticle(g, outputIndex), ErrCodeWitnessError, errorMessage(err), err).withToken(token)
		}
	}

	switch {
	case inputRemains:
		return &pendingParticle{index: inputIndex, particle: input, spin: model.SpinDown, used: nextInputUsed}, nil
	case outputRemains:
		return &pendingParticle{index: outputIndex, particle: output, spin: model.SpinUp, used: nextOutputUsed}, nil
	default:
		return nil, nil
	}
}

// errorMessage prefers the bare message of a coded error.
func errorMessage(err error) string {
	var tErr *errors.Error
	if errors.As(err, &tErr) {
		return tErr.Message()
	}

	return err.Error()
}
