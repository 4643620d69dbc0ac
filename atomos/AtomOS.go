// Package atomos is the registry that rule sets ("scrypts") load their particle types
// and transition procedures into. The registry is built once into a constraint machine
// and a codec and is immutable afterwards.
package atomos

import (
	"sync"

	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/ulogger"
)

// ParticleDefinition registers one particle type.
type ParticleDefinition struct {
	Type model.ParticleType
	// Factory returns an empty particle to decode into.
	Factory model.ParticleFactory
	// StaticCheck validates the particle's own fields, nil means always valid.
	StaticCheck func(p model.Particle) error
	// Virtualize reports particles that are UP without a stored claim.
	Virtualize func(p model.Particle) bool
}

// SysCalls is the registration surface handed to a scrypt.
type SysCalls interface {
	RegisterParticle(def ParticleDefinition) error
	CreateTransition(token constraintmachine.TransitionToken, procedure constraintmachine.TransitionProcedure) error
	CreateFungibleTransition(transition FungibleTransition) error
	// CreateTransitionFromRRI lets an RRI particle be consumed into a new particle of
	// outputType naming the same RRI. precondition may be nil.
	CreateTransitionFromRRI(outputType model.ParticleType, rriOf func(p model.Particle) model.RRI, precondition constraintmachine.PreconditionFunc) error
}

// ConstraintScrypt is a rule set.
type ConstraintScrypt interface {
	Name() string
	Main(sys SysCalls) error
}

// CMAtomOS collects the particle definitions and procedures of every loaded scrypt.
type CMAtomOS struct {
	logger     ulogger.Logger
	mu         sync.Mutex
	built      bool
	particles  map[model.ParticleType]ParticleDefinition
	procedures map[constraintmachine.TransitionToken]constraintmachine.TransitionProcedure
	fungibles  map[model.ParticleType]FungibleTransition
	scrypts    []string
}

// New returns a registry holding the RRI particle every deployment uses to reserve names.
func New(logger ulogger.Logger) *CMAtomOS {
	a := &CMAtomOS{
		logger:     logger,
		particles:  make(map[model.ParticleType]ParticleDefinition),
		procedures: make(map[constraintmachine.TransitionToken]constraintmachine.TransitionProcedure),
		fungibles:  make(map[model.ParticleType]FungibleTransition),
	}

	if err := a.RegisterParticle(rriParticleDefinition()); err != nil {
		panic(errors.NewInvariantError("failed to register rri particle", err))
	}

	return a
}

// Load runs the scrypt's registrations. A failed scrypt may have registered part of its
// rule set, the registry should then be discarded.
func (a *CMAtomOS) Load(scrypt ConstraintScrypt) error {
	a.mu.Lock()
	if a.built {
		a.mu.Unlock()
		return errors.NewProcessingError("cannot load scrypt %s after the constraint machine was built", scrypt.Name())
	}

	a.mu.Unlock()

	if err := scrypt.Main(a); err != nil {
		return errors.NewProcessingError("[AtomOS] failed to load scrypt %s", scrypt.Name(), err)
	}

	a.mu.Lock()
	a.scrypts = append(a.scrypts, scrypt.Name())
	a.mu.Unlock()

	a.logger.Infof("[AtomOS] loaded scrypt %s", scrypt.Name())

	return nil
}

// Scrypts returns the names of the loaded scrypts in load order.
func (a *CMAtomOS) Scrypts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.scrypts...)
}

func (a *CMAtomOS) RegisterParticle(def ParticleDefinition) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return errors.NewProcessingError("particle %s registered after build", def.Type)
	}

	if def.Type == "" || def.Factory == nil {
		return errors.NewInvalidArgumentError("particle definition needs a type and a factory")
	}

	if _, ok := a.particles[def.Type]; ok {
		return errors.NewAlreadyExistsError("particle %s already registered", def.Type)
	}

	a.particles[def.Type] = def

	return nil
}

func (a *CMAtomOS) CreateTransition(token constraintmachine.TransitionToken, procedure constraintmachine.TransitionProcedure) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return errors.NewProcessingError("transition %s created after build", token)
	}

	if err := a.requireRegistered(token.InputType, token.OutputType); err != nil {
		return err
	}

	if _, ok := a.procedures[token]; ok {
		return errors.NewAlreadyExistsError("transition %s already created", token)
	}

	a.procedures[token] = procedure

	return nil
}

func (a *CMAtomOS) CreateTransitionFromRRI(outputType model.ParticleType, rriOf func(p model.Particle) model.RRI,
	precondition constraintmachine.PreconditionFunc) error {
	token := constraintmachine.NewTransitionToken(RRIParticleType, constraintmachine.VoidUsedType, outputType, constraintmachine.VoidUsedType)

	return a.CreateTransition(token, &constraintmachine.Procedure{
		PreconditionF: func(input model.Particle, inputUsed constraintmachine.UsedData, output model.Particle, outputUsed constraintmachine.UsedData) error {
			reserved := input.(*RRIParticle).RRI
			if created := rriOf(output); created != reserved {
				return errors.NewProcedureError("%s RRI %s does not match consumed RRI %s", outputType, created, reserved)
			}

			if precondition != nil {
				return precondition(input, inputUsed, output, outputUsed)
			}

			return nil
		},
		InputWitness: RRIOwnerSignature(),
	})
}

func (a *CMAtomOS) CreateFungibleTransition(transition FungibleTransition) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return errors.NewProcessingError("fungible transition %s created after build", transition.ParticleType)
	}

	if transition.Amount == nil {
		return errors.NewInvalidArgumentError("fungible transition %s has no amount mapper", transition.ParticleType)
	}

	if err := a.requireRegistered(transition.ParticleType); err != nil {
		return err
	}

	for outputType := range transition.Formulas {
		if err := a.requireRegistered(outputType); err != nil {
			return err
		}
	}

	if transition.InitialWith != nil {
		if err := a.requireRegistered(transition.InitialWith.ParticleType); err != nil {
			return err
		}
	}

	if _, ok := a.fungibles[transition.ParticleType]; ok {
		return errors.NewAlreadyExistsError("fungible transition %s already created", transition.ParticleType)
	}

	a.fungibles[transition.ParticleType] = transition

	return nil
}

func (a *CMAtomOS) requireRegistered(types ...model.ParticleType) error {
	for _, t := range types {
		if _, ok := a.particles[t]; !ok {
			return errors.NewInvalidArgumentError("particle %s is not registered", t)
		}
	}

	return nil
}

// Build freezes the registry and returns the constraint machine and the codec for
// every registered particle type.
func (a *CMAtomOS) Build() (*constraintmachine.ConstraintMachine, *model.Codec, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return nil, nil, errors.NewProcessingError("constraint machine already built")
	}

	cfg := constraintmachine.Config{
		Particles:  make(map[model.ParticleType]constraintmachine.ParticleDefinition, len(a.particles)),
		Procedures: a.procedures,
	}

	codec := model.NewCodec()

	for t, def := range a.particles {
		cfg.Particles[t] = constraintmachine.ParticleDefinition{
			Type:        t,
			StaticCheck: def.StaticCheck,
			Virtualize:  def.Virtualize,
		}

		if err := codec.Register(t, def.Factory); err != nil {
			return nil, nil, err
		}
	}

	if len(a.fungibles) > 0 {
		fungible, err := NewFungibleProcedure(a.fungibles)
		if err != nil {
			return nil, nil, err
		}

		cfg.GroupProcedures = append(cfg.GroupProcedures, fungible)
	}

	a.built = true

	return constraintmachine.New(a.logger, cfg), codec, nil
}
