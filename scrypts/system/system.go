// Package system registers the system particle that tracks consensus epochs and views.
package system

import (
	"github.com/atomledger/atomengine/atomos"
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
)

const ParticleType model.ParticleType = "system"

// Particle is the singleton system clock. The zero particle is virtually UP, every
// later one is created by consuming its predecessor.
type Particle struct {
	Epoch     int64 `json:"epoch"`
	View      int64 `json:"view"`
	Timestamp int64 `json:"timestamp"`
}

func (p *Particle) ParticleType() model.ParticleType {
	return ParticleType
}

type Scrypt struct{}

func (Scrypt) Name() string {
	return "system"
}

func (Scrypt) Main(sys atomos.SysCalls) error {
	if err := sys.RegisterParticle(atomos.ParticleDefinition{
		Type:        ParticleType,
		Factory:     func() model.Particle { return &Particle{} },
		StaticCheck: staticCheck,
		Virtualize: func(p model.Particle) bool {
			s := p.(*Particle)
			return s.Epoch == 0 && s.View == 0 && s.Timestamp == 0
		},
	}); err != nil {
		return err
	}

	token := constraintmachine.NewTransitionToken(ParticleType, constraintmachine.VoidUsedType, ParticleType, constraintmachine.VoidUsedType)

	return sys.CreateTransition(token, &constraintmachine.Procedure{
		Permission:    constraintmachine.PermissionLevelSystem,
		PreconditionF: precondition,
	})
}

func staticCheck(p model.Particle) error {
	s, ok := p.(*Particle)
	if !ok || s == nil {
		return errors.NewStatelessError("particle is not a system particle")
	}

	switch {
	case s.Epoch < 0:
		return errors.NewStatelessError("epoch is less than 0")
	case s.Timestamp < 0:
		return errors.NewStatelessError("timestamp is less than 0")
	case s.View < 0:
		return errors.NewStatelessError("view is less than 0")
	}

	return nil
}

// precondition allows a later view in the same epoch or the first view of the next epoch.
func precondition(input model.Particle, _ constraintmachine.UsedData, output model.Particle, _ constraintmachine.UsedData) error {
	in, out := input.(*Particle), output.(*Particle)

	if in.Epoch == out.Epoch {
		if in.View >= out.View {
			return errors.NewProcedureError("next view must be greater than previous")
		}

		return nil
	}

	if in.Epoch+1 != out.Epoch {
		return errors.NewProcedureError("bad next epoch %d after %d", out.Epoch, in.Epoch)
	}

	return nil
}
