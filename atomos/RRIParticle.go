package atomos

import (
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
)

const RRIParticleType model.ParticleType = "rri"

// RRIParticle reserves a name in an address's namespace. Every valid RRI particle is
// virtually UP; consuming it creates the resource the name identifies.
type RRIParticle struct {
	RRI   model.RRI `json:"rri"`
	Nonce uint64    `json:"nonce"`
}

func NewRRIParticle(rri model.RRI) *RRIParticle {
	return &RRIParticle{RRI: rri}
}

func (p *RRIParticle) ParticleType() model.ParticleType {
	return RRIParticleType
}

func rriParticleDefinition() ParticleDefinition {
	return ParticleDefinition{
		Type:    RRIParticleType,
		Factory: func() model.Particle { return &RRIParticle{} },
		StaticCheck: func(p model.Particle) error {
			rri, ok := p.(*RRIParticle)
			if !ok {
				return errors.NewStatelessError("particle is not an rri")
			}

			if err := rri.RRI.Validate(); err != nil {
				return errors.NewStatelessError("invalid rri", err)
			}

			return nil
		},
		Virtualize: func(p model.Particle) bool {
			rri, ok := p.(*RRIParticle)
			return ok && rri.Nonce == 0
		},
	}
}

// RRIOwnerSignature requires the owner of the consumed RRI to sign. It is the input
// witness of every RRI creation transition.
func RRIOwnerSignature() constraintmachine.WitnessValidator {
	return constraintmachine.SignedBy(func(p model.Particle) model.Address {
		return p.(*RRIParticle).RRI.Address
	})
}

// RRIOf returns the RRI of an RRI particle, and false for any other particle.
func RRIOf(p model.Particle) (model.RRI, bool) {
	rri, ok := p.(*RRIParticle)
	if !ok {
		return model.RRI{}, false
	}

	return rri.RRI, true
}
