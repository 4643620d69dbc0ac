package atomos

import (
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/model"
	"github.com/holiman/uint256"
)

// FungibleFormula decides whether an input may fund a particular output type.
type FungibleFormula struct {
	// Check reports whether input can fund output, nil error means compatible.
	Check func(input, output model.Particle) error
	// Witness authorises spending the input.
	Witness constraintmachine.WitnessValidator
}

// InitialWithConstraint justifies an output with no funding input: the output is
// created together with an UP particle of ParticleType that passes Check.
type InitialWithConstraint struct {
	ParticleType model.ParticleType
	Check        func(output, other model.Particle, witness constraintmachine.WitnessData) error
}

// FungibleTransition declares a fungible particle type: how to read its amount, which
// output types it can fund, and how it may be created without funding.
type FungibleTransition struct {
	ParticleType model.ParticleType
	Amount       func(p model.Particle) *uint256.Int
	// Formulas is keyed by the output particle type.
	Formulas    map[model.ParticleType]FungibleFormula
	InitialWith *InitialWithConstraint
}
