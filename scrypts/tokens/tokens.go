// Package tokens registers fungible token types: a definition reserved through an RRI
// and transferrable amounts that are moved by the fungible matcher.
package tokens

import (
	"github.com/atomledger/atomengine/atomos"
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/holiman/uint256"
)

type Scrypt struct{}

func (Scrypt) Name() string {
	return "tokens"
}

func (Scrypt) Main(sys atomos.SysCalls) error {
	if err := sys.RegisterParticle(atomos.ParticleDefinition{
		Type:        DefinitionParticleType,
		Factory:     func() model.Particle { return &DefinitionParticle{} },
		StaticCheck: checkDefinition,
	}); err != nil {
		return err
	}

	if err := sys.RegisterParticle(atomos.ParticleDefinition{
		Type:        TransferrableParticleType,
		Factory:     func() model.Particle { return &TransferrableParticle{} },
		StaticCheck: checkTransferrable,
	}); err != nil {
		return err
	}

	if err := sys.CreateTransitionFromRRI(DefinitionParticleType, func(p model.Particle) model.RRI {
		return p.(*DefinitionParticle).RRI
	}, nil); err != nil {
		return err
	}

	return sys.CreateFungibleTransition(atomos.FungibleTransition{
		ParticleType: TransferrableParticleType,
		Amount:       Amount,
		Formulas: map[model.ParticleType]atomos.FungibleFormula{
			TransferrableParticleType: {
				Check:   sameToken,
				Witness: HolderSignature(),
			},
		},
		InitialWith: &atomos.InitialWithConstraint{
			ParticleType: DefinitionParticleType,
			Check:        mintedByOwner,
		},
	})
}

// Amount returns the amount of a transferrable particle.
func Amount(p model.Particle) *uint256.Int {
	return p.(*TransferrableParticle).Amount
}

// HolderSignature requires the holder of the spent tokens to sign.
func HolderSignature() constraintmachine.WitnessValidator {
	return constraintmachine.SignedBy(func(p model.Particle) model.Address {
		return p.(*TransferrableParticle).Address
	})
}

func checkDefinition(p model.Particle) error {
	def, ok := p.(*DefinitionParticle)
	if !ok || def == nil {
		return errors.NewStatelessError("particle is not a token definition")
	}

	if err := def.RRI.Validate(); err != nil {
		return errors.NewStatelessError("invalid token rri", err)
	}

	if def.Name == "" {
		return errors.NewStatelessError("token %s has no name", def.RRI)
	}

	return nil
}

func checkTransferrable(p model.Particle) error {
	tokens, ok := p.(*TransferrableParticle)
	if !ok || tokens == nil {
		return errors.NewStatelessError("particle is not transferrable tokens")
	}

	if tokens.Address.IsZero() {
		return errors.NewStatelessError("tokens have no address")
	}

	if err := tokens.TokenDefinitionRef.Validate(); err != nil {
		return errors.NewStatelessError("invalid token definition reference", err)
	}

	if tokens.Amount == nil || tokens.Amount.IsZero() {
		return errors.NewStatelessError("amount must be positive")
	}

	return nil
}

func sameToken(input, output model.Particle) error {
	in, out := input.(*TransferrableParticle), output.(*TransferrableParticle)
	if in.TokenDefinitionRef != out.TokenDefinitionRef {
		return errors.NewProcedureError("token %s cannot fund token %s", in.TokenDefinitionRef, out.TokenDefinitionRef)
	}

	return nil
}

// mintedByOwner lets the owner of a definition created in the same group mint its
// initial supply.
func mintedByOwner(output, other model.Particle, witness constraintmachine.WitnessData) error {
	tokens, def := output.(*TransferrableParticle), other.(*DefinitionParticle)

	if tokens.TokenDefinitionRef != def.RRI {
		return errors.NewProcedureError("tokens of %s are not minted by definition %s", tokens.TokenDefinitionRef, def.RRI)
	}

	if !witness.IsSignedBy(def.RRI.Address) {
		return errors.NewProcedureError("mint of %s not signed by %s", def.RRI, def.RRI.Address)
	}

	return nil
}
