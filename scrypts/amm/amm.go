// Package amm registers liquidity pools. A pool is created by consuming its RRI and is
// funded in the same group by the tokens it holds: token A first, then token B.
package amm

import (
	"github.com/atomledger/atomengine/atomos"
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/scrypts/tokens"
	"github.com/holiman/uint256"
)

const (
	ParticleType model.ParticleType = "amm"

	OutstandingUsedType constraintmachine.UsedType = "amm.outstanding"
)

type Particle struct {
	RRI     model.RRI    `json:"rri"`
	TokenA  model.RRI    `json:"tokenA"`
	TokenB  model.RRI    `json:"tokenB"`
	AAmount *uint256.Int `json:"aAmount"`
	BAmount *uint256.Int `json:"bAmount"`
}

func NewParticle(rri, tokenA, tokenB model.RRI, aAmount, bAmount *uint256.Int) *Particle {
	return &Particle{RRI: rri, TokenA: tokenA, TokenB: tokenB, AAmount: aAmount, BAmount: bAmount}
}

func (p *Particle) ParticleType() model.ParticleType {
	return ParticleType
}

// Outstanding is the part of a pool's reserves not yet funded.
type Outstanding struct {
	A uint256.Int
	B uint256.Int
}

func (Outstanding) UsedType() constraintmachine.UsedType {
	return OutstandingUsedType
}

// Scrypt depends on the tokens scrypt being loaded first.
type Scrypt struct{}

func (Scrypt) Name() string {
	return "amm"
}

func (Scrypt) Main(sys atomos.SysCalls) error {
	if err := sys.RegisterParticle(atomos.ParticleDefinition{
		Type:        ParticleType,
		Factory:     func() model.Particle { return &Particle{} },
		StaticCheck: staticCheck,
	}); err != nil {
		return err
	}

	create := constraintmachine.NewTransitionToken(atomos.RRIParticleType, constraintmachine.VoidUsedType, ParticleType, constraintmachine.VoidUsedType)
	if err := sys.CreateTransition(create, CreateProcedure()); err != nil {
		return err
	}

	fund := constraintmachine.NewTransitionToken(tokens.TransferrableParticleType, constraintmachine.VoidUsedType, ParticleType, OutstandingUsedType)

	return sys.CreateTransition(fund, FundProcedure())
}

func staticCheck(p model.Particle) error {
	pool, ok := p.(*Particle)
	if !ok || pool == nil {
		return errors.NewStatelessError("particle is not an amm pool")
	}

	if err := pool.RRI.Validate(); err != nil {
		return errors.NewStatelessError("invalid pool rri", err)
	}

	if pool.TokenA == pool.TokenB {
		return errors.NewStatelessError("pool %s trades %s against itself", pool.RRI, pool.TokenA)
	}

	if pool.AAmount == nil || pool.BAmount == nil || pool.AAmount.IsZero() || pool.BAmount.IsZero() {
		return errors.NewStatelessError("pool %s reserves must be positive", pool.RRI)
	}

	return nil
}

// CreateProcedure consumes the pool's RRI and leaves both reserves outstanding.
func CreateProcedure() *constraintmachine.Procedure {
	return &constraintmachine.Procedure{
		PreconditionF: func(input model.Particle, _ constraintmachine.UsedData, output model.Particle, _ constraintmachine.UsedData) error {
			if rri, pool := input.(*atomos.RRIParticle).RRI, output.(*Particle).RRI; rri != pool {
				return errors.NewProcedureError("pool RRI %s does not match consumed RRI %s", pool, rri)
			}

			return nil
		},
		OutputUsedF: func(_ model.Particle, _ constraintmachine.UsedData, output model.Particle, _ constraintmachine.UsedData) (constraintmachine.UsedData, bool) {
			pool := output.(*Particle)

			var outstanding Outstanding

			outstanding.A.Set(pool.AAmount)
			outstanding.B.Set(pool.BAmount)

			return outstanding, true
		},
		InputWitness: atomos.RRIOwnerSignature(),
	}
}

// FundProcedure consumes whole token particles into the outstanding reserves.
func FundProcedure() *constraintmachine.Procedure {
	return &constraintmachine.Procedure{
		PreconditionF: func(input model.Particle, _ constraintmachine.UsedData, output model.Particle, outputUsed constraintmachine.UsedData) error {
			deposit, pool := input.(*tokens.TransferrableParticle), output.(*Particle)
			outstanding := outputUsed.(Outstanding)

			token, reserve := pool.TokenA, &outstanding.A
			if outstanding.A.IsZero() {
				token, reserve = pool.TokenB, &outstanding.B
			}

			if deposit.TokenDefinitionRef != token {
				return errors.NewProcedureError("wrong token type %s, pool %s expects %s", deposit.TokenDefinitionRef, pool.RRI, token)
			}

			if deposit.Amount.Gt(reserve) {
				return errors.NewProcedureError("deposit of %s exceeds outstanding %s", deposit.Amount.Dec(), reserve.Dec())
			}

			return nil
		},
		OutputUsedF: func(input model.Particle, _ constraintmachine.UsedData, _ model.Particle, outputUsed constraintmachine.UsedData) (constraintmachine.UsedData, bool) {
			deposit := input.(*tokens.TransferrableParticle)
			outstanding := outputUsed.(Outstanding)

			if !outstanding.A.IsZero() {
				outstanding.A.Sub(&outstanding.A, deposit.Amount)
			} else {
				outstanding.B.Sub(&outstanding.B, deposit.Amount)
			}

			if outstanding.A.IsZero() && outstanding.B.IsZero() {
				return nil, false
			}

			return outstanding, true
		},
		InputWitness: tokens.HolderSignature(),
	}
}
