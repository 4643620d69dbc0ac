// Package cru registers data records that can be created, read and updated by the
// owner of their RRI.
package cru

import (
	"encoding/hex"
	"fmt"

	"github.com/atomledger/atomengine/atomos"
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
)

const ParticleType model.ParticleType = "cru"

// DataParticle is one version of a record. The first version has serial number 0,
// every update increments it by one.
type DataParticle struct {
	RRI      model.RRI `json:"rri"`
	Serialno int64     `json:"serialno"`
	Data     []byte    `json:"data"`
}

func NewDataParticle(rri model.RRI, serialno int64, data []byte) *DataParticle {
	return &DataParticle{RRI: rri, Serialno: serialno, Data: data}
}

func (p *DataParticle) ParticleType() model.ParticleType {
	return ParticleType
}

func (p *DataParticle) String() string {
	return fmt.Sprintf("DataParticle[(%s:%d), (%s)]", p.RRI, p.Serialno, hex.EncodeToString(p.Data))
}

type Scrypt struct{}

func (Scrypt) Name() string {
	return "cru"
}

func (Scrypt) Main(sys atomos.SysCalls) error {
	if err := sys.RegisterParticle(atomos.ParticleDefinition{
		Type:        ParticleType,
		Factory:     func() model.Particle { return &DataParticle{} },
		StaticCheck: staticCheck,
	}); err != nil {
		return err
	}

	if err := sys.CreateTransitionFromRRI(ParticleType, rriOf, createPrecondition); err != nil {
		return err
	}

	token := constraintmachine.NewTransitionToken(ParticleType, constraintmachine.VoidUsedType, ParticleType, constraintmachine.VoidUsedType)

	return sys.CreateTransition(token, UpdateProcedure())
}

func rriOf(p model.Particle) model.RRI {
	return p.(*DataParticle).RRI
}

func staticCheck(p model.Particle) error {
	data, ok := p.(*DataParticle)
	if !ok || data == nil {
		return errors.NewStatelessError("particle is not a cru record")
	}

	if data.RRI.Address.IsZero() {
		return errors.NewStatelessError("rri is invalid")
	}

	return nil
}

func createPrecondition(_ model.Particle, _ constraintmachine.UsedData, output model.Particle, _ constraintmachine.UsedData) error {
	if serialno := output.(*DataParticle).Serialno; serialno != 0 {
		return errors.NewProcedureError("created record must have serialno 0, got %d", serialno)
	}

	return nil
}

// UpdateProcedure replaces a record by its next version. Only the input needs the
// owner's signature, both sides name the same RRI.
func UpdateProcedure() *constraintmachine.Procedure {
	return &constraintmachine.Procedure{
		PreconditionF: updatePrecondition,
		InputWitness: func(input model.Particle, witness constraintmachine.WitnessData) error {
			in := input.(*DataParticle)
			if in.RRI.Address.IsZero() || !witness.IsSignedBy(in.RRI.Address) {
				return errors.NewProcedureError("CRU %s not signed", in.RRI)
			}

			return nil
		},
	}
}

func updatePrecondition(input model.Particle, _ constraintmachine.UsedData, output model.Particle, _ constraintmachine.UsedData) error {
	in, out := input.(*DataParticle), output.(*DataParticle)

	if in.RRI != out.RRI {
		return errors.NewProcedureError("CRU RRIs do not match: %s != %s", in.RRI, out.RRI)
	}

	if in.Serialno+1 != out.Serialno {
		return errors.NewProcedureError("output serialno must be input serialno + 1, but %d != %d + 1", out.Serialno, in.Serialno)
	}

	return nil
}
