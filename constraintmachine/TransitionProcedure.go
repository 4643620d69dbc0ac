package constraintmachine

import (
	"strings"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
)

type PermissionLevel int

const (
	PermissionLevelUser PermissionLevel = iota
	PermissionLevelSuperUser
	PermissionLevelSystem
)

func (p PermissionLevel) String() string {
	switch p {
	case PermissionLevelUser:
		return "USER"
	case PermissionLevelSuperUser:
		return "SUPER_USER"
	case PermissionLevelSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

func ParsePermissionLevel(s string) (PermissionLevel, error) {
	switch strings.ToUpper(s) {
	case "USER":
		return PermissionLevelUser, nil
	case "SUPER_USER":
		return PermissionLevelSuperUser, nil
	case "SYSTEM":
		return PermissionLevelSystem, nil
	}

	return PermissionLevelUser, errors.NewConfigurationError("unknown permission level %q", s)
}

// WitnessData gives witness validators access to the atom's authorisation.
type WitnessData interface {
	IsSignedBy(address model.Address) bool
}

// WitnessValidator returns nil when the particle is authorised by the witness.
type WitnessValidator func(p model.Particle, witness WitnessData) error

// TransitionProcedure governs one TransitionToken. A nil error from Precondition or
// a witness validator is success. Used compute functions return false when the side
// is fully consumed.
type TransitionProcedure interface {
	RequiredPermissionLevel() PermissionLevel
	Precondition(input model.Particle, inputUsed UsedData, output model.Particle, outputUsed UsedData) error
	InputUsedCompute(input model.Particle, inputUsed UsedData, output model.Particle, outputUsed UsedData) (UsedData, bool)
	OutputUsedCompute(input model.Particle, inputUsed UsedData, output model.Particle, outputUsed UsedData) (UsedData, bool)
	InputWitnessValidator(input model.Particle, witness WitnessData) error
	OutputWitnessValidator(output model.Particle, witness WitnessData) error
}

type (
	PreconditionFunc func(input model.Particle, inputUsed UsedData, output model.Particle, outputUsed UsedData) error
	UsedComputeFunc  func(input model.Particle, inputUsed UsedData, output model.Particle, outputUsed UsedData) (UsedData, bool)
)

// Procedure assembles a TransitionProcedure from functions. Nil functions mean:
// no precondition, fully consumed, and no witness required.
type Procedure struct {
	Permission    PermissionLevel
	PreconditionF PreconditionFunc
	InputUsedF    UsedComputeFunc
	OutputUsedF   UsedComputeFunc
	InputWitness  WitnessValidator
	OutputWitness WitnessValidator
}

func (p *Procedure) RequiredPermissionLevel() PermissionLevel {
	return p.Permission
}

func (p *Procedure) Precondition(input model.Particle, inputUsed UsedData, output model.Particle, outputUsed UsedData) error {
	if p.PreconditionF == nil {
		return nil
	}

	return p.PreconditionF(input, inputUsed, output, outputUsed)
}

func (p *Procedure) InputUsedCompute(input model.Particle, inputUsed UsedData, output model.Particle, outputUsed UsedData) (UsedData, bool) {
	if p.InputUsedF == nil {
		return nil, false
	}

	return p.InputUsedF(input, inputUsed, output, outputUsed)
}

func (p *Procedure) OutputUsedCompute(input model.Particle, inputUsed UsedData, output model.Particle, outputUsed UsedData) (UsedData, bool) {
	if p.OutputUsedF == nil {
		return nil, false
	}

	return p.OutputUsedF(input, inputUsed, output, outputUsed)
}

func (p *Procedure) InputWitnessValidator(input model.Particle, witness WitnessData) error {
	if p.InputWitness == nil {
		return nil
	}

	return p.InputWitness(input, witness)
}

func (p *Procedure) OutputWitnessValidator(output model.Particle, witness WitnessData) error {
	if p.OutputWitness == nil {
		return nil
	}

	return p.OutputWitness(output, witness)
}

// SignedBy is a witness validator requiring a signature by the address returned for the particle.
func SignedBy(address func(p model.Particle) model.Address) WitnessValidator {
	return func(p model.Particle, witness WitnessData) error {
		addr := address(p)
		if !witness.IsSignedBy(addr) {
			return errors.NewProcedureError("not signed by %s", addr)
		}

		return nil
	}
}
