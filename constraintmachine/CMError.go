package constraintmachine

import (
	"fmt"

	"github.com/atomledger/atomengine/errors"
)

type CMErrorCode string

const (
	// stateless
	ErrCodeEmptyAtom            CMErrorCode = "EMPTY_ATOM"
	ErrCodeEmptyParticleGroup   CMErrorCode = "EMPTY_PARTICLE_GROUP"
	ErrCodeUnknownParticle      CMErrorCode = "UNKNOWN_PARTICLE"
	ErrCodeInvalidSpin          CMErrorCode = "INVALID_SPIN"
	ErrCodeInvalidParticle      CMErrorCode = "INVALID_PARTICLE"
	ErrCodeInternalSpinConflict CMErrorCode = "INTERNAL_SPIN_CONFLICT"

	// procedures
	ErrCodeMissingTransitionProcedure   CMErrorCode = "MISSING_TRANSITION_PROCEDURE"
	ErrCodeTransitionPreconditionFailed CMErrorCode = "TRANSITION_PRECONDITION_FAILURE"
	ErrCodeInvalidExecutionPermission   CMErrorCode = "INVALID_EXECUTION_PERMISSION"
	ErrCodeUsedDataInconsistency        CMErrorCode = "USED_DATA_INCONSISTENCY"
	ErrCodeWitnessError                 CMErrorCode = "WITNESS_ERROR"
	ErrCodeParticleSpinMismatch         CMErrorCode = "PARTICLE_SPIN_MISMATCH"
	ErrCodeUnequalInputOutput           CMErrorCode = "UNEQUAL_INPUT_OUTPUT"
	ErrCodeFungibleInputUnmatched       CMErrorCode = "FUNGIBLE_INPUT_UNMATCHED"
	ErrCodeFungibleOutputUnmatched      CMErrorCode = "FUNGIBLE_OUTPUT_UNMATCHED"

	// engine
	ErrCodeHookError        CMErrorCode = "HOOK_ERROR"
	ErrCodeStateAccessError CMErrorCode = "STATE_ACCESS_ERROR"
)

var codeCategories = map[CMErrorCode]*errors.Error{
	ErrCodeEmptyAtom:                    errors.ErrStateless,
	ErrCodeEmptyParticleGroup:           errors.ErrStateless,
	ErrCodeUnknownParticle:              errors.ErrStateless,
	ErrCodeInvalidSpin:                  errors.ErrStateless,
	ErrCodeInvalidParticle:              errors.ErrStateless,
	ErrCodeInternalSpinConflict:         errors.ErrStateless,
	ErrCodeMissingTransitionProcedure:   errors.ErrProcedure,
	ErrCodeTransitionPreconditionFailed: errors.ErrProcedure,
	ErrCodeInvalidExecutionPermission:   errors.ErrProcedure,
	ErrCodeUsedDataInconsistency:        errors.ErrProcedure,
	ErrCodeWitnessError:                 errors.ErrProcedure,
	ErrCodeParticleSpinMismatch:         errors.ErrProcedure,
	ErrCodeUnequalInputOutput:           errors.ErrProcedure,
	ErrCodeFungibleInputUnmatched:       errors.ErrProcedure,
	ErrCodeFungibleOutputUnmatched:      errors.ErrProcedure,
	ErrCodeHookError:                    errors.ErrHook,
	ErrCodeStateAccessError:             errors.ErrStorageError,
}

// DataPointer locates an error inside an atom. Particle is -1 when the error concerns
// a whole group, Group is -1 when it concerns the whole atom.
type DataPointer struct {
	Group    int
	Particle int
}

func PointerToAtom() DataPointer {
	return DataPointer{Group: -1, Particle: -1}
}

func PointerToGroup(group int) DataPointer {
	return DataPointer{Group: group, Particle: -1}
}

func PointerToParticle(group, particle int) DataPointer {
	return DataPointer{Group: group, Particle: particle}
}

func (d DataPointer) String() string {
	switch {
	case d.Group < 0:
		return "atom"
	case d.Particle < 0:
		return fmt.Sprintf("group[%d]", d.Group)
	default:
		return fmt.Sprintf("group[%d].particle[%d]", d.Group, d.Particle)
	}
}

// CMError is the single error a constraint machine run can produce. It unwraps to a
// coded *errors.Error so errors.Is works against ErrStateless, ErrProcedure and ErrHook.
type CMError struct {
	Pointer DataPointer
	Code    CMErrorCode
	Message string
	Token   *TransitionToken
	cause   error
}

func NewCMError(pointer DataPointer, code CMErrorCode, message string, cause ...error) *CMError {
	e := &CMError{
		Pointer: pointer,
		Code:    code,
		Message: message,
	}

	if len(cause) > 0 {
		e.cause = cause[0]
	}

	return e
}

func (e *CMError) withToken(token TransitionToken) *CMError {
	e.Token = &token
	return e
}

func (e *CMError) Error() string {
	if e.Token != nil {
		return fmt.Sprintf("%s at %s (%s): %s", e.Code, e.Pointer, e.Token, e.Message)
	}

	return fmt.Sprintf("%s at %s: %s", e.Code, e.Pointer, e.Message)
}

func (e *CMError) Unwrap() error {
	category, ok := codeCategories[e.Code]
	if !ok {
		category = errors.ErrProcedure
	}

	if e.cause != nil {
		return errors.New(category.Code(), e.Message, e.cause)
	}

	return errors.New(category.Code(), e.Message)
}
