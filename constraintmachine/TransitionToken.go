package constraintmachine

import (
	"fmt"

	"github.com/atomledger/atomengine/model"
)

// UsedType discriminates used data variants. The empty UsedType is the void variant.
type UsedType string

const VoidUsedType UsedType = ""

// UsedData is the residual carried between successive applications of a transition
// procedure within one group. Implementations are comparable values and are never mutated.
type UsedData interface {
	UsedType() UsedType
}

// UsedTypeOf returns the variant of u, treating nil as void.
func UsedTypeOf(u UsedData) UsedType {
	if u == nil {
		return VoidUsedType
	}

	return u.UsedType()
}

// TransitionToken keys a transition procedure.
type TransitionToken struct {
	InputType      model.ParticleType
	InputUsedType  UsedType
	OutputType     model.ParticleType
	OutputUsedType UsedType
}

func NewTransitionToken(input model.ParticleType, inputUsed UsedType, output model.ParticleType, outputUsed UsedType) TransitionToken {
	return TransitionToken{
		InputType:      input,
		InputUsedType:  inputUsed,
		OutputType:     output,
		OutputUsedType: outputUsed,
	}
}

func (t TransitionToken) String() string {
	return fmt.Sprintf("%s[%s] -> %s[%s]", t.InputType, usedTypeName(t.InputUsedType), t.OutputType, usedTypeName(t.OutputUsedType))
}

func usedTypeName(u UsedType) string {
	if u == VoidUsedType {
		return "void"
	}

	return string(u)
}
