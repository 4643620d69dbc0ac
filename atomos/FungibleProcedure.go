package atomos

import (
	"fmt"

	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/holiman/uint256"
)

type fungibleEntry struct {
	index    int
	particle model.Particle
	amount   *uint256.Int
}

type fungibleStack []fungibleEntry

func (s *fungibleStack) push(e fungibleEntry) {
	*s = append(*s, e)
}

func (s *fungibleStack) pop() fungibleEntry {
	e := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]

	return e
}

func (s fungibleStack) peek() fungibleEntry {
	return s[len(s)-1]
}

// FungibleProcedure reconciles consumed against created fungible particles of a group
// with a reverse two-stack sweep.
type FungibleProcedure struct {
	transitions map[model.ParticleType]FungibleTransition
	inputTypes  map[model.ParticleType]struct{}
	outputTypes map[model.ParticleType]struct{}
}

// NewFungibleProcedure fails when an output type has no transition to read its amount from.
func NewFungibleProcedure(transitions map[model.ParticleType]FungibleTransition) (*FungibleProcedure, error) {
	f := &FungibleProcedure{
		transitions: make(map[model.ParticleType]FungibleTransition, len(transitions)),
		inputTypes:  make(map[model.ParticleType]struct{}),
		outputTypes: make(map[model.ParticleType]struct{}),
	}

	for t, transition := range transitions {
		f.transitions[t] = transition
		f.inputTypes[t] = struct{}{}

		for outputType := range transition.Formulas {
			f.outputTypes[outputType] = struct{}{}
		}
	}

	for outputType := range f.outputTypes {
		if _, ok := f.transitions[outputType]; !ok {
			return nil, errors.NewInvalidArgumentError("fungible output %s has no amount mapper", outputType)
		}
	}

	return f, nil
}

func (f *FungibleProcedure) Name() string {
	return "fungible"
}

func (f *FungibleProcedure) Governs(t model.ParticleType) bool {
	_, input := f.inputTypes[t]
	_, output := f.outputTypes[t]

	return input || output
}

func (f *FungibleProcedure) amount(p model.Particle) *uint256.Int {
	amount := f.transitions[p.ParticleType()].Amount(p)
	if amount == nil {
		return new(uint256.Int)
	}

	return amount.Clone()
}

func (f *FungibleProcedure) Validate(view constraintmachine.GroupView, witness constraintmachine.WitnessData) *constraintmachine.CMError {
	var inputs, outputs fungibleStack

	for i := len(view.Remaining) - 1; i >= 0; i-- {
		sp := view.Remaining[i]
		t := sp.Particle.ParticleType()

		if _, ok := f.inputTypes[t]; ok && sp.Spin == model.SpinDown {
			current := f.amount(sp.Particle)
			formulas := f.transitions[t].Formulas

			for !current.IsZero() && len(outputs) > 0 {
				top := outputs.peek()

				formula, ok := formulas[top.particle.ParticleType()]
				if !ok {
					break
				}

				if formula.Check != nil && formula.Check(sp.Particle, top.particle) != nil {
					break
				}

				if formula.Witness != nil && formula.Witness(sp.Particle, witness) != nil {
					break
				}

				outputs.pop()

				matched := new(uint256.Int).Set(current)
				if top.amount.Lt(matched) {
					matched.Set(top.amount)
				}

				if remaining := new(uint256.Int).Sub(top.amount, matched); !remaining.IsZero() {
					outputs.push(fungibleEntry{index: top.index, particle: top.particle, amount: remaining})
				}

				current.Sub(current, matched)
			}

			if !current.IsZero() {
				inputs.push(fungibleEntry{index: sp.Index, particle: sp.Particle, amount: current})
			}

			continue
		}

		if _, ok := f.outputTypes[t]; ok && sp.Spin == model.SpinUp {
			outputs.push(fungibleEntry{index: sp.Index, particle: sp.Particle, amount: f.amount(sp.Particle)})
		}
	}

	if len(inputs) > 0 {
		top := inputs.peek()

		return constraintmachine.NewCMError(constraintmachine.PointerToParticle(view.Index, top.index),
			constraintmachine.ErrCodeFungibleInputUnmatched,
			fmt.Sprintf("input stack not empty: %s of %s unmatched", top.amount.Dec(), top.particle.ParticleType()))
	}

	return f.justifyOutputs(view, outputs, witness)
}

// justifyOutputs accepts leftover outputs that satisfy their initial creation constraint
// against a distinct UP particle of the group.
func (f *FungibleProcedure) justifyOutputs(view constraintmachine.GroupView, outputs fungibleStack,
	witness constraintmachine.WitnessData) *constraintmachine.CMError {
	if len(outputs) == 0 {
		return nil
	}

	used := make(map[int]struct{})

	for j := len(outputs) - 1; j >= 0; j-- {
		output := outputs[j]
		justified := false

		if initial := f.transitions[output.particle.ParticleType()].InitialWith; initial != nil {
			for k, sp := range view.Group.Particles {
				if _, taken := used[k]; taken || sp.Spin != model.SpinUp || sp.Particle.ParticleType() != initial.ParticleType {
					continue
				}

				if initial.Check(output.particle, sp.Particle, witness) == nil {
					used[k] = struct{}{}
					justified = true

					break
				}
			}
		}

		if !justified {
			return constraintmachine.NewCMError(constraintmachine.PointerToParticle(view.Index, output.index),
				constraintmachine.ErrCodeFungibleOutputUnmatched,
				fmt.Sprintf("output stack not empty: %s of %s unmatched", output.amount.Dec(), output.particle.ParticleType()))
		}
	}

	return nil
}
