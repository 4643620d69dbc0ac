package model

import (
	"github.com/atomledger/atomengine/errors"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

type MicroOp uint8

const (
	// OpCheckSpin is the first claim on a particle inside an atom, it must be checked against the store.
	OpCheckSpin MicroOp = iota
	// OpPush is a later claim on a particle already claimed earlier in the same atom.
	OpPush
	// OpGroupEnd closes a particle group.
	OpGroupEnd
)

func (op MicroOp) String() string {
	switch op {
	case OpCheckSpin:
		return "CHECK_SPIN"
	case OpPush:
		return "PUSH"
	case OpGroupEnd:
		return "GROUP_END"
	default:
		return "UNKNOWN"
	}
}

type MicroInstruction struct {
	Op       MicroOp
	Group    int
	Index    int
	Particle Particle
	// Spin is the spin claimed by the atom.
	Spin Spin
	// CheckSpin is the spin the particle must currently have, only set for OpCheckSpin.
	CheckSpin Spin
}

func (m MicroInstruction) IsCheckSpin() bool {
	return m.Op == OpCheckSpin
}

func (m MicroInstruction) SpunParticle() SpunParticle {
	return SpunParticle{Particle: m.Particle, Spin: m.Spin}
}

// MicroInstructions flattens the atom into the instruction sequence checked by the
// constraint machine and the commit worker.
func (a *Atom) MicroInstructions() ([]MicroInstruction, error) {
	seen := make(map[chainhash.Hash]struct{})
	instructions := make([]MicroInstruction, 0)

	for g, group := range a.Groups {
		for i, sp := range group.Particles {
			id := ParticleID(sp.Particle)

			if _, ok := seen[id]; ok {
				instructions = append(instructions, MicroInstruction{
					Op:       OpPush,
					Group:    g,
					Index:    i,
					Particle: sp.Particle,
					Spin:     sp.Spin,
				})

				continue
			}

			seen[id] = struct{}{}

			checkSpin, err := Prev(sp.Spin)
			if err != nil {
				return nil, errors.NewInvalidArgumentError("group %d particle %d", g, i, err)
			}

			instructions = append(instructions, MicroInstruction{
				Op:        OpCheckSpin,
				Group:     g,
				Index:     i,
				Particle:  sp.Particle,
				Spin:      sp.Spin,
				CheckSpin: checkSpin,
			})
		}

		instructions = append(instructions, MicroInstruction{Op: OpGroupEnd, Group: g, Index: len(group.Particles)})
	}

	return instructions, nil
}
