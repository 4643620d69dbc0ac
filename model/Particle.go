package model

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParticleType is the discriminator of a particle variant, e.g. "system" or "tokens.transferrable".
type ParticleType string

// Particle is an immutable state object. Implementations are plain data structs used
// through pointers; their JSON encoding is their canonical form.
type Particle interface {
	ParticleType() ParticleType
}

// ParticleID is the double sha256 of the particle type and its canonical encoding.
// A nil particle has the zero id. It panics if p cannot be encoded.
func ParticleID(p Particle) chainhash.Hash {
	if p == nil {
		return chainhash.Hash{}
	}

	b, err := json.Marshal(p)
	if err != nil {
		panic("particle " + string(p.ParticleType()) + " cannot be encoded: " + err.Error())
	}

	buf := make([]byte, 0, len(p.ParticleType())+1+len(b))
	buf = append(buf, p.ParticleType()...)
	buf = append(buf, 0)
	buf = append(buf, b...)

	return chainhash.DoubleHashH(buf)
}

// SpunParticle is the claim an atom makes about one particle.
type SpunParticle struct {
	Particle Particle
	Spin     Spin
}

func NewSpunParticle(p Particle, spin Spin) SpunParticle {
	return SpunParticle{Particle: p, Spin: spin}
}

func Up(p Particle) SpunParticle {
	return SpunParticle{Particle: p, Spin: SpinUp}
}

func Down(p Particle) SpunParticle {
	return SpunParticle{Particle: p, Spin: SpinDown}
}

func (sp SpunParticle) ParticleID() chainhash.Hash {
	return ParticleID(sp.Particle)
}

func (sp SpunParticle) String() string {
	return string(sp.Particle.ParticleType()) + ":" + sp.ParticleID().String() + ":" + sp.Spin.String()
}

// ParticleGroup is an ordered set of claims that must balance as a unit.
type ParticleGroup struct {
	Particles []SpunParticle
}

func NewParticleGroup(particles ...SpunParticle) ParticleGroup {
	return ParticleGroup{Particles: particles}
}

// ParticlesWithSpin returns the particles of the group claimed with the given spin, in order.
func (g ParticleGroup) ParticlesWithSpin(spin Spin) []Particle {
	out := make([]Particle, 0, len(g.Particles))

	for _, sp := range g.Particles {
		if sp.Spin == spin {
			out = append(out, sp.Particle)
		}
	}

	return out
}
