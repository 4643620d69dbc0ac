package model

import (
	"encoding/hex"
	"sync"

	"github.com/atomledger/atomengine/errors"
	jsoniter "github.com/json-iterator/go"
)

// ParticleFactory returns a new zero particle of one type, ready to be decoded into.
type ParticleFactory func() Particle

// Codec encodes and decodes atoms, using registered factories to rebuild particles.
type Codec struct {
	mu        sync.RWMutex
	factories map[ParticleType]ParticleFactory
}

func NewCodec() *Codec {
	return &Codec{factories: make(map[ParticleType]ParticleFactory)}
}

func (c *Codec) Register(t ParticleType, factory ParticleFactory) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.factories[t]; ok {
		return errors.NewAlreadyExistsError("particle type %s already registered", t)
	}

	c.factories[t] = factory

	return nil
}

func (c *Codec) Knows(t ParticleType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.factories[t]

	return ok
}

type encodedSpunParticle struct {
	Type     ParticleType        `json:"type"`
	Spin     Spin                `json:"spin"`
	Particle jsoniter.RawMessage `json:"particle"`
}

type encodedGroup struct {
	Particles []encodedSpunParticle `json:"particles"`
}

type encodedAtom struct {
	Groups     []encodedGroup    `json:"groups"`
	Message    string            `json:"message,omitempty"`
	Signatures map[string]string `json:"signatures,omitempty"`
}

func (c *Codec) EncodeAtom(a *Atom) ([]byte, error) {
	enc := encodedAtom{
		Groups:     make([]encodedGroup, 0, len(a.Groups)),
		Message:    a.Message,
		Signatures: make(map[string]string, len(a.Signatures)),
	}

	for _, group := range a.Groups {
		eg := encodedGroup{Particles: make([]encodedSpunParticle, 0, len(group.Particles))}

		for _, sp := range group.Particles {
			b, err := json.Marshal(sp.Particle)
			if err != nil {
				return nil, errors.NewSerializationError("failed to encode particle %s", sp.Particle.ParticleType(), err)
			}

			eg.Particles = append(eg.Particles, encodedSpunParticle{
				Type:     sp.Particle.ParticleType(),
				Spin:     sp.Spin,
				Particle: b,
			})
		}

		enc.Groups = append(enc.Groups, eg)
	}

	for addr, sig := range a.Signatures {
		enc.Signatures[addr.String()] = hex.EncodeToString(sig)
	}

	b, err := json.Marshal(enc)
	if err != nil {
		return nil, errors.NewSerializationError("failed to encode atom", err)
	}

	return b, nil
}

func (c *Codec) DecodeAtom(b []byte) (*Atom, error) {
	var enc encodedAtom
	if err := json.Unmarshal(b, &enc); err != nil {
		return nil, errors.NewSerializationError("failed to decode atom", err)
	}

	a := NewAtom(enc.Message)

	for _, eg := range enc.Groups {
		group := ParticleGroup{Particles: make([]SpunParticle, 0, len(eg.Particles))}

		for _, esp := range eg.Particles {
			p, err := c.DecodeParticle(esp.Type, esp.Particle)
			if err != nil {
				return nil, err
			}

			group.Particles = append(group.Particles, SpunParticle{Particle: p, Spin: esp.Spin})
		}

		a.Groups = append(a.Groups, group)
	}

	for addrStr, sigStr := range enc.Signatures {
		addr, err := NewAddressFromString(addrStr)
		if err != nil {
			return nil, errors.NewSerializationError("failed to decode signer", err)
		}

		sig, err := hex.DecodeString(sigStr)
		if err != nil {
			return nil, errors.NewSerializationError("failed to decode signature of %s", addrStr, err)
		}

		a.Signatures[addr] = sig
	}

	return a, nil
}

func (c *Codec) DecodeParticle(t ParticleType, b []byte) (Particle, error) {
	c.mu.RLock()
	factory, ok := c.factories[t]
	c.mu.RUnlock()

	if !ok {
		return nil, errors.NewSerializationError("unknown particle type %s", t)
	}

	p := factory()
	if err := json.Unmarshal(b, p); err != nil {
		return nil, errors.NewSerializationError("failed to decode particle %s", t, err)
	}

	return p, nil
}
