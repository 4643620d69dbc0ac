package model

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/atomledger/atomengine/errors"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// Atom is the unit of submission, validation and commit.
type Atom struct {
	Groups     []ParticleGroup
	Message    string
	Signatures map[Address][]byte
}

func NewAtom(message string, groups ...ParticleGroup) *Atom {
	return &Atom{
		Groups:     groups,
		Message:    message,
		Signatures: make(map[Address][]byte),
	}
}

// WitnessHash commits to the groups, claims and message but not to the signatures,
// it is the payload that signatures sign.
func (a *Atom) WitnessHash() chainhash.Hash {
	var buf bytes.Buffer

	writeCount(&buf, len(a.Groups))

	for _, group := range a.Groups {
		writeCount(&buf, len(group.Particles))

		for _, sp := range group.Particles {
			id := ParticleID(sp.Particle)
			buf.Write(id[:])
			buf.WriteByte(byte(sp.Spin))
		}
	}

	buf.WriteString(a.Message)

	return chainhash.DoubleHashH(buf.Bytes())
}

// writeCount appends n as a little endian uint32. It panics if n does not fit.
func writeCount(buf *bytes.Buffer, n int) {
	count, err := safeconversion.IntToUint32(n)
	if err != nil {
		panic(errors.NewInvariantError("count %d does not fit the witness encoding", n, err))
	}

	var tmp [4]byte

	binary.LittleEndian.PutUint32(tmp[:], count)
	buf.Write(tmp[:])
}

// ID is the atom identifier. Signatures are excluded so re-signing does not change it.
func (a *Atom) ID() chainhash.Hash {
	return a.WitnessHash()
}

// Sign adds a signature by key over the witness hash.
func (a *Atom) Sign(key *bec.PrivateKey) error {
	hash := a.WitnessHash()

	sig, err := key.Sign(hash[:])
	if err != nil {
		return errors.NewProcessingError("failed to sign atom %s", hash, err)
	}

	if a.Signatures == nil {
		a.Signatures = make(map[Address][]byte)
	}

	a.Signatures[AddressFromPublicKey(key.PubKey())] = sig.Serialize()

	return nil
}

// Signers returns the addresses that have a signature attached, sorted.
func (a *Atom) Signers() []Address {
	signers := make([]Address, 0, len(a.Signatures))
	for addr := range a.Signatures {
		signers = append(signers, addr)
	}

	sort.Slice(signers, func(i, j int) bool {
		return bytes.Compare(signers[i][:], signers[j][:]) < 0
	})

	return signers
}

// SpunParticles returns every claim in the atom in group order.
func (a *Atom) SpunParticles() []SpunParticle {
	var out []SpunParticle

	for _, group := range a.Groups {
		out = append(out, group.Particles...)
	}

	return out
}

// Witness returns a WitnessData backed by the atom's signatures.
func (a *Atom) Witness() *AtomWitness {
	return &AtomWitness{
		atom:     a,
		hash:     a.WitnessHash(),
		verified: make(map[Address]bool),
	}
}

// AtomWitness verifies signatures lazily and remembers the outcome per address.
// It is not safe for concurrent use.
type AtomWitness struct {
	atom     *Atom
	hash     chainhash.Hash
	verified map[Address]bool
}

func (w *AtomWitness) IsSignedBy(address Address) bool {
	if ok, found := w.verified[address]; found {
		return ok
	}

	ok := w.verify(address)
	w.verified[address] = ok

	return ok
}

func (w *AtomWitness) verify(address Address) bool {
	sigBytes, ok := w.atom.Signatures[address]
	if !ok {
		return false
	}

	pub, err := address.PublicKey()
	if err != nil {
		return false
	}

	sig, err := bec.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}

	return sig.Verify(w.hash[:], pub)
}
