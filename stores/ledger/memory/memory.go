package memory

import (
	"context"
	"net/http"
	"sync"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/stores/ledger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

type claimKey struct {
	particleID chainhash.Hash
	spin       model.Spin
}

func keyOf(sp model.SpunParticle) claimKey {
	return claimKey{particleID: sp.ParticleID(), spin: sp.Spin}
}

type Memory struct {
	mu     sync.RWMutex
	claims map[claimKey]chainhash.Hash
	atoms  map[chainhash.Hash]*model.Atom
}

func New() *Memory {
	return &Memory{
		claims: make(map[claimKey]chainhash.Hash),
		atoms:  make(map[chainhash.Hash]*model.Atom),
	}
}

func (m *Memory) Health(_ context.Context, _ bool) (int, string, error) {
	return http.StatusOK, "Memory Store available", nil
}

func (m *Memory) Exists(_ context.Context, sp model.SpunParticle) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.claims[keyOf(sp)]

	return ok, nil
}

func (m *Memory) GetAtomContaining(_ context.Context, sp model.SpunParticle) (*model.Atom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	atomID, ok := m.claims[keyOf(sp)]
	if !ok {
		return nil, nil
	}

	return m.atoms[atomID], nil
}

func (m *Memory) StoreAtom(_ context.Context, atom *model.Atom) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomID := atom.ID()
	if _, ok := m.atoms[atomID]; ok {
		return errors.NewAlreadyExistsError("atom %s already stored", atomID)
	}

	claims := ledger.Claims(atom)

	for _, sp := range claims {
		if other, ok := m.claims[keyOf(sp)]; ok {
			return errors.NewSpinConflictError(sp.ParticleID(), sp.Spin.String(), atomID, other)
		}
	}

	for _, sp := range claims {
		m.claims[keyOf(sp)] = atomID
	}

	m.atoms[atomID] = atom

	return nil
}

func (m *Memory) DeleteAtom(_ context.Context, atom *model.Atom) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomID := atom.ID()

	for _, sp := range ledger.Claims(atom) {
		key := keyOf(sp)
		if m.claims[key] == atomID {
			delete(m.claims, key)
		}
	}

	delete(m.atoms, atomID)

	return nil
}

// Len returns the number of stored atoms.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.atoms)
}

func (m *Memory) Close(_ context.Context) error {
	return nil
}
