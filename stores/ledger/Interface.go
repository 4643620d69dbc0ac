// Package ledger defines the store that holds committed atoms and the spun particles
// they claim.
package ledger

import (
	"context"

	"github.com/atomledger/atomengine/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Store is written by the single commit worker and read concurrently by validation.
// StoreAtom fails with a conflict error when another atom already claims one of the
// atom's spun particles.
type Store interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Exists(ctx context.Context, sp model.SpunParticle) (bool, error)
	// GetAtomContaining returns the atom claiming sp, or nil when there is none.
	GetAtomContaining(ctx context.Context, sp model.SpunParticle) (*model.Atom, error)
	StoreAtom(ctx context.Context, atom *model.Atom) error
	DeleteAtom(ctx context.Context, atom *model.Atom) error
	Close(ctx context.Context) error
}

// Claims returns the distinct spun particles claimed by atom, in atom order.
func Claims(atom *model.Atom) []model.SpunParticle {
	type claim struct {
		id   chainhash.Hash
		spin model.Spin
	}

	seen := make(map[claim]struct{})
	claims := make([]model.SpunParticle, 0)

	for _, sp := range atom.SpunParticles() {
		key := claim{id: sp.ParticleID(), spin: sp.Spin}
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		claims = append(claims, sp)
	}

	return claims
}
