package sql

import (
	"context"
	"database/sql"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/stores/ledger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// StoreAtom inserts the atom and every claim it makes in one transaction. The unique
// key on (particle_id, spin) rejects a second claim; the error then carries the
// atom holding the existing claim.
func (s *SQL) StoreAtom(ctx context.Context, atom *model.Atom) error {
	ctx, cancel := context.WithTimeout(ctx, s.tSettings.Store.DBTimeout)
	defer cancel()

	payload, err := s.codec.EncodeAtom(atom)
	if err != nil {
		return err
	}

	atomID := atom.ID()
	claims := ledger.Claims(atom)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO atoms (id, payload) VALUES ($1, $2)`, atomID[:], payload); err != nil {
		_ = tx.Rollback()

		if isUniqueViolation(err) {
			return errors.NewAlreadyExistsError("atom %s already stored", atomID, err)
		}

		return errors.NewStorageError("failed to insert atom %s", atomID, err)
	}

	for _, sp := range claims {
		id := sp.ParticleID()

		if _, err = tx.ExecContext(ctx, `INSERT INTO spun_particles (particle_id, spin, atom_id) VALUES ($1, $2, $3)`,
			id[:], int(sp.Spin), atomID[:]); err != nil {
			_ = tx.Rollback()

			if isUniqueViolation(err) {
				return s.conflictError(ctx, sp, atomID)
			}

			return errors.NewStorageError("failed to insert claim %s", sp, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit atom %s", atomID, err)
	}

	prometheusLedgerStored.Inc()

	return nil
}

func (s *SQL) conflictError(ctx context.Context, sp model.SpunParticle, atomID chainhash.Hash) error {
	id := sp.ParticleID()

	var conflictingID []byte

	err := s.db.QueryRowContext(ctx, `SELECT atom_id FROM spun_particles WHERE particle_id = $1 AND spin = $2`,
		id[:], int(sp.Spin)).Scan(&conflictingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return errors.NewStorageError("failed to read conflicting claim %s", sp, err)
	}

	var conflicting chainhash.Hash
	if len(conflictingID) == chainhash.HashSize {
		copy(conflicting[:], conflictingID)
	}

	return errors.NewSpinConflictError(id, sp.Spin.String(), atomID, conflicting)
}
