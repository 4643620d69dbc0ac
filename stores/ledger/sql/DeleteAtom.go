package sql

import (
	"context"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
)

func (s *SQL) DeleteAtom(ctx context.Context, atom *model.Atom) error {
	ctx, cancel := context.WithTimeout(ctx, s.tSettings.Store.DBTimeout)
	defer cancel()

	atomID := atom.ID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM spun_particles WHERE atom_id = $1`, atomID[:]); err != nil {
		_ = tx.Rollback()
		return errors.NewStorageError("failed to delete claims of atom %s", atomID, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM atoms WHERE id = $1`, atomID[:]); err != nil {
		_ = tx.Rollback()
		return errors.NewStorageError("failed to delete atom %s", atomID, err)
	}

	if err = tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit deletion of atom %s", atomID, err)
	}

	if s.cache != nil {
		s.cache.invalidate()
	}

	prometheusLedgerDeleted.Inc()

	return nil
}
