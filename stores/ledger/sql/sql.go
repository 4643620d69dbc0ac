// Package sql stores atoms and their claims in postgres or sqlite.
package sql

import (
	"context"
	"database/sql"
	"net/http"
	"net/url"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/settings"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/atomledger/atomengine/util"
	"github.com/atomledger/atomengine/util/usql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQL struct {
	db        *usql.DB
	engine    util.SQLEngine
	logger    ulogger.Logger
	codec     *model.Codec
	cache     *claimCache
	tSettings *settings.Settings
}

func New(ctx context.Context, logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings, codec *model.Codec) (*SQL, error) {
	initPrometheusMetrics()

	logger = logger.New("ledger")

	db, err := util.InitSQLDB(logger, storeURL, tSettings)
	if err != nil {
		return nil, errors.NewStorageError("failed to init sql db", err)
	}

	engine := util.SQLEngine(storeURL.Scheme)

	switch engine {
	case util.Postgres:
		err = createPostgresSchema(ctx, db)
	case util.Sqlite, util.SqliteMemory:
		err = createSqliteSchema(ctx, db)
	default:
		err = errors.NewConfigurationError("unknown database engine: %s", storeURL.Scheme)
	}

	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQL{
		db:        db,
		engine:    engine,
		logger:    logger,
		codec:     codec,
		tSettings: tSettings,
	}

	if tSettings.Store.CacheEnabled && util.GetQueryParam(storeURL, "cache", "true") != "false" {
		s.cache = newClaimCache(tSettings.Store.CacheTTL)
	}

	return s, nil
}

func createPostgresSchema(ctx context.Context, db *usql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS atoms (
		 id            BYTEA PRIMARY KEY
		,payload       BYTEA NOT NULL
		,inserted_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		return errors.NewStorageError("could not create atoms table", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS spun_particles (
		 particle_id   BYTEA NOT NULL
		,spin          SMALLINT NOT NULL
		,atom_id       BYTEA NOT NULL REFERENCES atoms (id) ON DELETE CASCADE
		,PRIMARY KEY (particle_id, spin)
		);
	`); err != nil {
		return errors.NewStorageError("could not create spun_particles table", err)
	}

	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_spun_particles_atom_id ON spun_particles (atom_id);`); err != nil {
		return errors.NewStorageError("could not create idx_spun_particles_atom_id index", err)
	}

	return nil
}

func createSqliteSchema(ctx context.Context, db *usql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS atoms (
		 id            BLOB PRIMARY KEY
		,payload       BLOB NOT NULL
		,inserted_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		return errors.NewStorageError("could not create atoms table", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS spun_particles (
		 particle_id   BLOB NOT NULL
		,spin          INTEGER NOT NULL
		,atom_id       BLOB NOT NULL REFERENCES atoms (id) ON DELETE CASCADE
		,PRIMARY KEY (particle_id, spin)
		);
	`); err != nil {
		return errors.NewStorageError("could not create spun_particles table", err)
	}

	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_spun_particles_atom_id ON spun_particles (atom_id);`); err != nil {
		return errors.NewStorageError("could not create idx_spun_particles_atom_id index", err)
	}

	return nil
}

func (s *SQL) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return http.StatusServiceUnavailable, "Ledger SQL store unavailable", errors.NewStorageUnavailableError("ledger db ping failed", err)
	}

	return http.StatusOK, "OK", nil
}

func (s *SQL) Close(_ context.Context) error {
	if s.cache != nil {
		s.cache.stop()
	}

	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}

func (s *SQL) Exists(ctx context.Context, sp model.SpunParticle) (bool, error) {
	var lookup *claimLookup

	if s.cache != nil {
		lookup = s.cache.begin(sp)
		if lookup.hit() {
			prometheusLedgerCacheHits.Inc()
			return true, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.tSettings.Store.DBTimeout)
	defer cancel()

	id := sp.ParticleID()

	var one int

	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM spun_particles WHERE particle_id = $1 AND spin = $2`, id[:], int(sp.Spin)).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, errors.NewStorageError("failed to check claim %s", sp, err)
	}

	if lookup != nil {
		lookup.remember()
	}

	return true, nil
}

func (s *SQL) GetAtomContaining(ctx context.Context, sp model.SpunParticle) (*model.Atom, error) {
	ctx, cancel := context.WithTimeout(ctx, s.tSettings.Store.DBTimeout)
	defer cancel()

	id := sp.ParticleID()

	var payload []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT a.payload
		FROM spun_particles s
		INNER JOIN atoms a ON a.id = s.atom_id
		WHERE s.particle_id = $1 AND s.spin = $2
	`, id[:], int(sp.Spin)).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, errors.NewStorageError("failed to get atom containing %s", sp, err)
	}

	return s.codec.DecodeAtom(payload)
}
