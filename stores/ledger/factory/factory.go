package factory

import (
	"context"
	"net/url"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/settings"
	"github.com/atomledger/atomengine/stores/ledger"
	"github.com/atomledger/atomengine/stores/ledger/logger"
	"github.com/atomledger/atomengine/stores/ledger/memory"
	"github.com/atomledger/atomengine/stores/ledger/sql"
	"github.com/atomledger/atomengine/ulogger"
)

// NewStore creates the ledger store selected by the scheme of storeURL: memory, sqlite,
// sqlitememory or postgres. The codec decodes atoms read back from persistent stores.
func NewStore(ctx context.Context, log ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL, codec *model.Codec) (ledger.Store, error) {
	if storeURL == nil {
		return nil, errors.NewConfigurationError("no ledger store url configured")
	}

	var (
		store ledger.Store
		err   error
	)

	switch storeURL.Scheme {
	case "memory":
		store = memory.New()
	case "postgres", "sqlite", "sqlitememory":
		store, err = sql.New(ctx, log, storeURL, tSettings, codec)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewConfigurationError("unknown ledger store scheme: %s", storeURL.Scheme)
	}

	if storeURL.Query().Get("logger") == "true" {
		store = logger.New(log.New("ledger"), store)
	}

	return store, nil
}
