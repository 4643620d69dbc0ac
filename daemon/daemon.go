// Package daemon wires settings, tracing, the ledger store, the constraint machine and
// the radix engine into one process.
package daemon

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/atomledger/atomengine/atomos"
	"github.com/atomledger/atomengine/engine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/events"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/scrypts/amm"
	"github.com/atomledger/atomengine/scrypts/chess"
	"github.com/atomledger/atomengine/scrypts/cru"
	"github.com/atomledger/atomengine/scrypts/system"
	"github.com/atomledger/atomengine/scrypts/tokens"
	"github.com/atomledger/atomengine/services/submission"
	"github.com/atomledger/atomengine/settings"
	"github.com/atomledger/atomengine/stores/ledger"
	"github.com/atomledger/atomengine/stores/ledger/factory"
	"github.com/atomledger/atomengine/tracing"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/atomledger/atomengine/util"
	"github.com/atomledger/atomengine/util/health"
	"github.com/atomledger/atomengine/util/kafka"
	"google.golang.org/grpc"
)

// Option is a functional option type for configuring the Daemon.
type Option func(*Daemon)

// WithScrypts replaces the default rule sets. Order matters, a scrypt can only refer to
// particle types registered before it.
func WithScrypts(scrypts ...atomos.ConstraintScrypt) Option {
	return func(d *Daemon) {
		d.scrypts = scrypts
	}
}

// WithStore makes the daemon use store instead of the one configured in settings. The
// daemon still closes it on Stop.
func WithStore(store ledger.Store) Option {
	return func(d *Daemon) {
		d.store = store
	}
}

func WithEngineOptions(opts ...engine.Option) Option {
	return func(d *Daemon) {
		d.engineOpts = append(d.engineOpts, opts...)
	}
}

// DefaultScrypts returns every rule set shipped with the engine in load order.
func DefaultScrypts() []atomos.ConstraintScrypt {
	return []atomos.ConstraintScrypt{
		system.Scrypt{},
		tokens.Scrypt{},
		cru.Scrypt{},
		amm.Scrypt{},
		chess.Scrypt{},
	}
}

type Daemon struct {
	logger     ulogger.Logger
	settings   *settings.Settings
	scrypts    []atomos.ConstraintScrypt
	engineOpts []engine.Option

	mu       sync.Mutex
	started  bool
	store    ledger.Store
	engine   *engine.RadixEngine
	listener *events.KafkaListener

	grpcServer   *grpc.Server
	grpcListener net.Listener
	grpcDone     chan struct{}
}

func New(logger ulogger.Logger, tSettings *settings.Settings, opts ...Option) *Daemon {
	d := &Daemon{
		logger:   logger,
		settings: tSettings,
		scrypts:  DefaultScrypts(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Start builds the constraint machine from the configured scrypts, opens the store and
// starts the engine. On failure everything opened so far is closed again.
func (d *Daemon) Start(ctx context.Context) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return errors.NewServiceError("daemon already started")
	}

	if err = tracing.InitTracer(d.settings); err != nil {
		return err
	}

	registry := atomos.New(d.logger.New("atomos"))

	for _, scrypt := range d.scrypts {
		if err = registry.Load(scrypt); err != nil {
			return err
		}
	}

	cm, codec, err := registry.Build()
	if err != nil {
		return err
	}

	d.logger.Infof("[Daemon] loaded scrypts %v", registry.Scrypts())

	if d.store == nil {
		if d.store, err = factory.NewStore(ctx, d.logger.New("ledger"), d.settings, d.settings.Store.StoreURL, codec); err != nil {
			return err
		}
	}

	defer func() {
		if err != nil {
			d.closeAll(ctx)
		}
	}()

	engineOpts := d.engineOpts

	if d.settings.Kafka.Enabled {
		producer, kErr := kafka.NewKafkaProducer(d.logger.New("kafka"), eventsURL(d.settings))
		if kErr != nil {
			return kErr
		}

		d.listener = events.NewKafkaListener(d.logger.New("events"), producer)
		engineOpts = append(engineOpts, engine.WithAtomEventListener(d.listener))
	}

	if d.engine, err = engine.New(d.logger.New("engine"), d.settings, cm, d.store, engineOpts...); err != nil {
		return err
	}

	if err = d.engine.Start(ctx); err != nil {
		return err
	}

	if address := d.settings.GRPC.ListenAddress; address != "" {
		if err = d.startGRPC(address, codec); err != nil {
			_ = d.engine.Stop()
			return err
		}
	}

	d.started = true

	return nil
}

// Engine returns the running engine, nil before Start.
func (d *Daemon) Engine() *engine.RadixEngine {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.engine
}

// GRPCAddress returns the address the SubmissionAPI listens on, empty when disabled.
func (d *Daemon) GRPCAddress() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.grpcListener == nil {
		return ""
	}

	return d.grpcListener.Addr().String()
}

func (d *Daemon) startGRPC(address string, codec *model.Codec) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return errors.NewServiceError("[Daemon] gRPC server failed to listen on %s", address, err)
	}

	d.grpcServer = util.GetGRPCServer(&util.ConnectionOptions{
		MaxMessageSize: d.settings.GRPC.MaxMessageSize,
		Prometheus:     d.settings.GRPC.PrometheusMetrics,
		Tracing:        d.settings.Tracing.Enabled,
	})

	// the handlers must not take d.mu, Stop holds it while draining them
	store, e := d.store, d.engine
	submission.New(d.logger.New("submission"), e, codec, func(ctx context.Context, checkLiveness bool) (int, string, error) {
		return checkHealth(ctx, checkLiveness, store, e)
	}).Register(d.grpcServer)

	d.grpcListener = lis
	d.grpcDone = make(chan struct{})

	go func(server *grpc.Server, done chan struct{}) {
		defer close(done)

		if err := server.Serve(lis); err != nil {
			d.logger.Errorf("[Daemon] gRPC server failed: %v", err)
		}
	}(d.grpcServer, d.grpcDone)

	d.logger.Infof("[Daemon] SubmissionAPI listening on %s", lis.Addr())

	return nil
}

// Health reports the ledger store and the engine lifecycle as one JSON document.
func (d *Daemon) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	d.mu.Lock()
	store, e := d.store, d.engine
	d.mu.Unlock()

	return checkHealth(ctx, checkLiveness, store, e)
}

func checkHealth(ctx context.Context, checkLiveness bool, store ledger.Store, e *engine.RadixEngine) (int, string, error) {
	if store == nil || e == nil {
		return http.StatusServiceUnavailable, "not started", errors.NewServiceUnavailableError("daemon not started")
	}

	return health.CheckAll(ctx, checkLiveness, []health.Check{
		{Name: "LedgerStore", Check: store.Health},
		{Name: "RadixEngine", Check: func(context.Context, bool) (int, string, error) {
			if state := e.State(); state != engine.StateRunning {
				return http.StatusServiceUnavailable, state, nil
			}

			return http.StatusOK, engine.StateRunning, nil
		}},
	})
}

// Stop drains the SubmissionAPI, stops the engine, which drains its queue when
// configured to, then closes the event producer, the store and the tracer.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}

	var stopErr error

	if d.grpcServer != nil {
		d.grpcServer.GracefulStop()
		<-d.grpcDone

		d.grpcServer, d.grpcListener = nil, nil
	}

	if err := d.engine.Stop(); err != nil {
		d.logger.Errorf("[Daemon] failed to stop engine: %v", err)
		stopErr = err
	}

	d.closeAll(ctx)
	d.started = false

	if err := tracing.ShutdownTracer(ctx); err != nil {
		d.logger.Warnf("[Daemon] failed to shut down tracer: %v", err)
	}

	return stopErr
}

func (d *Daemon) closeAll(ctx context.Context) {
	if d.listener != nil {
		if err := d.listener.Close(); err != nil {
			d.logger.Warnf("[Daemon] failed to close event producer: %v", err)
		}

		d.listener = nil
	}

	if d.store != nil {
		if err := d.store.Close(ctx); err != nil {
			d.logger.Warnf("[Daemon] failed to close ledger store: %v", err)
		}

		d.store = nil
	}
}

// eventsURL prefers an explicit kafka_atomEventsConfig and falls back to the hosts and
// topic settings.
func eventsURL(tSettings *settings.Settings) *url.URL {
	if u := tSettings.Kafka.EventsURL; u != nil && u.Scheme != "" {
		return u
	}

	return &url.URL{
		Scheme: "kafka",
		Host:   tSettings.Kafka.Hosts,
		Path:   "/" + tSettings.Kafka.EventsTopic,
	}
}
