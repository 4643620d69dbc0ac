package daemon

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/atomledger/atomengine/atomos"
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/engine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/events"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/scrypts/system"
	"github.com/atomledger/atomengine/services/submission"
	"github.com/atomledger/atomengine/settings"
	"github.com/atomledger/atomengine/stores/ledger/memory"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/atomledger/atomengine/util"
	"github.com/atomledger/atomengine/util/kafka/in_memory_kafka"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(t *testing.T) *settings.Settings {
	t.Helper()

	storeURL, err := url.Parse("memory:///")
	require.NoError(t, err)

	return &settings.Settings{
		ServiceName: "atomengine-test",
		Engine: settings.EngineSettings{
			DrainOnStop:            true,
			DefaultPermissionLevel: "USER",
			CommitIdleWait:         10 * time.Millisecond,
		},
		Store: settings.StoreSettings{
			StoreURL: storeURL,
		},
	}
}

// advance moves the system clock from genesis to view 1.
func advance() *model.Atom {
	return model.NewAtom("advance", model.NewParticleGroup(
		model.Down(&system.Particle{}),
		model.Up(&system.Particle{Epoch: 0, View: 1, Timestamp: 1000}),
	))
}

func storeAndWait(t *testing.T, e *engine.RadixEngine, atom *model.Atom) {
	t.Helper()

	stored := make(chan struct{}, 1)

	err := e.StoreWithPermission(context.Background(), atom, constraintmachine.PermissionLevelSystem, &engine.ListenerFuncs{
		StateStore: func(*model.Atom) { stored <- struct{}{} },
	})
	require.NoError(t, err)

	select {
	case <-stored:
	case <-time.After(5 * time.Second):
		t.Fatal("atom was not stored")
	}
}

func TestStartAndStop(t *testing.T) {
	d := New(ulogger.TestLogger{}, testSettings(t))

	require.NoError(t, d.Start(context.Background()))
	require.NotNil(t, d.Engine())
	assert.Equal(t, engine.StateRunning, d.Engine().State())

	status, body, err := d.Health(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Contains(t, body, "LedgerStore")

	err = d.Start(context.Background())
	require.Error(t, err)

	storeAndWait(t, d.Engine(), advance())

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, engine.StateStopped, d.Engine().State())

	_, _, err = d.Health(context.Background(), true)
	assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
}

func TestStartWithInjectedStore(t *testing.T) {
	store := memory.New()
	d := New(ulogger.TestLogger{}, testSettings(t), WithStore(store))

	require.NoError(t, d.Start(context.Background()))

	atom := advance()
	storeAndWait(t, d.Engine(), atom)

	got, err := store.GetAtomContaining(context.Background(), model.Up(&system.Particle{Epoch: 0, View: 1, Timestamp: 1000}))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, atom.ID(), got.ID())

	require.NoError(t, d.Stop(context.Background()))
}

func TestStartRejectsUnknownScryptDependency(t *testing.T) {
	// the amm funds pools from transferrable tokens, which are not loaded
	d := New(ulogger.TestLogger{}, testSettings(t), WithScrypts(DefaultScrypts()[3]))

	require.Error(t, d.Start(context.Background()))
	assert.Nil(t, d.Engine())
}

func TestStartRejectsUnknownStore(t *testing.T) {
	tSettings := testSettings(t)
	tSettings.Store.StoreURL = &url.URL{Scheme: "aerospike", Host: "localhost:3000"}

	d := New(ulogger.TestLogger{}, tSettings)

	err := d.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestEventsPublishedToKafka(t *testing.T) {
	tSettings := testSettings(t)
	tSettings.Kafka.Enabled = true
	tSettings.Kafka.EventsURL = &url.URL{Scheme: "memory", Path: "/daemon-test-events"}

	d := New(ulogger.TestLogger{}, tSettings)
	require.NoError(t, d.Start(context.Background()))

	atom := advance()
	storeAndWait(t, d.Engine(), atom)

	require.NoError(t, d.Stop(context.Background()))

	messages := inmemorykafka.GetSharedBroker().Messages("daemon-test-events")
	require.Len(t, messages, 2)

	var types []events.EventType

	for _, msg := range messages {
		var event events.AtomEvent
		require.NoError(t, jsoniter.Unmarshal(msg.Value, &event))

		id := atom.ID()
		assert.Equal(t, id[:], msg.Key)
		assert.Equal(t, atom.ID().String(), event.AtomID)

		types = append(types, event.Type)
	}

	assert.Equal(t, []events.EventType{events.EventCMSuccess, events.EventStateStore}, types)
}

func TestEventsURLFallsBackToHosts(t *testing.T) {
	tSettings := testSettings(t)
	tSettings.Kafka.EventsURL, _ = url.Parse("")
	tSettings.Kafka.Hosts = "k1:9092,k2:9092"
	tSettings.Kafka.EventsTopic = "atom-events"

	u := eventsURL(tSettings)
	assert.Equal(t, "kafka://k1:9092,k2:9092/atom-events", u.String())
}

func TestSubmissionAPI(t *testing.T) {
	tSettings := testSettings(t)
	tSettings.Engine.DefaultPermissionLevel = "SYSTEM"
	tSettings.GRPC.ListenAddress = "127.0.0.1:0"

	store := memory.New()

	d := New(ulogger.TestLogger{}, tSettings, WithStore(store))
	require.NoError(t, d.Start(context.Background()))

	address := d.GRPCAddress()
	require.NotEmpty(t, address)

	registry := atomos.New(ulogger.TestLogger{})
	require.NoError(t, registry.Load(system.Scrypt{}))

	_, codec, err := registry.Build()
	require.NoError(t, err)

	client, err := submission.NewClient(context.Background(), ulogger.TestLogger{}, address, codec, &util.ConnectionOptions{})
	require.NoError(t, err)

	defer func() {
		_ = client.Close()
	}()

	atom := advance()

	id, err := client.SubmitAtom(context.Background(), atom)
	require.NoError(t, err)
	assert.Equal(t, atom.ID(), id)

	require.Eventually(t, func() bool {
		return store.Len() == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, err = client.SubmitAtom(context.Background(), model.NewAtom("empty"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStateless))

	status, _, err := client.Health(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 200, status)

	require.NoError(t, d.Stop(context.Background()))
	assert.Empty(t, d.GRPCAddress())
}
