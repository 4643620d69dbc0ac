package submission

import (
	"context"
	"net"
	"net/http"
	"sync"
	"testing"

	"github.com/atomledger/atomengine/atomos"
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/engine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/scrypts/system"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/atomledger/atomengine/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeSubmitter struct {
	mu        sync.Mutex
	err       error
	submitted []*model.Atom
}

func (f *fakeSubmitter) Store(_ context.Context, atom *model.Atom, _ engine.AtomEventListener) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.submitted = append(f.submitted, atom)

	return nil
}

func healthy(context.Context, bool) (int, string, error) {
	return http.StatusOK, `{"status":"200"}`, nil
}

func testCodec(t *testing.T) *model.Codec {
	t.Helper()

	cmos := atomos.New(ulogger.TestLogger{})
	require.NoError(t, cmos.Load(system.Scrypt{}))

	_, codec, err := cmos.Build()
	require.NoError(t, err)

	return codec
}

func startServer(t *testing.T, submitter Submitter, health HealthFunc) (*Server, *Client) {
	t.Helper()

	codec := testCodec(t)
	lis := bufconn.Listen(1 << 20)

	server := New(ulogger.TestLogger{}, submitter, codec, health)

	grpcServer := util.GetGRPCServer(&util.ConnectionOptions{})
	server.Register(grpcServer)

	go func() {
		_ = grpcServer.Serve(lis)
	}()

	t.Cleanup(grpcServer.Stop)

	client, err := NewClient(context.Background(), ulogger.TestLogger{}, "passthrough:///bufnet", codec, &util.ConnectionOptions{},
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return server, client
}

func advance() *model.Atom {
	return model.NewAtom("advance", model.NewParticleGroup(
		model.Down(&system.Particle{}),
		model.Up(&system.Particle{Epoch: 0, View: 1, Timestamp: 1000}),
	))
}

func TestSubmitAtomAccepted(t *testing.T) {
	submitter := &fakeSubmitter{}
	_, client := startServer(t, submitter, healthy)

	atom := advance()

	id, err := client.SubmitAtom(context.Background(), atom)
	require.NoError(t, err)
	assert.Equal(t, atom.ID(), id)

	submitter.mu.Lock()
	defer submitter.mu.Unlock()

	require.Len(t, submitter.submitted, 1)
	assert.Equal(t, atom.ID(), submitter.submitted[0].ID())
}

func TestSubmitAtomRejected(t *testing.T) {
	submitter := &fakeSubmitter{
		err: constraintmachine.NewCMError(constraintmachine.PointerToParticle(0, 1), constraintmachine.ErrCodeInvalidParticle, "view is less than 0"),
	}
	_, client := startServer(t, submitter, healthy)

	_, err := client.SubmitAtom(context.Background(), advance())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStateless))
	assert.Contains(t, err.Error(), "INVALID_PARTICLE")
	assert.False(t, errors.Is(err, errors.ErrProcedure))
}

func TestSubmitAtomEngineStopped(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.NewServiceUnavailableError("engine is STOPPED")}
	_, client := startServer(t, submitter, healthy)

	_, err := client.SubmitAtom(context.Background(), advance())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
}

func TestSubmitAtomUndecodable(t *testing.T) {
	server, _ := startServer(t, &fakeSubmitter{}, healthy)

	_, err := server.SubmitAtom(context.Background(), wrapperspb.Bytes([]byte("not an atom")))
	require.Error(t, err)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestHealthGRPC(t *testing.T) {
	_, client := startServer(t, &fakeSubmitter{}, healthy)

	httpStatus, details, err := client.Health(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, httpStatus)
	assert.Contains(t, details, "200")

	_, unhealthy := startServer(t, &fakeSubmitter{}, func(context.Context, bool) (int, string, error) {
		return http.StatusServiceUnavailable, "store down", nil
	})

	httpStatus, _, err = unhealthy.Health(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, httpStatus)
	assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
}
