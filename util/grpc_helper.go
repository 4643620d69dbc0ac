package util

import (
	"context"
	"sync"

	"github.com/atomledger/atomengine/errors"
	"github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	prometheusgolang "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultMaxMessageSize = 64 * 1024 * 1024

// ConnectionOptions configures both ends of a gRPC connection.
type ConnectionOptions struct {
	MaxMessageSize int
	Prometheus     bool
	Tracing        bool
}

var (
	prometheusRegisterServerOnce sync.Once
	prometheusRegisterClientOnce sync.Once
)

var prometheusServerMetrics = prometheus.NewServerMetrics(
	prometheus.WithServerHandlingTimeHistogram(),
)

var prometheusClientMetrics = prometheus.NewClientMetrics(
	prometheus.WithClientHandlingTimeHistogram(),
)

// GetGRPCServer creates a gRPC server with message size limits, metrics and tracing
// configured from connectionOptions.
func GetGRPCServer(connectionOptions *ConnectionOptions, opts ...grpc.ServerOption) *grpc.Server {
	maxMessageSize := connectionOptions.MaxMessageSize
	if maxMessageSize == 0 {
		maxMessageSize = defaultMaxMessageSize
	}

	opts = append(opts,
		grpc.MaxSendMsgSize(maxMessageSize),
		grpc.MaxRecvMsgSize(maxMessageSize),
	)

	if connectionOptions.Tracing {
		opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}

	if connectionOptions.Prometheus {
		prometheusRegisterServerOnce.Do(func() {
			prometheusgolang.MustRegister(prometheusServerMetrics)
		})

		opts = append(opts, grpc.ChainUnaryInterceptor(prometheusServerMetrics.UnaryServerInterceptor()))
	}

	server := grpc.NewServer(opts...)

	if connectionOptions.Prometheus {
		prometheusServerMetrics.InitializeMetrics(server)
	}

	return server
}

// GetGRPCClient creates a client connection to address. The connection is established
// lazily on the first call and must be closed by the caller.
func GetGRPCClient(_ context.Context, address string, connectionOptions *ConnectionOptions, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if address == "" {
		return nil, errors.NewInvalidArgumentError("address is required")
	}

	maxMessageSize := connectionOptions.MaxMessageSize
	if maxMessageSize == 0 {
		maxMessageSize = defaultMaxMessageSize
	}

	opts = append(opts,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(maxMessageSize),
			grpc.MaxCallRecvMsgSize(maxMessageSize),
		),
	)

	if connectionOptions.Tracing {
		opts = append(opts, grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
	}

	if connectionOptions.Prometheus {
		prometheusRegisterClientOnce.Do(func() {
			prometheusgolang.MustRegister(prometheusClientMetrics)
		})

		opts = append(opts, grpc.WithChainUnaryInterceptor(prometheusClientMetrics.UnaryClientInterceptor()))
	}

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, errors.NewServiceError("error dialing grpc service at %s", address, err)
	}

	return conn, nil
}
