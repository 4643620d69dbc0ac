// Package submission exposes the radix engine over gRPC.
package submission

import (
	"context"
	"net/http"

	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/engine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/services/submission/submission_api"
	"github.com/atomledger/atomengine/tracing"
	"github.com/atomledger/atomengine/ulogger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Submitter is the part of the engine the server needs.
type Submitter interface {
	Store(ctx context.Context, atom *model.Atom, listener engine.AtomEventListener) error
}

type HealthFunc func(ctx context.Context, checkLiveness bool) (int, string, error)

type Server struct {
	logger    ulogger.Logger
	submitter Submitter
	codec     *model.Codec
	health    HealthFunc
}

func New(logger ulogger.Logger, submitter Submitter, codec *model.Codec, health HealthFunc) *Server {
	initPrometheusMetrics()

	return &Server{
		logger:    logger,
		submitter: submitter,
		codec:     codec,
		health:    health,
	}
}

// Register adds the SubmissionAPI service to server.
func (s *Server) Register(server grpc.ServiceRegistrar) {
	submission_api.RegisterSubmissionAPIServer(server, s)
}

func (s *Server) SubmitAtom(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "SubmitAtom",
		tracing.WithHistogram(prometheusSubmitAtom),
	)
	defer deferFn()

	atom, err := s.codec.DecodeAtom(req.GetValue())
	if err != nil {
		prometheusSubmitRejected.WithLabelValues(errors.ERR_INVALID_ARGUMENT.String()).Inc()
		return nil, errors.WrapGRPC(errors.NewInvalidArgumentError("failed to decode atom", err))
	}

	if err = s.submitter.Store(ctx, atom, nil); err != nil {
		wrapped := toCodedError(err)
		prometheusSubmitRejected.WithLabelValues(wrapped.Code().String()).Inc()

		s.logger.Debugf("[SubmitAtom] atom %s refused: %v", atom.ID(), err)

		return nil, errors.WrapGRPC(wrapped)
	}

	return wrapperspb.String(atom.ID().String()), nil
}

func (s *Server) HealthGRPC(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	status, details, err := s.health(ctx, false)
	if err == nil && status != http.StatusOK {
		err = errors.NewServiceUnavailableError("unhealthy: %s", details)
	}

	if err != nil {
		return nil, errors.WrapGRPC(err)
	}

	return wrapperspb.String(details), nil
}

// toCodedError keeps the pointer and code of a constraint machine rejection in the
// message of its error category.
func toCodedError(err error) *errors.Error {
	var cmErr *constraintmachine.CMError
	if errors.As(err, &cmErr) {
		var category *errors.Error
		if errors.As(cmErr.Unwrap(), &category) {
			return errors.New(category.Code(), cmErr.Error())
		}
	}

	var coded *errors.Error
	if errors.As(err, &coded) {
		return coded
	}

	return errors.New(errors.ERR_ERROR, err.Error())
}
