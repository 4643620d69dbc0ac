package submission

import (
	"context"
	"net/http"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/services/submission/submission_api"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/atomledger/atomengine/util"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client submits atoms to a remote engine. Errors come back as coded *errors.Error
// values, so errors.Is works against ErrStateless, ErrProcedure and the other categories.
type Client struct {
	logger ulogger.Logger
	conn   *grpc.ClientConn
	client submission_api.SubmissionAPIClient
	codec  *model.Codec
}

func NewClient(ctx context.Context, logger ulogger.Logger, address string, codec *model.Codec, connectionOptions *util.ConnectionOptions, opts ...grpc.DialOption) (*Client, error) {
	conn, err := util.GetGRPCClient(ctx, address, connectionOptions, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		logger: logger,
		conn:   conn,
		client: submission_api.NewSubmissionAPIClient(conn),
		codec:  codec,
	}, nil
}

// SubmitAtom returns the atom id once the remote engine accepted and queued the atom.
func (c *Client) SubmitAtom(ctx context.Context, atom *model.Atom) (chainhash.Hash, error) {
	b, err := c.codec.EncodeAtom(atom)
	if err != nil {
		return chainhash.Hash{}, err
	}

	resp, err := c.client.SubmitAtom(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return chainhash.Hash{}, errors.UnwrapGRPC(err)
	}

	id, err := chainhash.NewHashFromStr(resp.GetValue())
	if err != nil {
		return chainhash.Hash{}, errors.NewProcessingError("invalid atom id %q", resp.GetValue(), err)
	}

	return *id, nil
}

func (c *Client) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	resp, err := c.client.HealthGRPC(ctx, &emptypb.Empty{})
	if err != nil {
		return http.StatusServiceUnavailable, "", errors.UnwrapGRPC(err)
	}

	return http.StatusOK, resp.GetValue(), nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
